package mpris

import (
	"testing"
	"time"

	"github.com/llehouerou/alephplay/internal/catalog"
	"github.com/llehouerou/alephplay/internal/playback"
)

func TestDiff(t *testing.T) {
	loading := playback.Snapshot{Playback: playback.StateLoading, TrackID: "t1"}
	playing := loading
	playing.Playback = playback.StatePlaying
	playing.Track = catalog.Track{ID: "t1", Title: "One"}
	playing.Duration = 3 * time.Minute
	paused := playing
	paused.Playback = playback.StatePaused
	next := playback.Snapshot{Playback: playback.StateLoading, TrackID: "t2"}

	tests := []struct {
		name string
		prev playback.Snapshot
		cur  playback.Snapshot
		want changed
	}{
		{"idle to loading", playback.Snapshot{}, loading, changed{metadata: true, status: true}},
		{"song data arrives", loading, playing, changed{metadata: true}},
		{"pause", playing, paused, changed{status: true}},
		{"position only", playing, playing, changed{}},
		{"track switch keeps status", playing, next, changed{metadata: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := diff(playback.StateChange{Previous: tt.prev, Current: tt.cur})
			if got != tt.want {
				t.Errorf("diff() = %+v, want %+v", got, tt.want)
			}
			if got.any() != (tt.want != changed{}) {
				t.Errorf("any() = %v", got.any())
			}
		})
	}
}
