package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/llehouerou/alephplay/internal/bus"
	"github.com/llehouerou/alephplay/internal/catalog"
)

// setupLedger opens a ledger in a temporary directory.
func setupLedger(t *testing.T) *Ledger {
	t.Helper()

	l, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func fixedClock(l *Ledger, at time.Time) {
	l.now = func() time.Time { return at }
}

func TestOpen_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	l, err := Open(filepath.Join(dir, "h.db"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer l.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.db")

	l, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := l.Record(Listen{TrackID: "s1", Title: "One", Listened: time.Second, Reason: bus.ReasonEnded}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	l.Close()

	l, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer l.Close()

	recent, err := l.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("len(Recent) = %d, want 1", len(recent))
	}
}

func TestRecordAndRecent(t *testing.T) {
	l := setupLedger(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	listens := []Listen{
		{TrackID: "s1", Title: "One", Artist: "A", Listened: 90 * time.Second, Reason: bus.ReasonEnded, FinishedAt: base},
		{TrackID: "s2", Title: "Two", Listened: 5 * time.Second, Reason: bus.ReasonSuperseded, FinishedAt: base.Add(time.Minute)},
		{TrackID: "s1", Title: "One", Artist: "A", Album: "Al", Listened: 30 * time.Second, Reason: bus.ReasonStopped,
			StartedAt: base.Add(90 * time.Second), FinishedAt: base.Add(2 * time.Minute)},
	}
	for _, ls := range listens {
		if _, err := l.Record(ls); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	recent, err := l.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("len(Recent) = %d, want 2", len(recent))
	}

	got := recent[0]
	if got.TrackID != "s1" || got.Reason != bus.ReasonStopped {
		t.Errorf("newest = %s/%s, want s1/stopped", got.TrackID, got.Reason)
	}
	if got.Listened != 30*time.Second {
		t.Errorf("Listened = %v, want 30s", got.Listened)
	}
	if got.Album != "Al" {
		t.Errorf("Album = %q, want Al", got.Album)
	}
	if !got.StartedAt.Equal(base.Add(90 * time.Second)) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, base.Add(90*time.Second))
	}
	if recent[1].TrackID != "s2" {
		t.Errorf("second = %s, want s2", recent[1].TrackID)
	}
	if !recent[1].StartedAt.IsZero() {
		t.Errorf("StartedAt = %v, want zero", recent[1].StartedAt)
	}
}

func TestRecord_DefaultsFinishedAt(t *testing.T) {
	l := setupLedger(t)
	now := time.Date(2026, 5, 5, 10, 0, 0, 0, time.UTC)
	fixedClock(l, now)

	if _, err := l.Record(Listen{TrackID: "s1", Title: "One", Reason: bus.ReasonEnded}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	recent, _ := l.Recent(1)
	if len(recent) != 1 || !recent[0].FinishedAt.Equal(now) {
		t.Errorf("FinishedAt = %v, want %v", recent, now)
	}
}

func TestTotalListened(t *testing.T) {
	l := setupLedger(t)

	for _, d := range []time.Duration{time.Minute, 30 * time.Second} {
		if _, err := l.Record(Listen{TrackID: "s1", Title: "One", Listened: d, Reason: bus.ReasonEnded}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	tests := []struct {
		id   string
		want time.Duration
	}{
		{"s1", 90 * time.Second},
		{"unknown", 0},
	}
	for _, tt := range tests {
		got, err := l.TotalListened(tt.id)
		if err != nil {
			t.Fatalf("TotalListened(%q) failed: %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("TotalListened(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestAttach_RecordsFinishedTracks(t *testing.T) {
	l := setupLedger(t)
	b := bus.New()
	l.Attach(b)

	b.TrackFinished.Publish(bus.TrackFinished{
		Track:      catalog.Track{ID: "s1", Title: "One", Artist: "A"},
		Listened:   42 * time.Second,
		Reason:     bus.ReasonEnded,
		FinishedAt: time.Now(),
	})
	b.TrackFinished.Publish(bus.TrackFinished{Reason: bus.ReasonClosed})

	recent, err := l.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("len(Recent) = %d, want 1", len(recent))
	}
	if recent[0].Listened != 42*time.Second || recent[0].Artist != "A" {
		t.Errorf("recorded = %+v", recent[0])
	}

	l.Detach()
	if b.TrackFinished.Len() != 0 {
		t.Errorf("subscribers after Detach = %d, want 0", b.TrackFinished.Len())
	}
}

func TestListenFromEvent_UntitledTrack(t *testing.T) {
	ls := ListenFromEvent(bus.TrackFinished{Track: catalog.Track{ID: "s1"}})
	if ls.Title != "Unknown Track" {
		t.Errorf("Title = %q, want placeholder", ls.Title)
	}
}

func TestQueue_Empty(t *testing.T) {
	l := setupLedger(t)

	q, err := l.Queue()
	if err != nil {
		t.Fatalf("Queue failed: %v", err)
	}
	if q.CurrentIndex != -1 || len(q.Tracks) != 0 {
		t.Errorf("Queue = %+v, want empty", q)
	}
}

func TestSaveAndQueue(t *testing.T) {
	l := setupLedger(t)

	state := QueueState{
		CurrentIndex: 1,
		Tracks: []catalog.Track{
			{ID: "s1", Title: "One", Artist: "A", Duration: 3 * time.Minute, AudioURL: "http://x/1.mp3"},
			{ID: "s2", Title: "Two", CoverURL: "http://img/2.jpg"},
		},
	}
	if err := l.SaveQueue(state); err != nil {
		t.Fatalf("SaveQueue failed: %v", err)
	}

	got, err := l.Queue()
	if err != nil {
		t.Fatalf("Queue failed: %v", err)
	}
	if got.CurrentIndex != 1 {
		t.Errorf("CurrentIndex = %d, want 1", got.CurrentIndex)
	}
	if len(got.Tracks) != 2 {
		t.Fatalf("len(Tracks) = %d, want 2", len(got.Tracks))
	}
	if got.Tracks[0].Duration != 3*time.Minute || got.Tracks[0].Artist != "A" {
		t.Errorf("Tracks[0] = %+v", got.Tracks[0])
	}
	if got.Tracks[0].AudioURL != "" {
		t.Errorf("AudioURL = %q, want not stored", got.Tracks[0].AudioURL)
	}
	if got.Tracks[1].CoverURL != "http://img/2.jpg" {
		t.Errorf("Tracks[1].CoverURL = %q", got.Tracks[1].CoverURL)
	}

	// Saving again replaces.
	if err := l.SaveQueue(QueueState{CurrentIndex: 0, Tracks: []catalog.Track{{ID: "s3", Title: "Three"}}}); err != nil {
		t.Fatalf("SaveQueue failed: %v", err)
	}
	got, _ = l.Queue()
	if len(got.Tracks) != 1 || got.Tracks[0].ID != "s3" {
		t.Errorf("Tracks = %+v, want [s3]", got.Tracks)
	}
}

func TestQueue_ClampsIndex(t *testing.T) {
	l := setupLedger(t)

	if err := l.SaveQueue(QueueState{CurrentIndex: 5, Tracks: []catalog.Track{{ID: "s1", Title: "One"}}}); err != nil {
		t.Fatalf("SaveQueue failed: %v", err)
	}
	got, _ := l.Queue()
	if got.CurrentIndex != 0 {
		t.Errorf("CurrentIndex = %d, want 0", got.CurrentIndex)
	}
}

func TestVolume(t *testing.T) {
	l := setupLedger(t)

	v, err := l.Volume()
	if err != nil {
		t.Fatalf("Volume failed: %v", err)
	}
	if v.Volume != 1.0 || v.Muted {
		t.Errorf("default volume = %+v, want 1.0 unmuted", v)
	}

	if err := l.SaveVolume(0.4, true); err != nil {
		t.Fatalf("SaveVolume failed: %v", err)
	}
	v, _ = l.Volume()
	if v.Volume != 0.4 || !v.Muted {
		t.Errorf("volume = %+v, want 0.4 muted", v)
	}

	// Saving the queue keeps the volume.
	if err := l.SaveQueue(QueueState{CurrentIndex: -1}); err != nil {
		t.Fatalf("SaveQueue failed: %v", err)
	}
	v, _ = l.Volume()
	if v.Volume != 0.4 {
		t.Errorf("volume after SaveQueue = %v, want 0.4", v.Volume)
	}
}

func TestLastfmSession(t *testing.T) {
	l := setupLedger(t)

	s, err := l.LastfmSession()
	if err != nil {
		t.Fatalf("LastfmSession failed: %v", err)
	}
	if s != nil {
		t.Errorf("session = %+v, want nil", s)
	}

	if err := l.SaveLastfmSession("user", "key1"); err != nil {
		t.Fatalf("SaveLastfmSession failed: %v", err)
	}
	if err := l.SaveLastfmSession("user", "key2"); err != nil {
		t.Fatalf("SaveLastfmSession failed: %v", err)
	}
	s, _ = l.LastfmSession()
	if s == nil || s.SessionKey != "key2" || s.Username != "user" {
		t.Errorf("session = %+v, want user/key2", s)
	}

	if err := l.DeleteLastfmSession(); err != nil {
		t.Fatalf("DeleteLastfmSession failed: %v", err)
	}
	s, _ = l.LastfmSession()
	if s != nil {
		t.Errorf("session after delete = %+v, want nil", s)
	}
}

func TestPendingScrobbles(t *testing.T) {
	l := setupLedger(t)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fixedClock(l, now.Add(-48*time.Hour))

	if err := l.AddPendingScrobble(PendingScrobble{Artist: "Old", Track: "T", DurationSecs: 200, Timestamp: now}); err != nil {
		t.Fatalf("AddPendingScrobble failed: %v", err)
	}
	fixedClock(l, now)
	if err := l.AddPendingScrobble(PendingScrobble{Artist: "New", Track: "T", Album: "Al", DurationSecs: 180, Timestamp: now}); err != nil {
		t.Fatalf("AddPendingScrobble failed: %v", err)
	}

	pending, err := l.PendingScrobbles()
	if err != nil {
		t.Fatalf("PendingScrobbles failed: %v", err)
	}
	if len(pending) != 2 || pending[0].Artist != "Old" {
		t.Fatalf("pending = %+v, want Old first", pending)
	}
	if !pending[1].Timestamp.Equal(now) || pending[1].Album != "Al" {
		t.Errorf("pending[1] = %+v", pending[1])
	}

	if err := l.UpdatePendingScrobbleAttempt(pending[1].ID, "boom"); err != nil {
		t.Fatalf("UpdatePendingScrobbleAttempt failed: %v", err)
	}
	if err := l.DeleteOldPendingScrobbles(24 * time.Hour); err != nil {
		t.Fatalf("DeleteOldPendingScrobbles failed: %v", err)
	}

	pending, _ = l.PendingScrobbles()
	if len(pending) != 1 {
		t.Fatalf("len(pending) = %d, want 1", len(pending))
	}
	if pending[0].Attempts != 1 || pending[0].LastError != "boom" {
		t.Errorf("pending[0] = %+v, want 1 attempt with error", pending[0])
	}

	if err := l.DeletePendingScrobble(pending[0].ID); err != nil {
		t.Fatalf("DeletePendingScrobble failed: %v", err)
	}
	pending, _ = l.PendingScrobbles()
	if len(pending) != 0 {
		t.Errorf("len(pending) = %d, want 0", len(pending))
	}
}
