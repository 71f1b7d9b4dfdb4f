//go:build !windows

package stderr

import (
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCapture_ForwardsLines(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c, err := Start(zap.New(core))
	if err != nil {
		t.Skipf("stderr capture unavailable: %v", err)
	}

	_, _ = os.Stderr.WriteString("ALSA lib pcm.c: underrun\n\n   \n")
	c.Stop()
	c.Stop()

	entries := logs.FilterMessage("native stderr").All()
	if len(entries) != 1 {
		t.Fatalf("captured %d lines, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["line"]; got != "ALSA lib pcm.c: underrun" {
		t.Errorf("line = %q, want %q", got, "ALSA lib pcm.c: underrun")
	}
}
