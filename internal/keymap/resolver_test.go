package keymap

import (
	"slices"
	"testing"
)

func TestResolver_Resolve(t *testing.T) {
	r := Default()

	tests := []struct {
		key  string
		want Action
	}{
		{"q", ActionQuit},
		{"ctrl+c", ActionQuit},
		{" ", ActionPlayPause},
		{"s", ActionStop},
		{"n", ActionNextTrack},
		{"p", ActionPrevTrack},
		{"+", ActionVolumeUp},
		{"enter", ActionSelect},
		{"unknown", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := r.Resolve(tt.key); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestResolver_KeysFor(t *testing.T) {
	r := NewResolver([]Binding{
		{ActionStop, []string{"s", "x"}, "Stop", ContextPlayback},
		{ActionStop, []string{"s"}, "Stop", ContextQueue},
		{ActionQuit, []string{"x"}, "Quit", ContextGlobal},
	})

	if keys := r.KeysFor(ActionStop); !slices.Equal(keys, []string{"s"}) {
		t.Errorf("KeysFor(stop) = %v, want [s]", keys)
	}
	if keys := r.KeysFor(ActionQuit); !slices.Equal(keys, []string{"x"}) {
		t.Errorf("KeysFor(quit) = %v, want [x]", keys)
	}
	if keys := r.KeysFor(ActionHelp); keys != nil {
		t.Errorf("KeysFor(help) = %v, want nil", keys)
	}
}

func TestResolver_Empty(t *testing.T) {
	r := NewResolver(nil)

	if action := r.Resolve("q"); action != "" {
		t.Errorf("Resolve on empty resolver = %q, want empty", action)
	}
}

func TestOverride(t *testing.T) {
	custom, err := Override(Bindings, map[string][]string{
		"stop":       {"x"},
		"next_track": {},
	})
	if err != nil {
		t.Fatalf("Override() error: %v", err)
	}
	r := NewResolver(custom)

	if got := r.Resolve("x"); got != ActionStop {
		t.Errorf("Resolve(x) = %q, want stop", got)
	}
	if got := r.Resolve("s"); got != "" {
		t.Errorf("Resolve(s) = %q, want unbound", got)
	}
	if got := r.Resolve("n"); got != ActionNextTrack {
		t.Errorf("empty override should keep defaults, Resolve(n) = %q", got)
	}
	if !slices.Equal(Bindings[4].Keys, []string{"s"}) {
		t.Errorf("Override mutated the defaults: %v", Bindings[4].Keys)
	}
}

func TestOverride_UnknownAction(t *testing.T) {
	_, err := Override(Bindings, map[string][]string{"shuffle": {"z"}, "seek": {"l"}})
	if err == nil {
		t.Fatal("Override() should reject unknown actions")
	}
	if got := err.Error(); got != "unknown key binding actions: seek, shuffle" {
		t.Errorf("error = %q", got)
	}
}
