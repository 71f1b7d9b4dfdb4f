package keymap

import (
	"slices"
	"testing"
)

func TestByContext(t *testing.T) {
	tests := []struct {
		context Context
		want    []Action
	}{
		{ContextGlobal, []Action{ActionQuit, ActionHelp, ActionReconnect}},
		{ContextPlayback, []Action{ActionPlayPause, ActionStop, ActionNextTrack, ActionPrevTrack}},
		{ContextQueue, []Action{ActionMoveUp, ActionMoveDown, ActionSelect}},
	}
	for _, tt := range tests {
		t.Run(string(tt.context), func(t *testing.T) {
			got := ByContext(Bindings, tt.context)
			for _, action := range tt.want {
				if !slices.ContainsFunc(got, func(b Binding) bool { return b.Action == action }) {
					t.Errorf("ByContext(%q) missing %q", tt.context, action)
				}
			}
		})
	}
	if got := ByContext(Bindings, "unknown"); len(got) != 0 {
		t.Errorf("ByContext(unknown) = %v, want empty", got)
	}
}

func TestBindingsHaveRequiredFields(t *testing.T) {
	for i, b := range Bindings {
		if b.Action == "" {
			t.Errorf("binding[%d] has empty Action", i)
		}
		if len(b.Keys) == 0 {
			t.Errorf("binding[%d] (%s) has no Keys", i, b.Action)
		}
		if b.Description == "" {
			t.Errorf("binding[%d] (%s) has empty Description", i, b.Action)
		}
		if !slices.Contains(Contexts, b.Context) {
			t.Errorf("binding[%d] (%s) has invalid context: %q", i, b.Action, b.Context)
		}
	}
}

func TestBindingsKeysAreUnique(t *testing.T) {
	seen := make(map[string]Action)
	for _, b := range Bindings {
		for _, k := range b.Keys {
			if prev, ok := seen[k]; ok {
				t.Errorf("key %q bound to both %q and %q", k, prev, b.Action)
			}
			seen[k] = b.Action
		}
	}
}
