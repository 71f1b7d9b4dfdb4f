package keymap

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Resolver maps key strings to actions.
type Resolver struct {
	bindings []Binding
	byKey    map[string]Action
}

// NewResolver indexes bindings. A key bound twice resolves to its last
// binding.
func NewResolver(bindings []Binding) *Resolver {
	r := &Resolver{bindings: bindings, byKey: make(map[string]Action)}
	for _, b := range bindings {
		for _, key := range b.Keys {
			r.byKey[key] = b.Action
		}
	}
	return r
}

// Default returns a resolver over Bindings.
func Default() *Resolver {
	return NewResolver(Bindings)
}

// Resolve returns the action bound to key, or "" when unbound.
func (r *Resolver) Resolve(key string) Action {
	return r.byKey[key]
}

// KeysFor returns the keys that still resolve to action, in binding order.
func (r *Resolver) KeysFor(action Action) []string {
	var keys []string
	for _, b := range r.bindings {
		if b.Action != action {
			continue
		}
		for _, k := range b.Keys {
			if r.byKey[k] == action && !slices.Contains(keys, k) {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// Bindings returns the bindings the resolver was built from.
func (r *Resolver) Bindings() []Binding {
	return r.bindings
}

// Override returns a copy of bindings where each action named in custom
// gets the listed keys instead of its defaults. Unknown action names are
// an error.
func Override(bindings []Binding, custom map[string][]string) ([]Binding, error) {
	known := make(map[Action]bool, len(bindings))
	for _, b := range bindings {
		known[b.Action] = true
	}
	var unknown []string
	for name := range custom {
		if !known[Action(name)] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown key binding actions: %s", strings.Join(unknown, ", "))
	}

	out := slices.Clone(bindings)
	for i, b := range out {
		if keys, ok := custom[string(b.Action)]; ok && len(keys) > 0 {
			out[i].Keys = slices.Clone(keys)
		}
	}
	return out, nil
}
