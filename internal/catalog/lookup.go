package catalog

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when the catalog has no track with the given id.
var ErrNotFound = errors.New("track not found")

// Lookup resolves a track by id.
type Lookup interface {
	Lookup(ctx context.Context, id string) (Track, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, id string) (Track, error)

func (f LookupFunc) Lookup(ctx context.Context, id string) (Track, error) {
	return f(ctx, id)
}

// Backfill fills the empty fields of t from the catalog. When the lookup
// fails the original track is returned together with the error, so callers
// can still publish what they have.
func Backfill(ctx context.Context, l Lookup, t Track) (Track, error) {
	if l == nil || t.Complete() || t.ID == "" {
		return t, nil
	}
	found, err := l.Lookup(ctx, t.ID)
	if err != nil {
		return t, fmt.Errorf("backfill %s: %w", t.ID, err)
	}
	return t.Merge(found), nil
}
