package devserver

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/llehouerou/alephplay/internal/catalog"
)

// Catalog is an in-memory track store.
type Catalog struct {
	mu     sync.RWMutex
	tracks map[string]catalog.Track
}

// NewCatalog creates a catalog holding tracks.
func NewCatalog(tracks ...catalog.Track) *Catalog {
	c := &Catalog{tracks: make(map[string]catalog.Track)}
	c.Add(tracks...)
	return c
}

// Add inserts or replaces tracks.
func (c *Catalog) Add(tracks ...catalog.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tracks {
		c.tracks[t.ID] = t
	}
}

// Get returns the track with id.
func (c *Catalog) Get(id string) (catalog.Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tracks[id]
	return t, ok
}

// List returns all tracks ordered by id.
func (c *Catalog) List() []catalog.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]catalog.Track, 0, len(c.tracks))
	for _, t := range c.tracks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var mediaExtensions = map[string]bool{".mp3": true, ".flac": true}

// ScanDir builds tracks from the audio files in dir. Each file is served
// under baseURL + "/media/" + its name and gets its base name as id.
func ScanDir(dir, baseURL string) ([]catalog.Track, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var tracks []catalog.Track
	for _, e := range entries {
		if e.IsDir() || !mediaExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		artist, title := splitName(name)
		tracks = append(tracks, catalog.Track{
			ID:       name,
			Title:    title,
			Artist:   artist,
			AudioURL: strings.TrimSuffix(baseURL, "/") + "/media/" + e.Name(),
		})
	}
	return tracks, nil
}

// splitName reads "Artist - Title" file names.
func splitName(name string) (artist, title string) {
	if a, t, ok := strings.Cut(name, " - "); ok {
		return strings.TrimSpace(a), strings.TrimSpace(t)
	}
	return "", name
}

// DemoTracks is a small catalog for trying the client without media files.
// One entry has no audio so the unavailable-audio path can be exercised.
func DemoTracks(baseURL string) []catalog.Track {
	base := strings.TrimSuffix(baseURL, "/")
	return []catalog.Track{
		{ID: "demo-1", Title: "Primera", Artist: "Aleph", Album: "Demo", AudioURL: base + "/media/demo-1.mp3"},
		{ID: "demo-2", Title: "Segunda", Artist: "Aleph", Album: "Demo", AudioURL: base + "/media/demo-2.mp3"},
		{ID: "demo-silent", Title: "Sin audio", Artist: "Aleph", Album: "Demo"},
	}
}
