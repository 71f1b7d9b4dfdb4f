package notify

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/bus"
	"github.com/llehouerou/alephplay/internal/catalog"
)

// Options selects which bus events become notifications.
type Options struct {
	NowPlaying bool
	Errors     bool
	Timeout    int32
}

// Watcher turns bus events into desktop notifications. Now-playing
// notifications replace each other instead of piling up.
type Watcher struct {
	notifier Notifier
	opts     Options
	logger   *zap.Logger

	mu           sync.Mutex
	nowPlayingID uint32
	subs         bus.Group
}

// NewWatcher creates a detached watcher.
func NewWatcher(n Notifier, opts Options, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{notifier: n, opts: opts, logger: logger}
}

// Attach subscribes to b.
func (w *Watcher) Attach(b *bus.Bus) {
	if w.opts.NowPlaying {
		w.subs.Add(b.NowPlaying.Subscribe(func(e bus.NowPlaying) {
			w.nowPlaying(e.Track)
		}))
	}
	if w.opts.Errors {
		w.subs.Add(b.TrackFinished.Subscribe(func(e bus.TrackFinished) {
			if e.Reason == bus.ReasonError {
				w.failed(e.Track)
			}
		}))
	}
}

// Detach drops the bus subscriptions.
func (w *Watcher) Detach() {
	w.subs.Close()
}

func (w *Watcher) nowPlaying(t catalog.Track) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, err := w.notifier.Notify(Notification{
		Title:      t.DisplayTitle(),
		Body:       trackBody(t),
		Icon:       t.CoverURL,
		Timeout:    w.opts.Timeout,
		ReplacesID: w.nowPlayingID,
		Urgency:    UrgencyLow,
		Transient:  true,
	})
	if err != nil {
		w.logger.Debug("now playing notification", zap.Error(err))
		return
	}
	w.nowPlayingID = id
}

func (w *Watcher) failed(t catalog.Track) {
	_, err := w.notifier.Notify(Notification{
		Title:   "Playback failed",
		Body:    t.DisplayTitle(),
		Timeout: w.opts.Timeout,
		Urgency: UrgencyNormal,
	})
	if err != nil {
		w.logger.Debug("error notification", zap.Error(err))
	}
}

// trackBody renders "Artist · Album", skipping empty parts.
func trackBody(t catalog.Track) string {
	var parts []string
	for _, p := range []string{t.Artist, t.Album} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " · ")
}
