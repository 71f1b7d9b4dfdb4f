package lastfm

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/bus"
	"github.com/llehouerou/alephplay/internal/history"
)

const (
	DefaultRetryInterval = 5 * time.Minute
	maxAttempts          = 10
	jobQueueSize         = 32
)

// PendingStore keeps scrobbles that failed to submit.
type PendingStore interface {
	AddPendingScrobble(s history.PendingScrobble) error
	PendingScrobbles() ([]history.PendingScrobble, error)
	DeletePendingScrobble(id int64) error
	UpdatePendingScrobbleAttempt(id int64, errMsg string) error
}

// Scrobbler follows the bus: now-playing changes become "now playing"
// updates, finished tracks past the threshold become scrobbles. API calls
// run on the scrobbler's own goroutine, never on the publisher's.
type Scrobbler struct {
	api           API
	store         PendingStore // optional
	logger        *zap.Logger
	retryInterval time.Duration

	jobs chan func()
	subs bus.Group

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewScrobbler creates a scrobbler. store may be nil, in which case failed
// scrobbles are dropped.
func NewScrobbler(api API, store PendingStore, logger *zap.Logger) *Scrobbler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scrobbler{
		api:           api,
		store:         store,
		logger:        logger,
		retryInterval: DefaultRetryInterval,
		jobs:          make(chan func(), jobQueueSize),
	}
}

// Attach subscribes to b.
func (s *Scrobbler) Attach(b *bus.Bus) {
	s.subs.Add(b.NowPlaying.Subscribe(func(e bus.NowPlaying) {
		track := FromTrack(e.Track, time.Time{})
		if !track.Valid() {
			return
		}
		s.enqueue(func() { s.nowPlaying(track) })
	}))
	s.subs.Add(b.TrackFinished.Subscribe(func(e bus.TrackFinished) {
		if !ShouldScrobble(e.Track.Duration, e.Listened) {
			return
		}
		started := e.StartedAt
		if started.IsZero() {
			started = e.FinishedAt.Add(-e.Listened)
		}
		track := FromTrack(e.Track, started)
		if !track.Valid() {
			return
		}
		s.enqueue(func() { s.scrobble(track) })
	}))
}

// Start runs the worker until ctx ends or Close is called. Pending
// scrobbles are retried at start and every retry interval.
func (s *Scrobbler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

// Close detaches from the bus and stops the worker.
func (s *Scrobbler) Close() {
	s.subs.Close()
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *Scrobbler) enqueue(job func()) {
	select {
	case s.jobs <- job:
	default:
		s.logger.Warn("scrobble queue full, dropping job")
	}
}

func (s *Scrobbler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.RetryPending()
	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			job()
		case <-ticker.C:
			s.RetryPending()
		}
	}
}

func (s *Scrobbler) nowPlaying(track ScrobbleTrack) {
	if err := s.api.UpdateNowPlaying(track); err != nil && !errors.Is(err, ErrNotAuthenticated) {
		s.logger.Debug("now playing update failed", zap.String("track", track.Track), zap.Error(err))
	}
}

func (s *Scrobbler) scrobble(track ScrobbleTrack) {
	err := s.api.Scrobble(track)
	if err == nil {
		s.logger.Info("scrobbled", zap.String("artist", track.Artist), zap.String("track", track.Track))
		return
	}
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		s.logger.Warn("scrobble skipped, Last.fm session lost", zap.Error(err))
		return
	case errors.Is(err, ErrRejected):
		s.logger.Warn("scrobble rejected", zap.String("track", track.Track), zap.Error(err))
		return
	}
	s.logger.Warn("scrobble failed, queued for retry", zap.String("track", track.Track), zap.Error(err))
	if s.store == nil {
		return
	}
	p := track.pending()
	p.LastError = err.Error()
	if err := s.store.AddPendingScrobble(p); err != nil {
		s.logger.Error("queue scrobble failed", zap.Error(err))
	}
}

// RetryPending resubmits queued scrobbles. It returns how many went through
// and how many failed again.
func (s *Scrobbler) RetryPending() (succeeded, failed int) {
	if s.store == nil {
		return 0, 0
	}
	pending, err := s.store.PendingScrobbles()
	if err != nil {
		s.logger.Warn("load pending scrobbles failed", zap.Error(err))
		return 0, 0
	}

	for i := range pending {
		p := &pending[i]
		if p.Attempts >= maxAttempts {
			continue
		}
		err := s.api.Scrobble(fromPending(*p))
		if errors.Is(err, ErrNotAuthenticated) {
			return succeeded, failed
		}
		switch {
		case errors.Is(err, ErrRejected):
			failed++
			_ = s.store.DeletePendingScrobble(p.ID)
		case err != nil:
			failed++
			_ = s.store.UpdatePendingScrobbleAttempt(p.ID, err.Error())
		default:
			succeeded++
			_ = s.store.DeletePendingScrobble(p.ID)
		}
	}
	if succeeded+failed > 0 {
		s.logger.Info("retried pending scrobbles",
			zap.Int("succeeded", succeeded), zap.Int("failed", failed))
	}
	return succeeded, failed
}
