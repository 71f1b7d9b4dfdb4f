package player

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"go.uber.org/zap"
)

const DefaultPositionInterval = 250 * time.Millisecond

// Options configures a Player.
type Options struct {
	Client           *http.Client
	Output           Output
	PositionInterval time.Duration
	Logger           *zap.Logger
}

// Player streams a remote source through beep's speaker.
//
// Each Load starts a new generation. Work started for an older generation
// (the fetch, the position ticker, the end-of-stream callback) checks the
// generation before touching state or emitting, so nothing from a previous
// source leaks out after Load returns.
type Player struct {
	open     opener
	decode   decoder
	output   Output
	interval time.Duration
	logger   *zap.Logger

	mu          sync.Mutex
	state       State
	source      string
	gen         uint64
	pendingPlay bool
	cancelLoad  context.CancelFunc
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	volumeLevel float64
	muted       bool
	stopTicker  chan struct{}
	onEvent     func(Event)
}

func New(opts Options) *Player {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Output == nil {
		opts.Output = &speakerOutput{}
	}
	if opts.PositionInterval <= 0 {
		opts.PositionInterval = DefaultPositionInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{
		open:        httpOpener(opts.Client),
		decode:      decodeSource,
		output:      opts.Output,
		interval:    opts.PositionInterval,
		logger:      logger,
		state:       Stopped,
		volumeLevel: 1,
	}
}

// Load settles the current source and starts fetching a new one. It
// returns immediately; EventReady or EventError follows.
func (p *Player) Load(source string) error {
	if source == "" {
		return errors.New("empty source")
	}

	p.mu.Lock()
	p.settleLocked()
	p.gen++
	gen := p.gen
	p.source = source
	p.state = Loading
	p.pendingPlay = false
	ctx, cancel := context.WithCancel(context.Background())
	p.cancelLoad = cancel
	p.mu.Unlock()

	p.logger.Debug("loading source", zap.String("source", source))
	go p.load(ctx, gen, source)
	return nil
}

func (p *Player) load(ctx context.Context, gen uint64, source string) {
	data, kind, err := p.open(ctx, source)
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	if err == nil {
		streamer, format, err = p.decode(kind, data)
	}
	if err == nil {
		err = p.output.Init(format.SampleRate)
	}

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		if streamer != nil {
			streamer.Close()
		}
		return
	}
	p.cancelLoad = nil
	if err != nil {
		p.state = Stopped
		p.pendingPlay = false
		fn := p.onEvent
		p.mu.Unlock()
		p.logger.Warn("load failed", zap.String("source", source), zap.Error(err))
		emit(fn, Event{Kind: EventError, Source: source, Err: err})
		return
	}

	p.streamer = streamer
	p.format = format
	var playStreamer beep.Streamer = streamer
	if rate := p.output.Rate(); rate != 0 && format.SampleRate != rate {
		playStreamer = beep.Resample(4, format.SampleRate, rate, streamer)
	}
	p.ctrl = &beep.Ctrl{Streamer: playStreamer, Paused: true}
	p.volume = &effects.Volume{
		Streamer: p.ctrl,
		Base:     2,
		Volume:   p.levelToVolume(p.volumeLevel),
		Silent:   p.muted,
	}
	p.output.Play(beep.Seq(p.volume, beep.Callback(func() {
		// Runs on the speaker goroutine with the speaker locked.
		go p.finished(gen)
	})))

	if p.pendingPlay {
		p.startLocked(gen)
	} else {
		p.state = Paused
	}
	p.pendingPlay = false
	duration := format.SampleRate.D(streamer.Len())
	fn := p.onEvent
	p.mu.Unlock()

	emit(fn, Event{Kind: EventReady, Source: source, Duration: duration})
}

func (p *Player) finished(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.streamer == nil {
		p.mu.Unlock()
		return
	}
	source := p.source
	duration := p.format.SampleRate.D(p.streamer.Len())
	p.settleLocked()
	p.gen++
	p.state = Stopped
	fn := p.onEvent
	p.mu.Unlock()

	emit(fn, Event{Kind: EventEnded, Source: source, Position: duration, Duration: duration})
}

// settleLocked stops position reporting and releases the current source.
func (p *Player) settleLocked() {
	p.stopTickerLocked()
	if p.cancelLoad != nil {
		p.cancelLoad()
		p.cancelLoad = nil
	}
	if p.streamer != nil {
		p.output.Clear()
		p.streamer.Close()
		p.streamer = nil
	}
	p.ctrl = nil
	p.volume = nil
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) Source() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}

// OnEvent sets the event receiver. It is called from driver goroutines.
func (p *Player) OnEvent(fn func(Event)) {
	p.mu.Lock()
	p.onEvent = fn
	p.mu.Unlock()
}
