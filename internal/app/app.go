// Package app is the terminal front end: a bubbletea model that turns key
// presses into session and queue intents and renders the queue panel above
// the player bar.
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/catalog"
	"github.com/llehouerou/alephplay/internal/history"
	"github.com/llehouerou/alephplay/internal/keymap"
	"github.com/llehouerou/alephplay/internal/playback"
	"github.com/llehouerou/alephplay/internal/ui/playerbar"
	"github.com/llehouerou/alephplay/internal/ui/queuepanel"
)

// Queue is the playlist context the UI browses.
type Queue interface {
	Tracks() ([]catalog.Track, int)
	JumpTo(index int)
}

// VolumeControl is the local output level. Optional.
type VolumeControl interface {
	SetVolume(level float64)
	Volume() float64
	SetMuted(muted bool)
	Muted() bool
}

// Store persists the queue and volume between runs. Optional.
type Store interface {
	SaveQueue(state history.QueueState) error
	SaveVolume(volume float64, muted bool) error
}

// Deps are the collaborators of the model.
type Deps struct {
	Session playback.Controller
	Queue   Queue
	Volume  VolumeControl
	Store   Store
	Keys    *keymap.Resolver
	// Reconnect forces a connection attempt. Optional.
	Reconnect   func(ctx context.Context) error
	DisplayMode playerbar.DisplayMode
	// Autostart plays the queue's current track once the first
	// connection is up.
	Autostart bool
	Logger    *zap.Logger
}

const volumeStep = 0.05

// Model is the root application model.
type Model struct {
	session   playback.Controller
	queue     Queue
	volume    VolumeControl
	store     Store
	keys      *keymap.Resolver
	reconnect func(ctx context.Context) error
	logger    *zap.Logger
	sub       *playback.Subscription
	autostart bool

	QueuePanel  queuepanel.Model
	DisplayMode playerbar.DisplayMode
	Snapshot    playback.Snapshot
	ShowHelp    bool
	Width       int
	Height      int
}

// New creates the model and subscribes it to the session.
func New(deps Deps) Model {
	keys := deps.Keys
	if keys == nil {
		keys = keymap.Default()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return Model{
		session:     deps.Session,
		queue:       deps.Queue,
		volume:      deps.Volume,
		store:       deps.Store,
		keys:        keys,
		reconnect:   deps.Reconnect,
		logger:      logger,
		sub:         deps.Session.Subscribe(),
		autostart:   deps.Autostart,
		QueuePanel:  queuepanel.New(deps.Queue),
		DisplayMode: deps.DisplayMode,
		Snapshot:    deps.Session.Snapshot(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.WatchSession(), TickCmd())
}
