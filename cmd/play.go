package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/app"
	"github.com/llehouerou/alephplay/internal/bus"
	"github.com/llehouerou/alephplay/internal/catalog"
	"github.com/llehouerou/alephplay/internal/config"
	"github.com/llehouerou/alephplay/internal/history"
	"github.com/llehouerou/alephplay/internal/icons"
	"github.com/llehouerou/alephplay/internal/keymap"
	"github.com/llehouerou/alephplay/internal/lastfm"
	"github.com/llehouerou/alephplay/internal/logger"
	"github.com/llehouerou/alephplay/internal/mpris"
	"github.com/llehouerou/alephplay/internal/notify"
	"github.com/llehouerou/alephplay/internal/playback"
	"github.com/llehouerou/alephplay/internal/player"
	"github.com/llehouerou/alephplay/internal/playlist"
	"github.com/llehouerou/alephplay/internal/stderr"
	"github.com/llehouerou/alephplay/internal/transport"
	"github.com/llehouerou/alephplay/internal/ui/playerbar"
	"github.com/llehouerou/alephplay/internal/ui/styles"
)

const prefetchTimeout = 3 * time.Second

var playExpanded bool

var playCmd = &cobra.Command{
	Use:   "play [songId...]",
	Short: "Open the player, optionally queueing the given songs",
	Long: `Open the terminal player. Song ids given as arguments replace the queue
and the first one starts as soon as the streaming service is reachable.
Without arguments the queue of the last run is restored.`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVarP(&playExpanded, "expanded", "e", false, "start with the expanded player bar")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Stream.URL == "" {
		return fmt.Errorf("no streaming endpoint configured: set stream.url or ALEPH_STREAM_URL")
	}
	id, err := identityFromConfig(cfg)
	if err != nil {
		return err
	}
	bindings, err := keymap.Override(keymap.Bindings, cfg.UI.Keys)
	if err != nil {
		return fmt.Errorf("ui.keys: %w", err)
	}
	if err := setupLogger(cfg, nil); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	icons.Init(cfg.IconStyle())
	if cfg.UI.Theme != "" && !styles.Init(cfg.UI.Theme) {
		logger.L().Warn("unknown ui.theme, using default", zap.String("theme", cfg.UI.Theme))
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	log := logger.L()

	events := bus.NewWithLogger(log.Named("bus"))
	lookup, closeLookup := buildLookup(ctx, cfg, log)
	defer closeLookup()

	var ledger *history.Ledger
	if cfg.HistoryEnabled() {
		ledger, err = history.Open(cfg.History.Path, log.Named("history"))
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer ledger.Close()
		ledger.Attach(events)
		defer ledger.Detach()
	}

	nav := playlist.NewNavigator(playlist.NewQueue(), cfg.Autoplay(), log.Named("queue"))
	nav.Attach(events)
	defer nav.Detach()
	autostart := restoreQueue(ctx, nav, ledger, lookup, args, log)

	if capture, err := stderr.Start(log.Named("stderr")); err != nil {
		log.Warn("stderr capture unavailable", zap.Error(err))
	} else {
		defer capture.Stop()
	}

	out := player.New(player.Options{
		PositionInterval: cfg.PositionInterval(),
		Logger:           log.Named("player"),
	})
	restoreVolume(out, ledger, log)

	sc := cfg.GetStreamConfig()
	conn := transport.New(transport.Options{
		URL:            sc.URL,
		UserParam:      sc.UserParam,
		ReconnectDelay: sc.ReconnectDelay,
		Dialer:         transport.WebsocketDialer{HandshakeTimeout: sc.HandshakeTimeout},
		Identity:       id,
		Logger:         log.Named("transport"),
	})
	defer conn.Close()

	session := playback.New(playback.Deps{
		Transport:    conn,
		Player:       out,
		Bus:          events,
		Catalog:      lookup,
		Logger:       log.Named("session"),
		InitialDelay: sc.InitialDelay,
	})

	if scrobbler := startScrobbler(ctx, cfg, ledger, log); scrobbler != nil {
		scrobbler.Attach(events)
		defer scrobbler.Close()
	}
	if watcher := startNotifications(cfg, log); watcher != nil {
		watcher.Attach(events)
		defer watcher.Detach()
	}
	if cfg.MPRISEnabled() {
		adapter, err := mpris.New(session, nav, out, log.Named("mpris"))
		if err != nil {
			log.Warn("mpris unavailable", zap.Error(err))
		} else {
			defer adapter.Close()
		}
	}

	if err := session.Open(ctx); err != nil {
		return err
	}

	mode := playerbar.ModeCompact
	if playExpanded {
		mode = playerbar.ModeExpanded
	}
	deps := app.Deps{
		Session:     session,
		Queue:       nav,
		Volume:      out,
		Keys:        keymap.NewResolver(bindings),
		Reconnect:   conn.Connect,
		DisplayMode: mode,
		Autostart:   autostart,
		Logger:      log.Named("app"),
	}
	if ledger != nil {
		deps.Store = ledger
	}
	m := app.New(deps)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()
	if err := session.Close(); err != nil {
		log.Warn("close session", zap.Error(err))
	}
	return runErr
}

// restoreQueue fills the navigator from args or from the saved queue and
// reports whether the current track should start once connected.
func restoreQueue(
	ctx context.Context,
	nav *playlist.Navigator,
	ledger *history.Ledger,
	lookup catalog.Lookup,
	args []string,
	log *zap.Logger,
) bool {
	if len(args) > 0 {
		nav.Restore(prefetch(ctx, lookup, args, log), 0)
		return true
	}
	if ledger == nil {
		return false
	}
	saved, err := ledger.Queue()
	if err != nil {
		log.Warn("load saved queue", zap.Error(err))
		return false
	}
	nav.Restore(saved.Tracks, saved.CurrentIndex)
	return false
}

// prefetch resolves display metadata for ids. Unresolved ids stay bare;
// the streaming service fills them in on play.
func prefetch(ctx context.Context, lookup catalog.Lookup, ids []string, log *zap.Logger) []catalog.Track {
	tracks := make([]catalog.Track, len(ids))
	for i, id := range ids {
		tracks[i] = catalog.Track{ID: id}
	}
	if lookup == nil {
		return tracks
	}
	ctx, cancel := context.WithTimeout(ctx, prefetchTimeout)
	defer cancel()
	for i, id := range ids {
		t, err := lookup.Lookup(ctx, id)
		if err != nil {
			log.Debug("prefetch failed", zap.String("track_id", id), zap.Error(err))
			continue
		}
		tracks[i] = t
	}
	return tracks
}

func restoreVolume(out *player.Player, ledger *history.Ledger, log *zap.Logger) {
	if ledger == nil {
		return
	}
	v, err := ledger.Volume()
	if err != nil {
		log.Warn("load saved volume", zap.Error(err))
		return
	}
	out.SetVolume(v.Volume)
	out.SetMuted(v.Muted)
}

// startNotifications returns a desktop notification watcher when enabled.
func startNotifications(cfg *config.Config, log *zap.Logger) *notify.Watcher {
	nc := cfg.GetNotificationsConfig()
	if !nc.NotificationsEnabled() {
		return nil
	}
	log = log.Named("notify")
	return notify.NewWatcher(notify.New(log), notify.Options{
		NowPlaying: nc.NowPlayingEnabled(),
		Errors:     nc.ErrorsEnabled(),
		Timeout:    nc.Timeout,
	}, log)
}

// startScrobbler returns a running scrobbler when Last.fm is configured and
// linked, nil otherwise.
func startScrobbler(ctx context.Context, cfg *config.Config, ledger *history.Ledger, log *zap.Logger) *lastfm.Scrobbler {
	if !cfg.HasLastfmConfig() {
		return nil
	}
	sessionKey := cfg.Lastfm.SessionKey
	if sessionKey == "" && ledger != nil {
		if s, err := ledger.LastfmSession(); err == nil && s != nil {
			sessionKey = s.SessionKey
		}
	}
	if sessionKey == "" {
		log.Info("last.fm configured but not linked; run `alephplay lastfm login`")
		return nil
	}

	client := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
	client.SetSessionKey(sessionKey)

	var store lastfm.PendingStore
	if ledger != nil {
		store = ledger
	}
	scrobbler := lastfm.NewScrobbler(client, store, log.Named("lastfm"))
	scrobbler.Start(ctx)
	return scrobbler
}
