package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Streaming session endpoint
	Stream StreamConfig `koanf:"stream"`

	// Song catalog (API gateway)
	Catalog CatalogConfig `koanf:"catalog"`

	// Authenticated user (static id or JWT)
	Identity IdentityConfig `koanf:"identity"`

	// Redis lookup cache (enabled when redis_addr is set)
	Cache CacheConfig `koanf:"cache"`

	Playback PlaybackConfig `koanf:"playback"`

	// Local listen ledger
	History HistoryConfig `koanf:"history"`

	// Last.fm scrobbling (enables scrobbling when configured)
	Lastfm LastfmConfig `koanf:"lastfm"`

	Log LogConfig `koanf:"log"`

	UI UIConfig `koanf:"ui"`

	// Desktop notifications (Linux, D-Bus)
	Notifications NotificationsConfig `koanf:"notifications"`
}

// StreamConfig holds the realtime connection settings.
type StreamConfig struct {
	URL              string        `koanf:"url"`               // e.g., "ws://localhost:8084/ws"
	UserParam        string        `koanf:"user_param"`        // query parameter carrying the user id (default: "userId")
	ReconnectDelay   time.Duration `koanf:"reconnect_delay"`   // delay before redialing (default: 5s)
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"` // websocket handshake timeout (default: 10s)
	InitialDelay     time.Duration `koanf:"initial_delay"`     // delay between mount and first connect (default: 100ms)
}

// CatalogConfig holds the catalog lookup settings.
type CatalogConfig struct {
	GatewayURL string        `koanf:"gateway_url"` // e.g., "http://localhost:8080"
	Timeout    time.Duration `koanf:"timeout"`     // request timeout (default: 10s)
}

// IdentityConfig holds the user identity. UserID wins over Token.
type IdentityConfig struct {
	UserID      string `koanf:"user_id"`
	Token       string `koanf:"token"`
	TokenSecret string `koanf:"token_secret"` // HMAC secret; empty parses the token unverified
}

// CacheConfig holds Redis cache settings.
type CacheConfig struct {
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	TTL           time.Duration `koanf:"ttl"` // default: 10m
}

// PlaybackConfig holds session behavior settings.
type PlaybackConfig struct {
	Autoplay         *bool         `koanf:"autoplay"`          // advance when a track ends (default: true)
	PositionInterval time.Duration `koanf:"position_interval"` // media position sampling (default: 250ms)
}

// HistoryConfig holds listen ledger settings.
type HistoryConfig struct {
	Enabled *bool  `koanf:"enabled"` // default: true
	Path    string `koanf:"path"`    // default: $XDG_DATA_HOME/alephplay/history.db
}

// LastfmConfig holds Last.fm scrobbling configuration.
type LastfmConfig struct {
	APIKey     string `koanf:"api_key"`
	APISecret  string `koanf:"api_secret"`
	SessionKey string `koanf:"session_key"`
}

// UIConfig holds terminal interface settings.
type UIConfig struct {
	Icons string `koanf:"icons"` // "nerd", "unicode", "none" (default: "unicode")
	Theme string `koanf:"theme"` // "dark", "light" (default: "dark")
	MPRIS *bool  `koanf:"mpris"` // expose media controls over D-Bus (default: true)

	// Keys replaces the default keys of an action, e.g. stop = ["x"].
	Keys map[string][]string `koanf:"keys"`
}

// NotificationsConfig holds desktop notification settings.
type NotificationsConfig struct {
	Enabled    *bool `koanf:"enabled"`     // default: false
	NowPlaying *bool `koanf:"now_playing"` // default: true
	Errors     *bool `koanf:"errors"`      // default: true
	Timeout    int32 `koanf:"timeout"`     // ms (default: 5000)
}

// LogConfig holds log file settings.
type LogConfig struct {
	Level      string `koanf:"level"` // "debug", "info", "warn", "error" (default: "info")
	Path       string `koanf:"path"`  // default: $XDG_STATE_HOME/alephplay/alephplay.log
	MaxSize    int    `koanf:"max_size"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"`
	Compress   bool   `koanf:"compress"`
}

const (
	DefaultUserParam        = "userId"
	DefaultReconnectDelay   = 5 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultInitialDelay     = 100 * time.Millisecond
	DefaultCatalogTimeout   = 10 * time.Second
	DefaultCacheTTL         = 10 * time.Minute
	DefaultPositionInterval = 250 * time.Millisecond
	DefaultNotifyTimeout    = 5000
)

func Load() (*Config, error) {
	// .env never overrides the process environment.
	_ = godotenv.Load()
	return LoadFrom(getConfigPaths())
}

// LoadFrom reads the given config files (last wins) and applies environment
// overrides.
func LoadFrom(paths []string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)

	cfg.Stream.URL = strings.TrimSpace(cfg.Stream.URL)
	// Normalize gateway URL (remove trailing slash)
	cfg.Catalog.GatewayURL = strings.TrimSuffix(strings.TrimSpace(cfg.Catalog.GatewayURL), "/")

	if cfg.History.Path != "" {
		cfg.History.Path = expandPath(cfg.History.Path)
	}
	if cfg.Log.Path != "" {
		cfg.Log.Path = expandPath(cfg.Log.Path)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Stream.URL = getEnv("ALEPH_STREAM_URL", cfg.Stream.URL)
	cfg.Catalog.GatewayURL = getEnv("ALEPH_GATEWAY_URL", cfg.Catalog.GatewayURL)
	cfg.Identity.UserID = getEnv("ALEPH_USER_ID", cfg.Identity.UserID)
	cfg.Identity.Token = getEnv("ALEPH_TOKEN", cfg.Identity.Token)
	cfg.Identity.TokenSecret = getEnv("ALEPH_TOKEN_SECRET", cfg.Identity.TokenSecret)
	cfg.Cache.RedisAddr = getEnv("ALEPH_REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = getEnv("ALEPH_REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = getEnvInt("ALEPH_REDIS_DB", cfg.Cache.RedisDB)
	cfg.Log.Level = getEnv("ALEPH_LOG_LEVEL", cfg.Log.Level)
	cfg.UI.Icons = getEnv("ALEPH_ICONS", cfg.UI.Icons)
	cfg.UI.Theme = getEnv("ALEPH_THEME", cfg.UI.Theme)
}

// getEnv gets an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a fallback value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/alephplay/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "alephplay", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasCacheConfig returns true if the Redis lookup cache is configured.
func (c *Config) HasCacheConfig() bool {
	return c.Cache.RedisAddr != ""
}

// HasCatalogConfig returns true if a catalog gateway is configured.
func (c *Config) HasCatalogConfig() bool {
	return c.Catalog.GatewayURL != ""
}

// HasLastfmConfig returns true if Last.fm scrobbling is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// GetStreamConfig returns the stream configuration with defaults applied.
func (c *Config) GetStreamConfig() StreamConfig {
	cfg := c.Stream

	if cfg.UserParam == "" {
		cfg.UserParam = DefaultUserParam
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if cfg.InitialDelay < 0 {
		cfg.InitialDelay = 0
	} else if cfg.InitialDelay == 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}

	return cfg
}

// GetCatalogConfig returns the catalog configuration with defaults applied.
func (c *Config) GetCatalogConfig() CatalogConfig {
	cfg := c.Catalog
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCatalogTimeout
	}
	return cfg
}

// GetCacheConfig returns the cache configuration with defaults applied.
func (c *Config) GetCacheConfig() CacheConfig {
	cfg := c.Cache
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	return cfg
}

// Autoplay reports whether the next track starts when one ends.
func (c *Config) Autoplay() bool {
	if c.Playback.Autoplay == nil {
		return true
	}
	return *c.Playback.Autoplay
}

// PositionInterval returns the media position sampling interval.
func (c *Config) PositionInterval() time.Duration {
	if c.Playback.PositionInterval <= 0 {
		return DefaultPositionInterval
	}
	return c.Playback.PositionInterval
}

// HistoryEnabled reports whether finished tracks are recorded locally.
func (c *Config) HistoryEnabled() bool {
	if c.History.Enabled == nil {
		return true
	}
	return *c.History.Enabled
}

// IconStyle returns the configured icon set name.
func (c *Config) IconStyle() string {
	switch c.UI.Icons {
	case "nerd", "none":
		return c.UI.Icons
	default:
		return "unicode"
	}
}

// MPRISEnabled reports whether desktop media controls are exposed.
func (c *Config) MPRISEnabled() bool {
	return boolOr(c.UI.MPRIS, true)
}

// GetNotificationsConfig returns the notification settings with defaults
// applied.
func (c *Config) GetNotificationsConfig() NotificationsConfig {
	cfg := c.Notifications
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultNotifyTimeout
	}
	return cfg
}

// NotificationsEnabled reports whether any desktop notification is sent.
func (n NotificationsConfig) NotificationsEnabled() bool {
	return boolOr(n.Enabled, false) && (n.NowPlayingEnabled() || n.ErrorsEnabled())
}

// NowPlayingEnabled reports whether track changes are announced.
func (n NotificationsConfig) NowPlayingEnabled() bool {
	return boolOr(n.NowPlaying, true)
}

// ErrorsEnabled reports whether playback failures are announced.
func (n NotificationsConfig) ErrorsEnabled() bool {
	return boolOr(n.Errors, true)
}

func boolOr(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}
