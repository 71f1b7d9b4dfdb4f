package cmd

import (
	"context"
	"errors"
	"io"
	"path/filepath"

	"github.com/adrg/xdg"
	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/catalog"
	"github.com/llehouerou/alephplay/internal/config"
	"github.com/llehouerou/alephplay/internal/identity"
	"github.com/llehouerou/alephplay/internal/logger"
)

const appName = "alephplay"

var errNoIdentity = errors.New("no identity configured: set identity.user_id or identity.token (ALEPH_USER_ID / ALEPH_TOKEN)")

// setupLogger installs the global logger. console receives a copy of the
// log when set; the TUI passes nil so nothing draws over the screen.
func setupLogger(cfg *config.Config, console io.Writer) error {
	path := cfg.Log.Path
	if path == "" {
		p, err := xdg.StateFile(filepath.Join(appName, appName+".log"))
		if err != nil {
			return err
		}
		path = p
	}
	return logger.Init(logger.Config{
		Level:      logger.LogLevel(cfg.Log.Level),
		OutputPath: path,
		Console:    console,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
}

// identityFromConfig returns the configured identity. A static user id
// wins over a token.
func identityFromConfig(cfg *config.Config) (identity.Provider, error) {
	switch {
	case cfg.Identity.UserID != "":
		return identity.Static(cfg.Identity.UserID), nil
	case cfg.Identity.Token != "":
		var secret []byte
		if cfg.Identity.TokenSecret != "" {
			secret = []byte(cfg.Identity.TokenSecret)
		}
		return identity.NewTokenProvider(cfg.Identity.Token, secret), nil
	default:
		return nil, errNoIdentity
	}
}

// buildLookup returns the catalog lookup chain, or nil without a gateway.
// The Redis cache sits in front of the gateway when configured; an
// unreachable Redis is logged and skipped.
func buildLookup(ctx context.Context, cfg *config.Config, log *zap.Logger) (catalog.Lookup, func()) {
	if !cfg.HasCatalogConfig() {
		return nil, func() {}
	}
	cc := cfg.GetCatalogConfig()
	var lookup catalog.Lookup = catalog.NewClient(cc.GatewayURL, cc.Timeout)

	if !cfg.HasCacheConfig() {
		return lookup, func() {}
	}
	cache := cfg.GetCacheConfig()
	rdb, err := catalog.Connect(ctx, cache.RedisAddr, cache.RedisPassword, cache.RedisDB)
	if err != nil {
		log.Warn("redis unavailable, lookups are not cached",
			zap.String("addr", cache.RedisAddr), zap.Error(err))
		return lookup, func() {}
	}
	return catalog.NewRedisCache(rdb, lookup, cache.TTL, log.Named("cache")), func() { _ = rdb.Close() }
}
