package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/devserver"
	"github.com/llehouerou/alephplay/internal/logger"
)

var (
	devAddr         string
	devMediaDir     string
	devPublicURL    string
	devLegacyResume bool
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run a local stand-in for the streaming service and catalog gateway",
	Long: `Run a local server speaking the streaming protocol on /ws and answering
song lookups on /api/v1/music/graphql. With --media the audio files of a
directory become the catalog and are served under /media/; otherwise a small
demo catalog is used.`,
	RunE: runDevserver,
}

func init() {
	devserverCmd.Flags().StringVar(&devAddr, "addr", ":8084", "listen address")
	devserverCmd.Flags().StringVar(&devMediaDir, "media", "", "directory of .mp3/.flac files to serve")
	devserverCmd.Flags().StringVar(&devPublicURL, "public-url", "", "base URL clients reach the server at (default: http://localhost<addr>)")
	devserverCmd.Flags().BoolVar(&devLegacyResume, "legacy-resume", false, "reject resume like older backends")
	rootCmd.AddCommand(devserverCmd)
}

func runDevserver(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := setupLogger(cfg, os.Stderr); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Named("devserver")

	baseURL := devPublicURL
	if baseURL == "" {
		baseURL = "http://localhost" + devAddr
	}

	catalog := devserver.NewCatalog(devserver.DemoTracks(baseURL)...)
	if devMediaDir != "" {
		tracks, err := devserver.ScanDir(devMediaDir, baseURL)
		if err != nil {
			return fmt.Errorf("scan media: %w", err)
		}
		catalog = devserver.NewCatalog(tracks...)
	}
	for _, t := range catalog.List() {
		log.Info("track", zap.String("id", t.ID), zap.String("title", t.DisplayTitle()))
	}

	srv := devserver.New(devserver.Options{
		Catalog:      catalog,
		UserParam:    cfg.GetStreamConfig().UserParam,
		MediaDir:     devMediaDir,
		LegacyResume: devLegacyResume,
		Logger:       log,
	})
	httpServer := &http.Server{
		Addr:              devAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", devAddr), zap.Int("tracks", len(catalog.List())))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.DropConnections()
	return httpServer.Shutdown(shutdownCtx)
}
