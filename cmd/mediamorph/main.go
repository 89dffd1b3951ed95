// Package main provides the CLI entry point for the mediamorph
// conversion bot.
//
// mediamorph is a Telegram bot that converts images, documents and
// videos between formats, optionally stamping converted files with
// device metadata presets.
//
// # Basic Usage
//
// Start the bot:
//
//	mediamorph serve --config mediamorph.yaml
//
// # Environment Variables
//
//   - MEDIAMORPH_CONFIG: Path to configuration file
//   - TELEGRAM_BOT_TOKEN: Telegram bot token (used by config expansion
//     and by the zero-config default)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mediamorph/mediamorph/internal/channels/telegram"
	"github.com/mediamorph/mediamorph/internal/config"
	"github.com/mediamorph/mediamorph/internal/convert/document"
	"github.com/mediamorph/mediamorph/internal/convert/image"
	"github.com/mediamorph/mediamorph/internal/convert/video"
	"github.com/mediamorph/mediamorph/internal/engine"
	"github.com/mediamorph/mediamorph/internal/observability"
	"github.com/mediamorph/mediamorph/internal/session"
)

// Build information - populated by ldflags during build.
//
// Example build command:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=$(git rev-parse HEAD) -X main.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "mediamorph",
		Short:        "mediamorph - media conversion bot",
		Long:         "mediamorph converts images, documents and videos between formats\nover Telegram, with optional device metadata injection.",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(buildServeCmd())
	return rootCmd
}

func buildServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the conversion bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("MEDIAMORPH_CONFIG")
	}
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

// run wires the components together and blocks until shutdown.
func run(ctx context.Context, cfg *config.Config) error {
	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(logger)

	metrics := observability.NewMetrics()

	store := session.NewMemoryStore()
	images := image.NewConverter(logger)
	documents := document.NewAdapter(
		document.NewSoffice(cfg.Tools.Soffice, cfg.Tools.Timeout, logger), logger)
	videos := video.NewAdapter(
		video.NewFFmpeg(cfg.Tools.FFmpeg, cfg.Tools.FFprobe, cfg.Tools.Timeout, logger),
		video.MP4Tagger{}, logger)

	eng := engine.New(store, images, documents, videos, metrics, logger)

	adapter, err := telegram.NewAdapter(telegram.Config{
		Token:           cfg.Telegram.BotToken,
		DownloadTimeout: cfg.Telegram.DownloadTimeout,
		Logger:          logger,
	}, eng)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}
		go func() {
			logger.Info("metrics server listening", "addr", cfg.Metrics.ListenAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	logger.Info("mediamorph starting", "version", version)
	err = adapter.Run(ctx)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	logger.Info("mediamorph stopped")
	return err
}
