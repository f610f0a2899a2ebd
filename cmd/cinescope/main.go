package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cinescope/cinescope/internal/api"
	"github.com/cinescope/cinescope/internal/config"
	"github.com/cinescope/cinescope/internal/database"
	"github.com/cinescope/cinescope/internal/logger"
	"github.com/cinescope/cinescope/internal/startup"
	"github.com/cinescope/cinescope/internal/websocket"
)

const logStreamBuffer = 1000

func main() {
	configPath := flag.String("config", "", "Path to config file")
	mock := flag.Bool("mock", false, "Serve canned titles instead of calling TMDB and OMDb")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *mock {
		cfg.Metadata.Mock = true
	}

	log := logger.New(logger.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Path:         cfg.Logging.Path,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		StreamBuffer: logStreamBuffer,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Bool("mock", cfg.Metadata.Mock).
		Msg("starting cinescope")

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("failed to create data directory")
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	log.Info().Msg("running database migrations")
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(log.Logger)
	go hub.Run(ctx)

	// Enable log streaming via WebSocket now that hub is available
	log.SetBroadcastHub(hub)

	server, err := api.NewServer(db, hub, cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create API server")
	}
	server.SetLogsProvider(log)

	err = startup.WithRetry(
		ctx,
		"metadata provider check",
		startup.DefaultRetryConfig(),
		server.InitializeNetworkServices,
		log.Logger,
	)
	if err != nil {
		log.Warn().Err(err).Msg("metadata providers unreachable, title views will fail until the network is restored")
	}

	go func() {
		addr := cfg.Server.Address()
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}
