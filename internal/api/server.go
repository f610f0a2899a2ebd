package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	apimw "github.com/cinescope/cinescope/internal/api/middleware"
	"github.com/cinescope/cinescope/internal/api/ratelimit"
	"github.com/cinescope/cinescope/internal/config"
	"github.com/cinescope/cinescope/internal/database"
	"github.com/cinescope/cinescope/internal/health"
	"github.com/cinescope/cinescope/internal/metadata"
	"github.com/cinescope/cinescope/internal/preferences"
	"github.com/cinescope/cinescope/internal/scheduler"
	"github.com/cinescope/cinescope/internal/scheduler/tasks"
	"github.com/cinescope/cinescope/internal/startup"
	"github.com/cinescope/cinescope/internal/websocket"
)

// Server is the HTTP API server.
type Server struct {
	echo   *echo.Echo
	db     *database.DB
	hub    *websocket.Hub
	cfg    *config.Config
	logger zerolog.Logger

	healthService      *health.Service
	metadataService    *metadata.Service
	preferencesService *preferences.Service
	scheduler          *scheduler.Scheduler
	titleLimiter       *ratelimit.IPLimiter
	logsProvider       LogsProvider

	startTime   time.Time
	cleanupCtx  context.Context
	stopCleanup context.CancelFunc
}

// NewServer creates a new API server and wires its services.
func NewServer(db *database.DB, hub *websocket.Hub, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		db:        db,
		hub:       hub,
		cfg:       cfg,
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}

	s.healthService = health.NewService(logger)
	if hub != nil {
		s.healthService.SetBroadcaster(hub)
	}

	s.metadataService = metadata.NewService(cfg.Metadata, logger)
	s.metadataService.SetHealthService(s.healthService)
	s.metadataService.RegisterMetadataProviders()

	s.preferencesService = preferences.NewService(database.NewSettings(db.Conn()), logger)

	sched, err := scheduler.New(logger)
	if err != nil {
		return nil, err
	}
	s.scheduler = sched

	if err := tasks.RegisterProviderHealthTask(sched, s.metadataService, cfg.Scheduler, logger); err != nil {
		return nil, err
	}
	if err := tasks.RegisterDatabaseHealthTask(sched, db.Conn(), s.healthService, logger); err != nil {
		return nil, err
	}

	s.titleLimiter = ratelimit.NewIPLimiter(cfg.Server.RequestsPerMinute)
	s.cleanupCtx, s.stopCleanup = context.WithCancel(context.Background())

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// Security headers
	s.echo.Use(apimw.SecurityHeaders())

	// Request body size limit (1MB)
	s.echo.Use(middleware.BodyLimit("1M"))

	// CORS
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Request logging
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	// Gzip compression
	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// Skip compression for WebSocket
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// SetLogsProvider sets the source of the recent log entries endpoint.
func (s *Server) SetLogsProvider(provider LogsProvider) {
	s.logsProvider = provider
}

// InitializeNetworkServices checks the metadata providers. A network failure
// is returned so the caller can retry; any other failure is only logged.
func (s *Server) InitializeNetworkServices(ctx context.Context) error {
	for name, err := range s.metadataService.CheckProviders(ctx) {
		if startup.IsNetworkError(err) {
			return err
		}
		s.logger.Warn().Err(err).Str("provider", name).Msg("Metadata provider unavailable")
	}
	return nil
}

// Start launches the scheduler and begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	if err := s.scheduler.Start(); err != nil {
		return err
	}

	s.titleLimiter.StartCleanup(s.cleanupCtx, time.Minute)

	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")

	s.stopCleanup()

	if err := s.scheduler.Stop(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to stop scheduler")
	}

	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
