package api

import (
	"github.com/labstack/echo/v4"

	"github.com/cinescope/cinescope/internal/api/handlers"
	"github.com/cinescope/cinescope/internal/health"
	"github.com/cinescope/cinescope/internal/metadata"
	"github.com/cinescope/cinescope/internal/preferences"
)

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group("/api/v1")

	titles := api.Group("/titles", s.titleLimiter.Middleware())
	titleHandlers := metadata.NewHandlers(s.metadataService, &viewOptionsAdapter{prefs: s.preferencesService})
	titleHandlers.RegisterRoutes(titles)

	preferences.NewHandlers(s.preferencesService).RegisterRoutes(api)

	s.setupSystemRoutes(api)

	if s.hub != nil {
		api.GET("/ws", s.hub.HandleWebSocket)
	}
}

func (s *Server) setupSystemRoutes(api *echo.Group) {
	system := api.Group("/system")
	system.GET("/status", s.getStatus)

	healthHandlers := health.NewHandlers(s.healthService, &health.TestFunctions{
		TestProvider: s.metadataService.TestProvider,
		PingDatabase: s.db.Conn().PingContext,
	})
	healthHandlers.RegisterRoutes(system.Group("/health"))

	NewLogsHandlers(&serverLogsAdapter{server: s}).RegisterRoutes(system.Group("/logs"))

	handlers.NewSchedulerHandler(s.scheduler).RegisterRoutes(system.Group("/tasks"))
}
