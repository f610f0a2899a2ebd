package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinescope/cinescope/internal/config"
)

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// getStatus reports version, provider configuration and database state.
// GET /api/v1/system/status
func (s *Server) getStatus(c echo.Context) error {
	database := map[string]interface{}{
		"path": s.db.Path(),
	}
	if version, err := s.db.Version(); err == nil {
		database["schemaVersion"] = version
	} else {
		s.logger.Warn().Err(err).Msg("Failed to read schema version")
	}

	response := map[string]interface{}{
		"version":   config.Version,
		"startTime": s.startTime.Format(time.RFC3339),
		"uptime":    time.Since(s.startTime).Round(time.Second).String(),
		"mock":      s.cfg.Metadata.Mock,
		"providers": s.metadataService.Providers(),
		"database":  database,
		"health":    s.healthService.GetSummary(),
	}
	if s.hub != nil {
		response["subscribers"] = s.hub.Subscribers()
	}
	return c.JSON(http.StatusOK, response)
}
