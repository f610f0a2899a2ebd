package preferences

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/preferences", h.GetPreferences)
	g.PUT("/preferences", h.SetPreferences)
	g.GET("/session", h.GetSession)
	g.POST("/session", h.CreateSession)
	g.DELETE("/session", h.DeleteSession)
}

// GetPreferences returns the viewer preferences
// GET /api/v1/preferences
func (h *Handlers) GetPreferences(c echo.Context) error {
	prefs, err := h.service.Get(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, prefs)
}

// SetPreferences replaces the viewer preferences
// PUT /api/v1/preferences
func (h *Handlers) SetPreferences(c echo.Context) error {
	prefs := DefaultPreferences()
	if err := c.Bind(&prefs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.service.Set(c.Request().Context(), prefs); err != nil {
		if errors.Is(err, ErrInvalidAppearance) || errors.Is(err, ErrInvalidRegion) || errors.Is(err, ErrInvalidLanguage) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	updated, err := h.service.Get(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, updated)
}

// GetSession returns the active session
// GET /api/v1/session
func (h *Handlers) GetSession(c echo.Context) error {
	session, err := h.service.Session(c.Request().Context())
	if errors.Is(err, ErrNoSession) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, session)
}

// CreateSession issues a new session token
// POST /api/v1/session
func (h *Handlers) CreateSession(c echo.Context) error {
	session, err := h.service.NewSession(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, session)
}

// DeleteSession clears the session token
// DELETE /api/v1/session
func (h *Handlers) DeleteSession(c echo.Context) error {
	if err := h.service.ClearSession(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
