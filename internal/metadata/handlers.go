package metadata

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cinescope/cinescope/internal/metadata/apierror"
	"github.com/cinescope/cinescope/internal/metadata/tmdb"
)

const maxListIDs = 100

// OptionsSource supplies the stored viewer preferences for a request.
type OptionsSource interface {
	ViewOptions(ctx context.Context) (ViewOptions, error)
}

// Handlers provides HTTP handlers for title views.
type Handlers struct {
	service *Service
	options OptionsSource
}

// NewHandlers creates new metadata handlers. options may be nil, in which
// case provider defaults apply.
func NewHandlers(service *Service, options OptionsSource) *Handlers {
	return &Handlers{
		service: service,
		options: options,
	}
}

// RegisterRoutes registers the title routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/:kind", h.GetTitles)
	g.GET("/:kind/search", h.Search)
	g.GET("/:kind/list/:category", h.List)
	g.GET("/:kind/:id", h.GetTitle)
}

// GetTitle returns the aggregated view of one title.
// GET /api/v1/titles/:kind/:id
func (h *Handlers) GetTitle(c echo.Context) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	view, err := h.service.AggregateWithOptions(ctx, kind, id, h.viewOptions(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// GetTitles aggregates a comma-separated list of ids.
// GET /api/v1/titles/:kind?ids=1,2,3
func (h *Handlers) GetTitles(c echo.Context) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	ids, err := parseIDs(c.QueryParam("ids"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !h.service.tmdb.IsConfigured() {
		return toHTTPError(ErrNoProvidersConfigured)
	}

	entries := h.service.AggregateMany(c.Request().Context(), kind, ids, h.viewOptions(c))
	return c.JSON(http.StatusOK, entries)
}

// Search searches titles by query.
// GET /api/v1/titles/:kind/search?query=...&page=...
func (h *Handlers) Search(c echo.Context) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	query := strings.TrimSpace(c.QueryParam("query"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter is required")
	}

	page, err := h.service.Search(c.Request().Context(), kind, query, parsePage(c), h.viewOptions(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// List returns one page of a browse category.
// GET /api/v1/titles/:kind/list/:category?page=...
func (h *Handlers) List(c echo.Context) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}

	page, err := h.service.List(c.Request().Context(), kind, c.Param("category"), parsePage(c), h.viewOptions(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// viewOptions loads stored preferences and applies per-request overrides.
func (h *Handlers) viewOptions(c echo.Context) ViewOptions {
	var opts ViewOptions
	if h.options != nil {
		stored, err := h.options.ViewOptions(c.Request().Context())
		if err != nil {
			h.service.logger.Warn().Err(err).Msg("Failed to load view preferences, using defaults")
		} else {
			opts = stored
		}
	}
	if lang := c.QueryParam("language"); lang != "" {
		opts.Language = lang
	}
	if region := c.QueryParam("region"); region != "" {
		opts.Region = strings.ToUpper(region)
	}
	return opts
}

func parseKind(c echo.Context) (tmdb.MediaKind, error) {
	kind, err := tmdb.ParseMediaKind(c.Param("kind"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "kind must be movie or series")
	}
	return kind, nil
}

func parsePage(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func parseIDs(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("ids parameter is required")
	}
	parts := strings.Split(raw, ",")
	if len(parts) > maxListIDs {
		return nil, errors.New("too many ids")
	}
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || id <= 0 {
			return nil, errors.New("invalid id: " + p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// toHTTPError maps pipeline failures to status codes.
func toHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNoProvidersConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no metadata providers configured")
	case errors.Is(err, tmdb.ErrInvalidCategory), errors.Is(err, tmdb.ErrInvalidMediaKind):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request cancelled")
	}

	switch apierror.KindOf(err) {
	case apierror.ErrNotFound:
		return echo.NewHTTPError(http.StatusNotFound, "title not found")
	case apierror.ErrUpstream, apierror.ErrMalformedResponse:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case apierror.ErrNetwork, apierror.ErrThrottled:
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
