package health

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// TestFunctions holds the checks the handlers can trigger on demand.
type TestFunctions struct {
	TestProvider func(ctx context.Context, name string) error
	PingDatabase func(ctx context.Context) error
}

// TestResult is the outcome of an on-demand check.
type TestResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Handlers provides HTTP handlers for health endpoints.
type Handlers struct {
	health    *Service
	testFuncs *TestFunctions
}

// NewHandlers creates new health handlers with test functions.
func NewHandlers(health *Service, testFuncs *TestFunctions) *Handlers {
	return &Handlers{
		health:    health,
		testFuncs: testFuncs,
	}
}

// RegisterRoutes registers health routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetAll)
	g.GET("/summary", h.GetSummary)
	g.GET("/:category", h.GetByCategory)
	g.POST("/:category/:id/test", h.TestItem)
}

// GetAll returns all health items grouped by category.
// GET /api/v1/system/health
func (h *Handlers) GetAll(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetAll())
}

// GetSummary returns summary counts.
// GET /api/v1/system/health/summary
func (h *Handlers) GetSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetSummary())
}

// GetByCategory returns health items for a specific category.
// GET /api/v1/system/health/:category
func (h *Handlers) GetByCategory(c echo.Context) error {
	category := c.Param("category")
	if !ValidCategory(category) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid health category")
	}
	return c.JSON(http.StatusOK, h.health.ByCategory(HealthCategory(category)))
}

// TestItem runs the check for a specific item and updates its status.
// POST /api/v1/system/health/:category/:id/test
func (h *Handlers) TestItem(c echo.Context) error {
	category := HealthCategory(c.Param("category"))
	id := c.Param("id")

	if h.health.Item(category, id) == nil {
		return echo.NewHTTPError(http.StatusNotFound, "health item not found")
	}

	var check func(ctx context.Context) error
	switch {
	case h.testFuncs == nil:
	case category == CategoryMetadata && h.testFuncs.TestProvider != nil:
		check = func(ctx context.Context) error { return h.testFuncs.TestProvider(ctx, id) }
	case category == CategoryDatabase && h.testFuncs.PingDatabase != nil:
		check = h.testFuncs.PingDatabase
	}

	result := TestResult{ID: id}
	if check == nil {
		result.Message = "testing not configured for " + string(category)
		return c.JSON(http.StatusOK, result)
	}

	if err := check(c.Request().Context()); err != nil {
		h.health.Fail(category, id, err)
		result.Message = err.Error()
		return c.JSON(http.StatusOK, result)
	}

	h.health.Recover(category, id)
	result.Success = true
	result.Message = "Connection verified"
	return c.JSON(http.StatusOK, result)
}
