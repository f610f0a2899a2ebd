package health

import (
	"encoding/json"
	"time"
)

// HealthStatus represents the health state of an item.
type HealthStatus string

const (
	StatusOK HealthStatus = "ok"
	// StatusDegraded means the dependency answers but not usefully
	// (rejected credentials, 5xx, unreadable payloads).
	StatusDegraded HealthStatus = "degraded"
	// StatusDown means the dependency could not be reached at all.
	StatusDown HealthStatus = "down"
)

// HealthCategory represents the category of health items.
type HealthCategory string

const (
	CategoryMetadata HealthCategory = "metadata"
	CategoryDatabase HealthCategory = "database"
)

// Provider roles as they appear on metadata items.
const (
	RolePrimary   = "primary"
	RoleSecondary = "secondary"
)

// AllCategories returns all health categories in display order.
func AllCategories() []HealthCategory {
	return []HealthCategory{
		CategoryMetadata,
		CategoryDatabase,
	}
}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	for _, cat := range AllCategories() {
		if string(cat) == s {
			return true
		}
	}
	return false
}

// HealthItem is one tracked dependency. Kind, Message, Since and Failures
// describe the current failure and are cleared on recovery.
type HealthItem struct {
	ID       string         `json:"id"`
	Category HealthCategory `json:"category"`
	Name     string         `json:"name"`
	Role     string         `json:"role,omitempty"`
	Status   HealthStatus   `json:"status"`
	Kind     string         `json:"kind,omitempty"`
	Message  string         `json:"message,omitempty"`
	Since    *time.Time     `json:"since,omitempty"`
	Failures int            `json:"failures,omitempty"`
}

// MarshalJSON drops failure details from OK items.
func (h HealthItem) MarshalJSON() ([]byte, error) {
	type plain HealthItem
	out := plain(h)
	if h.Status == StatusOK {
		out.Kind, out.Message, out.Since, out.Failures = "", "", nil, 0
	}
	return json.Marshal(out)
}

// CategorySummary counts items per status.
type CategorySummary struct {
	Category HealthCategory `json:"category"`
	OK       int            `json:"ok"`
	Degraded int            `json:"degraded"`
	Down     int            `json:"down"`
}

// HealthResponse contains all health items grouped by category.
type HealthResponse struct {
	Metadata []HealthItem `json:"metadata"`
	Database []HealthItem `json:"database"`
}

// TitleViews describes what a title request can currently return.
type TitleViews string

const (
	// ViewsComplete: both providers are healthy.
	ViewsComplete TitleViews = "complete"
	// ViewsWithoutRatings: the primary works but OMDb ratings will be unavailable.
	ViewsWithoutRatings TitleViews = "without_ratings"
	// ViewsUnavailable: the primary provider is not usable.
	ViewsUnavailable TitleViews = "unavailable"
)

// HealthSummary provides an overview of system health.
type HealthSummary struct {
	Categories []CategorySummary       `json:"categories"`
	Roles      map[string]HealthStatus `json:"roles"`
	TitleViews TitleViews              `json:"titleViews"`
	HasIssues  bool                    `json:"hasIssues"`
}
