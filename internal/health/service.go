package health

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinescope/cinescope/internal/metadata/apierror"
)

const updateEvent = "health:updated"

// Broadcaster pushes health changes to connected clients.
type Broadcaster interface {
	Broadcast(eventType string, payload interface{}) error
}

// Service tracks the metadata providers and the settings database.
// State is in memory only.
type Service struct {
	mu          sync.RWMutex
	items       map[HealthCategory]map[string]*HealthItem
	broadcaster Broadcaster
	now         func() time.Time
	logger      zerolog.Logger
}

func NewService(logger zerolog.Logger) *Service {
	s := &Service{
		items:  make(map[HealthCategory]map[string]*HealthItem),
		now:    time.Now,
		logger: logger.With().Str("component", "health").Logger(),
	}
	for _, cat := range AllCategories() {
		s.items[cat] = make(map[string]*HealthItem)
	}
	return s
}

func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// RegisterProvider starts tracking a metadata provider in the given role.
func (s *Service) RegisterProvider(name, role string) {
	s.Register(CategoryMetadata, name, name, role)
}

// ProviderFailed records a provider failure. Network failures mark the
// provider down, anything else degraded.
func (s *Service) ProviderFailed(name string, err error) {
	s.Fail(CategoryMetadata, name, err)
}

// ProviderRecovered marks a provider healthy again.
func (s *Service) ProviderRecovered(name string) {
	s.Recover(CategoryMetadata, name)
}

// Register adds an item in OK state. Registering again resets it.
func (s *Service) Register(category HealthCategory, id, name, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[category]; !ok {
		s.logger.Warn().Str("category", string(category)).Msg("Ignoring item in unknown health category")
		return
	}

	item := &HealthItem{ID: id, Category: category, Name: name, Role: role, Status: StatusOK}
	s.items[category][id] = item
	s.logger.Debug().Str("category", string(category)).Str("id", id).Str("role", role).Msg("Tracking health")
	s.publish(item)
}

// Fail records err against an item. Repeated failures of the same kind keep
// the original Since and only bump the failure count.
func (s *Service) Fail(category HealthCategory, id string, err error) {
	if err == nil {
		s.Recover(category, id)
		return
	}
	kind, status := classify(err)

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.lookup(category, id)
	if item == nil {
		return
	}

	item.Failures++
	if item.Status == status && item.Kind == kind {
		item.Message = err.Error()
		return
	}

	previous := item.Status
	since := s.now()
	item.Status, item.Kind, item.Message, item.Since = status, kind, err.Error(), &since

	s.logger.Warn().
		Str("category", string(category)).
		Str("id", id).
		Str("role", item.Role).
		Str("from", string(previous)).
		Str("to", string(status)).
		Str("kind", kind).
		Err(err).
		Msg("Health status changed")
	s.publish(item)
}

// Recover returns an item to OK.
func (s *Service) Recover(category HealthCategory, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.lookup(category, id)
	if item == nil || item.Status == StatusOK {
		return
	}

	downFor := s.now().Sub(*item.Since)
	s.logger.Info().
		Str("category", string(category)).
		Str("id", id).
		Str("role", item.Role).
		Int("failures", item.Failures).
		Dur("after", downFor).
		Msg("Health recovered")

	item.Status, item.Kind, item.Message, item.Since, item.Failures = StatusOK, "", "", nil, 0
	s.publish(item)
}

// lookup must be called with mu held.
func (s *Service) lookup(category HealthCategory, id string) *HealthItem {
	item, ok := s.items[category][id]
	if !ok {
		s.logger.Warn().Str("category", string(category)).Str("id", id).Msg("Health update for untracked item")
		return nil
	}
	return item
}

// classify maps a failure to the kind shown to clients and the resulting status.
// Errors that carry no provider classification (a failed database ping) count as down.
func classify(err error) (string, HealthStatus) {
	switch kind := apierror.KindOf(err); {
	case kind == nil:
		return "", StatusDown
	case errors.Is(kind, apierror.ErrNetwork):
		return "network", StatusDown
	case errors.Is(kind, apierror.ErrUpstream):
		return "upstream", StatusDegraded
	case errors.Is(kind, apierror.ErrMalformedResponse):
		return "malformed", StatusDegraded
	case errors.Is(kind, apierror.ErrThrottled):
		return "throttled", StatusDegraded
	default:
		return "not_found", StatusDegraded
	}
}

// Item returns a copy of one item, or nil.
func (s *Service) Item(category HealthCategory, id string) *HealthItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, ok := s.items[category][id]; ok {
		c := *item
		return &c
	}
	return nil
}

// GetAll returns all health items grouped by category.
func (s *Service) GetAll() *HealthResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &HealthResponse{
		Metadata: s.sorted(CategoryMetadata),
		Database: s.sorted(CategoryDatabase),
	}
}

// ByCategory returns the items of one category sorted by id.
func (s *Service) ByCategory(category HealthCategory) []HealthItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(category)
}

// GetSummary counts items per status and derives what title requests can
// currently return from the provider roles.
func (s *Service) GetSummary() *HealthSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &HealthSummary{
		Categories: make([]CategorySummary, 0, len(AllCategories())),
		Roles:      make(map[string]HealthStatus),
	}
	for _, cat := range AllCategories() {
		cs := CategorySummary{Category: cat}
		for _, item := range s.items[cat] {
			switch item.Status {
			case StatusOK:
				cs.OK++
			case StatusDegraded:
				cs.Degraded++
			case StatusDown:
				cs.Down++
			}
			if cat == CategoryMetadata && item.Role != "" {
				summary.Roles[item.Role] = item.Status
			}
		}
		summary.HasIssues = summary.HasIssues || cs.Degraded > 0 || cs.Down > 0
		summary.Categories = append(summary.Categories, cs)
	}

	primary, hasPrimary := summary.Roles[RolePrimary]
	secondary, hasSecondary := summary.Roles[RoleSecondary]
	switch {
	case !hasPrimary || primary != StatusOK:
		summary.TitleViews = ViewsUnavailable
	case !hasSecondary || secondary != StatusOK:
		summary.TitleViews = ViewsWithoutRatings
	default:
		summary.TitleViews = ViewsComplete
	}
	return summary
}

func (s *Service) sorted(category HealthCategory) []HealthItem {
	items := make([]HealthItem, 0, len(s.items[category]))
	for _, item := range s.items[category] {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (s *Service) publish(item *HealthItem) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Broadcast(updateEvent, *item); err != nil {
		s.logger.Debug().Err(err).Str("id", item.ID).Msg("Health update not broadcast")
	}
}
