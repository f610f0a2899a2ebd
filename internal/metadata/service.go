package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cinescope/cinescope/internal/config"
	"github.com/cinescope/cinescope/internal/metadata/apierror"
	"github.com/cinescope/cinescope/internal/metadata/mock"
	"github.com/cinescope/cinescope/internal/metadata/omdb"
	"github.com/cinescope/cinescope/internal/metadata/ratings"
	"github.com/cinescope/cinescope/internal/metadata/tmdb"
)

const defaultMaxConcurrency = 8

var (
	ErrNoProvidersConfigured = errors.New("no metadata providers configured")
	ErrUnknownProvider       = errors.New("unknown metadata provider")
)

// ProviderInfo describes a metadata provider for status reporting.
type ProviderInfo struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Configured bool   `json:"configured"`
}

// Service assembles title views from the primary and secondary providers.
type Service struct {
	tmdb           TMDBClient
	omdb           OMDBClient
	maxConcurrency int
	logger         zerolog.Logger
	healthService  HealthService
}

// NewService creates a metadata service with real API clients, or canned
// ones when cfg.Mock is set.
func NewService(cfg config.MetadataConfig, logger zerolog.Logger) *Service {
	var (
		tmdbClient TMDBClient
		omdbClient OMDBClient
	)
	if cfg.Mock {
		tmdbClient = mock.NewTMDBClient()
		omdbClient = mock.NewOMDBClient()
	} else {
		tmdbClient = tmdb.NewClient(cfg.TMDB, logger)
		omdbClient = omdb.NewClient(cfg.OMDB, logger)
	}

	svc := NewServiceWithClients(tmdbClient, omdbClient, logger)
	svc.SetMaxConcurrency(cfg.MaxConcurrentRatings)
	return svc
}

// NewServiceWithClients creates a metadata service with custom clients (for testing/mocking).
func NewServiceWithClients(tmdbClient TMDBClient, omdbClient OMDBClient, logger zerolog.Logger) *Service {
	return &Service{
		tmdb:           tmdbClient,
		omdb:           omdbClient,
		maxConcurrency: defaultMaxConcurrency,
		logger:         logger.With().Str("component", "metadata").Logger(),
	}
}

// SetMaxConcurrency bounds the number of pipelines AggregateMany runs at once.
func (s *Service) SetMaxConcurrency(n int) {
	if n <= 0 {
		n = defaultMaxConcurrency
	}
	s.maxConcurrency = n
}

// SetHealthService sets the central health service for provider tracking.
func (s *Service) SetHealthService(hs HealthService) {
	s.healthService = hs
}

// RegisterMetadataProviders registers configured providers with the health service.
func (s *Service) RegisterMetadataProviders() {
	if s.healthService == nil {
		return
	}

	for _, p := range s.Providers() {
		if !p.Configured {
			continue
		}
		s.healthService.RegisterProvider(p.Name, p.Role)
		s.logger.Debug().Str("provider", p.Name).Str("role", p.Role).Msg("Registered metadata provider with health service")
	}
}

// Providers lists both providers and whether each has credentials.
func (s *Service) Providers() []ProviderInfo {
	out := []ProviderInfo{{Name: s.tmdb.Name(), Role: "primary", Configured: s.tmdb.IsConfigured()}}
	if s.omdb != nil {
		out = append(out, ProviderInfo{Name: s.omdb.Name(), Role: "secondary", Configured: s.omdb.IsConfigured()})
	}
	return out
}

// CheckProviders tests every configured provider, updates the health service
// and returns the failures keyed by provider name.
func (s *Service) CheckProviders(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for _, p := range s.clients() {
		if !p.IsConfigured() {
			continue
		}
		if err := p.Test(ctx); err != nil {
			failures[p.Name()] = err
			s.logger.Warn().Err(err).Str("provider", p.Name()).Msg("Metadata provider check failed")
		}
		s.reportHealth(p.Name(), failures[p.Name()])
	}
	return failures
}

// TestProvider checks a single provider by name and records the outcome.
func (s *Service) TestProvider(ctx context.Context, name string) error {
	for _, p := range s.clients() {
		if p.Name() != name {
			continue
		}
		err := p.Test(ctx)
		s.reportHealth(name, err)
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

type provider interface {
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
}

func (s *Service) clients() []provider {
	list := []provider{s.tmdb}
	if s.omdb != nil {
		list = append(list, s.omdb)
	}
	return list
}

// Aggregate builds the detail view of a title with default options.
func (s *Service) Aggregate(ctx context.Context, kind tmdb.MediaKind, id int) (*AggregatedView, error) {
	return s.AggregateWithOptions(ctx, kind, id, ViewOptions{})
}

// AggregateWithOptions runs the pipeline: fetch the primary record, resolve
// its IMDb id, fetch and normalize secondary ratings. Primary failures are
// returned as *PipelineError; secondary failures only mark the ratings
// unavailable. If ctx is done by the end, ctx.Err() is returned instead of a view.
func (s *Service) AggregateWithOptions(ctx context.Context, kind tmdb.MediaKind, id int, opts ViewOptions) (*AggregatedView, error) {
	if !s.tmdb.IsConfigured() {
		return nil, ErrNoProvidersConfigured
	}

	log := s.logger.With().Str("kind", string(kind)).Int("id", id).Logger()

	log.Debug().Str("stage", string(StageFetchingPrimary)).Msg("Pipeline stage")
	record, err := s.tmdb.GetTitle(ctx, kind, id, opts.requestOptions())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.reportProviderError(s.tmdb.Name(), err)
		log.Error().Err(err).Msg("Primary metadata fetch failed")
		return nil, &PipelineError{Stage: StageFetchingPrimary, Err: err}
	}
	s.reportHealth(s.tmdb.Name(), nil)

	view := &AggregatedView{
		TitleRecord:   *record,
		RatingsStatus: RatingsUnlinked,
	}

	log.Debug().Str("stage", string(StageResolvingReference)).Msg("Pipeline stage")
	if imdbID, ok := ResolveCrossReference(record); ok {
		view.Ratings, view.RatingsStatus = s.fetchRatings(ctx, log, imdbID)
	} else {
		log.Debug().Str("imdbId", record.ImdbID).Msg("No cross-reference, skipping ratings")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("stage", string(StageDone)).
		Str("title", view.Title).
		Str("ratingsStatus", string(view.RatingsStatus)).
		Msg("Aggregated title")

	return view, nil
}

// fetchRatings runs the secondary stages. It never fails: any error is
// reported as RatingsUnavailable.
func (s *Service) fetchRatings(ctx context.Context, log zerolog.Logger, imdbID string) (ratings.Secondary, RatingsStatus) {
	if s.omdb == nil || !s.omdb.IsConfigured() {
		log.Debug().Msg("Secondary provider not configured")
		return ratings.Secondary{}, RatingsUnavailable
	}

	log.Debug().Str("stage", string(StageFetchingSecondary)).Str("imdbId", imdbID).Msg("Pipeline stage")
	raw, err := s.omdb.GetByIMDbID(ctx, imdbID)
	if err != nil {
		if ctx.Err() == nil {
			s.reportProviderError(s.omdb.Name(), err)
		}
		log.Warn().Err(err).Str("imdbId", imdbID).Msg("Secondary ratings unavailable")
		return ratings.Secondary{}, RatingsUnavailable
	}
	s.reportHealth(s.omdb.Name(), nil)

	log.Debug().Str("stage", string(StageNormalizing)).Msg("Pipeline stage")
	secondary, malformed := ratings.Normalize(*raw)
	if len(malformed) > 0 {
		log.Warn().Strs("fields", malformed).Str("imdbId", imdbID).Msg("Dropped malformed rating fields")
	}
	return secondary, RatingsAvailable
}

// AggregateMany aggregates several titles concurrently, bounded by the
// configured limit. Entries keep the order of ids; a failed entry carries
// its error and does not affect the others.
func (s *Service) AggregateMany(ctx context.Context, kind tmdb.MediaKind, ids []int, opts ViewOptions) []ListEntry {
	entries := make([]ListEntry, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			entries[i].ID = id
			view, err := s.AggregateWithOptions(gctx, kind, id, opts)
			if err != nil {
				entries[i].Err = err
				entries[i].Error = err.Error()
				return nil
			}
			entries[i].View = view
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Debug().Str("kind", string(kind)).Int("count", len(ids)).Msg("Aggregated title list")
	return entries
}

// Search runs a primary-provider title search.
func (s *Service) Search(ctx context.Context, kind tmdb.MediaKind, query string, page int, opts ViewOptions) (*tmdb.Page, error) {
	if !s.tmdb.IsConfigured() {
		return nil, ErrNoProvidersConfigured
	}

	result, err := s.tmdb.Search(ctx, kind, query, page, opts.requestOptions())
	if err != nil {
		s.reportProviderError(s.tmdb.Name(), err)
		s.logger.Error().Err(err).Str("query", query).Str("kind", string(kind)).Msg("Title search failed")
		return nil, fmt.Errorf("title search failed: %w", err)
	}

	s.logger.Info().
		Str("query", query).
		Str("kind", string(kind)).
		Int("results", len(result.Results)).
		Msg("Title search completed")

	return result, nil
}

// List fetches one page of a browse category.
func (s *Service) List(ctx context.Context, kind tmdb.MediaKind, category string, page int, opts ViewOptions) (*tmdb.Page, error) {
	if !s.tmdb.IsConfigured() {
		return nil, ErrNoProvidersConfigured
	}

	result, err := s.tmdb.List(ctx, kind, category, page, opts.requestOptions())
	if err != nil {
		s.reportProviderError(s.tmdb.Name(), err)
		s.logger.Error().Err(err).Str("category", category).Str("kind", string(kind)).Msg("Title list failed")
		return nil, fmt.Errorf("title list failed: %w", err)
	}
	return result, nil
}

// reportProviderError marks a provider unhealthy for failures that point at
// the provider itself. Unknown ids, malformed records and local throttling do not.
func (s *Service) reportProviderError(name string, err error) {
	switch apierror.KindOf(err) {
	case apierror.ErrNetwork, apierror.ErrUpstream:
		s.reportHealth(name, err)
	}
}

func (s *Service) reportHealth(name string, err error) {
	if s.healthService == nil {
		return
	}
	if err != nil {
		s.healthService.ProviderFailed(name, err)
		return
	}
	s.healthService.ProviderRecovered(name)
}
