package metadata

import (
	"context"

	"github.com/cinescope/cinescope/internal/metadata/omdb"
	"github.com/cinescope/cinescope/internal/metadata/tmdb"
)

// TMDBClient defines the interface for the primary metadata provider.
type TMDBClient interface {
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
	GetTitle(ctx context.Context, kind tmdb.MediaKind, id int, opts tmdb.RequestOptions) (*tmdb.TitleRecord, error)
	Search(ctx context.Context, kind tmdb.MediaKind, query string, page int, opts tmdb.RequestOptions) (*tmdb.Page, error)
	List(ctx context.Context, kind tmdb.MediaKind, category string, page int, opts tmdb.RequestOptions) (*tmdb.Page, error)
}

// OMDBClient defines the interface for the secondary ratings provider.
type OMDBClient interface {
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
	GetByIMDbID(ctx context.Context, imdbID string) (*omdb.Response, error)
}

// HealthService records provider availability. role is "primary" or "secondary".
type HealthService interface {
	RegisterProvider(name, role string)
	ProviderFailed(name string, err error)
	ProviderRecovered(name string)
}
