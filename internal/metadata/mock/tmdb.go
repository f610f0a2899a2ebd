// Package mock provides canned metadata providers for front-end development
// without API keys.
package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/cinescope/cinescope/internal/metadata/apierror"
	"github.com/cinescope/cinescope/internal/metadata/tmdb"
)

const imageBase = "https://image.tmdb.org/t/p"

// TMDBClient is a mock implementation of the TMDB client.
type TMDBClient struct{}

// NewTMDBClient creates a new mock TMDB client.
func NewTMDBClient() *TMDBClient {
	return &TMDBClient{}
}

func (c *TMDBClient) Name() string {
	return "tmdb-mock"
}

func (c *TMDBClient) IsConfigured() bool {
	return true
}

func (c *TMDBClient) Test(ctx context.Context) error {
	return nil
}

func (c *TMDBClient) GetTitle(ctx context.Context, kind tmdb.MediaKind, id int, opts tmdb.RequestOptions) (*tmdb.TitleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, apierror.Network("tmdb-mock", err)
	}
	for i := range mockTitles {
		t := mockTitles[i]
		if t.Kind == kind && t.ID == id {
			return &t, nil
		}
	}
	return nil, apierror.NotFound("tmdb-mock", fmt.Errorf("%s %d", kind, id))
}

func (c *TMDBClient) Search(ctx context.Context, kind tmdb.MediaKind, query string, page int, opts tmdb.RequestOptions) (*tmdb.Page, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	var results []tmdb.TitleSummary
	for i := range mockTitles {
		t := &mockTitles[i]
		if t.Kind == kind && strings.Contains(strings.ToLower(t.Title), query) {
			results = append(results, summaryOf(t))
		}
	}
	return pageOf(results), nil
}

func (c *TMDBClient) List(ctx context.Context, kind tmdb.MediaKind, category string, page int, opts tmdb.RequestOptions) (*tmdb.Page, error) {
	if !validCategory(kind, category) {
		return nil, fmt.Errorf("%w: %q for %s", tmdb.ErrInvalidCategory, category, kind)
	}
	var results []tmdb.TitleSummary
	for i := range mockTitles {
		if mockTitles[i].Kind == kind {
			results = append(results, summaryOf(&mockTitles[i]))
		}
	}
	return pageOf(results), nil
}

func validCategory(kind tmdb.MediaKind, category string) bool {
	for _, c := range tmdb.Categories(kind) {
		if c == category {
			return true
		}
	}
	return false
}

func summaryOf(t *tmdb.TitleRecord) tmdb.TitleSummary {
	return tmdb.TitleSummary{
		ID:          t.ID,
		Kind:        t.Kind,
		Title:       t.Title,
		Overview:    t.Overview,
		ReleaseDate: t.ReleaseDate,
		Year:        t.Year,
		PosterURL:   t.PosterURL,
		VoteAverage: t.VoteAverage,
		VoteCount:   t.VoteCount,
	}
}

func pageOf(results []tmdb.TitleSummary) *tmdb.Page {
	if results == nil {
		results = []tmdb.TitleSummary{}
	}
	return &tmdb.Page{Page: 1, TotalPages: 1, TotalResults: len(results), Results: results}
}

func intPtr(v int) *int { return &v }

var mockTitles = []tmdb.TitleRecord{
	{
		ID:            603,
		Kind:          tmdb.KindMovie,
		Title:         "The Matrix",
		OriginalTitle: "The Matrix",
		Overview:      "A hacker learns the world he lives in is a simulation.",
		Tagline:       "Welcome to the Real World.",
		Status:        "Released",
		ReleaseDate:   "1999-03-30",
		Year:          1999,
		Runtime:       intPtr(136),
		Genres:        []string{"Action", "Science Fiction"},
		Cast: []tmdb.CastMember{
			{Name: "Keanu Reeves", Character: "Neo"},
			{Name: "Laurence Fishburne", Character: "Morpheus"},
			{Name: "Carrie-Anne Moss", Character: "Trinity"},
		},
		Crew:            tmdb.CrewSummary{Directors: []string{"Lana Wachowski", "Lilly Wachowski"}, Writers: []string{"Lana Wachowski", "Lilly Wachowski"}},
		VoteAverage:     8.2,
		VoteCount:       26000,
		ImdbID:          "tt0133093",
		Certification:   "R",
		PosterURL:       imageBase + "/w500/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg",
		BackdropURL:     imageBase + "/w1280/ncEsesgOJDNrTUED89hYbA117wo.jpg",
		Recommendations: []tmdb.TitleSummary{{ID: 550, Kind: tmdb.KindMovie, Title: "Fight Club", Year: 1999}},
		Similar:         []tmdb.TitleSummary{},
		Translations:    []string{"en-US", "de-DE", "fr-FR"},
	},
	{
		ID:              550,
		Kind:            tmdb.KindMovie,
		Title:           "Fight Club",
		OriginalTitle:   "Fight Club",
		Overview:        "An insomniac office worker and a soap maker form an underground fight club.",
		Status:          "Released",
		ReleaseDate:     "1999-10-15",
		Year:            1999,
		Runtime:         intPtr(139),
		Genres:          []string{"Drama"},
		Cast:            []tmdb.CastMember{{Name: "Brad Pitt", Character: "Tyler Durden"}, {Name: "Edward Norton", Character: "The Narrator"}},
		Crew:            tmdb.CrewSummary{Directors: []string{"David Fincher"}, Writers: []string{"Jim Uhls"}},
		VoteAverage:     8.4,
		VoteCount:       30000,
		ImdbID:          "tt0137523",
		Certification:   "R",
		Recommendations: []tmdb.TitleSummary{},
		Similar:         []tmdb.TitleSummary{},
		Translations:    []string{"en-US"},
	},
	{
		ID:              900001,
		Kind:            tmdb.KindMovie,
		Title:           "Untitled Short",
		Overview:        "A short without an IMDb entry.",
		ReleaseDate:     "2024-01-01",
		Year:            2024,
		Genres:          []string{"Animation"},
		Cast:            []tmdb.CastMember{},
		Recommendations: []tmdb.TitleSummary{},
		Similar:         []tmdb.TitleSummary{},
		Translations:    []string{},
	},
	{
		ID:            1396,
		Kind:          tmdb.KindSeries,
		Title:         "Breaking Bad",
		OriginalTitle: "Breaking Bad",
		Overview:      "A chemistry teacher turns to manufacturing methamphetamine.",
		Status:        "Ended",
		ReleaseDate:   "2008-01-20",
		Year:          2008,
		Runtime:       intPtr(47),
		Genres:        []string{"Drama", "Crime"},
		Cast: []tmdb.CastMember{
			{Name: "Bryan Cranston", Character: "Walter White"},
			{Name: "Aaron Paul", Character: "Jesse Pinkman"},
		},
		Crew:            tmdb.CrewSummary{Creators: []string{"Vince Gilligan"}},
		VoteAverage:     8.9,
		VoteCount:       14000,
		ImdbID:          "tt0903747",
		Certification:   "TV-MA",
		Recommendations: []tmdb.TitleSummary{{ID: 60059, Kind: tmdb.KindSeries, Title: "Better Call Saul", Year: 2015}},
		Similar:         []tmdb.TitleSummary{},
		Translations:    []string{"en-US", "es-ES"},
		SeasonCount:     5,
		EpisodeCount:    62,
	},
	{
		ID:              60059,
		Kind:            tmdb.KindSeries,
		Title:           "Better Call Saul",
		Overview:        "The trials of a small-time lawyer six years before Breaking Bad.",
		Status:          "Ended",
		ReleaseDate:     "2015-02-08",
		Year:            2015,
		Genres:          []string{"Crime", "Drama"},
		Cast:            []tmdb.CastMember{{Name: "Bob Odenkirk", Character: "Saul Goodman"}},
		Crew:            tmdb.CrewSummary{Creators: []string{"Vince Gilligan", "Peter Gould"}},
		VoteAverage:     8.7,
		VoteCount:       5000,
		ImdbID:          "tt3032476",
		Certification:   "TV-MA",
		Recommendations: []tmdb.TitleSummary{},
		Similar:         []tmdb.TitleSummary{},
		Translations:    []string{"en-US"},
		SeasonCount:     6,
		EpisodeCount:    63,
	},
}
