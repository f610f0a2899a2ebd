package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinescope/cinescope/internal/config"
	"github.com/cinescope/cinescope/internal/metadata/apierror"
)

const matrixJSON = `{
  "id": 603,
  "title": "The Matrix",
  "original_title": "The Matrix",
  "overview": "A computer hacker learns about the true nature of reality.",
  "release_date": "1999-03-30",
  "runtime": 136,
  "poster_path": "/matrix.jpg",
  "vote_average": 8.2,
  "vote_count": 24000,
  "imdb_id": "tt0133093",
  "genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}],
  "credits": {
    "cast": [
      {"name": "Keanu Reeves", "character": "Neo", "order": 0, "profile_path": "/keanu.jpg"},
      {"name": "Laurence Fishburne", "character": "Morpheus", "order": 1, "profile_path": null},
      {"name": "Carrie-Anne Moss", "character": "Trinity", "order": 2}
    ],
    "crew": [
      {"name": "Lana Wachowski", "job": "Director"},
      {"name": "Lilly Wachowski", "job": "Director"},
      {"name": "Lana Wachowski", "job": "Writer"},
      {"name": "Bill Pope", "job": "Director of Photography"}
    ]
  },
  "recommendations": {"page": 1, "results": [{"id": 604, "title": "The Matrix Reloaded", "release_date": "2003-05-15"}]},
  "similar": {"page": 1, "results": [{"id": 1, "title": "Adult", "adult": true}, {"id": 2, "title": "Dark City", "release_date": "1998-02-27"}]},
  "translations": {"translations": [{"iso_639_1": "en", "iso_3166_1": "US"}, {"iso_639_1": "de", "iso_3166_1": "DE"}]},
  "external_ids": {"imdb_id": "tt0133093"},
  "release_dates": {"results": [
    {"iso_3166_1": "DE", "release_dates": [{"certification": "16", "type": 3}]},
    {"iso_3166_1": "US", "release_dates": [{"certification": "", "type": 1}, {"certification": "R", "type": 3}]}
  ]}
}`

const breakingBadJSON = `{
  "id": 1396,
  "name": "Breaking Bad",
  "first_air_date": "2008-01-20",
  "episode_run_time": [0, 47],
  "number_of_seasons": 5,
  "number_of_episodes": 62,
  "created_by": [{"name": "Vince Gilligan"}],
  "genres": [{"id": 18, "name": "Drama"}],
  "vote_average": 8.9,
  "vote_count": 15000,
  "external_ids": {"imdb_id": "tt0903747"},
  "content_ratings": {"results": [{"iso_3166_1": "US", "rating": "TV-MA"}]}
}`

func newTestClient(server *httptest.Server) *Client {
	cfg := config.TMDBConfig{
		APIKey:       "test-api-key",
		BaseURL:      server.URL,
		ImageBaseURL: "https://image.tmdb.org/t/p",
		Timeout:      5,
		CastLimit:    2,
	}
	return NewClient(cfg, zerolog.Nop())
}

func TestClient_Name(t *testing.T) {
	client := NewClient(config.TMDBConfig{}, zerolog.Nop())
	assert.Equal(t, "tmdb", client.Name())
}

func TestClient_IsConfigured(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		want   bool
	}{
		{"with key", "abc123", true},
		{"without key", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(config.TMDBConfig{APIKey: tt.apiKey}, zerolog.Nop())
			assert.Equal(t, tt.want, client.IsConfigured())
		})
	}
}

func TestClient_GetTitle_Movie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603", r.URL.Path)
		assert.Equal(t, "test-api-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "de-DE", r.URL.Query().Get("language"))

		appends := r.URL.Query().Get("append_to_response")
		for _, want := range []string{"credits", "recommendations", "similar", "translations", "external_ids", "release_dates"} {
			assert.Contains(t, appends, want)
		}
		assert.NotContains(t, appends, "content_ratings")

		w.Write([]byte(matrixJSON))
	}))
	defer server.Close()

	client := newTestClient(server)
	record, err := client.GetTitle(context.Background(), KindMovie, 603, RequestOptions{Language: "de-DE", Region: "DE"})
	require.NoError(t, err)

	assert.Equal(t, 603, record.ID)
	assert.Equal(t, KindMovie, record.Kind)
	assert.Equal(t, "The Matrix", record.Title)
	assert.Equal(t, 1999, record.Year)
	require.NotNil(t, record.Runtime)
	assert.Equal(t, 136, *record.Runtime)
	assert.Equal(t, []string{"Action", "Science Fiction"}, record.Genres)
	assert.Equal(t, "tt0133093", record.ImdbID)
	assert.Equal(t, "16", record.Certification)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/matrix.jpg", record.PosterURL)
	assert.Empty(t, record.BackdropURL)

	require.Len(t, record.Cast, 2)
	assert.Equal(t, "Neo", record.Cast[0].Character)
	assert.Equal(t, "https://image.tmdb.org/t/p/w185/keanu.jpg", record.Cast[0].ProfileURL)
	assert.Empty(t, record.Cast[1].ProfileURL)
	assert.Equal(t, []string{"Lana Wachowski", "Lilly Wachowski"}, record.Crew.Directors)
	assert.Equal(t, []string{"Lana Wachowski"}, record.Crew.Writers)

	require.Len(t, record.Recommendations, 1)
	assert.Equal(t, 2003, record.Recommendations[0].Year)
	require.Len(t, record.Similar, 1, "adult titles are filtered unless requested")
	assert.Equal(t, "Dark City", record.Similar[0].Title)
	assert.Equal(t, []string{"en-US", "de-DE"}, record.Translations)
}

func TestClient_GetTitle_CertificationFallsBackToUS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(matrixJSON))
	}))
	defer server.Close()

	record, err := newTestClient(server).GetTitle(context.Background(), KindMovie, 603, RequestOptions{Region: "FR"})
	require.NoError(t, err)
	assert.Equal(t, "R", record.Certification)
}

func TestClient_GetTitle_Series(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tv/1396", r.URL.Path)
		appends := r.URL.Query().Get("append_to_response")
		assert.Contains(t, appends, "content_ratings")
		assert.NotContains(t, appends, "release_dates")
		w.Write([]byte(breakingBadJSON))
	}))
	defer server.Close()

	record, err := newTestClient(server).GetTitle(context.Background(), KindSeries, 1396, RequestOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Breaking Bad", record.Title)
	assert.Equal(t, KindSeries, record.Kind)
	assert.Equal(t, "2008-01-20", record.ReleaseDate)
	require.NotNil(t, record.Runtime)
	assert.Equal(t, 47, *record.Runtime)
	assert.Equal(t, 5, record.SeasonCount)
	assert.Equal(t, 62, record.EpisodeCount)
	assert.Equal(t, []string{"Vince Gilligan"}, record.Crew.Creators)
	assert.Equal(t, "tt0903747", record.ImdbID)
	assert.Equal(t, "TV-MA", record.Certification)
	assert.Empty(t, record.Cast)
	assert.NotNil(t, record.Recommendations)
}

func TestClient_GetTitle_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind error
	}{
		{"not found", http.StatusNotFound, `{"status_code":34,"status_message":"The resource you requested could not be found."}`, apierror.ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, `{"status_code":7,"status_message":"Invalid API key"}`, apierror.ErrUpstream},
		{"rate limited", http.StatusTooManyRequests, ``, apierror.ErrUpstream},
		{"server error", http.StatusBadGateway, ``, apierror.ErrUpstream},
		{"bad json", http.StatusOK, `{"id": "six"}`, apierror.ErrMalformedResponse},
		{"missing title", http.StatusOK, `{"id": 603}`, apierror.ErrMalformedResponse},
		{"missing id", http.StatusOK, `{"title": "Orphan"}`, apierror.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server).GetTitle(context.Background(), KindMovie, 603, RequestOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
		})
	}
}

func TestClient_GetTitle_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(server)
	server.Close()

	_, err := client.GetTitle(context.Background(), KindMovie, 603, RequestOptions{})
	assert.ErrorIs(t, err, apierror.ErrNetwork)
}

func TestClient_GetTitle_NotConfigured(t *testing.T) {
	client := NewClient(config.TMDBConfig{}, zerolog.Nop())
	_, err := client.GetTitle(context.Background(), KindMovie, 1, RequestOptions{})
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/tv", r.URL.Path)
		assert.Equal(t, "breaking", r.URL.Query().Get("query"))
		assert.Equal(t, "true", r.URL.Query().Get("include_adult"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Write([]byte(`{"page":2,"total_pages":3,"total_results":41,"results":[
			{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20","vote_average":8.9,"vote_count":15000,"adult":true}
		]}`))
	}))
	defer server.Close()

	page, err := newTestClient(server).Search(context.Background(), KindSeries, "breaking", 2, RequestOptions{IncludeAdult: true})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 41, page.TotalResults)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Breaking Bad", page.Results[0].Title)
	assert.Equal(t, KindSeries, page.Results[0].Kind)
	assert.Equal(t, 2008, page.Results[0].Year)
}

func TestClient_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trending/movie/week", r.URL.Path)
		assert.Equal(t, "GB", r.URL.Query().Get("region"))
		assert.Empty(t, r.URL.Query().Get("page"))
		w.Write([]byte(`{"page":1,"results":[{"id":603,"media_type":"movie","title":"The Matrix"},{"id":1396,"media_type":"tv","name":"Breaking Bad"}]}`))
	}))
	defer server.Close()

	page, err := newTestClient(server).List(context.Background(), KindMovie, "trending", 1, RequestOptions{Region: "GB"})
	require.NoError(t, err)

	require.Len(t, page.Results, 2)
	assert.Equal(t, KindMovie, page.Results[0].Kind)
	assert.Equal(t, KindSeries, page.Results[1].Kind)
	assert.Equal(t, "Breaking Bad", page.Results[1].Title)
}

func TestClient_List_InvalidCategory(t *testing.T) {
	client := NewClient(config.TMDBConfig{APIKey: "k"}, zerolog.Nop())
	_, err := client.List(context.Background(), KindSeries, "now_playing", 1, RequestOptions{})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"now_playing", "popular", "top_rated", "trending", "upcoming"}, Categories(KindMovie))
	assert.Contains(t, Categories(KindSeries), "airing_today")
}

func TestParseMediaKind(t *testing.T) {
	for in, want := range map[string]MediaKind{"movie": KindMovie, "TV": KindSeries, " series ": KindSeries} {
		got, err := ParseMediaKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseMediaKind("person")
	assert.ErrorIs(t, err, ErrInvalidMediaKind)
	assert.True(t, strings.Contains(err.Error(), "person"))
}

func TestClient_Test(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/configuration", r.URL.Path)
		w.Write([]byte(`{"images":{"base_url":"http://image.tmdb.org/t/p/"}}`))
	}))
	defer server.Close()

	assert.NoError(t, newTestClient(server).Test(context.Background()))
}
