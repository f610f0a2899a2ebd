package omdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinescope/cinescope/internal/config"
	"github.com/cinescope/cinescope/internal/metadata/apierror"
)

func newTestClient(server *httptest.Server) *Client {
	return NewClient(config.OMDBConfig{
		APIKey:  "test-key",
		BaseURL: server.URL + "/",
		Timeout: 5,
	}, zerolog.Nop())
}

func TestClient_GetByIMDbID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tt0133093", r.URL.Query().Get("i"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(`{
			"Title":"The Matrix","imdbRating":"8.7","imdbVotes":"2,012,345","Metascore":"73",
			"Ratings":[{"Source":"Internet Movie Database","Value":"8.7/10"},{"Source":"Rotten Tomatoes","Value":"83%"}],
			"imdbID":"tt0133093","Response":"True"}`))
	}))
	defer server.Close()

	resp, err := newTestClient(server).GetByIMDbID(context.Background(), "tt0133093")
	require.NoError(t, err)

	assert.Equal(t, "8.7", resp.ImdbRating)
	assert.Equal(t, "2,012,345", resp.ImdbVotes)
	require.Len(t, resp.Ratings, 2)
	assert.Equal(t, "Rotten Tomatoes", resp.Ratings[1].Source)
}

func TestClient_GetByIMDbID_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind error
	}{
		{"movie not found", http.StatusOK, `{"Response":"False","Error":"Movie not found!"}`, apierror.ErrNotFound},
		{"incorrect id", http.StatusOK, `{"Response":"False","Error":"Incorrect IMDb ID."}`, apierror.ErrNotFound},
		{"limit reached", http.StatusOK, `{"Response":"False","Error":"Request limit reached!"}`, apierror.ErrUpstream},
		{"invalid key", http.StatusUnauthorized, `{"Response":"False","Error":"Invalid API key!"}`, apierror.ErrUpstream},
		{"http 404", http.StatusNotFound, ``, apierror.ErrNotFound},
		{"http 503", http.StatusServiceUnavailable, `oops`, apierror.ErrUpstream},
		{"garbage body", http.StatusOK, `<html>`, apierror.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server).GetByIMDbID(context.Background(), "tt0000001")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
		})
	}
}

func TestClient_GetByIMDbID_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(server)
	server.Close()

	_, err := client.GetByIMDbID(context.Background(), "tt0133093")
	assert.ErrorIs(t, err, apierror.ErrNetwork)
}

func TestClient_GetByIMDbID_DeadlineShorterThanPacing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":"True"}`))
	}))
	defer server.Close()

	client := NewClient(config.OMDBConfig{APIKey: "k", BaseURL: server.URL, Timeout: 5, RequestsPerSecond: 1}, zerolog.Nop())

	_, err := client.GetByIMDbID(context.Background(), "tt1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = client.GetByIMDbID(ctx, "tt2")
	assert.ErrorIs(t, err, apierror.ErrThrottled)
	assert.NotErrorIs(t, err, apierror.ErrNetwork)
	assert.Equal(t, apierror.ErrThrottled, apierror.KindOf(err))
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient(config.OMDBConfig{}, zerolog.Nop())
	assert.False(t, client.IsConfigured())

	_, err := client.GetByIMDbID(context.Background(), "tt0133093")
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
	assert.ErrorIs(t, client.Test(context.Background()), ErrAPIKeyMissing)
}

func TestClient_EmptyID(t *testing.T) {
	client := NewClient(config.OMDBConfig{APIKey: "k"}, zerolog.Nop())
	_, err := client.GetByIMDbID(context.Background(), "")
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
