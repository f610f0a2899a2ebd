package mock

import (
	"context"
	"fmt"

	"github.com/cinescope/cinescope/internal/metadata/apierror"
	"github.com/cinescope/cinescope/internal/metadata/omdb"
)

// OMDBClient is a mock implementation of the OMDb client.
type OMDBClient struct{}

// NewOMDBClient creates a new mock OMDb client.
func NewOMDBClient() *OMDBClient {
	return &OMDBClient{}
}

func (c *OMDBClient) Name() string {
	return "omdb-mock"
}

func (c *OMDBClient) IsConfigured() bool {
	return true
}

func (c *OMDBClient) Test(ctx context.Context) error {
	return nil
}

func (c *OMDBClient) GetByIMDbID(ctx context.Context, imdbID string) (*omdb.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, apierror.Network("omdb-mock", err)
	}
	resp, ok := mockRatings[imdbID]
	if !ok {
		return nil, apierror.NotFound("omdb-mock", fmt.Errorf("%s", imdbID))
	}
	return &resp, nil
}

func rt(v string) []omdb.Rating {
	return []omdb.Rating{{Source: "Rotten Tomatoes", Value: v}}
}

var mockRatings = map[string]omdb.Response{
	"tt0133093": { // The Matrix
		Title: "The Matrix", ImdbID: "tt0133093", Type: "movie", Response: "True",
		ImdbRating: "8.7", ImdbVotes: "2,012,345", Metascore: "73", Ratings: rt("83%"),
		Awards: "Won 4 Oscars. 42 wins & 52 nominations total",
	},
	"tt0137523": { // Fight Club
		Title: "Fight Club", ImdbID: "tt0137523", Type: "movie", Response: "True",
		ImdbRating: "8.8", ImdbVotes: "2,200,000", Metascore: "66", Ratings: rt("79%"),
	},
	"tt0903747": { // Breaking Bad
		Title: "Breaking Bad", ImdbID: "tt0903747", Type: "series", Response: "True",
		ImdbRating: "9.5", ImdbVotes: "2,100,000", Metascore: "N/A", Ratings: rt("96%"),
	},
	"tt3032476": { // Better Call Saul
		Title: "Better Call Saul", ImdbID: "tt3032476", Type: "series", Response: "True",
		ImdbRating: "9.0", ImdbVotes: "N/A", Metascore: "N/A",
	},
}
