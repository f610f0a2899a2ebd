package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/cinescope/cinescope/internal/config"
	"github.com/cinescope/cinescope/internal/metadata/apierror"
)

const providerName = "omdb"

var ErrAPIKeyMissing = errors.New("OMDb API key is not configured")

// notFoundMessages are the OMDb error strings that mean "no such title".
var notFoundMessages = []string{"movie not found", "series not found", "incorrect imdb id", "error getting data"}

// Client is an OMDb API client.
type Client struct {
	httpClient *http.Client
	config     config.OMDBConfig
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new OMDb client. Requests are paced at
// cfg.RequestsPerSecond; zero or less disables pacing.
func NewClient(cfg config.OMDBConfig, logger zerolog.Logger) *Client {
	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = cfg.RequestsPerSecond
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config:  cfg,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With().Str("component", "omdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return providerName
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Test verifies connectivity to the OMDb API.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	_, err := c.GetByIMDbID(ctx, "tt0133093") // The Matrix
	return err
}

// GetByIMDbID fetches the raw ratings payload for a title by IMDb ID.
func (c *Client) GetByIMDbID(ctx context.Context, imdbID string) (*Response, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}
	if imdbID == "" {
		return nil, apierror.NotFound(providerName, errors.New("empty IMDb id"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apierror.Throttled(providerName, fmt.Errorf("rate limit wait: %w", err))
	}

	params := url.Values{}
	params.Set("apikey", c.config.APIKey)
	params.Set("i", imdbID)

	reqURL := fmt.Sprintf("%s?%s", c.config.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("imdbId", imdbID).Msg("HTTP request failed")
		return nil, apierror.Network(providerName, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apierror.NotFound(providerName, fmt.Errorf("%s", imdbID))
	case resp.StatusCode != http.StatusOK:
		// OMDb answers 401 for a bad key, but still with a JSON body; fall through to it when present.
		var body Response
		if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Error != "" {
			return nil, c.classify(imdbID, body.Error)
		}
		return nil, apierror.Upstream(providerName, fmt.Errorf("status %d", resp.StatusCode))
	}

	var omdbResp Response
	if err := json.NewDecoder(resp.Body).Decode(&omdbResp); err != nil {
		return nil, apierror.Malformed(providerName, fmt.Errorf("failed to decode response: %w", err))
	}

	if strings.EqualFold(omdbResp.Response, "False") {
		return nil, c.classify(imdbID, omdbResp.Error)
	}

	c.logger.Debug().
		Str("imdbId", imdbID).
		Str("imdbRating", omdbResp.ImdbRating).
		Int("sources", len(omdbResp.Ratings)).
		Msg("Fetched OMDb ratings")

	return &omdbResp, nil
}

func (c *Client) classify(imdbID, message string) error {
	lower := strings.ToLower(message)
	for _, m := range notFoundMessages {
		if strings.Contains(lower, m) {
			return apierror.NotFound(providerName, errors.New(message))
		}
	}
	c.logger.Warn().Str("error", message).Str("imdbId", imdbID).Msg("OMDb API returned error")
	return apierror.Upstream(providerName, errors.New(message))
}
