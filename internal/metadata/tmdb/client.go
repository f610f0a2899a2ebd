package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinescope/cinescope/internal/config"
	"github.com/cinescope/cinescope/internal/metadata/apierror"
)

const providerName = "tmdb"

var (
	ErrAPIKeyMissing    = errors.New("TMDB API key is not configured")
	ErrInvalidMediaKind = errors.New("invalid media kind")
	ErrInvalidCategory  = errors.New("invalid list category")
)

// listCategories maps a category to its endpoint per kind.
var listCategories = map[MediaKind]map[string]string{
	KindMovie: {
		"popular":     "/movie/popular",
		"top_rated":   "/movie/top_rated",
		"upcoming":    "/movie/upcoming",
		"now_playing": "/movie/now_playing",
		"trending":    "/trending/movie/week",
	},
	KindSeries: {
		"popular":      "/tv/popular",
		"top_rated":    "/tv/top_rated",
		"on_the_air":   "/tv/on_the_air",
		"airing_today": "/tv/airing_today",
		"trending":     "/trending/tv/week",
	},
}

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "tmdb").Logger(),
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

// Test verifies connectivity to the TMDB API by making a configuration request.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	var result struct {
		Images struct {
			BaseURL string `json:"base_url"`
		} `json:"images"`
	}
	return c.doRequest(ctx, "/configuration", c.baseParams(RequestOptions{}), &result)
}

// GetTitle fetches the full primary record of a movie or series in a single
// request, expanding credits, related titles, certifications, translations
// and external ids.
func (c *Client) GetTitle(ctx context.Context, kind MediaKind, id int, opts RequestOptions) (*TitleRecord, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}
	if kind != KindMovie && kind != KindSeries {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMediaKind, kind)
	}

	appends := []string{"credits", "recommendations", "similar", "translations", "external_ids"}
	if kind == KindMovie {
		appends = append(appends, "release_dates")
	} else {
		appends = append(appends, "content_ratings")
	}

	params := c.baseParams(opts)
	params.Set("append_to_response", strings.Join(appends, ","))

	var details detailsResponse
	endpoint := fmt.Sprintf("/%s/%d", kind.pathSegment(), id)
	if err := c.doRequest(ctx, endpoint, params, &details); err != nil {
		return nil, err
	}

	record, err := c.toTitleRecord(kind, details, opts)
	if err != nil {
		c.logger.Warn().Err(err).Int("id", id).Str("kind", string(kind)).Msg("Rejected malformed TMDB record")
		return nil, err
	}

	c.logger.Debug().
		Int("id", id).
		Str("kind", string(kind)).
		Str("title", record.Title).
		Str("imdbId", record.ImdbID).
		Msg("Got title details")

	return record, nil
}

// Search runs a title search for the kind.
func (c *Client) Search(ctx context.Context, kind MediaKind, query string, page int, opts RequestOptions) (*Page, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}
	if kind != KindMovie && kind != KindSeries {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMediaKind, kind)
	}

	params := c.baseParams(opts)
	params.Set("query", query)
	params.Set("include_adult", strconv.FormatBool(opts.IncludeAdult))
	setPage(params, page)

	var response listResponse
	if err := c.doRequest(ctx, "/search/"+kind.pathSegment(), params, &response); err != nil {
		return nil, err
	}

	result := c.toPage(kind, response, opts.IncludeAdult)

	c.logger.Debug().
		Str("query", query).
		Str("kind", string(kind)).
		Int("results", len(result.Results)).
		Msg("Search completed")

	return result, nil
}

// List fetches one page of a browse category such as "popular" or "trending".
func (c *Client) List(ctx context.Context, kind MediaKind, category string, page int, opts RequestOptions) (*Page, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}
	endpoint, ok := listCategories[kind][category]
	if !ok {
		return nil, fmt.Errorf("%w: %q for %s", ErrInvalidCategory, category, kind)
	}

	params := c.baseParams(opts)
	if opts.Region != "" {
		params.Set("region", opts.Region)
	}
	setPage(params, page)

	var response listResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	return c.toPage(kind, response, opts.IncludeAdult), nil
}

// Categories returns the browse categories valid for kind, sorted.
func Categories(kind MediaKind) []string {
	names := make([]string, 0, len(listCategories[kind]))
	for name := range listCategories[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetImageURL returns a full image URL for a given path and size.
func (c *Client) GetImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", c.config.ImageBaseURL, size, path)
}

func (c *Client) baseParams(opts RequestOptions) url.Values {
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	if opts.Language != "" {
		params.Set("language", opts.Language)
	}
	return params
}

func setPage(params url.Values, page int) {
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	reqURL := c.config.BaseURL + endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return apierror.Network(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.StatusMessage != "" {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("endpoint", endpoint).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return apierror.NotFound(providerName, fmt.Errorf("%s", endpoint))
		case http.StatusUnauthorized:
			return apierror.Upstream(providerName, errors.New("invalid API key"))
		case http.StatusTooManyRequests:
			return apierror.Upstream(providerName, errors.New("rate limited"))
		default:
			return apierror.Upstream(providerName, fmt.Errorf("status %d", resp.StatusCode))
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return apierror.Malformed(providerName, fmt.Errorf("failed to decode response: %w", err))
	}

	return nil
}
