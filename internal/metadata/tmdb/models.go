package tmdb

import (
	"fmt"
	"strings"
)

// MediaKind selects the movie or series flavour of an endpoint.
type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindSeries MediaKind = "series"
)

// ParseMediaKind accepts "movie", "series" and TMDB's own "tv".
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return KindMovie, nil
	case "series", "tv", "show":
		return KindSeries, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMediaKind, s)
	}
}

// pathSegment is the TMDB URL segment for the kind.
func (k MediaKind) pathSegment() string {
	if k == KindSeries {
		return "tv"
	}
	return "movie"
}

// RequestOptions carries caller preferences that shape a request.
type RequestOptions struct {
	Language     string // e.g. "en-US"; empty uses the provider default
	Region       string // ISO 3166-1, used to pick certifications
	IncludeAdult bool
}

// TitleRecord is the canonical primary record of a movie or series.
type TitleRecord struct {
	ID              int            `json:"id"`
	Kind            MediaKind      `json:"kind"`
	Title           string         `json:"title"`
	OriginalTitle   string         `json:"originalTitle,omitempty"`
	Overview        string         `json:"overview,omitempty"`
	Tagline         string         `json:"tagline,omitempty"`
	Status          string         `json:"status,omitempty"`
	ReleaseDate     string         `json:"releaseDate,omitempty"`
	Year            int            `json:"year,omitempty"`
	Runtime         *int           `json:"runtime,omitempty"`
	Genres          []string       `json:"genres"`
	Cast            []CastMember   `json:"cast"`
	Crew            CrewSummary    `json:"crew"`
	VoteAverage     float64        `json:"voteAverage"`
	VoteCount       int            `json:"voteCount"`
	ImdbID          string         `json:"imdbId,omitempty"`
	Certification   string         `json:"certification,omitempty"`
	PosterURL       string         `json:"posterUrl,omitempty"`
	BackdropURL     string         `json:"backdropUrl,omitempty"`
	Recommendations []TitleSummary `json:"recommendations"`
	Similar         []TitleSummary `json:"similar"`
	Translations    []string       `json:"translations"`
	SeasonCount     int            `json:"seasonCount,omitempty"`
	EpisodeCount    int            `json:"episodeCount,omitempty"`
}

// CastMember is a billed performer.
type CastMember struct {
	Name       string `json:"name"`
	Character  string `json:"character,omitempty"`
	ProfileURL string `json:"profileUrl,omitempty"`
}

// CrewSummary lists the key creative roles.
type CrewSummary struct {
	Directors []string `json:"directors,omitempty"`
	Writers   []string `json:"writers,omitempty"`
	Creators  []string `json:"creators,omitempty"`
}

// TitleSummary is a list/search entry.
type TitleSummary struct {
	ID          int       `json:"id"`
	Kind        MediaKind `json:"kind"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview,omitempty"`
	ReleaseDate string    `json:"releaseDate,omitempty"`
	Year        int       `json:"year,omitempty"`
	PosterURL   string    `json:"posterUrl,omitempty"`
	VoteAverage float64   `json:"voteAverage"`
	VoteCount   int       `json:"voteCount"`
}

// Page is one page of list or search results.
type Page struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"totalPages"`
	TotalResults int            `json:"totalResults"`
	Results      []TitleSummary `json:"results"`
}

// Wire types below mirror the TMDB v3 JSON.

type genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type castCredit struct {
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	Order       int     `json:"order"`
	ProfilePath *string `json:"profile_path"`
}

type crewCredit struct {
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

type credits struct {
	Cast []castCredit `json:"cast"`
	Crew []crewCredit `json:"crew"`
}

type listResult struct {
	ID           int     `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   *string `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Adult        bool    `json:"adult"`
}

type listResponse struct {
	Page         int          `json:"page"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
	Results      []listResult `json:"results"`
}

type translation struct {
	Language string `json:"iso_639_1"`
	Country  string `json:"iso_3166_1"`
}

type translations struct {
	Translations []translation `json:"translations"`
}

type externalIDs struct {
	ImdbID *string `json:"imdb_id"`
}

type releaseDate struct {
	Certification string `json:"certification"`
	Type          int    `json:"type"`
	ReleaseDate   string `json:"release_date"`
}

type releaseDatesByRegion struct {
	Region       string        `json:"iso_3166_1"`
	ReleaseDates []releaseDate `json:"release_dates"`
}

type releaseDates struct {
	Results []releaseDatesByRegion `json:"results"`
}

type contentRating struct {
	Region string `json:"iso_3166_1"`
	Rating string `json:"rating"`
}

type contentRatings struct {
	Results []contentRating `json:"results"`
}

type creator struct {
	Name string `json:"name"`
}

// detailsResponse covers both /movie/{id} and /tv/{id} with their appended blocks.
type detailsResponse struct {
	ID              int             `json:"id"`
	Title           string          `json:"title"`
	Name            string          `json:"name"`
	OriginalTitle   string          `json:"original_title"`
	OriginalName    string          `json:"original_name"`
	Overview        string          `json:"overview"`
	Tagline         string          `json:"tagline"`
	Status          string          `json:"status"`
	ReleaseDate     string          `json:"release_date"`
	FirstAirDate    string          `json:"first_air_date"`
	Runtime         *int            `json:"runtime"`
	EpisodeRunTime  []int           `json:"episode_run_time"`
	Genres          []genre         `json:"genres"`
	VoteAverage     float64         `json:"vote_average"`
	VoteCount       int             `json:"vote_count"`
	ImdbID          *string         `json:"imdb_id"`
	PosterPath      *string         `json:"poster_path"`
	BackdropPath    *string         `json:"backdrop_path"`
	NumberOfSeasons int             `json:"number_of_seasons"`
	NumberOfEps     int             `json:"number_of_episodes"`
	CreatedBy       []creator       `json:"created_by"`
	Credits         *credits        `json:"credits"`
	Recommendations *listResponse   `json:"recommendations"`
	Similar         *listResponse   `json:"similar"`
	Translations    *translations   `json:"translations"`
	ExternalIDs     *externalIDs    `json:"external_ids"`
	ReleaseDates    *releaseDates   `json:"release_dates"`
	ContentRatings  *contentRatings `json:"content_ratings"`
}

// errorResponse is an error body from the TMDB API.
type errorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}
