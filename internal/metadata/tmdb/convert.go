package tmdb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cinescope/cinescope/internal/metadata/apierror"
)

const (
	posterSize   = "w500"
	backdropSize = "w1280"
	profileSize  = "w185"

	defaultRegion   = "US"
	theatricalType  = 3
	defaultCastSize = 10
)

func (c *Client) toTitleRecord(kind MediaKind, d detailsResponse, opts RequestOptions) (*TitleRecord, error) {
	title := d.Title
	original := d.OriginalTitle
	date := d.ReleaseDate
	if kind == KindSeries {
		title = d.Name
		original = d.OriginalName
		date = d.FirstAirDate
	}

	if d.ID <= 0 {
		return nil, apierror.Malformed(providerName, errors.New("record has no id"))
	}
	if strings.TrimSpace(title) == "" {
		return nil, apierror.Malformed(providerName, fmt.Errorf("record %d has no title", d.ID))
	}

	record := &TitleRecord{
		ID:            d.ID,
		Kind:          kind,
		Title:         title,
		OriginalTitle: original,
		Overview:      d.Overview,
		Tagline:       d.Tagline,
		Status:        d.Status,
		ReleaseDate:   date,
		Year:          yearOf(date),
		Runtime:       runtimeOf(kind, d),
		Genres:        make([]string, 0, len(d.Genres)),
		VoteAverage:   d.VoteAverage,
		VoteCount:     d.VoteCount,
		ImdbID:        imdbIDOf(d),
		PosterURL:     c.GetImageURL(deref(d.PosterPath), posterSize),
		BackdropURL:   c.GetImageURL(deref(d.BackdropPath), backdropSize),
		SeasonCount:   d.NumberOfSeasons,
		EpisodeCount:  d.NumberOfEps,
	}

	for _, g := range d.Genres {
		record.Genres = append(record.Genres, g.Name)
	}

	record.Cast, record.Crew = c.summarizeCredits(d.Credits)
	for _, cr := range d.CreatedBy {
		record.Crew.Creators = append(record.Crew.Creators, cr.Name)
	}

	record.Recommendations = c.summaries(kind, d.Recommendations, opts.IncludeAdult)
	record.Similar = c.summaries(kind, d.Similar, opts.IncludeAdult)
	record.Translations = translationCodes(d.Translations)
	record.Certification = certificationOf(kind, d, opts.Region)

	return record, nil
}

func (c *Client) summarizeCredits(cr *credits) ([]CastMember, CrewSummary) {
	cast := []CastMember{}
	var crew CrewSummary
	if cr == nil {
		return cast, crew
	}

	limit := c.config.CastLimit
	if limit <= 0 {
		limit = defaultCastSize
	}
	for _, member := range cr.Cast {
		if len(cast) == limit {
			break
		}
		cast = append(cast, CastMember{
			Name:       member.Name,
			Character:  member.Character,
			ProfileURL: c.GetImageURL(deref(member.ProfilePath), profileSize),
		})
	}

	for _, member := range cr.Crew {
		switch member.Job {
		case "Director":
			crew.Directors = appendUnique(crew.Directors, member.Name)
		case "Screenplay", "Writer", "Story", "Novel":
			crew.Writers = appendUnique(crew.Writers, member.Name)
		}
	}
	return cast, crew
}

func (c *Client) summaries(kind MediaKind, list *listResponse, includeAdult bool) []TitleSummary {
	out := []TitleSummary{}
	if list == nil {
		return out
	}
	for _, r := range list.Results {
		if r.Adult && !includeAdult {
			continue
		}
		out = append(out, c.toSummary(kind, r))
	}
	return out
}

func (c *Client) toPage(kind MediaKind, resp listResponse, includeAdult bool) *Page {
	return &Page{
		Page:         resp.Page,
		TotalPages:   resp.TotalPages,
		TotalResults: resp.TotalResults,
		Results:      c.summaries(kind, &resp, includeAdult),
	}
}

func (c *Client) toSummary(kind MediaKind, r listResult) TitleSummary {
	// Trending endpoints mix kinds; trust the per-row media type when present.
	switch r.MediaType {
	case "movie":
		kind = KindMovie
	case "tv":
		kind = KindSeries
	}

	title, date := r.Title, r.ReleaseDate
	if kind == KindSeries {
		title, date = r.Name, r.FirstAirDate
	}

	return TitleSummary{
		ID:          r.ID,
		Kind:        kind,
		Title:       title,
		Overview:    r.Overview,
		ReleaseDate: date,
		Year:        yearOf(date),
		PosterURL:   c.GetImageURL(deref(r.PosterPath), posterSize),
		VoteAverage: r.VoteAverage,
		VoteCount:   r.VoteCount,
	}
}

func runtimeOf(kind MediaKind, d detailsResponse) *int {
	if kind == KindMovie {
		if d.Runtime != nil && *d.Runtime > 0 {
			v := *d.Runtime
			return &v
		}
		return nil
	}
	for _, rt := range d.EpisodeRunTime {
		if rt > 0 {
			v := rt
			return &v
		}
	}
	return nil
}

// imdbIDOf prefers the external_ids block and falls back to the movie's top-level field.
func imdbIDOf(d detailsResponse) string {
	if d.ExternalIDs != nil && d.ExternalIDs.ImdbID != nil && *d.ExternalIDs.ImdbID != "" {
		return *d.ExternalIDs.ImdbID
	}
	return deref(d.ImdbID)
}

func certificationOf(kind MediaKind, d detailsResponse, region string) string {
	if region == "" {
		region = defaultRegion
	}

	if kind == KindSeries {
		if d.ContentRatings == nil {
			return ""
		}
		find := func(r string) string {
			for _, cr := range d.ContentRatings.Results {
				if strings.EqualFold(cr.Region, r) && cr.Rating != "" {
					return cr.Rating
				}
			}
			return ""
		}
		if cert := find(region); cert != "" {
			return cert
		}
		return find(defaultRegion)
	}

	if d.ReleaseDates == nil {
		return ""
	}
	find := func(r string) string {
		var fallback string
		for _, byRegion := range d.ReleaseDates.Results {
			if !strings.EqualFold(byRegion.Region, r) {
				continue
			}
			for _, rd := range byRegion.ReleaseDates {
				if rd.Certification == "" {
					continue
				}
				if rd.Type == theatricalType {
					return rd.Certification
				}
				if fallback == "" {
					fallback = rd.Certification
				}
			}
		}
		return fallback
	}
	if cert := find(region); cert != "" {
		return cert
	}
	return find(defaultRegion)
}

func translationCodes(t *translations) []string {
	codes := []string{}
	if t == nil {
		return codes
	}
	for _, tr := range t.Translations {
		code := tr.Language
		if tr.Country != "" {
			code += "-" + tr.Country
		}
		codes = appendUnique(codes, code)
	}
	return codes
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
