// Package ratings turns the string-typed OMDb payload into numeric scores.
//
// Every field is extracted on its own: "N/A" or an empty value means the
// provider has no data and the field stays nil; anything unparseable also
// leaves the field nil and is reported back by name, without affecting the
// remaining fields.
package ratings

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cinescope/cinescope/internal/metadata/omdb"
)

// RottenTomatoesSource is the label of the Rotten Tomatoes entry in the ratings list.
const RottenTomatoesSource = "Rotten Tomatoes"

const notAvailable = "N/A"

var votesPattern = regexp.MustCompile(`^\d{1,3}(,\d{3})*$|^\d+$`)

// Field names reported for malformed values.
const (
	FieldImdbRating     = "imdbRating"
	FieldImdbVotes      = "imdbVotes"
	FieldRottenTomatoes = "rottenTomatoes"
	FieldMetacritic     = "metascore"
)

// Secondary holds normalized secondary-source ratings. Nil means absent.
type Secondary struct {
	ImdbRating     *float64 `json:"imdbRating,omitempty"`     // 0-10
	ImdbVotes      *int     `json:"imdbVotes,omitempty"`      // count
	RottenTomatoes *int     `json:"rottenTomatoes,omitempty"` // 0-100
	Metacritic     *int     `json:"metacritic,omitempty"`     // 0-100
}

// IsEmpty reports whether no rating is present.
func (s Secondary) IsEmpty() bool {
	return s.ImdbRating == nil && s.ImdbVotes == nil && s.RottenTomatoes == nil && s.Metacritic == nil
}

// Normalize converts a raw payload. The second result names the fields that
// carried a value which could not be parsed.
func Normalize(raw omdb.Response) (Secondary, []string) {
	var out Secondary
	var malformed []string

	check := func(field string, present, ok bool) {
		if present && !ok {
			malformed = append(malformed, field)
		}
	}

	var present, ok bool

	out.ImdbRating, present, ok = parseScore(raw.ImdbRating)
	check(FieldImdbRating, present, ok)

	out.ImdbVotes, present, ok = parseVotes(raw.ImdbVotes)
	check(FieldImdbVotes, present, ok)

	out.RottenTomatoes, present, ok = parsePercent(sourceValue(raw.Ratings, RottenTomatoesSource))
	check(FieldRottenTomatoes, present, ok)

	out.Metacritic, present, ok = parseInt(raw.Metascore, 100)
	check(FieldMetacritic, present, ok)

	return out, malformed
}

// sourceValue returns the value of the first entry whose label matches source.
func sourceValue(list []omdb.Rating, source string) string {
	for _, r := range list {
		if strings.EqualFold(strings.TrimSpace(r.Source), source) {
			return r.Value
		}
	}
	return ""
}

// clean trims the value and reports whether it carries data at all.
func clean(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, notAvailable) {
		return "", false
	}
	return s, true
}

// parseScore parses a 0-10 score such as "8.7" (or "8.7/10").
func parseScore(s string) (*float64, bool, bool) {
	s, present := clean(s)
	if !present {
		return nil, false, true
	}
	s = strings.TrimSuffix(s, "/10")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > 10 {
		return nil, true, false
	}
	return &v, true, true
}

// parseVotes parses a thousands-separated count such as "12,345".
func parseVotes(s string) (*int, bool, bool) {
	s, present := clean(s)
	if !present {
		return nil, false, true
	}
	if !votesPattern.MatchString(s) {
		return nil, true, false
	}
	v, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return nil, true, false
	}
	return &v, true, true
}

// parsePercent parses a percentage such as "87%".
func parsePercent(s string) (*int, bool, bool) {
	s, present := clean(s)
	if !present {
		return nil, false, true
	}
	if !strings.HasSuffix(s, "%") {
		return nil, true, false
	}
	v, hasDigits, ok := parseInt(strings.TrimSuffix(s, "%"), 100)
	if !hasDigits {
		return nil, true, false
	}
	return v, true, ok
}

// parseInt parses an integer in [0, upper].
func parseInt(s string, upper int) (*int, bool, bool) {
	s, present := clean(s)
	if !present {
		return nil, false, true
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v > upper {
		return nil, true, false
	}
	return &v, true, true
}
