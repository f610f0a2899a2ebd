package metadata

import (
	"regexp"
	"strings"

	"github.com/cinescope/cinescope/internal/metadata/tmdb"
)

var imdbIDPattern = regexp.MustCompile(`^tt\d+$`)

// placeholderIDs are values providers emit in place of a missing id.
var placeholderIDs = map[string]struct{}{
	"n/a":  {},
	"null": {},
	"none": {},
	"0":    {},
}

// ResolveCrossReference extracts the secondary-provider key from a primary
// record. It reports false when the record carries no usable IMDb id, in
// which case the secondary provider must not be queried.
func ResolveCrossReference(record *tmdb.TitleRecord) (string, bool) {
	if record == nil {
		return "", false
	}

	id := strings.TrimSpace(record.ImdbID)
	if id == "" {
		return "", false
	}
	if _, placeholder := placeholderIDs[strings.ToLower(id)]; placeholder {
		return "", false
	}
	if !imdbIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}
