package ratings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinescope/cinescope/internal/metadata/omdb"
)

func fullPayload() omdb.Response {
	return omdb.Response{
		ImdbRating: "8.7",
		ImdbVotes:  "2,012,345",
		Metascore:  "73",
		Ratings: []omdb.Rating{
			{Source: "Internet Movie Database", Value: "8.7/10"},
			{Source: "Rotten Tomatoes", Value: "91%"},
			{Source: "Metacritic", Value: "73/100"},
		},
	}
}

func TestNormalize_FullyPopulated(t *testing.T) {
	got, malformed := Normalize(fullPayload())

	assert.Empty(t, malformed)
	require.NotNil(t, got.ImdbRating)
	assert.InDelta(t, 8.7, *got.ImdbRating, 1e-9)
	require.NotNil(t, got.ImdbVotes)
	assert.Equal(t, 2012345, *got.ImdbVotes)
	require.NotNil(t, got.RottenTomatoes)
	assert.Equal(t, 91, *got.RottenTomatoes)
	require.NotNil(t, got.Metacritic)
	assert.Equal(t, 73, *got.Metacritic)
	assert.False(t, got.IsEmpty())
}

func TestNormalize_VotesWithThousandsSeparator(t *testing.T) {
	got, _ := Normalize(omdb.Response{ImdbVotes: "12,345"})
	require.NotNil(t, got.ImdbVotes)
	assert.Equal(t, 12345, *got.ImdbVotes)
}

func TestNormalize_NotAvailableIsAbsentNotZero(t *testing.T) {
	got, malformed := Normalize(omdb.Response{
		ImdbRating: "N/A",
		ImdbVotes:  "N/A",
		Metascore:  "N/A",
		Ratings:    []omdb.Rating{{Source: "Rotten Tomatoes", Value: "N/A"}},
	})

	assert.Nil(t, got.ImdbRating)
	assert.Nil(t, got.ImdbVotes)
	assert.Nil(t, got.RottenTomatoes)
	assert.Nil(t, got.Metacritic)
	assert.Empty(t, malformed, "N/A is a missing value, not a malformed one")
	assert.True(t, got.IsEmpty())
}

func TestNormalize_RottenTomatoesSelection(t *testing.T) {
	tests := []struct {
		name    string
		ratings []omdb.Rating
		want    *int
	}{
		{"matching source", []omdb.Rating{{Source: "Rotten Tomatoes", Value: "91%"}}, intPtr(91)},
		{"no matching source", []omdb.Rating{{Source: "Metacritic", Value: "70/100"}}, nil},
		{"empty list", nil, nil},
		{"first match wins", []omdb.Rating{{Source: "Rotten Tomatoes", Value: "40%"}, {Source: "Rotten Tomatoes", Value: "90%"}}, intPtr(40)},
		{"zero percent", []omdb.Rating{{Source: "Rotten Tomatoes", Value: "0%"}}, intPtr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Normalize(omdb.Response{Ratings: tt.ratings})
			assert.Equal(t, tt.want, got.RottenTomatoes)
		})
	}
}

func TestNormalize_MalformedFieldIsIsolated(t *testing.T) {
	payload := fullPayload()
	payload.ImdbRating = "garbage"

	got, malformed := Normalize(payload)

	assert.Equal(t, []string{FieldImdbRating}, malformed)
	assert.Nil(t, got.ImdbRating)
	require.NotNil(t, got.ImdbVotes)
	assert.Equal(t, 2012345, *got.ImdbVotes)
	require.NotNil(t, got.RottenTomatoes)
	assert.Equal(t, 91, *got.RottenTomatoes)
	require.NotNil(t, got.Metacritic)
}

func TestNormalize_EveryFieldMalformed(t *testing.T) {
	got, malformed := Normalize(omdb.Response{
		ImdbRating: "11.5",
		ImdbVotes:  "lots",
		Metascore:  "-3",
		Ratings:    []omdb.Rating{{Source: "Rotten Tomatoes", Value: "ninety"}},
	})

	assert.True(t, got.IsEmpty())
	assert.ElementsMatch(t, []string{FieldImdbRating, FieldImdbVotes, FieldRottenTomatoes, FieldMetacritic}, malformed)
}

func TestNormalize_PercentRequiresSuffix(t *testing.T) {
	got, malformed := Normalize(omdb.Response{Ratings: []omdb.Rating{{Source: "Rotten Tomatoes", Value: "87"}}})
	assert.Nil(t, got.RottenTomatoes)
	assert.Equal(t, []string{FieldRottenTomatoes}, malformed)
}

func TestNormalize_VotesGrouping(t *testing.T) {
	tests := []struct {
		raw  string
		want *int
	}{
		{"123", intPtr(123)},
		{"1234567", intPtr(1234567)},
		{"1,234", intPtr(1234)},
		{"12,345,678", intPtr(12345678)},
		{"1,2,3", nil},
		{"12,34", nil},
		{",123", nil},
		{"123,", nil},
		{"1,2345", nil},
		{"-5", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, malformed := Normalize(omdb.Response{ImdbVotes: tt.raw})
			assert.Equal(t, tt.want, got.ImdbVotes)
			if tt.want == nil {
				assert.Equal(t, []string{FieldImdbVotes}, malformed)
			} else {
				assert.Empty(t, malformed)
			}
		})
	}
}

func TestNormalize_BarePercentSignIsMalformed(t *testing.T) {
	for _, raw := range []string{"%", " % ", "N/A%"} {
		got, malformed := Normalize(omdb.Response{Ratings: []omdb.Rating{{Source: "Rotten Tomatoes", Value: raw}}})
		assert.Nil(t, got.RottenTomatoes, raw)
		assert.Equal(t, []string{FieldRottenTomatoes}, malformed, raw)
	}
}

func TestNormalize_EmptyPayload(t *testing.T) {
	got, malformed := Normalize(omdb.Response{})
	assert.True(t, got.IsEmpty())
	assert.Empty(t, malformed)
}

func intPtr(v int) *int { return &v }
