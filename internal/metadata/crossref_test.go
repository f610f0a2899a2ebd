package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cinescope/cinescope/internal/metadata/tmdb"
)

func TestResolveCrossReference(t *testing.T) {
	tests := []struct {
		name   string
		imdbID string
		want   string
		wantOK bool
	}{
		{"valid", "tt0133093", "tt0133093", true},
		{"surrounding whitespace", "  tt0903747 ", "tt0903747", true},
		{"empty", "", "", false},
		{"N/A", "N/A", "", false},
		{"null", "null", "", false},
		{"none uppercase", "NONE", "", false},
		{"zero", "0", "", false},
		{"not an imdb id", "nm0000206", "", false},
		{"prefix only", "tt", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveCrossReference(&tmdb.TitleRecord{ID: 1, Title: "x", ImdbID: tt.imdbID})
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCrossReference_NilRecord(t *testing.T) {
	_, ok := ResolveCrossReference(nil)
	assert.False(t, ok)
}
