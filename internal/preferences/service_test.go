package preferences

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinescope/cinescope/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	return NewService(tdb.Settings, tdb.Logger)
}

func TestService_Defaults(t *testing.T) {
	svc := newTestService(t)

	prefs, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), *prefs)
}

func TestService_SetAndGet(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	want := Preferences{Appearance: AppearanceDark, Region: "de", Language: "de-DE", IncludeAdult: true}
	require.NoError(t, svc.Set(ctx, want))

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, AppearanceDark, got.Appearance)
	assert.Equal(t, "DE", got.Region)
	assert.Equal(t, "de-DE", got.Language)
	assert.True(t, got.IncludeAdult)
}

func TestService_SetRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Preferences)
		want   error
	}{
		{"appearance", func(p *Preferences) { p.Appearance = "neon" }, ErrInvalidAppearance},
		{"region", func(p *Preferences) { p.Region = "USA" }, ErrInvalidRegion},
		{"language", func(p *Preferences) { p.Language = "english" }, ErrInvalidLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			prefs := DefaultPreferences()
			tt.mutate(&prefs)

			assert.ErrorIs(t, svc.Set(context.Background(), prefs), tt.want)

			stored, err := svc.Get(context.Background())
			require.NoError(t, err)
			assert.Equal(t, DefaultPreferences(), *stored)
		})
	}
}

func TestService_SetIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	tdb := testutil.NewTestDB(t)
	svc := NewService(tdb.Settings, tdb.Logger)

	// pref_region sorts last, so the other three keys are written before it fails.
	_, err := tdb.Conn.ExecContext(ctx, `
		CREATE TRIGGER reject_region BEFORE INSERT ON settings
		WHEN NEW.key = 'pref_region'
		BEGIN SELECT RAISE(ABORT, 'region locked'); END`)
	require.NoError(t, err)

	err = svc.Set(ctx, Preferences{Appearance: AppearanceDark, Region: "gb", Language: "en-GB", IncludeAdult: true})
	require.Error(t, err)

	stored, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), *stored)
}

func TestService_Session(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Session(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	first, err := svc.NewSession(ctx)
	require.NoError(t, err)
	assert.Len(t, first.Token, 36)

	got, err := svc.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Token, got.Token)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

	second, err := svc.NewSession(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	require.NoError(t, svc.ClearSession(ctx))
	_, err = svc.Session(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}
