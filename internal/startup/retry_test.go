package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/cinescope/cinescope/internal/metadata/apierror"
)

func fastRetry() RetryConfig {
	return RetryConfig{InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, MaxAttempts: 3, Multiplier: 2}
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"classified network", apierror.Network("tmdb", errors.New("eof")), true},
		{"classified upstream", apierror.Upstream("tmdb", errors.New("status 401")), false},
		{"connection refused text", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), true},
		{"plain", errors.New("invalid API key"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNetworkError(tt.err))
		})
	}
}

func TestWithRetry_RetriesNetworkErrors(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), "provider check", fastRetry(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return apierror.Network("tmdb", errors.New("timeout"))
		}
		return nil
	}, zerolog.Nop())

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_GivesUp(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), "provider check", fastRetry(), func(ctx context.Context) error {
		attempts++
		return apierror.Network("tmdb", errors.New("timeout"))
	}, zerolog.Nop())

	assert.ErrorIs(t, err, apierror.ErrNetwork)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_NonNetworkFailsFast(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), "provider check", fastRetry(), func(ctx context.Context) error {
		attempts++
		return apierror.Upstream("tmdb", errors.New("invalid API key"))
	}, zerolog.Nop())

	assert.ErrorIs(t, err, apierror.ErrUpstream)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetry()
	cfg.InitialDelay = time.Hour

	err := WithRetry(ctx, "provider check", cfg, func(ctx context.Context) error {
		cancel()
		return apierror.Network("tmdb", errors.New("timeout"))
	}, zerolog.Nop())

	assert.ErrorIs(t, err, context.Canceled)
}
