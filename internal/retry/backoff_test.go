package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff(t *testing.T) {
	base := 100 * time.Millisecond

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},  // base * 2^0 = 100ms
		{1, 200 * time.Millisecond},  // base * 2^1 = 200ms
		{2, 400 * time.Millisecond},  // base * 2^2 = 400ms
		{3, 800 * time.Millisecond},  // base * 2^3 = 800ms
		{4, 1600 * time.Millisecond}, // base * 2^4 = 1600ms
	}

	for _, tt := range tests {
		result := ExponentialBackoff(tt.attempt, base)
		if result != tt.expected {
			t.Errorf("attempt %d: got %v, want %v", tt.attempt, result, tt.expected)
		}
	}
}

func TestDo(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name        string
		attempts    int
		failures    int
		wantCalls   int
		wantRetries int
		wantErr     error
	}{
		{name: "first try succeeds", attempts: 3, failures: 0, wantCalls: 1, wantRetries: 0},
		{name: "succeeds after failures", attempts: 3, failures: 2, wantCalls: 3, wantRetries: 2},
		{name: "exhausts attempts", attempts: 3, failures: 5, wantCalls: 3, wantRetries: 2, wantErr: errBoom},
		{name: "zero attempts runs once", attempts: 0, failures: 1, wantCalls: 1, wantRetries: 0, wantErr: errBoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls, retries := 0, 0
			err := Do(context.Background(), tt.attempts, time.Millisecond, func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return errBoom
				}
				return nil
			}, func(int, error, time.Duration) { retries++ })

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantRetries, retries)
		})
	}
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, 10, time.Hour, func(context.Context) error {
		calls++
		return errors.New("unavailable")
	}, func(int, error, time.Duration) { cancel() })

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
