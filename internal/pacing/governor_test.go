package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSleeps swaps the governor's sleep for one that records durations.
func recordSleeps(g *Governor) *[]time.Duration {
	var slept []time.Duration
	g.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return &slept
}

func TestPaceStaysWithinBounds(t *testing.T) {
	g := New(Config{MinDelay: 100 * time.Millisecond, MaxDelay: 200 * time.Millisecond})
	slept := recordSleeps(g)

	for i := 0; i < 100; i++ {
		require.NoError(t, g.Pace(context.Background()))
	}

	for _, d := range *slept {
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.Less(t, d, 200*time.Millisecond)
	}
}

func TestBackoffGrowsPerAttempt(t *testing.T) {
	g := New(Config{BackoffBase: time.Second})

	for attempt := 1; attempt <= 3; attempt++ {
		base := time.Second << (attempt - 1)
		lo := time.Duration(float64(base) * (1 - backoffJitterFrac))
		hi := time.Duration(float64(base) * (1 + backoffJitterFrac))
		for i := 0; i < 50; i++ {
			d := g.backoffDelay(attempt)
			assert.GreaterOrEqual(t, d, lo, "attempt %d", attempt)
			assert.LessOrEqual(t, d, hi, "attempt %d", attempt)
		}
	}
}

func TestDefaults(t *testing.T) {
	g := New(Config{})
	assert.Equal(t, DefaultMaxAttempts, g.MaxAttempts())
	assert.Equal(t, DefaultMinDelay, g.minDelay)
	assert.Equal(t, DefaultMaxDelay, g.maxDelay)
	assert.Equal(t, DefaultBackoffBase, g.backoffBase)
}

func TestMaxDelayNeverBelowMin(t *testing.T) {
	g := New(Config{MinDelay: 500 * time.Millisecond, MaxDelay: 100 * time.Millisecond})
	slept := recordSleeps(g)
	require.NoError(t, g.Pace(context.Background()))
	assert.Equal(t, 500*time.Millisecond, (*slept)[0])
}

func TestPaceCancellable(t *testing.T) {
	g := New(Config{MinDelay: time.Minute, MaxDelay: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.Pace(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffCancellable(t *testing.T) {
	g := New(Config{BackoffBase: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.Backoff(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
