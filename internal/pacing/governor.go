// Package pacing bounds the external load a shard generates: a jittered
// delay between consecutive fetches and an exponential-backoff schedule for
// retrying transient failures. Pacing is per-shard only; shards never
// coordinate.
package pacing

import (
	"context"
	"math/rand"
	"time"
)

// Defaults tuned for polite scraping of match pages.
const (
	DefaultMinDelay    = 400 * time.Millisecond
	DefaultMaxDelay    = 800 * time.Millisecond
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 2 * time.Second
)

// backoffJitterFrac is the +/- fraction of jitter applied to each backoff
// delay so parallel shards retrying at once do not align.
const backoffJitterFrac = 0.25

// Governor paces fetch attempts within a single shard.
type Governor struct {
	minDelay    time.Duration
	maxDelay    time.Duration
	maxAttempts int
	backoffBase time.Duration
	rng         *rand.Rand

	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Config holds Governor settings; zero values use the defaults above.
type Config struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
	BackoffBase time.Duration
}

// New builds a Governor.
func New(cfg Config) *Governor {
	g := &Governor{
		minDelay:    cfg.MinDelay,
		maxDelay:    cfg.MaxDelay,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:       sleepCtx,
	}
	if g.minDelay <= 0 {
		g.minDelay = DefaultMinDelay
	}
	if g.maxDelay <= 0 {
		g.maxDelay = DefaultMaxDelay
	}
	if g.maxDelay < g.minDelay {
		g.maxDelay = g.minDelay
	}
	if g.maxAttempts <= 0 {
		g.maxAttempts = DefaultMaxAttempts
	}
	if g.backoffBase <= 0 {
		g.backoffBase = DefaultBackoffBase
	}
	return g
}

// MaxAttempts is the per-match attempt cap for retryable failures.
func (g *Governor) MaxAttempts() int {
	return g.maxAttempts
}

// Pace blocks for a randomized inter-request delay. Returns the context's
// error if cancelled while waiting.
func (g *Governor) Pace(ctx context.Context) error {
	span := g.maxDelay - g.minDelay
	d := g.minDelay
	if span > 0 {
		d += time.Duration(g.rng.Int63n(int64(span)))
	}
	return g.sleep(ctx, d)
}

// Backoff blocks for the retry delay after a failed attempt (1-based).
// The delay doubles per attempt with jitter applied.
func (g *Governor) Backoff(ctx context.Context, attempt int) error {
	return g.sleep(ctx, g.backoffDelay(attempt))
}

func (g *Governor) backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := g.backoffBase << (attempt - 1)
	jitter := 1 + (g.rng.Float64()*2-1)*backoffJitterFrac
	return time.Duration(float64(d) * jitter)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
