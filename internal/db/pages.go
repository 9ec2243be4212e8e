package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DefaultPageCacheTTL is how long a rendered page stays fresh. Match pages
// barely change once a match has finished.
const DefaultPageCacheTTL = 7 * 24 * time.Hour

// permanentFailureThreshold is the failure count beyond which a URL is
// considered permanently broken and skipped without further attempts.
const permanentFailureThreshold = 5

// failureBackoffUnit scales the per-failure temporary skip window.
const failureBackoffUnit = time.Hour

// CachedPage is one rendered page stored in the cache.
type CachedPage struct {
	ID        uuid.UUID
	URL       string
	HTML      string
	FetchedAt time.Time
}

// GetFreshPage returns the cached rendered page for a URL if it is younger
// than ttl, or nil when absent/stale.
func (db *DB) GetFreshPage(ctx context.Context, url string, ttl time.Duration) (*CachedPage, error) {
	var page CachedPage
	err := db.pool.QueryRow(ctx,
		`SELECT id, url, html, fetched_at
		 FROM rendered_pages
		 WHERE url = $1 AND fetched_at > NOW() - make_interval(secs => $2)`,
		url, ttl.Seconds(),
	).Scan(&page.ID, &page.URL, &page.HTML, &page.FetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read page cache: %w", err)
	}
	return &page, nil
}

// SavePage upserts a rendered page and clears any recorded failures for the
// URL.
func (db *DB) SavePage(ctx context.Context, url, html string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO rendered_pages (id, url, html, fetched_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (url) DO UPDATE SET html = $3, fetched_at = NOW()`,
		uuid.New(), url, html,
	)
	if err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}

	_, err = db.pool.Exec(ctx, `DELETE FROM fetch_failures WHERE url = $1`, url)
	if err != nil {
		return fmt.Errorf("failed to clear fetch failures: %w", err)
	}
	return nil
}

// RecordFailedFetch increments the failure count for a URL.
func (db *DB) RecordFailedFetch(ctx context.Context, url, errMsg string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO fetch_failures (url, failure_count, last_error, last_failed_at)
		 VALUES ($1, 1, $2, NOW())
		 ON CONFLICT (url) DO UPDATE SET
		     failure_count = fetch_failures.failure_count + 1,
		     last_error = $2,
		     last_failed_at = NOW()`,
		url, errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to record fetch failure: %w", err)
	}
	return nil
}

// ShouldSkipURL reports whether a URL should be skipped: permanently after
// too many failures, or temporarily while inside its backoff window (the
// window grows with the failure count).
func (db *DB) ShouldSkipURL(ctx context.Context, url string) (bool, string, error) {
	var count int
	var lastFailedAt time.Time
	err := db.pool.QueryRow(ctx,
		`SELECT failure_count, last_failed_at FROM fetch_failures WHERE url = $1`,
		url,
	).Scan(&count, &lastFailedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("failed to check fetch failures: %w", err)
	}

	if count >= permanentFailureThreshold {
		return true, fmt.Sprintf("permanently failed after %d attempts", count), nil
	}
	backoffUntil := lastFailedAt.Add(time.Duration(count) * failureBackoffUnit)
	if time.Now().Before(backoffUntil) {
		return true, fmt.Sprintf("in backoff until %s after %d failures", backoffUntil.Format(time.RFC3339), count), nil
	}
	return false, "", nil
}
