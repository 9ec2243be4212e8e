package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/match-auditor/internal/db"
)

// PageFetcher is the production Fetcher: it renders pages through a
// Renderer and parses them into page models, with an optional
// database-backed cache of rendered HTML in front of the renderer.
type PageFetcher struct {
	renderer Renderer
	db       *db.DB
	cacheTTL time.Duration
}

// PageFetcherConfig holds optional settings for NewPageFetcher.
type PageFetcherConfig struct {
	// DB enables the rendered-page cache when non-nil.
	DB *db.DB
	// CacheTTL overrides db.DefaultPageCacheTTL when positive.
	CacheTTL time.Duration
}

// NewPageFetcher builds a PageFetcher around a renderer.
func NewPageFetcher(renderer Renderer, cfg *PageFetcherConfig) *PageFetcher {
	f := &PageFetcher{renderer: renderer, cacheTTL: db.DefaultPageCacheTTL}
	if cfg != nil {
		f.db = cfg.DB
		if cfg.CacheTTL > 0 {
			f.cacheTTL = cfg.CacheTTL
		}
	}
	return f
}

// Fetch returns the parsed page model for a URL. With a cache configured it
// first consults the failure backoff record and the stored rendered HTML;
// fresh renders are cached before parsing. Cache read/write failures are
// not retryable: they indicate local storage trouble, which must halt the
// shard rather than risk inconsistent output.
func (f *PageFetcher) Fetch(ctx context.Context, url string) (*PageModel, error) {
	if f.db != nil {
		skip, reason, err := f.db.ShouldSkipURL(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to check skip status: %w", err)
		}
		if skip {
			return nil, &Error{URL: url, Message: fmt.Sprintf("URL skipped: %s", reason), Retryable: false}
		}

		cached, err := f.db.GetFreshPage(ctx, url, f.cacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to check page cache: %w", err)
		}
		if cached != nil {
			return ParsePage(url, cached.HTML)
		}
	}

	html, err := f.renderer.Render(ctx, url)
	if err != nil {
		if f.db != nil {
			_ = f.db.RecordFailedFetch(ctx, url, err.Error())
		}
		return nil, err
	}

	if f.db != nil {
		if err := f.db.SavePage(ctx, url, html); err != nil {
			return nil, fmt.Errorf("failed to cache rendered page: %w", err)
		}
	}

	return ParsePage(url, html)
}
