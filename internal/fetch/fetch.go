// Package fetch retrieves and parses match pages into a structured page
// model. Rendering happens in a headless browser because the score box and
// participant blocks are populated by JavaScript after load.
package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/match-auditor/internal/types"
)

// PageModel is the structured content of one match page: the authoritative
// home/away assignment plus every supplementary field the page offers.
type PageModel struct {
	HomeName string
	HomeID   string
	AwayName string
	AwayID   string

	SetScores    [types.NumSets]types.SetScore
	Tiebreaks    [types.NumSets]types.SetScore
	SetDurations [types.NumSets]string

	DurationOverall string
	DateTime        string
	Surface         string
}

// Error represents a classified fetch or parse failure. Retryable errors
// (timeouts, transient renders, parse misses on half-loaded pages) may be
// re-attempted with backoff; non-retryable errors must not be.
type Error struct {
	URL       string
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether err is a fetch error that may be re-attempted.
// Errors that are not *Error (context cancellation, storage failures) are
// never retryable: they halt the shard instead.
func IsRetryable(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return false
}

// Fetcher is the page-fetching contract consumed by the audit loop.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*PageModel, error)
}
