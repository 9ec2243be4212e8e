package audit

import (
	"context"
	"errors"

	"github.com/jonathan/match-auditor/internal/fetch"
	"github.com/jonathan/match-auditor/internal/pacing"
	"github.com/jonathan/match-auditor/internal/shardlog"
	"github.com/jonathan/match-auditor/internal/types"
	"go.uber.org/zap"
)

// progressEvery controls how often the runner logs a progress line.
const progressEvery = 100

// Summary accumulates a shard run's counters.
type Summary struct {
	Processed int
	Skipped   int
	Correct   int
	Swapped   int
	Errors    int

	TiebreaksFound int
	DurationsFound int
	SurfacesFound  int
}

// Runner processes one shard's matches strictly sequentially: resume gate,
// pacing, fetch with bounded retries, verification, extraction, then a
// single appended row. There is no intra-shard parallelism; output order
// follows the scan order.
type Runner struct {
	fetcher  fetch.Fetcher
	governor *pacing.Governor
	log      *shardlog.Log
	done     shardlog.DoneSet
	logger   *zap.Logger
}

// NewRunner builds a Runner. done must have been rebuilt from the shard log
// before any processing starts.
func NewRunner(fetcher fetch.Fetcher, governor *pacing.Governor, log *shardlog.Log, done shardlog.DoneSet, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		fetcher:  fetcher,
		governor: governor,
		log:      log,
		done:     done,
		logger:   logger,
	}
}

// Run processes the shard's owned records. limit > 0 caps the number of
// matches processed this run. Context cancellation is a clean stop: the
// in-flight match is never half-recorded, and the summary reflects what
// committed. Fatal errors (storage trouble, log write failures) abort the
// run with the summary so far.
func (r *Runner) Run(ctx context.Context, records []types.MatchRecord, limit int) (*Summary, error) {
	summary := &Summary{}

	for _, rec := range records {
		if ctx.Err() != nil {
			r.logger.Info("shutdown requested, stopping at commit boundary",
				zap.Int("processed", summary.Processed))
			return summary, nil
		}
		if r.done.Contains(rec.UID) {
			summary.Skipped++
			continue
		}
		if limit > 0 && summary.Processed >= limit {
			break
		}

		result, err := r.processOne(ctx, rec)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				r.logger.Info("shutdown requested mid-fetch, match left unrecorded",
					zap.String("match_uid", rec.UID))
				return summary, nil
			}
			// Fatal: halt without writing a partial row.
			return summary, err
		}

		if err := r.log.Append(result); err != nil {
			return summary, err
		}
		r.done.Add(rec.UID)
		summary.Processed++
		r.tally(summary, result)

		switch result.Status {
		case types.HAStatusSwapped:
			r.logger.Info("home/away swapped",
				zap.String("match_uid", rec.UID),
				zap.String("method", string(result.Method)),
				zap.String("csv", rec.HomeName+" vs "+rec.AwayName),
				zap.String("page", result.PageHomeName+" vs "+result.PageAwayName))
		case types.HAStatusError:
			r.logger.Warn("match recorded with error",
				zap.String("match_uid", rec.UID),
				zap.String("detail", result.Error))
		}

		if summary.Processed%progressEvery == 0 {
			r.logger.Info("progress",
				zap.Int("processed", summary.Processed),
				zap.Int("correct", summary.Correct),
				zap.Int("swapped", summary.Swapped),
				zap.Int("errors", summary.Errors))
		}
	}

	return summary, nil
}

// processOne drives a single match through the fetch/verify state machine.
// Retryable fetch failures re-enter fetching with backoff up to the attempt
// cap; exhaustion yields a terminal error result. Non-retryable errors
// propagate and halt the shard.
func (r *Runner) processOne(ctx context.Context, rec types.MatchRecord) (*types.ScrapeResult, error) {
	if err := r.governor.Pace(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= r.governor.MaxAttempts(); attempt++ {
		page, err := r.fetcher.Fetch(ctx, rec.URL)
		if err == nil {
			return buildResult(rec, page), nil
		}
		if !fetch.IsRetryable(err) {
			return nil, err
		}

		lastErr = err
		r.logger.Debug("retryable fetch failure",
			zap.String("match_uid", rec.UID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < r.governor.MaxAttempts() {
			if err := r.governor.Backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}

	// Retries exhausted: a terminal, recorded outcome.
	return errorResult(rec, lastErr), nil
}

// buildResult assembles the recorded row from the page model. Extraction is
// independent of the verification outcome: a swapped or name-matched record
// still carries every available field.
func buildResult(rec types.MatchRecord, page *fetch.PageModel) *types.ScrapeResult {
	verdict := Verify(rec, page)
	return &types.ScrapeResult{
		MatchUID:        rec.UID,
		Status:          verdict.Status,
		Method:          verdict.Method,
		CSVHomeName:     rec.HomeName,
		CSVHomeID:       rec.HomeID,
		CSVAwayName:     rec.AwayName,
		CSVAwayID:       rec.AwayID,
		PageHomeName:    page.HomeName,
		PageHomeID:      page.HomeID,
		PageAwayName:    page.AwayName,
		PageAwayID:      page.AwayID,
		SetScores:       page.SetScores,
		Tiebreaks:       page.Tiebreaks,
		SetDurations:    page.SetDurations,
		DurationOverall: page.DurationOverall,
		DateTime:        page.DateTime,
		Surface:         page.Surface,
		Error:           verdict.Detail,
	}
}

// errorResult records a fetch-exhausted match with its failure detail.
func errorResult(rec types.MatchRecord, cause error) *types.ScrapeResult {
	detail := "fetch failed"
	if cause != nil {
		detail = cause.Error()
	}
	return &types.ScrapeResult{
		MatchUID:    rec.UID,
		Status:      types.HAStatusError,
		CSVHomeName: rec.HomeName,
		CSVHomeID:   rec.HomeID,
		CSVAwayName: rec.AwayName,
		CSVAwayID:   rec.AwayID,
		Error:       detail,
	}
}

func (r *Runner) tally(s *Summary, result *types.ScrapeResult) {
	switch result.Status {
	case types.HAStatusCorrect:
		s.Correct++
	case types.HAStatusSwapped:
		s.Swapped++
	case types.HAStatusError:
		s.Errors++
	}
	if result.HasTiebreak() {
		s.TiebreaksFound++
	}
	if result.DurationOverall != "" {
		s.DurationsFound++
	}
	if result.Surface != "" {
		s.SurfacesFound++
	}
}
