package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/match-auditor/internal/fetch"
	"github.com/jonathan/match-auditor/internal/pacing"
	"github.com/jonathan/match-auditor/internal/shardlog"
	"github.com/jonathan/match-auditor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubFetcher routes fetches through a per-test function.
type stubFetcher struct {
	fetchFn func(ctx context.Context, url string) (*fetch.PageModel, error)
	calls   map[string]int
}

func newStubFetcher(fn func(ctx context.Context, url string) (*fetch.PageModel, error)) *stubFetcher {
	return &stubFetcher{fetchFn: fn, calls: make(map[string]int)}
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (*fetch.PageModel, error) {
	s.calls[url]++
	return s.fetchFn(ctx, url)
}

func fastGovernor() *pacing.Governor {
	return pacing.New(pacing.Config{
		MinDelay:    time.Nanosecond,
		MaxDelay:    time.Nanosecond,
		BackoffBase: time.Nanosecond,
		MaxAttempts: 3,
	})
}

func openTestLog(t *testing.T) *shardlog.Log {
	t.Helper()
	log, err := shardlog.Open(filepath.Join(t.TempDir(), "audit_shard0of1.csv"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func goodPage(home, homeID, away, awayID string) *fetch.PageModel {
	return &fetch.PageModel{
		HomeName: home, HomeID: homeID,
		AwayName: away, AwayID: awayID,
		DurationOverall: "1:34",
		Surface:         "HARD",
	}
}

func TestRunRecordsEveryMatch(t *testing.T) {
	fetcher := newStubFetcher(func(_ context.Context, url string) (*fetch.PageModel, error) {
		return goodPage("Garcia Lopez", "A", "Mueller K.", "B"), nil
	})
	log := openTestLog(t)

	records := []types.MatchRecord{
		{UID: "M1", URL: "u1", HomeName: "Garcia Lopez", HomeID: "A", AwayName: "Mueller K.", AwayID: "B"},
		{UID: "M2", URL: "u2", HomeName: "Mueller K.", HomeID: "B", AwayName: "Garcia Lopez", AwayID: "A"},
	}

	runner := NewRunner(fetcher, fastGovernor(), log, make(shardlog.DoneSet), zap.NewNop())
	summary, err := runner.Run(context.Background(), records, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Correct)
	assert.Equal(t, 1, summary.Swapped)

	results, err := shardlog.ReadResults(log.Path())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, types.HAStatusCorrect, results[0].Status)
	assert.Equal(t, types.HAStatusSwapped, results[1].Status)
	assert.Equal(t, types.HAMethodID, results[1].Method)
}

func TestRunSkipsDoneMatches(t *testing.T) {
	fetcher := newStubFetcher(func(_ context.Context, _ string) (*fetch.PageModel, error) {
		return goodPage("Garcia Lopez", "A", "Mueller K.", "B"), nil
	})
	log := openTestLog(t)

	done := make(shardlog.DoneSet)
	done.Add("M1")

	records := []types.MatchRecord{
		{UID: "M1", URL: "u1", HomeName: "Garcia Lopez", HomeID: "A", AwayName: "Mueller K.", AwayID: "B"},
		{UID: "M2", URL: "u2", HomeName: "Garcia Lopez", HomeID: "A", AwayName: "Mueller K.", AwayID: "B"},
	}

	runner := NewRunner(fetcher, fastGovernor(), log, done, zap.NewNop())
	summary, err := runner.Run(context.Background(), records, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Processed)
	assert.Zero(t, fetcher.calls["u1"], "done matches must never be fetched")
	assert.Equal(t, 1, fetcher.calls["u2"])
}

func TestRunResumeIdempotence(t *testing.T) {
	fetcher := newStubFetcher(func(_ context.Context, _ string) (*fetch.PageModel, error) {
		return goodPage("Garcia Lopez", "A", "Mueller K.", "B"), nil
	})
	log := openTestLog(t)

	records := []types.MatchRecord{
		{UID: "M1", URL: "u1", HomeName: "Garcia Lopez", HomeID: "A", AwayName: "Mueller K.", AwayID: "B"},
	}

	runner := NewRunner(fetcher, fastGovernor(), log, make(shardlog.DoneSet), zap.NewNop())
	_, err := runner.Run(context.Background(), records, 0)
	require.NoError(t, err)

	// Second run with the done-set rebuilt from disk: nothing to do.
	done, err := shardlog.ReadDoneSet(log.Path())
	require.NoError(t, err)
	runner = NewRunner(fetcher, fastGovernor(), log, done, zap.NewNop())
	summary, err := runner.Run(context.Background(), records, 0)
	require.NoError(t, err)

	assert.Zero(t, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)

	results, err := shardlog.ReadResults(log.Path())
	require.NoError(t, err)
	assert.Len(t, results, 1, "second run must append nothing")
}

func TestRunRetriesThenRecordsError(t *testing.T) {
	fetcher := newStubFetcher(func(_ context.Context, url string) (*fetch.PageModel, error) {
		return nil, &fetch.Error{URL: url, Message: "page load timed out", Retryable: true}
	})
	log := openTestLog(t)

	records := []types.MatchRecord{
		{UID: "M2", URL: "u2", HomeName: "Garcia Lopez", AwayName: "Mueller K."},
	}

	runner := NewRunner(fetcher, fastGovernor(), log, make(shardlog.DoneSet), zap.NewNop())
	summary, err := runner.Run(context.Background(), records, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, fetcher.calls["u2"], "retries must stop at the attempt cap")
	assert.Equal(t, 1, summary.Errors)

	results, err := shardlog.ReadResults(log.Path())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, types.HAStatusError, results[0].Status)
	assert.Contains(t, results[0].Error, "page load timed out")
}

func TestRunFatalErrorHaltsWithoutRow(t *testing.T) {
	fetcher := newStubFetcher(func(_ context.Context, url string) (*fetch.PageModel, error) {
		if url == "u2" {
			return nil, &fetch.Error{URL: url, Message: "URL skipped: storage exhausted", Retryable: false}
		}
		return goodPage("Garcia Lopez", "A", "Mueller K.", "B"), nil
	})
	log := openTestLog(t)

	records := []types.MatchRecord{
		{UID: "M1", URL: "u1", HomeName: "Garcia Lopez", HomeID: "A", AwayName: "Mueller K.", AwayID: "B"},
		{UID: "M2", URL: "u2", HomeName: "Garcia Lopez", AwayName: "Mueller K."},
		{UID: "M3", URL: "u3", HomeName: "Garcia Lopez", HomeID: "A", AwayName: "Mueller K.", AwayID: "B"},
	}

	runner := NewRunner(fetcher, fastGovernor(), log, make(shardlog.DoneSet), zap.NewNop())
	summary, err := runner.Run(context.Background(), records, 0)
	require.Error(t, err)

	assert.Equal(t, 1, summary.Processed, "work before the fatal error stays committed")
	assert.Zero(t, fetcher.calls["u3"], "processing must halt at the fatal error")

	results, readErr := shardlog.ReadResults(log.Path())
	require.NoError(t, readErr)
	assert.Len(t, results, 1, "no partial row for the failed match")
	assert.Equal(t, "M1", results[0].MatchUID)
}

func TestRunHonorsLimit(t *testing.T) {
	fetcher := newStubFetcher(func(_ context.Context, _ string) (*fetch.PageModel, error) {
		return goodPage("Garcia Lopez", "A", "Mueller K.", "B"), nil
	})
	log := openTestLog(t)

	var records []types.MatchRecord
	for _, uid := range []string{"M1", "M2", "M3", "M4"} {
		records = append(records, types.MatchRecord{
			UID: uid, URL: "u-" + uid,
			HomeName: "Garcia Lopez", HomeID: "A", AwayName: "Mueller K.", AwayID: "B",
		})
	}

	runner := NewRunner(fetcher, fastGovernor(), log, make(shardlog.DoneSet), zap.NewNop())
	summary, err := runner.Run(context.Background(), records, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
}

func TestRunStopsCleanlyOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fetcher := newStubFetcher(func(_ context.Context, _ string) (*fetch.PageModel, error) {
		cancel() // Shutdown arrives while the first match is in flight.
		return goodPage("Garcia Lopez", "A", "Mueller K.", "B"), nil
	})
	log := openTestLog(t)

	records := []types.MatchRecord{
		{UID: "M1", URL: "u1", HomeName: "Garcia Lopez", HomeID: "A", AwayName: "Mueller K.", AwayID: "B"},
		{UID: "M2", URL: "u2", HomeName: "Garcia Lopez", HomeID: "A", AwayName: "Mueller K.", AwayID: "B"},
	}

	runner := NewRunner(fetcher, fastGovernor(), log, make(shardlog.DoneSet), zap.NewNop())
	summary, err := runner.Run(ctx, records, 0)
	require.NoError(t, err, "cancellation is a clean stop, not an error")

	assert.Equal(t, 1, summary.Processed, "the in-flight match commits before stopping")
	assert.Zero(t, fetcher.calls["u2"])
}

func TestExtractionIndependentOfVerdict(t *testing.T) {
	// A swapped match still yields every supplementary field.
	page := goodPage("Mueller K.", "B", "Garcia Lopez", "A")
	page.Tiebreaks[0] = types.SetScore{Home: "7", Away: "3"}
	page.DateTime = "12.05.2023 14:30"

	rec := types.MatchRecord{
		UID: "M1", HomeName: "Garcia Lopez", HomeID: "A", AwayName: "Mueller K.", AwayID: "B",
	}
	result := buildResult(rec, page)

	assert.Equal(t, types.HAStatusSwapped, result.Status)
	assert.Equal(t, "1:34", result.DurationOverall)
	assert.Equal(t, "HARD", result.Surface)
	assert.Equal(t, types.SetScore{Home: "7", Away: "3"}, result.Tiebreaks[0])
	assert.Equal(t, "12.05.2023 14:30", result.DateTime)
}
