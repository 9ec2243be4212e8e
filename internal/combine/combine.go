// Package combine merges all shard output logs into one deduplicated result
// set. Combining is a post-completion, single-writer stage: it reads shard
// logs that no process is appending to and rewrites the combined output
// fresh each run.
package combine

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/jonathan/match-auditor/internal/shardlog"
	"github.com/jonathan/match-auditor/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dataset is the combined result set: one best row per match uid.
type Dataset struct {
	Results map[string]*types.ScrapeResult
}

// Get returns the combined result for a uid, or nil.
func (d *Dataset) Get(uid string) *types.ScrapeResult {
	return d.Results[uid]
}

// Summary reports what a combine run saw.
type Summary struct {
	ShardsRead    int
	ShardsMissing int
	RowsRead      int
	Matches       int
	Correct       int
	Swapped       int
	Errors        int
	Conflicts     int
}

// shardRows pairs a shard's id with its parsed rows.
type shardRows struct {
	shardID int
	rows    []*types.ScrapeResult
}

// Shards unions the output logs of all shards under dir/base. A missing
// shard file is tolerated with a warning so partial combines work while
// stragglers are still running.
//
// Where a uid appears in more than one shard log (possible after re-sharded
// reruns), the row with a non-error status wins; among equals the lowest
// shard id wins, deterministically.
func Shards(ctx context.Context, dir, base string, totalShards int, logger *zap.Logger) (*Dataset, *Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	summary := &Summary{}

	var mu sync.Mutex
	perShard := make(map[int][]*types.ScrapeResult, totalShards)

	g, ctx := errgroup.WithContext(ctx)
	for shardID := 0; shardID < totalShards; shardID++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := shardlog.FilePath(dir, base, shardID, totalShards)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				logger.Warn("shard log missing, combining without it",
					zap.Int("shard", shardID), zap.String("path", path))
				mu.Lock()
				summary.ShardsMissing++
				mu.Unlock()
				return nil
			}
			rows, err := shardlog.ReadResults(path)
			if err != nil {
				return fmt.Errorf("failed to read shard %d: %w", shardID, err)
			}
			mu.Lock()
			perShard[shardID] = rows
			summary.ShardsRead++
			summary.RowsRead += len(rows)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Merge in ascending shard order so conflict resolution is deterministic.
	shardIDs := make([]int, 0, len(perShard))
	for id := range perShard {
		shardIDs = append(shardIDs, id)
	}
	sort.Ints(shardIDs)

	combined := &Dataset{Results: make(map[string]*types.ScrapeResult, summary.RowsRead)}
	for _, id := range shardIDs {
		for _, row := range perShard[id] {
			existing, ok := combined.Results[row.MatchUID]
			if !ok {
				combined.Results[row.MatchUID] = row
				continue
			}
			summary.Conflicts++
			// Prefer a non-error row; an earlier (lower shard id) row of
			// equal standing keeps its place.
			if existing.Status == types.HAStatusError && row.Status != types.HAStatusError {
				combined.Results[row.MatchUID] = row
			}
		}
	}

	summary.Matches = len(combined.Results)
	for _, row := range combined.Results {
		switch row.Status {
		case types.HAStatusCorrect:
			summary.Correct++
		case types.HAStatusSwapped:
			summary.Swapped++
		case types.HAStatusError:
			summary.Errors++
		}
	}
	return combined, summary, nil
}

// Write rewrites the combined CSV from scratch, ordered by match uid so the
// output is reproducible.
func (d *Dataset) Write(path string) error {
	uids := make([]string, 0, len(d.Results))
	for uid := range d.Results {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create combined output %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(shardlog.Columns); err != nil {
		return fmt.Errorf("failed to write combined header: %w", err)
	}
	for _, uid := range uids {
		if err := w.Write(shardlog.EncodeRow(d.Results[uid])); err != nil {
			return fmt.Errorf("failed to write combined row %s: %w", uid, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush combined output: %w", err)
	}
	return f.Sync()
}

// Read loads a previously written combined CSV.
func Read(path string) (*Dataset, error) {
	rows, err := shardlog.ReadResults(path)
	if err != nil {
		return nil, err
	}
	d := &Dataset{Results: make(map[string]*types.ScrapeResult, len(rows))}
	for _, row := range rows {
		d.Results[row.MatchUID] = row
	}
	return d, nil
}
