package shardlog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/match-auditor/internal/types"
)

// DoneSet is the set of match uids a shard has already recorded. A uid in
// the set is skipped unconditionally on resume: recorded error rows are
// terminal outcomes (their retries were exhausted), not transients.
type DoneSet map[string]struct{}

// Contains reports whether the uid has already been recorded.
func (d DoneSet) Contains(uid string) bool {
	_, ok := d[uid]
	return ok
}

// Add marks a uid as recorded.
func (d DoneSet) Add(uid string) {
	d[uid] = struct{}{}
}

// ReadDoneSet rebuilds the done-set from an existing shard log. A missing
// file yields an empty set; the caller must invoke this before writing any
// new row so a uid is never processed twice by the same shard.
func ReadDoneSet(path string) (DoneSet, error) {
	done := make(DoneSet)
	err := scanRows(path, func(r *types.ScrapeResult) {
		done.Add(r.MatchUID)
	})
	if err != nil {
		return nil, err
	}
	return done, nil
}

// ReadResults parses every row of a shard log. Used by the combiner.
func ReadResults(path string) ([]*types.ScrapeResult, error) {
	var results []*types.ScrapeResult
	err := scanRows(path, func(r *types.ScrapeResult) {
		results = append(results, r)
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// scanRows streams a shard log, invoking fn per decoded row. Rows decodeRow
// rejects (missing fields, no uid, bad status) are skipped; a partial final
// line (crash artifact) is tolerated.
func scanRows(path string, fn func(*types.ScrapeResult)) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open shard log %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	skipBOM(br)

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to read shard log header %s: %w", path, err)
	}
	idx := headerIndex(header)
	if _, ok := idx["match_uid"]; !ok {
		return fmt.Errorf("shard log %s has no match_uid column", path)
	}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// A torn trailing line from an interrupted writer is not fatal;
			// the row was never committed.
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return fmt.Errorf("failed to read shard log %s: %w", path, err)
		}
		row, err := decodeRow(idx, record)
		if err != nil {
			continue
		}
		fn(row)
	}
}

// skipBOM discards a UTF-8 byte order mark if present. Logs touched by
// spreadsheet tools sometimes grow one.
func skipBOM(br *bufio.Reader) {
	head, err := br.Peek(3)
	if err == nil && len(head) == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = br.Discard(3)
	}
}
