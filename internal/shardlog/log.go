package shardlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/match-auditor/internal/types"
)

// WriteError reports a failure to persist a result row. Write failures are
// fatal to the shard: continuing would risk a truncated or corrupt row.
type WriteError struct {
	Path    string
	Message string
	Cause   error
}

func (e *WriteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("shard log write error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("shard log write error for %s: %s", e.Path, e.Message)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// FilePath returns the shard's output log path: <base>_shard<i>of<n>.csv.
func FilePath(dir, base string, shardID, totalShards int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_shard%dof%d.csv", base, shardID, totalShards))
}

// Log is a shard's append-only result writer. Prior rows are never rewritten
// or truncated, even when resume is disabled.
type Log struct {
	path string
	file *os.File
	w    *csv.Writer
}

// Open opens (or creates) the shard log in append mode and writes the header
// if the file is new or empty.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &WriteError{Path: path, Message: "failed to create output directory", Cause: err}
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, &WriteError{Path: path, Message: "failed to open log", Cause: err}
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &WriteError{Path: path, Message: "failed to stat log", Cause: err}
	}

	log := &Log{path: path, file: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := log.writeRow(Columns); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return log, nil
}

// Append persists exactly one result row. The row is flushed and fsynced
// before returning; once Append succeeds, the match is durably recorded and
// safe to add to the done-set.
func (l *Log) Append(r *types.ScrapeResult) error {
	return l.writeRow(EncodeRow(r))
}

func (l *Log) writeRow(row []string) error {
	if err := l.w.Write(row); err != nil {
		return &WriteError{Path: l.path, Message: "failed to write row", Cause: err}
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return &WriteError{Path: l.path, Message: "failed to flush row", Cause: err}
	}
	if err := l.file.Sync(); err != nil {
		return &WriteError{Path: l.path, Message: "failed to sync log", Cause: err}
	}
	return nil
}

// Path returns the log's file path.
func (l *Log) Path() string {
	return l.path
}

// Close closes the underlying file.
func (l *Log) Close() error {
	return l.file.Close()
}
