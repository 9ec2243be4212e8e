// Package dataset loads and writes the canonical match CSV. The applier
// edits rows through Table's column accessors; everything else treats the
// file as read-only input.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/match-auditor/internal/types"
)

// Column names the pipeline requires from the canonical dataset. Stat
// columns (home_*/away_*, match_score, time_*) are discovered at runtime
// so datasets with differing stat layouts still load.
const (
	ColMatchUID   = "match_uid"
	ColMatchURL   = "match_url"
	ColPlayerHome = "player_home"
	ColPlayerAway = "player_away"
	ColHomeID     = "player_home_id"
	ColAwayID     = "player_away_id"
)

// FileError describes a canonical dataset I/O or shape problem.
type FileError struct {
	Path    string
	Message string
	Cause   error
}

func (e *FileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dataset %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("dataset %s: %s", e.Path, e.Message)
}

func (e *FileError) Unwrap() error {
	return e.Cause
}

// Table is an in-memory canonical dataset: a header plus string cells.
// Cell access is by column name so the applier works against whatever
// stat columns the file actually carries.
type Table struct {
	Header []string
	Rows   [][]string

	cols  map[string]int
	byUID map[string]int
}

// Load reads the canonical CSV into a Table. Short rows are padded to the
// header width; the file must carry a match_uid column.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Path: path, Message: "open failed", Cause: err}
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	skipBOM(br)

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &FileError{Path: path, Message: "header read failed", Cause: err}
	}

	t := &Table{Header: header, cols: make(map[string]int, len(header))}
	for i, name := range header {
		if _, dup := t.cols[name]; !dup {
			t.cols[name] = i
		}
	}
	if _, ok := t.cols[ColMatchUID]; !ok {
		return nil, &FileError{Path: path, Message: "no match_uid column"}
	}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &FileError{Path: path, Message: "row read failed", Cause: err}
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		t.Rows = append(t.Rows, record[:len(header)])
	}

	t.byUID = make(map[string]int, len(t.Rows))
	for i, row := range t.Rows {
		uid := row[t.cols[ColMatchUID]]
		if uid == "" {
			continue
		}
		if _, dup := t.byUID[uid]; !dup {
			t.byUID[uid] = i
		}
	}
	return t, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether the dataset carries the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// EnsureColumn adds an empty column if the dataset lacks it.
func (t *Table) EnsureColumn(name string) {
	if t.HasColumn(name) {
		return
	}
	t.cols[name] = len(t.Header)
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
}

// RowByUID returns the row index for a match uid.
func (t *Table) RowByUID(uid string) (int, bool) {
	i, ok := t.byUID[uid]
	return i, ok
}

// Get returns the cell value, or "" when the column is absent.
func (t *Table) Get(row int, col string) string {
	i, ok := t.cols[col]
	if !ok {
		return ""
	}
	return t.Rows[row][i]
}

// Set writes a cell value. Setting an absent column is a no-op; callers
// that need the column use EnsureColumn first.
func (t *Table) Set(row int, col, value string) {
	i, ok := t.cols[col]
	if !ok {
		return
	}
	t.Rows[row][i] = value
}

// Records projects the table into the immutable per-match input the shard
// planner and audit loop consume. Rows without a uid or URL are skipped.
func (t *Table) Records() []types.MatchRecord {
	records := make([]types.MatchRecord, 0, len(t.Rows))
	for i := range t.Rows {
		uid := t.Get(i, ColMatchUID)
		url := t.Get(i, ColMatchURL)
		if uid == "" || url == "" {
			continue
		}
		records = append(records, types.MatchRecord{
			UID:      uid,
			URL:      url,
			HomeName: t.Get(i, ColPlayerHome),
			HomeID:   t.Get(i, ColHomeID),
			AwayName: t.Get(i, ColPlayerAway),
			AwayID:   t.Get(i, ColAwayID),
		})
	}
	return records
}

// Write replaces the file at path with the table's current contents and
// syncs it to disk.
func (t *Table) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &FileError{Path: path, Message: "create failed", Cause: err}
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return &FileError{Path: path, Message: "header write failed", Cause: err}
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return &FileError{Path: path, Message: "row write failed", Cause: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &FileError{Path: path, Message: "flush failed", Cause: err}
	}
	if err := f.Sync(); err != nil {
		return &FileError{Path: path, Message: "sync failed", Cause: err}
	}
	return nil
}

func skipBOM(br *bufio.Reader) {
	head, err := br.Peek(3)
	if err == nil && len(head) == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = br.Discard(3)
	}
}
