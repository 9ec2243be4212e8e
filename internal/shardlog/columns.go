// Package shardlog persists per-shard scrape results as an append-only CSV
// log. The log is the only coordination point between runs: the resume
// tracker rebuilds the done-set from it, and the combiner unions the logs of
// all shards.
package shardlog

import (
	"fmt"
	"strconv"

	"github.com/jonathan/match-auditor/internal/types"
)

// Columns is the shard output schema, one row per processed match.
var Columns = []string{
	"match_uid",
	"ha_status",
	"ha_method",
	"csv_home_name",
	"csv_home_id",
	"csv_away_name",
	"csv_away_id",
	"page_home_name",
	"page_home_id",
	"page_away_name",
	"page_away_id",
	"page_set1_tb_home",
	"page_set1_tb_away",
	"page_set2_tb_home",
	"page_set2_tb_away",
	"page_set3_tb_home",
	"page_set3_tb_away",
	"page_set1_home",
	"page_set1_away",
	"page_set2_home",
	"page_set2_away",
	"page_set3_home",
	"page_set3_away",
	"page_time_overall",
	"page_time_set1",
	"page_time_set2",
	"page_time_set3",
	"page_date_time",
	"page_court_type",
	"error",
}

// EncodeRow flattens a result into the column order above. The combiner
// reuses it so the combined CSV shares the shard log schema.
func EncodeRow(r *types.ScrapeResult) []string {
	row := make([]string, 0, len(Columns))
	row = append(row,
		r.MatchUID,
		string(r.Status),
		string(r.Method),
		r.CSVHomeName,
		r.CSVHomeID,
		r.CSVAwayName,
		r.CSVAwayID,
		r.PageHomeName,
		r.PageHomeID,
		r.PageAwayName,
		r.PageAwayID,
	)
	for i := 0; i < types.NumSets; i++ {
		row = append(row, r.Tiebreaks[i].Home, r.Tiebreaks[i].Away)
	}
	for i := 0; i < types.NumSets; i++ {
		row = append(row, r.SetScores[i].Home, r.SetScores[i].Away)
	}
	row = append(row, r.DurationOverall)
	row = append(row, r.SetDurations[0], r.SetDurations[1], r.SetDurations[2])
	row = append(row, r.DateTime, r.Surface, r.Error)
	return row
}

// decodeRow reconstructs a result from a CSV record using the header's
// column positions, tolerating reordered or extended headers. A record with
// fewer fields than the header is a torn trailing line from an interrupted
// writer and is rejected, as is any row whose status is not one of the
// closed values: a truncated uid or status must never enter the done-set.
func decodeRow(header map[string]int, record []string) (*types.ScrapeResult, error) {
	if len(record) < len(header) {
		return nil, fmt.Errorf("row has %d fields, header has %d", len(record), len(header))
	}

	field := func(name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	uid := field("match_uid")
	if uid == "" {
		return nil, fmt.Errorf("row has no match_uid")
	}
	status := types.HAStatus(field("ha_status"))
	if !status.Valid() {
		return nil, fmt.Errorf("row %s has invalid status %q", uid, status)
	}

	r := &types.ScrapeResult{
		MatchUID:        uid,
		Status:          status,
		Method:          types.HAMethod(field("ha_method")),
		CSVHomeName:     field("csv_home_name"),
		CSVHomeID:       field("csv_home_id"),
		CSVAwayName:     field("csv_away_name"),
		CSVAwayID:       field("csv_away_id"),
		PageHomeName:    field("page_home_name"),
		PageHomeID:      field("page_home_id"),
		PageAwayName:    field("page_away_name"),
		PageAwayID:      field("page_away_id"),
		DurationOverall: field("page_time_overall"),
		DateTime:        field("page_date_time"),
		Surface:         field("page_court_type"),
		Error:           field("error"),
	}
	for i := 0; i < types.NumSets; i++ {
		set := strconv.Itoa(i + 1)
		r.Tiebreaks[i] = types.SetScore{
			Home: field("page_set" + set + "_tb_home"),
			Away: field("page_set" + set + "_tb_away"),
		}
		r.SetScores[i] = types.SetScore{
			Home: field("page_set" + set + "_home"),
			Away: field("page_set" + set + "_away"),
		}
		r.SetDurations[i] = field("page_time_set" + set)
	}
	return r, nil
}

// headerIndex maps column names to positions.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	return idx
}
