// Package apply merges a combined result set into the canonical dataset.
// Swapped rows get their home/away identity corrected; supplementary fields
// fill only cells the dataset does not already have. The merge is
// idempotent: applying the same combined set to its own output changes
// nothing.
package apply

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/match-auditor/internal/combine"
	"github.com/jonathan/match-auditor/internal/dataset"
	"github.com/jonathan/match-auditor/internal/parsing"
	"github.com/jonathan/match-auditor/internal/types"
)

// Canonical supplementary columns the applier fills.
const (
	colMatchScore = "match_score"
	colDateTime   = "list_date_time"
	colCourtType  = "court_type"
)

var timeColumns = [...]struct {
	col string
	get func(*types.ScrapeResult) string
}{
	{"time_overall", func(r *types.ScrapeResult) string { return r.DurationOverall }},
	{"time_set1", func(r *types.ScrapeResult) string { return r.SetDurations[0] }},
	{"time_set2", func(r *types.ScrapeResult) string { return r.SetDurations[1] }},
	{"time_set3", func(r *types.ScrapeResult) string { return r.SetDurations[2] }},
}

// Summary reports what one apply pass changed.
type Summary struct {
	Matched         int
	Swapped         int
	TiebreaksFilled int
	TimesFilled     int
	DateTimeFilled  int
	SurfaceFilled   int
	SurfaceRejected int
	ErrorsSkipped   int
	Untouched       int
}

// Run merges combined into tbl in place. Error rows and canonical rows with
// no combined entry are left entirely untouched. Surface strings outside the
// controlled vocabulary are rejected, not coerced.
func Run(tbl *dataset.Table, combined *combine.Dataset, logger *zap.Logger) Summary {
	if logger == nil {
		logger = zap.NewNop()
	}

	var s Summary
	tbl.EnsureColumn(colCourtType)

	for i := 0; i < tbl.Len(); i++ {
		res := combined.Get(tbl.Get(i, dataset.ColMatchUID))
		if res == nil {
			s.Untouched++
			continue
		}
		if res.Status == types.HAStatusError {
			s.ErrorsSkipped++
			continue
		}
		s.Matched++

		// Correct the orientation first so page-side fills land on the
		// right side. The identity check keeps a re-run from swapping back.
		if res.Status == types.HAStatusSwapped && needsSwap(tbl, i, res) {
			swapRow(tbl, i)
			s.Swapped++
		}

		fillRow(tbl, i, res, logger, &s)
	}
	return s
}

// needsSwap reports whether the canonical row still carries the original
// assignment the shard compared against. Once a swap has been applied the
// row matches the page orientation and the check fails.
func needsSwap(tbl *dataset.Table, row int, res *types.ScrapeResult) bool {
	if res.CSVHomeID != "" && res.CSVAwayID != "" {
		return tbl.Get(row, dataset.ColHomeID) == res.CSVHomeID &&
			tbl.Get(row, dataset.ColAwayID) == res.CSVAwayID
	}
	return parsing.NormalizeName(tbl.Get(row, dataset.ColPlayerHome)) == parsing.NormalizeName(res.CSVHomeName) &&
		parsing.NormalizeName(tbl.Get(row, dataset.ColPlayerAway)) == parsing.NormalizeName(res.CSVAwayName)
}

// swapRow exchanges the player identity columns, every paired home_*/away_*
// stat column the dataset carries, and reverses match_score.
func swapRow(tbl *dataset.Table, row int) {
	swapCells(tbl, row, dataset.ColPlayerHome, dataset.ColPlayerAway)
	swapCells(tbl, row, dataset.ColHomeID, dataset.ColAwayID)

	for _, col := range tbl.Header {
		if !strings.HasPrefix(col, "home_") {
			continue
		}
		counterpart := "away_" + strings.TrimPrefix(col, "home_")
		if tbl.HasColumn(counterpart) {
			swapCells(tbl, row, col, counterpart)
		}
	}

	if ms := tbl.Get(row, colMatchScore); strings.Contains(ms, "-") {
		parts := strings.SplitN(ms, "-", 2)
		tbl.Set(row, colMatchScore, fmt.Sprintf("%s-%s", parts[1], parts[0]))
	}
}

func swapCells(tbl *dataset.Table, row int, a, b string) {
	av, bv := tbl.Get(row, a), tbl.Get(row, b)
	tbl.Set(row, a, bv)
	tbl.Set(row, b, av)
}

// fillRow writes supplementary page values into cells that are currently
// empty, never replacing a present canonical value.
func fillRow(tbl *dataset.Table, row int, res *types.ScrapeResult, logger *zap.Logger, s *Summary) {
	for set := 0; set < types.NumSets; set++ {
		tb := res.Tiebreaks[set]
		if fillCell(tbl, row, fmt.Sprintf("home_set%d_tb", set+1), tb.Home) {
			s.TiebreaksFilled++
		}
		if fillCell(tbl, row, fmt.Sprintf("away_set%d_tb", set+1), tb.Away) {
			s.TiebreaksFilled++
		}
	}

	for _, tc := range timeColumns {
		if fillCell(tbl, row, tc.col, tc.get(res)) {
			s.TimesFilled++
		}
	}

	if fillCell(tbl, row, colDateTime, res.DateTime) {
		s.DateTimeFilled++
	}

	if res.Surface != "" && strings.TrimSpace(tbl.Get(row, colCourtType)) == "" {
		surface, err := parsing.NormalizeSurface(res.Surface)
		if err != nil {
			logger.Warn("unrecognized surface left unapplied",
				zap.String("match_uid", res.MatchUID),
				zap.String("surface", res.Surface))
			s.SurfaceRejected++
		} else {
			tbl.Set(row, colCourtType, surface.Label())
			s.SurfaceFilled++
		}
	}
}

// fillCell writes value into an existing, currently empty cell. Reports
// whether it wrote.
func fillCell(tbl *dataset.Table, row int, col, value string) bool {
	if value == "" || !tbl.HasColumn(col) {
		return false
	}
	if strings.TrimSpace(tbl.Get(row, col)) != "" {
		return false
	}
	tbl.Set(row, col, value)
	return true
}
