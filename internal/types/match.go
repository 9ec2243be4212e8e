// Package types defines the shared data model for the match audit pipeline.
package types

// HAStatus is the outcome of verifying a record's home/away assignment
// against the source page.
type HAStatus string

const (
	// HAStatusCorrect means the dataset's home/away assignment matches the page.
	HAStatusCorrect HAStatus = "correct"
	// HAStatusSwapped means the page's home and away are reversed relative to the dataset.
	HAStatusSwapped HAStatus = "swapped"
	// HAStatusError means the match could not be verified (fetch failure, missing
	// page data, or an ambiguous comparison).
	HAStatusError HAStatus = "error"
)

// Valid reports whether s is one of the closed status values.
func (s HAStatus) Valid() bool {
	switch s {
	case HAStatusCorrect, HAStatusSwapped, HAStatusError:
		return true
	}
	return false
}

// HAMethod records which comparison path decided the home/away status.
type HAMethod string

const (
	// HAMethodID means both page player ids resolved and decided the status.
	HAMethodID HAMethod = "id_match"
	// HAMethodName means the status was decided by normalized name comparison.
	HAMethodName HAMethod = "name_match"
)

// MatchRecord is one immutable input row from the canonical dataset.
type MatchRecord struct {
	UID      string
	URL      string
	HomeName string
	HomeID   string
	AwayName string
	AwayID   string
}

// SetScore holds one set's home/away values as captured from the page.
// Empty strings mean the set (or the value) was not present.
type SetScore struct {
	Home string
	Away string
}

// IsZero reports whether neither side has a value.
func (s SetScore) IsZero() bool {
	return s.Home == "" && s.Away == ""
}

// NumSets is the maximum number of sets captured per match (best of three).
const NumSets = 3

// ScrapeResult is the outcome of processing one match: the home/away verdict
// plus every supplementary field the page offered. It is created once by the
// owning shard and never mutated after being written to the shard log.
type ScrapeResult struct {
	MatchUID string
	Status   HAStatus
	Method   HAMethod

	CSVHomeName string
	CSVHomeID   string
	CSVAwayName string
	CSVAwayID   string

	PageHomeName string
	PageHomeID   string
	PageAwayName string
	PageAwayID   string

	// Per-set values, index 0 = set 1. All optional.
	SetScores    [NumSets]SetScore
	Tiebreaks    [NumSets]SetScore
	SetDurations [NumSets]string

	DurationOverall string
	DateTime        string

	// Surface is the raw page capture (e.g. "HARD", "Clay (indoor)").
	// Normalization into the controlled vocabulary happens at apply time.
	Surface string

	// Error holds the terminal failure detail when Status is HAStatusError
	// because of a fetch or extraction failure.
	Error string
}

// HasTiebreak reports whether any set captured a tiebreak score.
func (r *ScrapeResult) HasTiebreak() bool {
	for _, tb := range r.Tiebreaks {
		if !tb.IsZero() {
			return true
		}
	}
	return false
}
