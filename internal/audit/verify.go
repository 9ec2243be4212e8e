// Package audit drives the per-match verification and extraction loop: it
// fetches each owned match's page, decides whether the dataset's home/away
// assignment is correct or swapped, captures the supplementary fields, and
// records exactly one result row per match.
package audit

import (
	"github.com/jonathan/match-auditor/internal/fetch"
	"github.com/jonathan/match-auditor/internal/parsing"
	"github.com/jonathan/match-auditor/internal/types"
)

// Verdict is the outcome of comparing a dataset row against the page.
type Verdict struct {
	Status types.HAStatus
	Method types.HAMethod
	// Detail explains an error verdict (ambiguous comparison, no match).
	Detail string
}

// Verify decides the home/away status for a record given its page model.
//
// The id comparison runs first: when both page player ids resolved and both
// dataset ids are present, a straight or swapped id assignment decides the
// status. A page with only one resolvable id is id-ineligible and falls back
// to name comparison, as does an id comparison where neither assignment
// matches (the page id vocabulary is not always the dataset's).
//
// Name comparison uses normalized names with a surname fallback for
// truncated page names. An ambiguous comparison, where both the straight
// and swapped assignments hold, is an error verdict, never a guess.
func Verify(rec types.MatchRecord, page *fetch.PageModel) Verdict {
	if rec.HomeID != "" && rec.AwayID != "" && page.HomeID != "" && page.AwayID != "" {
		straight := rec.HomeID == page.HomeID && rec.AwayID == page.AwayID
		swapped := rec.HomeID == page.AwayID && rec.AwayID == page.HomeID
		switch {
		case straight && swapped:
			return Verdict{Status: types.HAStatusError, Detail: "ambiguous id match: home and away ids are interchangeable"}
		case straight:
			return Verdict{Status: types.HAStatusCorrect, Method: types.HAMethodID}
		case swapped:
			return Verdict{Status: types.HAStatusSwapped, Method: types.HAMethodID}
		}
	}

	straight := nameEqual(rec.HomeName, page.HomeName) && nameEqual(rec.AwayName, page.AwayName)
	swapped := nameEqual(rec.HomeName, page.AwayName) && nameEqual(rec.AwayName, page.HomeName)
	switch {
	case straight && swapped:
		return Verdict{Status: types.HAStatusError, Detail: "ambiguous name match: both assignments plausible"}
	case straight:
		return Verdict{Status: types.HAStatusCorrect, Method: types.HAMethodName}
	case swapped:
		return Verdict{Status: types.HAStatusSwapped, Method: types.HAMethodName}
	}
	return Verdict{Status: types.HAStatusError, Detail: "page players do not match dataset players"}
}

// nameEqual compares two player names: full normalized equality first, then
// normalized surname equality because page names are often truncated to
// "Surname I." forms.
func nameEqual(a, b string) bool {
	na, nb := parsing.NormalizeName(a), parsing.NormalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	sa, sb := parsing.NormalizeName(parsing.Surname(a)), parsing.NormalizeName(parsing.Surname(b))
	return sa != "" && sa == sb
}
