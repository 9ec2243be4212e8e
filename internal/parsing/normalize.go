// Package parsing provides normalization helpers for values captured from
// match pages: player names, court surfaces, and clock-style durations.
package parsing

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jonathan/match-auditor/internal/types"
)

// NormalizeName reduces a player name to a comparison key: lowercase with
// everything except letters removed. This absorbs case, whitespace, and
// punctuation differences between the dataset and the page ("Mueller K." vs
// "mueller k").
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Surname returns the lowercased surname token of a name. Page names are
// often truncated to "Surname I." while the dataset carries the full given
// name, so trailing initial tokens ("M.", "K") are stripped before taking
// the last remaining token: "Lopez M." and "Maria Garcia Lopez" both yield
// "lopez". A name consisting only of initials yields "".
func Surname(name string) string {
	fields := strings.Fields(name)
	for len(fields) > 0 && isInitial(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[len(fields)-1])
}

// isInitial reports whether a token is a single-letter abbreviation.
func isInitial(token string) bool {
	letters := 0
	for _, r := range token {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters == 1
}

// UnknownSurfaceError reports a captured surface string outside the
// controlled vocabulary. The applier must reject these, never coerce.
type UnknownSurfaceError struct {
	Raw string
}

func (e *UnknownSurfaceError) Error() string {
	return fmt.Sprintf("unknown court surface %q", e.Raw)
}

// indoorSuffix is how capture renders indoor courts: "Hard (indoor)".
const indoorSuffix = "(indoor)"

// NormalizeSurface parses a raw captured surface ("HARD", "Clay (indoor)")
// into the controlled vocabulary. Unrecognized values return
// *UnknownSurfaceError.
func NormalizeSurface(raw string) (types.Surface, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return types.Surface{}, &UnknownSurfaceError{Raw: raw}
	}

	indoor := false
	if strings.HasSuffix(strings.ToLower(s), indoorSuffix) {
		indoor = true
		s = strings.TrimSpace(s[:len(s)-len(indoorSuffix)])
	}

	switch strings.ToLower(s) {
	case "hard":
		return types.Surface{Kind: types.SurfaceHard, Indoor: indoor}, nil
	case "clay":
		return types.Surface{Kind: types.SurfaceClay, Indoor: indoor}, nil
	case "grass":
		return types.Surface{Kind: types.SurfaceGrass, Indoor: indoor}, nil
	}
	return types.Surface{}, &UnknownSurfaceError{Raw: raw}
}

// ValidClock reports whether s looks like a match duration in H:MM form
// ("1:34", "0:58", "12:05"). Capture keeps durations as text; this guards
// against passing arbitrary page noise through to the canonical dataset.
func ValidClock(s string) bool {
	s = strings.TrimSpace(s)
	i := strings.IndexByte(s, ':')
	if i < 1 || i != len(s)-3 {
		return false
	}
	for j, r := range s {
		if j == i {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
