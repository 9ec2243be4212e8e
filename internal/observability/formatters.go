// Package observability provides formatted output utilities for end-of-run
// summaries.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/match-auditor/internal/apply"
	"github.com/jonathan/match-auditor/internal/audit"
	"github.com/jonathan/match-auditor/internal/combine"
)

// boxWidth is the default width for formatted output boxes
const boxWidth = 60

// Printer handles formatted summary output.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintScrapeSummary outputs the end-of-shard tallies.
func (p *Printer) PrintScrapeSummary(shard, totalShards int, s *audit.Summary) {
	if s == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Shard:      %d of %d\n", shard, totalShards))
	sb.WriteString(fmt.Sprintf("Processed:  %d\n", s.Processed))
	sb.WriteString(fmt.Sprintf("Skipped:    %d (already recorded)\n", s.Skipped))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Correct:    %d\n", s.Correct))
	sb.WriteString(fmt.Sprintf("Swapped:    %d\n", s.Swapped))
	sb.WriteString(fmt.Sprintf("Errors:     %d\n", s.Errors))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Tiebreaks:  %d\n", s.TiebreaksFound))
	sb.WriteString(fmt.Sprintf("Durations:  %d\n", s.DurationsFound))
	sb.WriteString(fmt.Sprintf("Surfaces:   %d", s.SurfacesFound))

	p.printBox("SCRAPE SUMMARY", sb.String())
}

// PrintCombineSummary outputs what the shard merge produced.
func (p *Printer) PrintCombineSummary(s *combine.Summary) {
	if s == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Shard logs read:     %d\n", s.ShardsRead))
	if s.ShardsMissing > 0 {
		sb.WriteString(fmt.Sprintf("Shard logs missing:  %d\n", s.ShardsMissing))
	}
	sb.WriteString(fmt.Sprintf("Rows read:           %d\n", s.RowsRead))
	sb.WriteString(fmt.Sprintf("Distinct matches:    %d\n", s.Matches))
	if s.Conflicts > 0 {
		sb.WriteString(fmt.Sprintf("Conflicts resolved:  %d\n", s.Conflicts))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Correct:             %d\n", s.Correct))
	sb.WriteString(fmt.Sprintf("Swapped:             %d\n", s.Swapped))
	sb.WriteString(fmt.Sprintf("Errors:              %d", s.Errors))

	p.printBox("COMBINE SUMMARY", sb.String())
}

// PrintApplySummary outputs what one apply pass changed.
func (p *Printer) PrintApplySummary(s apply.Summary) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Rows matched:        %d\n", s.Matched))
	sb.WriteString(fmt.Sprintf("Home/away swapped:   %d\n", s.Swapped))
	sb.WriteString(fmt.Sprintf("Tiebreaks filled:    %d\n", s.TiebreaksFilled))
	sb.WriteString(fmt.Sprintf("Times filled:        %d\n", s.TimesFilled))
	sb.WriteString(fmt.Sprintf("Date/times filled:   %d\n", s.DateTimeFilled))
	sb.WriteString(fmt.Sprintf("Surfaces filled:     %d\n", s.SurfaceFilled))
	if s.SurfaceRejected > 0 {
		sb.WriteString(fmt.Sprintf("Surfaces rejected:   %d\n", s.SurfaceRejected))
	}
	sb.WriteString(fmt.Sprintf("Error rows skipped:  %d\n", s.ErrorsSkipped))
	sb.WriteString(fmt.Sprintf("Rows untouched:      %d", s.Untouched))

	p.printBox("APPLY SUMMARY", sb.String())
}
