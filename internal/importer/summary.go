package importer

import (
	"fmt"
	"strings"
)

// DefaultDisplayLimit is how many row errors Render shows before collapsing.
const DefaultDisplayLimit = 10

// Summary reports the outcome of one import run.
type Summary struct {
	BatchID      string   `json:"batchId"`
	Entity       string   `json:"entity"`
	DryRun       bool     `json:"dryRun,omitempty"`
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Skipped      int      `json:"skipped,omitempty"`
	Cancelled    bool     `json:"cancelled,omitempty"`
	Errors       []string `json:"errors"`
}

// newSummary starts a run's summary. Errors is never nil so it encodes as
// a JSON array.
func newSummary(entity, batchID string) *Summary {
	return &Summary{BatchID: batchID, Entity: entity, Errors: []string{}}
}

func (s *Summary) fail(msg string) {
	s.ErrorCount++
	s.Errors = append(s.Errors, msg)
}

// Render formats the summary for a terminal, listing at most limit errors.
func (s *Summary) Render(limit int) string {
	var b strings.Builder
	verb := "Imported"
	if s.DryRun {
		verb = "Validated"
	}
	fmt.Fprintf(&b, "%s %d %s, %d failed", verb, s.SuccessCount, strings.ToLower(s.Entity), s.ErrorCount)
	if s.Skipped > 0 {
		fmt.Fprintf(&b, ", %d skipped", s.Skipped)
	}
	b.WriteString(".\n")
	if s.Cancelled {
		b.WriteString("Import cancelled; skipped records were not submitted.\n")
	}
	for _, line := range DisplayErrors(s.Errors, limit) {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// DisplayErrors returns the first limit errors plus a "... and N more"
// line when some were left out. A limit of 0 or less shows all.
func DisplayErrors(errs []string, limit int) []string {
	if limit <= 0 || len(errs) <= limit {
		return errs
	}
	out := make([]string, 0, limit+1)
	out = append(out, errs[:limit]...)
	return append(out, fmt.Sprintf("... and %d more", len(errs)-limit))
}
