package reconcile

import (
	"fmt"
	"strings"

	"github.com/agentstation/utc"
)

// Outcome is the per-record result of resolving and executing one
// incoming record.
type Outcome struct {
	// DisplayName identifies the record.
	DisplayName string

	// Action is the plan action that was computed, empty when
	// resolution itself failed.
	Action Action

	// Warnings are non-blocking validation notes attached during
	// construction.
	Warnings []string

	// Errors holds the record's failures: a resolution ambiguity, a
	// validation error, or one entry per failed directory operation.
	Errors []error
}

// Failed reports whether the record failed.
func (o *Outcome) Failed() bool {
	return len(o.Errors) > 0
}

// Summary is the structured result of one reconciliation batch. There
// is deliberately no single success/failure boolean for the run; the
// counts and per-record details are the result.
type Summary struct {
	StartedAt  utc.Time
	FinishedAt utc.Time
	DryRun     bool

	// Counts by outcome.
	Created      int
	Updated      int
	Consolidated int
	Skipped      int
	Failed       int

	// Excluded counts records dropped before resolution (parse or
	// validation failures).
	Excluded int

	// Unmatchable counts existing records absent from the match index
	// because they produce no key; no duplicate check was possible
	// for them.
	Unmatchable int

	// Outcomes holds the per-record details in batch order.
	Outcomes []Outcome

	// Warnings holds batch-level validation notes not tied to a
	// single outcome.
	Warnings []string
}

// Add records one outcome and updates the counts.
func (s *Summary) Add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	if o.Failed() {
		s.Failed++
		return
	}
	switch o.Action {
	case ActionCreateNew:
		s.Created++
	case ActionUpdateOne:
		s.Updated++
	case ActionConsolidateAll:
		s.Consolidated++
	case ActionSkip:
		s.Skipped++
	}
}

// AddExcluded records a record dropped before resolution.
func (s *Summary) AddExcluded(displayName string, err error) {
	s.Excluded++
	s.Outcomes = append(s.Outcomes, Outcome{DisplayName: displayName, Errors: []error{err}})
}

// HasFailures reports whether any record failed or was excluded.
func (s *Summary) HasFailures() bool {
	return s.Failed > 0 || s.Excluded > 0
}

// String returns a one-line count summary.
func (s *Summary) String() string {
	line := fmt.Sprintf("%d created, %d updated, %d consolidated, %d skipped, %d failed",
		s.Created, s.Updated, s.Consolidated, s.Skipped, s.Failed)
	if s.Excluded > 0 {
		line += fmt.Sprintf(", %d excluded", s.Excluded)
	}
	if s.Unmatchable > 0 {
		line += fmt.Sprintf(" (%d existing records had no match key)", s.Unmatchable)
	}
	if s.DryRun {
		line = "dry run: " + line
	}
	return line
}

// Report returns a detailed multi-line report: the count line followed
// by every warning and per-record error.
func (s *Summary) Report() string {
	var b strings.Builder
	b.WriteString(s.String())
	b.WriteString("\n")

	for _, w := range s.Warnings {
		fmt.Fprintf(&b, "  warning: %s\n", w)
	}
	for _, o := range s.Outcomes {
		for _, w := range o.Warnings {
			fmt.Fprintf(&b, "  warning: %s\n", w)
		}
		for _, err := range o.Errors {
			if o.DisplayName == "" {
				fmt.Fprintf(&b, "  failed: %v\n", err)
				continue
			}
			fmt.Fprintf(&b, "  failed: %s: %v\n", o.DisplayName, err)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
