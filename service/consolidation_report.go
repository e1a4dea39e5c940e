package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gamenight/models"
)

// ConsolidationOptions controls a consolidation run
type ConsolidationOptions struct {
	// DryRun plans every merge and rolls it back
	DryRun bool

	// SubjectIDPrefix identifies legacy rows whose id is a provider subject id.
	// nil means the default "user_" prefix; an empty prefix treats every id as a subject id.
	SubjectIDPrefix *string
}

// DuplicateOutcome is the result of merging one duplicate into its survivor
type DuplicateOutcome struct {
	UserID string                                    `json:"user_id"`
	Email  string                                    `json:"email"`
	Counts map[models.Relation]models.RelationCounts `json:"counts"`

	// Deleted is false when the duplicate row was already gone, or in a dry run
	Deleted bool `json:"deleted"`

	Err error `json:"-"`
}

// Failed reports whether the duplicate was left in place because of an error
func (o *DuplicateOutcome) Failed() bool {
	return o.Err != nil
}

// GroupReport describes one subject's duplicate group
type GroupReport struct {
	SubjectKey string              `json:"subject_key"`
	SurvivorID string              `json:"survivor_id"`
	Duplicates []*DuplicateOutcome `json:"duplicates"`
}

// Totals sums relation counts across the group's successful merges
func (g *GroupReport) Totals() map[models.Relation]models.RelationCounts {
	totals := make(map[models.Relation]models.RelationCounts, len(models.Relations))
	for _, dup := range g.Duplicates {
		if dup.Failed() {
			continue
		}
		for relation, counts := range dup.Counts {
			t := totals[relation]
			t.Moved += counts.Moved
			t.Collapsed += counts.Collapsed
			totals[relation] = t
		}
	}
	return totals
}

// AmbiguousGroup is a duplicate group without exactly one eligible survivor
type AmbiguousGroup struct {
	SubjectKey string   `json:"subject_key"`
	UserIDs    []string `json:"user_ids"`
	Reason     string   `json:"reason"`
}

// ConsolidationReport is the outcome of a consolidation run
type ConsolidationReport struct {
	RunID      string    `json:"run_id"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	UsersScanned int `json:"users_scanned"`
	Ungroupable  int `json:"ungroupable"`

	Groups    []*GroupReport   `json:"groups"`
	Ambiguous []AmbiguousGroup `json:"ambiguous"`

	// Cursor is the number of queued duplicates processed; QueueLength is the total queued
	Cursor      int  `json:"cursor"`
	QueueLength int  `json:"queue_length"`
	Interrupted bool `json:"interrupted"`
}

// Merged returns the number of duplicates merged (or planned, in a dry run)
func (r *ConsolidationReport) Merged() int {
	merged := 0
	for _, g := range r.Groups {
		for _, dup := range g.Duplicates {
			if !dup.Failed() {
				merged++
			}
		}
	}
	return merged
}

// Failures returns the duplicates that could not be merged
func (r *ConsolidationReport) Failures() []*DuplicateOutcome {
	var failed []*DuplicateOutcome
	for _, g := range r.Groups {
		for _, dup := range g.Duplicates {
			if dup.Failed() {
				failed = append(failed, dup)
			}
		}
	}
	return failed
}

// WriteText renders the report for an operator
func (r *ConsolidationReport) WriteText(w io.Writer) error {
	var b strings.Builder

	mode := ""
	if r.DryRun {
		mode = " (dry run, nothing was changed)"
	}
	fmt.Fprintf(&b, "Consolidation run %s%s\n", r.RunID, mode)
	fmt.Fprintf(&b, "Scanned %d users: %d duplicate groups, %d ambiguous, %d ungroupable\n",
		r.UsersScanned, len(r.Groups), len(r.Ambiguous), r.Ungroupable)
	fmt.Fprintf(&b, "Processed %d of %d duplicates: %d merged, %d failed (%s)\n",
		r.Cursor, r.QueueLength, r.Merged(), len(r.Failures()), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))

	for _, g := range r.Groups {
		fmt.Fprintf(&b, "\nSubject %s -> survivor %s\n", g.SubjectKey, g.SurvivorID)
		for _, dup := range g.Duplicates {
			if dup.Failed() {
				fmt.Fprintf(&b, "  %s <%s>: FAILED: %v\n", dup.UserID, dup.Email, dup.Err)
				continue
			}
			fmt.Fprintf(&b, "  %s <%s>: %s\n", dup.UserID, dup.Email, formatCounts(dup.Counts))
		}
	}

	if len(r.Ambiguous) > 0 {
		b.WriteString("\nAmbiguous groups (left untouched):\n")
		for _, a := range r.Ambiguous {
			fmt.Fprintf(&b, "  %s: %s [%s]\n", a.SubjectKey, a.Reason, strings.Join(a.UserIDs, ", "))
		}
	}

	if r.Interrupted {
		fmt.Fprintf(&b, "\nInterrupted at cursor %d of %d; re-run to continue\n", r.Cursor, r.QueueLength)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func formatCounts(counts map[models.Relation]models.RelationCounts) string {
	parts := make([]string, 0, len(models.Relations))
	for _, relation := range models.Relations {
		c := counts[relation]
		parts = append(parts, fmt.Sprintf("%s moved=%d collapsed=%d", relation, c.Moved, c.Collapsed))
	}
	return strings.Join(parts, ", ")
}
