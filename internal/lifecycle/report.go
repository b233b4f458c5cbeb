// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/elastic/dscurator/internal/es"
)

// Outcome is what happened to a backing index during a lifecycle action.
type Outcome string

const (
	OutcomeDeleted     Outcome = "deleted"
	OutcomeWouldDelete Outcome = "would-delete" // dry run
	OutcomeGone        Outcome = "already-gone" // deleted by someone else between snapshot and delete
	OutcomeFailed      Outcome = "failed"
	OutcomeKept        Outcome = "kept"
	OutcomeSkipped     Outcome = "skipped"

	// OutcomeRolledOver is recorded for a successful rollover.
	OutcomeRolledOver Outcome = "rolled-over"
)

// Item is the per-index line of a cleanup report.
type Item struct {
	Index   es.BackingIndex
	Age     time.Duration
	Outcome Outcome
	Reason  string
	Err     error
}

// Report describes a whole cleanup run. Every index of the snapshot
// appears exactly once.
type Report struct {
	DataStream    string
	RetentionDays int
	DryRun        bool
	Now           time.Time
	Items         []Item
}

// Count returns how many items ended with the given outcome.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, it := range r.Items {
		if it.Outcome == o {
			n++
		}
	}
	return n
}

// Deleted returns the names of indices removed by this run.
func (r *Report) Deleted() []string {
	var names []string
	for _, it := range r.Items {
		if it.Outcome == OutcomeDeleted {
			names = append(names, it.Index.Name)
		}
	}
	return names
}

// Failed returns the items whose deletion failed.
func (r *Report) Failed() []Item {
	var failed []Item
	for _, it := range r.Items {
		if it.Outcome == OutcomeFailed {
			failed = append(failed, it)
		}
	}
	return failed
}

// Candidates returns how many indices were past retention.
func (r *Report) Candidates() int {
	return r.Count(OutcomeDeleted) + r.Count(OutcomeWouldDelete) + r.Count(OutcomeGone) + r.Count(OutcomeFailed)
}

// Err returns a *PartialDeletionError when at least one deletion failed.
func (r *Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	return &PartialDeletionError{
		DataStream: r.DataStream,
		Attempted:  r.Candidates(),
		Failures:   failed,
	}
}

// Summary is a one line description of the run.
func (r *Report) Summary() string {
	if r.DryRun {
		return fmt.Sprintf("data stream %q: %d of %d indices would be deleted (retention %d days)",
			r.DataStream, r.Count(OutcomeWouldDelete), len(r.Items), r.RetentionDays)
	}
	s := fmt.Sprintf("data stream %q: deleted %d of %d indices (retention %d days)",
		r.DataStream, r.Count(OutcomeDeleted), len(r.Items), r.RetentionDays)
	if n := r.Count(OutcomeFailed); n > 0 {
		s += fmt.Sprintf(", %d failed", n)
	}
	if n := r.Count(OutcomeSkipped); n > 0 {
		s += fmt.Sprintf(", %d skipped", n)
	}
	return s
}

// PartialDeletionError aggregates per-index deletion failures of a run.
// It is returned after every candidate has been attempted.
type PartialDeletionError struct {
	DataStream string
	Attempted  int
	Failures   []Item
}

func (e *PartialDeletionError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Index.Name
	}
	return fmt.Sprintf("data stream %q: %d of %d index deletions failed: %s: %v",
		e.DataStream, len(e.Failures), e.Attempted, strings.Join(names, ", "), e.combined())
}

// Unwrap exposes the individual deletion errors to errors.Is / errors.As.
func (e *PartialDeletionError) Unwrap() []error {
	return multierr.Errors(e.combined())
}

func (e *PartialDeletionError) combined() error {
	var err error
	for _, f := range e.Failures {
		err = multierr.Append(err, f.Err)
	}
	return err
}
