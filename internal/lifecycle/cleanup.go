// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elastic/dscurator/internal/es"
)

// CleanupAction deletes backing indices older than the retention period.
type CleanupAction struct {
	Cluster       Cluster
	RetentionDays int
	DryRun        bool

	// Now defaults to time.Now.
	Now      func() time.Time
	Log      logrus.FieldLogger
	Recorder Recorder
}

// Do runs the cleanup for one data stream.
//
// The candidate set is computed from a single snapshot and never
// re-queried, so a concurrent rollover cannot turn the new write index into
// a candidate. Deletions run one at a time in snapshot order; a failure is
// recorded and the remaining candidates are still attempted.
//
// The returned report is non-nil whenever the snapshot was read. If any
// deletion failed, the error is a *PartialDeletionError.
func (a *CleanupAction) Do(ctx context.Context, dataStream string) (*Report, error) {
	if a.RetentionDays < 0 {
		return nil, fmt.Errorf("retention period must be >= 0 days, got %d", a.RetentionDays)
	}
	log := a.logger().WithFields(logrus.Fields{
		"data_stream":    dataStream,
		"retention_days": a.RetentionDays,
		"dry_run":        a.DryRun,
	})

	snapshot, err := a.Cluster.GetDataStream(ctx, dataStream)
	if err != nil {
		return nil, fmt.Errorf("list backing indices of %q: %w", dataStream, err)
	}

	now := a.now()
	report := &Report{
		DataStream:    dataStream,
		RetentionDays: a.RetentionDays,
		DryRun:        a.DryRun,
		Now:           now,
	}

	decisions := Select(snapshot, a.RetentionDays, now)
	log.WithField("indices", len(decisions)).Info("Read data stream snapshot")

	for _, d := range decisions {
		item := Item{Index: d.Index, Age: d.Age, Reason: d.Reason}
		ilog := log.WithField("index", d.Index.Name)

		switch {
		case !d.Delete && !d.Undetermined:
			item.Outcome = OutcomeKept
		case !d.Delete:
			item.Outcome = OutcomeSkipped
			ilog.Warn("Skipping index: " + d.Reason)
		case d.Index.WriteIndex:
			// Unreachable through Select.
			item.Outcome = OutcomeSkipped
			item.Reason = "write index"
			ilog.Error("Refusing to delete write index")
		case a.DryRun:
			item.Outcome = OutcomeWouldDelete
			ilog.WithField("age", d.Age.Round(time.Second)).Info("Would delete index")
		default:
			a.delete(ctx, ilog, dataStream, &item)
		}

		report.Items = append(report.Items, item)
	}

	log.Info(report.Summary())
	return report, report.Err()
}

func (a *CleanupAction) delete(ctx context.Context, log logrus.FieldLogger, dataStream string, item *Item) {
	log = log.WithField("age", item.Age.Round(time.Second))
	err := a.Cluster.DeleteIndex(ctx, item.Index.Name)

	var nf *es.NotFoundError
	switch {
	case err == nil:
		item.Outcome = OutcomeDeleted
		log.Info("Deleted index")
	case errors.As(err, &nf):
		item.Outcome = OutcomeGone
		item.Reason = "index no longer exists"
		log.Info("Index already gone")
	default:
		item.Outcome = OutcomeFailed
		item.Err = err
		log.WithError(err).Error("Failed to delete index")
	}

	a.recorder().Record(ctx, Event{
		Time:       a.now(),
		Action:     "cleanup",
		DataStream: dataStream,
		Index:      item.Index.Name,
		Outcome:    item.Outcome,
		Age:        item.Age,
		Detail:     item.Reason,
		Err:        item.Err,
	})
}

func (a *CleanupAction) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *CleanupAction) logger() logrus.FieldLogger {
	if a.Log != nil {
		return a.Log
	}
	return discardLogger()
}

func (a *CleanupAction) recorder() Recorder {
	if a.Recorder != nil {
		return a.Recorder
	}
	return NopRecorder{}
}
