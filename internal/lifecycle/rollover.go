// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elastic/dscurator/internal/es"
)

// RolloverAction forces a data stream onto a new write index.
type RolloverAction struct {
	Cluster  Cluster
	Log      logrus.FieldLogger
	Recorder Recorder
	// Now defaults to time.Now.
	Now func() time.Time
}

// Do checks that the data stream exists and rolls it over. Errors are
// returned as they come from the cluster; there is no retry.
func (a *RolloverAction) Do(ctx context.Context, dataStream string) (es.RolloverResult, error) {
	log := a.Log
	if log == nil {
		log = discardLogger()
	}
	log = log.WithField("data_stream", dataStream)

	if _, err := a.Cluster.LookupDataStream(ctx, dataStream); err != nil {
		return es.RolloverResult{}, fmt.Errorf("look up data stream %q: %w", dataStream, err)
	}

	res, err := a.Cluster.Rollover(ctx, dataStream)
	if err != nil {
		return es.RolloverResult{}, fmt.Errorf("roll over data stream %q: %w", dataStream, err)
	}

	log.WithFields(logrus.Fields{
		"old_index":   res.OldIndex,
		"new_index":   res.NewIndex,
		"rolled_over": res.RolledOver,
	}).Info("Rolled over data stream")

	if a.Recorder != nil {
		a.Recorder.Record(ctx, Event{
			Time:       a.now(),
			Action:     "rollover",
			DataStream: dataStream,
			Index:      res.NewIndex,
			Outcome:    OutcomeRolledOver,
			Detail:     "previous write index " + res.OldIndex,
		})
	}
	return res, nil
}

func (a *RolloverAction) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}
