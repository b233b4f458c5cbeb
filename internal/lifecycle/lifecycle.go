// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle implements the two data stream actions: a manual
// rollover and retention based cleanup of backing indices.
package lifecycle

import (
	"context"
	"time"

	"github.com/elastic/dscurator/internal/es"
)

// Cluster is the part of the cluster API the actions depend on.
// *es.Client implements it.
type Cluster interface {
	// LookupDataStream lists the stream without creation dates.
	LookupDataStream(ctx context.Context, name string) (es.DataStream, error)
	GetDataStream(ctx context.Context, name string) (es.DataStream, error)
	Rollover(ctx context.Context, name string) (es.RolloverResult, error)
	DeleteIndex(ctx context.Context, index string) error
}

// Event is emitted for every state change the actions cause on the cluster.
type Event struct {
	Time       time.Time
	Action     string // "rollover" or "cleanup"
	DataStream string
	Index      string
	Outcome    Outcome
	Age        time.Duration
	Detail     string
	Err        error
}

// Recorder receives lifecycle events, e.g. for audit export.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// NopRecorder drops all events.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) {}
