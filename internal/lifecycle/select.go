// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"time"

	"github.com/elastic/dscurator/internal/es"
)

// Day is the unit of a retention period.
const Day = 24 * time.Hour

// Decision is the verdict for one backing index of a snapshot.
type Decision struct {
	Index        es.BackingIndex
	Age          time.Duration
	Delete       bool
	// Undetermined is set when the age could not be trusted.
	Undetermined bool
	Reason       string
}

// Select decides which backing indices of the snapshot are past retention.
//
// An index is selected iff it is not the write index and its age is
// strictly greater than retentionDays. An index exactly at the boundary is
// kept. Indices without a cluster-reported creation time, or with one in
// the future, are never selected.
func Select(ds es.DataStream, retentionDays int, now time.Time) []Decision {
	limit := time.Duration(retentionDays) * Day
	decisions := make([]Decision, 0, len(ds.Indices))

	for _, idx := range ds.Indices {
		d := Decision{Index: idx}
		switch {
		case idx.WriteIndex:
			d.Reason = "write index"
			if idx.HasCreationTime() {
				d.Age = idx.Age(now)
			}
		case !idx.HasCreationTime():
			d.Undetermined = true
			d.Reason = "creation date not reported by cluster"
		default:
			d.Age = idx.Age(now)
			switch {
			case d.Age < 0:
				d.Undetermined = true
				d.Reason = "creation date is in the future"
			case d.Age > limit:
				d.Delete = true
				d.Reason = "older than retention period"
			default:
				d.Reason = "within retention period"
			}
		}
		decisions = append(decisions, d)
	}

	return decisions
}
