// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/dscurator/internal/es"
)

// memCluster is an in-memory Cluster for action tests.
type memCluster struct {
	streams map[string][]es.BackingIndex

	deleteErr map[string]error
	onDelete  func(index string) // runs before a delete is applied

	lookupCalls   int
	getCalls      int
	rolloverCalls int
	deleteCalls   []string
}

func newMemCluster() *memCluster {
	return &memCluster{
		streams:   map[string][]es.BackingIndex{},
		deleteErr: map[string]error{},
	}
}

// addStream creates a stream whose indices were created daysAgo[i] days
// before now. The last entry is the write index.
func (m *memCluster) addStream(name string, now time.Time, daysAgo ...float64) {
	var indices []es.BackingIndex
	for i, d := range daysAgo {
		indices = append(indices, es.BackingIndex{
			Name:       fmt.Sprintf(".ds-%s-%06d", name, i+1),
			Generation: i + 1,
			Created:    now.Add(-time.Duration(d * float64(Day))),
			WriteIndex: i == len(daysAgo)-1,
		})
	}
	m.streams[name] = indices
}

func (m *memCluster) LookupDataStream(_ context.Context, name string) (es.DataStream, error) {
	m.lookupCalls++
	ds, err := m.snapshot(name)
	for i := range ds.Indices {
		ds.Indices[i].Created = time.Time{}
	}
	return ds, err
}

func (m *memCluster) GetDataStream(_ context.Context, name string) (es.DataStream, error) {
	m.getCalls++
	return m.snapshot(name)
}

func (m *memCluster) snapshot(name string) (es.DataStream, error) {
	indices, ok := m.streams[name]
	if !ok {
		return es.DataStream{}, &es.NotFoundError{Kind: "data stream", Name: name}
	}
	return es.DataStream{
		Name:       name,
		Generation: len(indices),
		Indices:    append([]es.BackingIndex(nil), indices...),
	}, nil
}

func (m *memCluster) Rollover(_ context.Context, name string) (es.RolloverResult, error) {
	m.rolloverCalls++
	indices, ok := m.streams[name]
	if !ok {
		return es.RolloverResult{}, &es.NotFoundError{Kind: "data stream", Name: name}
	}
	old := indices[len(indices)-1]
	indices[len(indices)-1].WriteIndex = false
	next := es.BackingIndex{
		Name:       fmt.Sprintf(".ds-%s-%06d", name, len(indices)+1),
		Generation: len(indices) + 1,
		Created:    time.Now(),
		WriteIndex: true,
	}
	m.streams[name] = append(indices, next)
	return es.RolloverResult{OldIndex: old.Name, NewIndex: next.Name, RolledOver: true}, nil
}

func (m *memCluster) DeleteIndex(_ context.Context, index string) error {
	m.deleteCalls = append(m.deleteCalls, index)
	if m.onDelete != nil {
		m.onDelete(index)
	}
	if err, ok := m.deleteErr[index]; ok {
		return err
	}
	for name, indices := range m.streams {
		for i, idx := range indices {
			if idx.Name == index {
				m.streams[name] = append(indices[:i:i], indices[i+1:]...)
				return nil
			}
		}
	}
	return &es.NotFoundError{Kind: "index", Name: index}
}

func (m *memCluster) names(stream string) []string {
	var out []string
	for _, idx := range m.streams[stream] {
		out = append(out, idx.Name)
	}
	return out
}

type recordingRecorder struct {
	events []Event
}

func (r *recordingRecorder) Record(_ context.Context, ev Event) {
	r.events = append(r.events, ev)
}
