// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package es

import "time"

// DataStream is a single consistent snapshot of a data stream and its
// backing indices, oldest first as reported by the cluster.
type DataStream struct {
	Name       string
	Generation int
	Indices    []BackingIndex
}

// WriteIndex returns the current write index of the stream, if any.
func (d DataStream) WriteIndex() (BackingIndex, bool) {
	for _, idx := range d.Indices {
		if idx.WriteIndex {
			return idx, true
		}
	}
	return BackingIndex{}, false
}

// BackingIndex is one physical index belonging to a data stream.
type BackingIndex struct {
	Name       string
	UUID       string
	Generation int       // position in the stream, 1-based
	Created    time.Time // from index.creation_date; zero when the cluster did not report it
	WriteIndex bool
}

// HasCreationTime reports whether the cluster returned a creation date.
func (b BackingIndex) HasCreationTime() bool {
	return !b.Created.IsZero()
}

// Age returns how long ago the index was created relative to now.
func (b BackingIndex) Age(now time.Time) time.Duration {
	return now.Sub(b.Created)
}

// RolloverResult is the cluster's answer to a rollover request.
type RolloverResult struct {
	OldIndex   string
	NewIndex   string
	RolledOver bool
}

// dataStreamsResponse mirrors GET _data_stream/<name>.
type dataStreamsResponse struct {
	DataStreams []struct {
		Name       string `json:"name"`
		Generation int    `json:"generation"`
		Indices    []struct {
			IndexName string `json:"index_name"`
			IndexUUID string `json:"index_uuid"`
		} `json:"indices"`
	} `json:"data_streams"`
}

// rootResponse mirrors GET /, reduced to what flavor detection reads.
type rootResponse struct {
	Version struct {
		Distribution string `json:"distribution"`
		Number       string `json:"number"`
	} `json:"version"`
}

// settingsResponse mirrors GET <stream>/_settings/index.creation_date?flat_settings=true.
type settingsResponse map[string]struct {
	Settings map[string]string `json:"settings"`
}

// rolloverResponse mirrors POST <stream>/_rollover.
type rolloverResponse struct {
	Acknowledged bool   `json:"acknowledged"`
	OldIndex     string `json:"old_index"`
	NewIndex     string `json:"new_index"`
	RolledOver   bool   `json:"rolled_over"`
}
