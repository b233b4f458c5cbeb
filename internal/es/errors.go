// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package es

import (
	"fmt"
	"net/http"
)

// NotFoundError is returned when the target data stream or index does not
// exist on the cluster.
type NotFoundError struct {
	Kind string // "data stream" or "index"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// TransportError covers network, TLS, authentication and unexpected
// response failures while talking to the cluster.
type TransportError struct {
	Op         string // e.g. "rollover", "delete index"
	Target     string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.Target, e.StatusCode, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsAuth reports whether the cluster rejected the credentials.
func (e *TransportError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func dataStreamNotFound(name string) error {
	return &NotFoundError{Kind: "data stream", Name: name}
}

func indexNotFound(name string) error {
	return &NotFoundError{Kind: "index", Name: name}
}
