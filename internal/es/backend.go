// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package es

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Flavor selects the client library used to talk to the cluster.
type Flavor string

const (
	FlavorElasticsearch Flavor = "elasticsearch"
	FlavorOpenSearch    Flavor = "opensearch"
	// FlavorAuto asks the cluster root endpoint which distribution it runs.
	FlavorAuto Flavor = "auto"
)

// backend issues the raw requests. Decoding and error mapping live in
// Client so both flavors behave the same.
type backend interface {
	health(ctx context.Context) (*response, error)
	getDataStream(ctx context.Context, name string) (*response, error)
	getSettings(ctx context.Context, target, setting string) (*response, error)
	rollover(ctx context.Context, name string) (*response, error)
	deleteIndex(ctx context.Context, index string) (*response, error)
}

type response struct {
	StatusCode int
	Body       io.ReadCloser
}

func (r *response) IsError() bool {
	return r.StatusCode > 299
}

func (r *response) Status() string {
	return fmt.Sprintf("%d %s", r.StatusCode, http.StatusText(r.StatusCode))
}
