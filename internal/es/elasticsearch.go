// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package es

import (
	"context"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type esBackend struct {
	es *elasticsearch.Client
}

func newESBackend(opts Options, transport http.RoundTripper) (*esBackend, error) {
	cfg := elasticsearch.Config{
		Addresses:    []string{opts.address()},
		APIKey:       opts.APIKey,
		Transport:    transport,
		DisableRetry: opts.MaxRetries <= 0,
		MaxRetries:   opts.MaxRetries,
	}
	if opts.APIKey == "" {
		cfg.Username = opts.Username
		cfg.Password = opts.Password
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}
	return &esBackend{es: es}, nil
}

func fromESAPI(res *esapi.Response, err error) (*response, error) {
	if err != nil {
		return nil, err
	}
	return &response{StatusCode: res.StatusCode, Body: res.Body}, nil
}

func (b *esBackend) health(ctx context.Context) (*response, error) {
	return fromESAPI(b.es.Cluster.Health(b.es.Cluster.Health.WithContext(ctx)))
}

func (b *esBackend) getDataStream(ctx context.Context, name string) (*response, error) {
	return fromESAPI(b.es.Indices.GetDataStream(
		b.es.Indices.GetDataStream.WithContext(ctx),
		b.es.Indices.GetDataStream.WithName(name),
	))
}

func (b *esBackend) getSettings(ctx context.Context, target, setting string) (*response, error) {
	return fromESAPI(b.es.Indices.GetSettings(
		b.es.Indices.GetSettings.WithContext(ctx),
		b.es.Indices.GetSettings.WithIndex(target),
		b.es.Indices.GetSettings.WithName(setting),
		b.es.Indices.GetSettings.WithFlatSettings(true),
	))
}

func (b *esBackend) rollover(ctx context.Context, name string) (*response, error) {
	return fromESAPI(b.es.Indices.Rollover(name, b.es.Indices.Rollover.WithContext(ctx)))
}

func (b *esBackend) deleteIndex(ctx context.Context, index string) (*response, error) {
	return fromESAPI(b.es.Indices.Delete([]string{index}, b.es.Indices.Delete.WithContext(ctx)))
}
