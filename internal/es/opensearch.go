// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package es

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

type osBackend struct {
	os *opensearch.Client
}

func newOSBackend(opts Options, transport http.RoundTripper) (*osBackend, error) {
	cfg := opensearch.Config{
		Addresses:    []string{opts.address()},
		Transport:    transport,
		DisableRetry: opts.MaxRetries <= 0,
		MaxRetries:   opts.MaxRetries,
	}
	if opts.APIKey != "" {
		cfg.Header = http.Header{"Authorization": []string{"ApiKey " + opts.APIKey}}
	} else {
		cfg.Username = opts.Username
		cfg.Password = opts.Password
	}

	client, err := opensearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenSearch client: %w", err)
	}
	return &osBackend{os: client}, nil
}

func fromOSAPI(res *opensearchapi.Response, err error) (*response, error) {
	if err != nil {
		return nil, err
	}
	return &response{StatusCode: res.StatusCode, Body: res.Body}, nil
}

func (b *osBackend) health(ctx context.Context) (*response, error) {
	return fromOSAPI(b.os.Cluster.Health(b.os.Cluster.Health.WithContext(ctx)))
}

func (b *osBackend) getDataStream(ctx context.Context, name string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/_data_stream/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}
	res, err := b.os.Perform(req)
	if err != nil {
		return nil, err
	}
	return &response{StatusCode: res.StatusCode, Body: res.Body}, nil
}

func (b *osBackend) getSettings(ctx context.Context, target, setting string) (*response, error) {
	return fromOSAPI(b.os.Indices.GetSettings(
		b.os.Indices.GetSettings.WithContext(ctx),
		b.os.Indices.GetSettings.WithIndex(target),
		b.os.Indices.GetSettings.WithName(setting),
		b.os.Indices.GetSettings.WithFlatSettings(true),
	))
}

func (b *osBackend) rollover(ctx context.Context, name string) (*response, error) {
	return fromOSAPI(b.os.Indices.Rollover(name, b.os.Indices.Rollover.WithContext(ctx)))
}

func (b *osBackend) deleteIndex(ctx context.Context, index string) (*response, error) {
	return fromOSAPI(b.os.Indices.Delete([]string{index}, b.os.Indices.Delete.WithContext(ctx)))
}

// distribution reads version.distribution from the root endpoint. It is
// "opensearch" on OpenSearch and empty on Elasticsearch.
func (b *osBackend) distribution(ctx context.Context) (string, error) {
	res, err := fromOSAPI(b.os.Info(b.os.Info.WithContext(ctx)))
	if err != nil {
		return "", &TransportError{Op: "detect flavor", Target: "/", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return "", responseError("detect flavor", "/", res)
	}

	var info rootResponse
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return "", &TransportError{Op: "detect flavor", Target: "/", StatusCode: res.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return info.Version.Distribution, nil
}
