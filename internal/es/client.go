// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package es

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/dscurator/internal/es/errfmt"
)

// creationDateSetting is the cluster-maintained creation timestamp of an
// index, in epoch milliseconds.
const creationDateSetting = "index.creation_date"

// Options configures a cluster client.
type Options struct {
	URL      string
	Username string
	Password string
	APIKey   string // takes precedence over basic auth when set

	// Flavor picks the client library. Empty means FlavorElasticsearch.
	Flavor Flavor

	// Insecure disables TLS certificate verification.
	Insecure bool
	// CACert is a PEM bundle used to verify the cluster certificate.
	CACert []byte

	// MaxRetries enables transport level retries. Zero disables them.
	MaxRetries int
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

func (o Options) address() string {
	return strings.TrimSuffix(o.URL, "/")
}

// Client wraps the cluster client with the data stream operations
// dscurator needs.
type Client struct {
	backend backend
	flavor  Flavor
}

// New creates a client for an explicit flavor without contacting the
// cluster. Use Open when the flavor may be FlavorAuto.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, fmt.Errorf("cluster URL is required")
	}

	transport := opts.Transport
	if transport == nil {
		t, err := newTransport(opts.Insecure, opts.CACert)
		if err != nil {
			return nil, err
		}
		transport = t
	}

	switch opts.Flavor {
	case "", FlavorElasticsearch:
		b, err := newESBackend(opts, transport)
		if err != nil {
			return nil, err
		}
		return &Client{backend: b, flavor: FlavorElasticsearch}, nil
	case FlavorOpenSearch:
		b, err := newOSBackend(opts, transport)
		if err != nil {
			return nil, err
		}
		return &Client{backend: b, flavor: FlavorOpenSearch}, nil
	case FlavorAuto:
		return nil, fmt.Errorf("flavor %q needs a cluster round trip, use Open", opts.Flavor)
	default:
		return nil, fmt.Errorf("unknown cluster flavor %q", opts.Flavor)
	}
}

// Open creates a client, asking the cluster for its distribution first
// when opts.Flavor is FlavorAuto.
func Open(ctx context.Context, opts Options) (*Client, error) {
	if opts.Flavor != FlavorAuto {
		return New(opts)
	}

	opts.Flavor = FlavorOpenSearch
	client, err := New(opts)
	if err != nil {
		return nil, err
	}
	dist, err := client.backend.(*osBackend).distribution(ctx)
	if err != nil {
		return nil, err
	}
	if dist == string(FlavorOpenSearch) {
		return client, nil
	}
	opts.Flavor = FlavorElasticsearch
	return New(opts)
}

// Flavor reports which client library the client uses.
func (c *Client) Flavor() Flavor {
	return c.flavor
}

func newTransport(insecure bool, caCert []byte) (*http.Transport, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if insecure {
		tlsCfg.InsecureSkipVerify = true //nolint:gosec // opt-in via --insecure
	}
	if len(caCert) > 0 {
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no certificates found in CA bundle")
		}
		tlsCfg.RootCAs = pool
	}
	t.TLSClientConfig = tlsCfg
	return t, nil
}

// Ping checks that the cluster is reachable and accepts our credentials.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.backend.health(ctx)
	if err != nil {
		return &TransportError{Op: "cluster health", Target: "_cluster/health", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("cluster health", "_cluster/health", res)
	}
	return nil
}

// LookupDataStream returns the data stream and its backing indices without
// creation dates. It is one request, enough for existence checks.
func (c *Client) LookupDataStream(ctx context.Context, name string) (DataStream, error) {
	res, err := c.backend.getDataStream(ctx, name)
	if err != nil {
		return DataStream{}, &TransportError{Op: "get data stream", Target: name, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return DataStream{}, dataStreamNotFound(name)
	}
	if res.IsError() {
		return DataStream{}, responseError("get data stream", name, res)
	}

	var response dataStreamsResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return DataStream{}, &TransportError{Op: "get data stream", Target: name, StatusCode: res.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	for _, s := range response.DataStreams {
		if s.Name != name {
			continue
		}
		ds := DataStream{Name: s.Name, Generation: s.Generation}
		for i, idx := range s.Indices {
			ds.Indices = append(ds.Indices, BackingIndex{
				Name:       idx.IndexName,
				UUID:       idx.IndexUUID,
				Generation: i + 1,
				WriteIndex: i == len(s.Indices)-1,
			})
		}
		return ds, nil
	}
	return DataStream{}, dataStreamNotFound(name)
}

// GetDataStream returns a snapshot of the data stream and the creation
// time of every backing index. The write index is the last index the
// cluster lists. An index deleted between the two requests keeps a zero
// creation time.
func (c *Client) GetDataStream(ctx context.Context, name string) (DataStream, error) {
	ds, err := c.LookupDataStream(ctx, name)
	if err != nil || len(ds.Indices) == 0 {
		return ds, err
	}

	created, err := c.creationDates(ctx, ds.Name)
	if err != nil {
		return DataStream{}, err
	}
	for i := range ds.Indices {
		ds.Indices[i].Created = created[ds.Indices[i].Name]
	}
	return ds, nil
}

// creationDates fetches index.creation_date for every backing index of the
// stream in one request. The cluster expands the stream name, so the
// request stays small however many indices the stream has.
func (c *Client) creationDates(ctx context.Context, stream string) (map[string]time.Time, error) {
	res, err := c.backend.getSettings(ctx, stream, creationDateSetting)
	if err != nil {
		return nil, &TransportError{Op: "get index settings", Target: stream, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, dataStreamNotFound(stream)
	}
	if res.IsError() {
		return nil, responseError("get index settings", stream, res)
	}

	var response settingsResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, &TransportError{Op: "get index settings", Target: stream, StatusCode: res.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	out := make(map[string]time.Time, len(response))
	for index, entry := range response {
		raw, ok := entry.Settings[creationDateSetting]
		if !ok {
			continue
		}
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out[index] = time.UnixMilli(ms).UTC()
	}
	return out, nil
}

// Rollover asks the cluster to roll the data stream over to a new write index.
func (c *Client) Rollover(ctx context.Context, name string) (RolloverResult, error) {
	res, err := c.backend.rollover(ctx, name)
	if err != nil {
		return RolloverResult{}, &TransportError{Op: "rollover", Target: name, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return RolloverResult{}, dataStreamNotFound(name)
	}
	if res.IsError() {
		return RolloverResult{}, responseError("rollover", name, res)
	}

	var response rolloverResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return RolloverResult{}, &TransportError{Op: "rollover", Target: name, StatusCode: res.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return RolloverResult{
		OldIndex:   response.OldIndex,
		NewIndex:   response.NewIndex,
		RolledOver: response.RolledOver,
	}, nil
}

// DeleteIndex deletes a single index. A missing index yields *NotFoundError
// so callers can tell "already gone" apart from a failure.
func (c *Client) DeleteIndex(ctx context.Context, index string) error {
	res, err := c.backend.deleteIndex(ctx, index)
	if err != nil {
		return &TransportError{Op: "delete index", Target: index, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return indexNotFound(index)
	}
	if res.IsError() {
		return responseError("delete index", index, res)
	}
	return nil
}

func responseError(op, target string, res *response) error {
	body, _ := io.ReadAll(res.Body)
	return &TransportError{
		Op:         op,
		Target:     target,
		StatusCode: res.StatusCode,
		Err:        errfmt.FormatResponseError(res.Status(), body),
	}
}
