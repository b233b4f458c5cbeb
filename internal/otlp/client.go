// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package otlp exports lifecycle events as OpenTelemetry log records so
// deletions and rollovers leave an audit trail in the observability stack.
package otlp

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/elastic/dscurator/internal/lifecycle"
)

// Client sends lifecycle events to an OTLP endpoint.
type Client struct {
	provider *sdklog.LoggerProvider
	logger   log.Logger
	runID    string
}

// Config holds OTLP client configuration
type Config struct {
	Endpoint       string // OTLP HTTP endpoint, host:port
	Insecure       bool   // Use HTTP instead of HTTPS
	ServiceVersion string
	RunID          string // attached to every record
}

// New creates a new OTLP client
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTLP endpoint is required")
	}

	opts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}

	exporter, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	attrs := []attribute.KeyValue{semconv.ServiceName("dscurator")}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}
	res := resource.NewWithAttributes(semconv.SchemaURL, attrs...)

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)

	return &Client{
		provider: provider,
		logger:   provider.Logger("dscurator"),
		runID:    cfg.RunID,
	}, nil
}

// Record implements lifecycle.Recorder.
func (c *Client) Record(ctx context.Context, ev lifecycle.Event) {
	record := buildRecord(ev, c.runID)
	c.logger.Emit(ctx, record)
}

// Close flushes pending records and shuts down the exporter.
func (c *Client) Close(ctx context.Context) error {
	return c.provider.Shutdown(ctx)
}

func buildRecord(ev lifecycle.Event, runID string) log.Record {
	var record log.Record

	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	record.SetTimestamp(ts)
	record.SetObservedTimestamp(time.Now())

	severity := outcomeToSeverity(ev.Outcome)
	record.SetSeverity(severity)
	record.SetSeverityText(severity.String())
	record.SetBody(log.StringValue(eventMessage(ev)))

	record.AddAttributes(
		log.String("event.action", ev.Action),
		log.String("event.outcome", string(ev.Outcome)),
		log.String("data_stream.name", ev.DataStream),
	)
	if ev.Index != "" {
		record.AddAttributes(log.String("index.name", ev.Index))
	}
	if ev.Age > 0 {
		record.AddAttributes(log.Int64("index.age_seconds", int64(ev.Age/time.Second)))
	}
	if ev.Err != nil {
		record.AddAttributes(log.String("error.message", ev.Err.Error()))
	}
	if runID != "" {
		record.AddAttributes(log.String("dscurator.run_id", runID))
	}
	return record
}

func eventMessage(ev lifecycle.Event) string {
	switch ev.Outcome {
	case lifecycle.OutcomeRolledOver:
		return fmt.Sprintf("rolled over data stream %s to %s", ev.DataStream, ev.Index)
	case lifecycle.OutcomeFailed:
		return fmt.Sprintf("failed to delete index %s of data stream %s: %v", ev.Index, ev.DataStream, ev.Err)
	default:
		return fmt.Sprintf("index %s of data stream %s: %s", ev.Index, ev.DataStream, ev.Outcome)
	}
}

// outcomeToSeverity maps a lifecycle outcome to an OTel severity.
func outcomeToSeverity(o lifecycle.Outcome) log.Severity {
	switch o {
	case lifecycle.OutcomeFailed:
		return log.SeverityError
	case lifecycle.OutcomeSkipped:
		return log.SeverityWarn
	case lifecycle.OutcomeDeleted, lifecycle.OutcomeRolledOver, lifecycle.OutcomeGone:
		return log.SeverityInfo
	default:
		return log.SeverityDebug
	}
}
