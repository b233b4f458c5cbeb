// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/elastic/dscurator/internal/config"
	"github.com/elastic/dscurator/internal/es"
	"github.com/elastic/dscurator/internal/lifecycle"
	"github.com/elastic/dscurator/internal/otlp"
	"github.com/elastic/dscurator/internal/report"
)

// flushTimeout bounds how long the audit exporter may take on exit.
const flushTimeout = 5 * time.Second

// session is a connected cluster client plus everything an action needs.
type session struct {
	cfg      config.Config
	run      *run
	client   *es.Client
	recorder lifecycle.Recorder
	audit    *otlp.Client
	out      *report.Renderer
}

// newSession builds the cluster client from the loaded configuration and
// checks the connection before any action runs.
func newSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfg, ok := config.FromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("configuration not loaded")
	}
	r, err := runFromContext(ctx)
	if err != nil {
		return nil, err
	}

	opts := es.Options{
		URL:        cfg.ES.URL,
		Flavor:     es.Flavor(cfg.ES.Flavor),
		Username:   cfg.ES.Username,
		Password:   cfg.ES.Password.Value(),
		APIKey:     cfg.ES.APIKey.Value(),
		Insecure:   cfg.ES.Insecure,
		MaxRetries: cfg.ES.MaxRetries,
	}
	if cfg.ES.CACert != "" {
		pem, err := os.ReadFile(cfg.ES.CACert)
		if err != nil {
			return nil, fmt.Errorf("read CA bundle: %w", err)
		}
		opts.CACert = pem
	}

	client, err := es.Open(ctx, opts)
	if err != nil {
		var te *es.TransportError
		if errors.As(err, &te) {
			return nil, connectionError(cfg, err)
		}
		return nil, err
	}

	log := r.log.WithFields(logrus.Fields{"url": cfg.ES.URL, "flavor": client.Flavor()})
	if err := client.Ping(ctx); err != nil {
		return nil, connectionError(cfg, err)
	}
	log.Debug("Connected to cluster")

	s := &session{
		cfg:      cfg,
		run:      r,
		client:   client,
		recorder: lifecycle.NopRecorder{},
		out:      report.New(cmd.OutOrStdout(), report.Options{Color: useColor(cmd.OutOrStdout())}),
	}

	if cfg.OTLP.Endpoint != "" {
		audit, err := otlp.New(ctx, otlp.Config{
			Endpoint:       cfg.OTLP.Endpoint,
			Insecure:       cfg.OTLP.Insecure,
			ServiceVersion: version,
			RunID:          r.id,
		})
		if err != nil {
			return nil, err
		}
		s.audit = audit
		s.recorder = audit
		log.WithField("otlp_endpoint", cfg.OTLP.Endpoint).Debug("Exporting lifecycle events")
	}
	return s, nil
}

// Close flushes pending audit records and logs how many warnings and
// errors the run produced.
func (s *session) Close() {
	if s.audit != nil {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := s.audit.Close(ctx); err != nil {
			s.run.log.WithError(err).Warn("Failed to flush audit events")
		}
	}
	if s.run.counts == nil {
		return
	}
	warnings := s.run.counts.Count(logrus.WarnLevel)
	errs := s.run.counts.Count(logrus.ErrorLevel)
	log := s.run.log.WithFields(logrus.Fields{"warnings": warnings, "errors": errs})
	if warnings+errs > 0 {
		log.Info("Run finished with problems")
		return
	}
	log.Debug("Run finished")
}

func (s *session) log() *logrus.Entry {
	return s.run.log
}

func connectionError(cfg config.Config, err error) error {
	var te *es.TransportError
	if errors.As(err, &te) && te.IsAuth() {
		if !cfg.HasCredentials() {
			return fmt.Errorf("cluster at %s requires credentials (set --username/--password or --api-key): %w", cfg.ES.URL, err)
		}
		return fmt.Errorf("cluster at %s rejected the credentials: %w", cfg.ES.URL, err)
	}
	return fmt.Errorf("cannot connect to cluster at %s: %w", cfg.ES.URL, err)
}

// withTimeout applies the configured run budget to ctx.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	cfg, ok := config.FromContext(ctx)
	if !ok || cfg.ES.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.ES.Timeout)
}

func useColor(w io.Writer) bool {
	if noColorFlag {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
