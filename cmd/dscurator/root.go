// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/elastic/dscurator/internal/config"
	"github.com/elastic/dscurator/internal/logging"
)

// Global flags shared across commands.
// Values are bound via Viper; variables keep Cobra compatibility.
var (
	urlFlag        string
	flavorFlag     string
	usernameFlag   string
	passwordFlag   string
	apiKeyFlag     string
	insecureFlag   bool
	caCertFlag     string
	timeoutFlag    time.Duration
	maxRetriesFlag int
	profileFlag    string
	envFileFlag    string
	logLevelFlag   string
	logFormatFlag  string
	otlpEndpoint   string
	otlpInsecure   bool
	noColorFlag    bool
)

// skipConfigAnnotation marks commands that run without loading the
// cluster configuration (profile management, version).
const skipConfigAnnotation = "dscurator/skip-config"

var rootCmd = &cobra.Command{
	Use:   "dscurator",
	Short: "Roll over and clean up Elasticsearch and OpenSearch data streams",
	Long: `dscurator performs lifecycle actions on Elasticsearch and OpenSearch data streams.

  rollover  force a data stream onto a new write index
  clean     delete backing indices older than a retention period
  status    show backing indices and what a cleanup would do

Connection settings come from flags, DSCURATOR_* environment variables or
the active profile (see 'dscurator config').`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipsConfig(cmd) {
			return nil
		}
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		logger, counts, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, logging.Format(cfg.Log.Format))
		if err != nil {
			return err
		}
		r := &run{
			id:     uuid.NewString(),
			counts: counts,
		}
		r.log = logger.WithField("run_id", r.id)
		if cfg.Profile != "" {
			r.log = r.log.WithField("profile", cfg.Profile)
		}

		ctx := config.WithContext(cmd.Context(), cfg)
		cmd.SetContext(withRun(ctx, r))
		return nil
	},
}

func init() {
	// Global flags (Viper precedence: flags > env > profile > defaults)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&urlFlag, "url", config.DefaultURL, "Cluster URL (env: DSCURATOR_ES_URL)")
	pf.StringVar(&flavorFlag, "flavor", config.DefaultFlavor, "Cluster flavor: "+strings.Join(config.Flavors, ", ")+" (env: DSCURATOR_ES_FLAVOR)")
	pf.StringVarP(&usernameFlag, "username", "u", "", "Basic auth username (env: DSCURATOR_ES_USERNAME)")
	pf.StringVarP(&passwordFlag, "password", "p", "", "Basic auth password (env: DSCURATOR_ES_PASSWORD)")
	pf.StringVar(&apiKeyFlag, "api-key", "", "API key, takes precedence over basic auth (env: DSCURATOR_ES_API_KEY)")
	pf.BoolVar(&insecureFlag, "insecure", false, "Skip TLS certificate verification (env: DSCURATOR_ES_INSECURE)")
	pf.StringVar(&caCertFlag, "ca-cert", "", "PEM CA bundle used to verify the cluster (env: DSCURATOR_ES_CA_CERT)")
	pf.DurationVar(&timeoutFlag, "timeout", config.DefaultTimeout, "Time budget for the whole run (env: DSCURATOR_ES_TIMEOUT)")
	pf.IntVar(&maxRetriesFlag, "max-retries", config.DefaultMaxRetries, "Transport retries, 0 disables (env: DSCURATOR_ES_MAX_RETRIES)")
	pf.StringVar(&profileFlag, "profile", "", "Profile to use instead of the current one (env: DSCURATOR_PROFILE)")
	pf.StringVar(&envFileFlag, "env-file", "", "Load environment variables from a dotenv file")
	pf.StringVar(&logLevelFlag, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error (env: DSCURATOR_LOG_LEVEL)")
	pf.StringVar(&logFormatFlag, "log-format", config.DefaultLogFormat, "Log format: text or json (env: DSCURATOR_LOG_FORMAT)")
	pf.StringVar(&otlpEndpoint, "otlp-endpoint", "", "Export lifecycle events to this OTLP/HTTP endpoint, host:port (env: DSCURATOR_OTLP_ENDPOINT)")
	pf.BoolVar(&otlpInsecure, "otlp-insecure", false, "Use plain HTTP for OTLP export (env: DSCURATOR_OTLP_INSECURE)")
	pf.BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
}

func skipsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}

// run carries per-invocation state set up by the root command.
type run struct {
	id     string
	log    *logrus.Entry
	counts *logging.CountHook
}

type runKey struct{}

func withRun(ctx context.Context, r *run) context.Context {
	return context.WithValue(ctx, runKey{}, r)
}

func runFromContext(ctx context.Context) (*run, error) {
	r, ok := ctx.Value(runKey{}).(*run)
	if !ok {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return r, nil
}
