// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elastic/dscurator/internal/config"
)

// Flags for set-profile command
var (
	setProfileESURL      string
	setProfileESFlavor   string
	setProfileESAPIKey   string
	setProfileESUsername string
	setProfileESPassword string
	setProfileESCACert   string
	setProfileESInsecure bool
	setProfileOTLP       string
	setProfileOTLPInsec  bool
	setProfileStream     string
	setProfileRetention  int
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage dscurator configuration and profiles",
	Long: `Manage dscurator connection profiles.

Profiles let you define several clusters and switch between them easily
(similar to kubectl contexts). Flags and DSCURATOR_* environment variables
still override the active profile.

Configuration is stored in ~/.config/dscurator/config.yaml`,
	Annotations: map[string]string{skipConfigAnnotation: "true"},
}

var useProfileCmd = &cobra.Command{
	Use:   "use-profile <name>",
	Short: "Set the current profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		if _, err := cfg.Get(name); err != nil {
			return err
		}

		cfg.Current = name
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile %q\n", name)
		return nil
	},
}

var setProfileCmd = &cobra.Command{
	Use:   "set-profile <name>",
	Short: "Create or update a profile",
	Long: `Create or update a named profile with connection settings.

Examples:
  # Local development cluster
  dscurator config set-profile local --es-url http://localhost:9200

  # Production with an API key taken from the environment
  dscurator config set-profile prod \
    --es-url https://prod.es.example.com:9243 \
    --es-api-key '${PROD_ES_API_KEY}'

  # OpenSearch with basic auth and a private CA, exporting audit events
  dscurator config set-profile staging \
    --es-url https://staging.internal:9200 \
    --es-flavor opensearch \
    --es-username curator \
    --es-password '${STAGING_ES_PASSWORD}' \
    --es-ca-cert /etc/ssl/staging-ca.pem \
    --otlp localhost:4318

  # Job defaults, so cron only needs: dscurator clean --profile logs-app
  dscurator config set-profile logs-app \
    --es-url https://prod.es.example.com:9243 \
    --data-stream logs-app \
    --retention-period 30

Credentials can be stored as:
  - Environment variable references: ${MY_SECRET} (recommended)
  - Plain text values (warning will be shown)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		// Get existing profile or create new one
		profile, _ := cfg.Get(name)
		applySetProfileFlags(cmd, &profile)
		if err := profile.Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
		cfg.Set(name, profile)

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		if fields := profile.PlainTextSecrets(); len(fields) > 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), config.PlainTextWarning(fields))
			fmt.Fprintln(cmd.ErrOrStderr())
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile %q saved: %s\n", name, formatProfileSummary(profile))
		return nil
	},
}

func applySetProfileFlags(cmd *cobra.Command, profile *config.Profile) {
	if setProfileESURL != "" {
		profile.Cluster.URL = setProfileESURL
	}
	if setProfileESFlavor != "" {
		profile.Cluster.Flavor = setProfileESFlavor
	}
	if setProfileESAPIKey != "" {
		profile.Cluster.APIKey = setProfileESAPIKey
	}
	if setProfileESUsername != "" {
		profile.Cluster.Username = setProfileESUsername
	}
	if setProfileESPassword != "" {
		profile.Cluster.Password = setProfileESPassword
	}
	if setProfileESCACert != "" {
		profile.Cluster.CACert = setProfileESCACert
	}
	if cmd.Flags().Changed("es-insecure") {
		insecure := setProfileESInsecure
		profile.Cluster.Insecure = &insecure
	}
	if setProfileOTLP != "" {
		profile.Audit.OTLPEndpoint = setProfileOTLP
	}
	if cmd.Flags().Changed("otlp-insecure") {
		insecure := setProfileOTLPInsec
		profile.Audit.Insecure = &insecure
	}
	if setProfileStream != "" {
		profile.DataStream = setProfileStream
	}
	if cmd.Flags().Changed("retention-period") {
		days := setProfileRetention
		profile.RetentionPeriod = &days
	}
}

var getProfilesCmd = &cobra.Command{
	Use:     "get-profiles",
	Aliases: []string{"list-profiles", "profiles"},
	Short:   "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		names := cfg.Names()
		if len(names) == 0 {
			fmt.Fprintln(out, "No profiles configured.")
			fmt.Fprintln(out, "Create one with: dscurator config set-profile <name> --es-url <url>")
			return nil
		}

		fmt.Fprintln(out, "PROFILES:")
		for _, name := range names {
			marker := "  "
			if name == cfg.Current {
				marker = "* "
			}
			fmt.Fprintf(out, "%s%-20s  %s\n", marker, name, formatProfileSummary(cfg.Entries[name]))
		}

		if cfg.Current != "" {
			fmt.Fprintf(out, "\n* = current profile\n")
		}

		return nil
	},
}

var currentProfileCmd = &cobra.Command{
	Use:   "current-profile",
	Short: "Show the current profile name",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		if cfg.Current == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No profile selected (using defaults)")
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), cfg.Current)
		return nil
	},
}

var deleteProfileCmd = &cobra.Command{
	Use:   "delete-profile <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		if err := cfg.Delete(name); err != nil {
			return err
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile %q deleted\n", name)
		return nil
	},
}

var viewConfigCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the full configuration (credentials masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		if len(cfg.Entries) == 0 && cfg.Current == "" {
			fmt.Fprintln(out, "No configuration found.")
			fmt.Fprintln(out, "Create a profile with: dscurator config set-profile <name> --es-url <url>")
			return nil
		}

		fmt.Fprintln(out, cfg.String())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ProfilesPath()
		if err != nil {
			return fmt.Errorf("get config path: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	// set-profile flags
	setProfileCmd.Flags().StringVar(&setProfileESURL, "es-url", "", "Cluster URL")
	setProfileCmd.Flags().StringVar(&setProfileESFlavor, "es-flavor", "", "Cluster flavor: "+strings.Join(config.Flavors, ", "))
	setProfileCmd.Flags().StringVar(&setProfileESAPIKey, "es-api-key", "", "API key (supports ${ENV_VAR} syntax)")
	setProfileCmd.Flags().StringVar(&setProfileESUsername, "es-username", "", "Username (supports ${ENV_VAR} syntax)")
	setProfileCmd.Flags().StringVar(&setProfileESPassword, "es-password", "", "Password (supports ${ENV_VAR} syntax)")
	setProfileCmd.Flags().StringVar(&setProfileESCACert, "es-ca-cert", "", "Path to a PEM CA bundle for the cluster")
	setProfileCmd.Flags().BoolVar(&setProfileESInsecure, "es-insecure", false, "Skip TLS certificate verification")
	setProfileCmd.Flags().StringVar(&setProfileOTLP, "otlp", "", "OTLP/HTTP endpoint for audit events, host:port")
	setProfileCmd.Flags().BoolVar(&setProfileOTLPInsec, "otlp-insecure", true, "Use insecure OTLP connection")
	setProfileCmd.Flags().StringVar(&setProfileStream, "data-stream", "", "Default data stream for rollover, clean and status")
	setProfileCmd.Flags().IntVar(&setProfileRetention, "retention-period", 0, "Default retention period in days for clean")

	configCmd.AddCommand(useProfileCmd)
	configCmd.AddCommand(setProfileCmd)
	configCmd.AddCommand(getProfilesCmd)
	configCmd.AddCommand(currentProfileCmd)
	configCmd.AddCommand(deleteProfileCmd)
	configCmd.AddCommand(viewConfigCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

// formatProfileSummary returns a brief summary of a profile's settings.
func formatProfileSummary(p config.Profile) string {
	var parts []string
	if p.Cluster.URL != "" {
		parts = append(parts, fmt.Sprintf("es=%s", p.Cluster.URL))
	}
	if p.Cluster.Flavor != "" {
		parts = append(parts, fmt.Sprintf("flavor=%s", p.Cluster.Flavor))
	}
	switch {
	case p.Cluster.APIKey != "":
		parts = append(parts, "auth=api-key")
	case p.Cluster.Username != "":
		parts = append(parts, "auth=basic")
	}
	if p.Audit.OTLPEndpoint != "" {
		parts = append(parts, fmt.Sprintf("otlp=%s", p.Audit.OTLPEndpoint))
	}
	if p.DataStream != "" {
		parts = append(parts, fmt.Sprintf("data-stream=%s", p.DataStream))
	}
	if p.RetentionPeriod != nil {
		parts = append(parts, fmt.Sprintf("retention=%dd", *p.RetentionPeriod))
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, ", ")
}
