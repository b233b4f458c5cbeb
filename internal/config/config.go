// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package config provides centralized configuration management for dscurator.
// It supports deterministic precedence (flags > env > profile > defaults)
// using Viper, and fail-fast validation to prevent silent misconfiguration.
package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable dscurator reads.
const EnvPrefix = "DSCURATOR"

// Config holds all application configuration.
type Config struct {
	ES         ESConfig   `mapstructure:"es"`
	Log        LogConfig  `mapstructure:"log"`
	OTLP       OTLPConfig `mapstructure:"otlp"`
	DataStream string     `mapstructure:"data_stream"`
	// RetentionPeriod in days; RetentionUnset when not given.
	RetentionPeriod int    `mapstructure:"retention_period"`
	Profile         string `mapstructure:"profile"`
}

// ESConfig holds cluster connection settings.
type ESConfig struct {
	URL        string        `mapstructure:"url"`
	Flavor     string        `mapstructure:"flavor"` // elasticsearch, opensearch or auto
	Username   string        `mapstructure:"username"`
	Password   Secret        `mapstructure:"password"`
	APIKey     Secret        `mapstructure:"api_key"`
	Insecure   bool          `mapstructure:"insecure"`    // Skip TLS verification
	CACert     string        `mapstructure:"ca_cert"`     // Path to a PEM CA bundle
	Timeout    time.Duration `mapstructure:"timeout"`     // Budget for a whole run
	MaxRetries int           `mapstructure:"max_retries"` // 0 disables transport retries
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// OTLPConfig holds the optional audit export settings.
type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"` // Empty disables export
	Insecure bool   `mapstructure:"insecure"`
}

// Secret is a string that never prints its value.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "****"
}

// Value returns the underlying secret.
func (s Secret) Value() string {
	return string(s)
}

// Default configuration values.
const (
	DefaultURL        = "https://localhost:9200"
	DefaultFlavor     = "elasticsearch"
	DefaultTimeout    = 5 * time.Minute
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultMaxRetries = 0
	RetentionUnset    = -1
)

// ContextKey is used to store config in context.
type ContextKey struct{}

// FromContext retrieves Config from context.
func FromContext(ctx context.Context) (Config, bool) {
	cfg, ok := ctx.Value(ContextKey{}).(Config)
	return cfg, ok
}

// WithContext stores Config in context.
func WithContext(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, ContextKey{}, cfg)
}

// Load builds a Config using Viper with precedence: flags > env > profile > defaults.
// It binds flags from the command (and its parents) and fails fast on invalid values.
func Load(cmd *cobra.Command) (Config, error) {
	if err := loadEnvFile(cmd); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindFlagsRecursive(v, cmd); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	if err := applyProfile(v); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadEnvFile loads a dotenv file named by --env-file, if any. Variables
// already present in the environment win.
func loadEnvFile(cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}
	f := lookupFlag(cmd, "env-file")
	if f == nil || f.Value.String() == "" {
		return nil
	}
	if err := godotenv.Load(f.Value.String()); err != nil {
		return fmt.Errorf("load env file %s: %w", f.Value.String(), err)
	}
	return nil
}

// lookupFlag finds a flag on cmd or its parents. Persistent flags are only
// merged into cmd.Flags() once cobra starts executing the command.
func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags(), cmd.InheritedFlags()} {
		if f := fs.Lookup(name); f != nil {
			return f
		}
	}
	return nil
}

// setDefaults registers default values with Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("es.url", DefaultURL)
	v.SetDefault("es.flavor", DefaultFlavor)
	v.SetDefault("es.username", "")
	v.SetDefault("es.password", "")
	v.SetDefault("es.api_key", "")
	v.SetDefault("es.insecure", false)
	v.SetDefault("es.ca_cert", "")
	v.SetDefault("es.timeout", DefaultTimeout)
	v.SetDefault("es.max_retries", DefaultMaxRetries)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("otlp.endpoint", "")
	v.SetDefault("otlp.insecure", false)

	v.SetDefault("data_stream", "")
	v.SetDefault("retention_period", RetentionUnset)
	v.SetDefault("profile", "")
}

// applyProfile layers the active profile's settings under flags and env.
// Viper defaults outrank unchanged flag defaults, so setting them here
// keeps explicit flags and env vars in front.
func applyProfile(v *viper.Viper) error {
	profiles, err := LoadProfiles()
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}
	p, name, ok, err := profiles.Active(v.GetString("profile"))
	if err != nil || !ok {
		return err
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("profile %q: %w", name, err)
	}
	p, err = p.Resolve()
	if err != nil {
		return fmt.Errorf("profile %q: %w", name, err)
	}

	setIf := func(key, val string) {
		if val != "" {
			v.SetDefault(key, val)
		}
	}
	setBool := func(key string, val *bool) {
		if val != nil {
			v.SetDefault(key, *val)
		}
	}
	c := p.Cluster
	setIf("es.url", c.URL)
	setIf("es.flavor", c.Flavor)
	setIf("es.username", c.Username)
	setIf("es.password", c.Password)
	setIf("es.api_key", c.APIKey)
	setIf("es.ca_cert", c.CACert)
	setBool("es.insecure", c.Insecure)
	setIf("otlp.endpoint", p.Audit.OTLPEndpoint)
	setBool("otlp.insecure", p.Audit.Insecure)
	setIf("data_stream", p.DataStream)
	if p.RetentionPeriod != nil {
		v.SetDefault("retention_period", *p.RetentionPeriod)
	}
	v.SetDefault("profile", name)
	return nil
}

// bindFlagsRecursive binds flags from cmd and all parents so Viper sees them.
func bindFlagsRecursive(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}
	if err := bindFlagSet(v, cmd.Flags()); err != nil {
		return err
	}
	if err := bindFlagSet(v, cmd.PersistentFlags()); err != nil {
		return err
	}
	return bindFlagsRecursive(v, cmd.Parent())
}

// flagToKey maps CLI flag names to nested config keys.
var flagToKey = map[string]string{
	"url":              "es.url",
	"flavor":           "es.flavor",
	"username":         "es.username",
	"password":         "es.password",
	"api-key":          "es.api_key",
	"insecure":         "es.insecure",
	"ca-cert":          "es.ca_cert",
	"timeout":          "es.timeout",
	"max-retries":      "es.max_retries",
	"log-level":        "log.level",
	"log-format":       "log.format",
	"otlp-endpoint":    "otlp.endpoint",
	"otlp-insecure":    "otlp.insecure",
	"data-stream":      "data_stream",
	"retention-period": "retention_period",
	"profile":          "profile",
}

// bindFlagSet binds flags to Viper keys using explicit mappings to nested keys.
// Flags without a mapping (e.g. --dry-run) are command-local and not config.
func bindFlagSet(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagToKey[f.Name]
		if !ok || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(key, f)
	})
	return bindErr
}

// Validate enforces correctness and fails fast on invalid configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ES.URL) == "" {
		return fmt.Errorf("es.url is required")
	}
	if err := validateURL(c.ES.URL); err != nil {
		return err
	}
	if err := validateFlavor(c.ES.Flavor); err != nil {
		return err
	}
	if c.ES.Username != "" && c.ES.Password == "" {
		return fmt.Errorf("es.password is required when es.username is set")
	}
	if c.ES.Timeout <= 0 {
		return fmt.Errorf("es.timeout must be > 0")
	}
	if c.ES.MaxRetries < 0 {
		return fmt.Errorf("es.max_retries must be >= 0")
	}
	if c.ES.CACert != "" {
		if _, err := os.Stat(c.ES.CACert); err != nil {
			return fmt.Errorf("es.ca_cert: %w", err)
		}
	}
	if c.RetentionPeriod < RetentionUnset {
		return fmt.Errorf("retention_period must be >= 0 days")
	}
	if err := validateDataStream(c.DataStream); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Flavors are the accepted values of es.flavor.
var Flavors = []string{"elasticsearch", "opensearch", "auto"}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("es.url %q must be an absolute http(s) URL", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("es.url %q must use http or https", raw)
	}
	return nil
}

func validateFlavor(f string) error {
	for _, ok := range Flavors {
		if f == ok {
			return nil
		}
	}
	return fmt.Errorf("es.flavor must be one of %s, got %q", strings.Join(Flavors, ", "), f)
}

func validateDataStream(name string) error {
	if strings.ContainsAny(name, "*,") {
		return fmt.Errorf("data_stream %q must name a single data stream", name)
	}
	return nil
}

// RequireDataStream checks that a data stream name was given.
func (c Config) RequireDataStream() error {
	if strings.TrimSpace(c.DataStream) == "" {
		return fmt.Errorf("--data-stream is required")
	}
	return nil
}

// RequireRetention checks that a retention period was given.
func (c Config) RequireRetention() error {
	if !c.HasRetention() {
		return fmt.Errorf("--retention-period is required")
	}
	return nil
}

// HasRetention reports whether a retention period was configured.
func (c Config) HasRetention() bool {
	return c.RetentionPeriod >= 0
}

// HasCredentials reports whether basic auth or an API key is configured.
func (c Config) HasCredentials() bool {
	return c.ES.APIKey != "" || c.ES.Username != ""
}
