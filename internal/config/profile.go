// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profiles is the profile file, stored at ~/.config/dscurator/config.yaml.
type Profiles struct {
	Current string             `yaml:"current-profile,omitempty"`
	Entries map[string]Profile `yaml:"profiles,omitempty"`
}

// Profile is a named cluster connection plus optional defaults for the job
// that uses it, so a cron entry can be reduced to `dscurator clean --profile X`.
type Profile struct {
	Cluster         ClusterProfile `yaml:"cluster,omitempty"`
	Audit           AuditProfile   `yaml:"audit,omitempty"`
	DataStream      string         `yaml:"data-stream,omitempty"`
	RetentionPeriod *int           `yaml:"retention-period,omitempty"` // days
}

// ClusterProfile holds connection settings. Secrets may be ${ENV_VAR} references.
type ClusterProfile struct {
	URL      string `yaml:"url,omitempty"`
	Flavor   string `yaml:"flavor,omitempty"`
	APIKey   string `yaml:"api-key,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	CACert   string `yaml:"ca-cert,omitempty"`
	Insecure *bool  `yaml:"insecure,omitempty"`
}

// AuditProfile holds the OTLP export settings.
type AuditProfile struct {
	OTLPEndpoint string `yaml:"otlp-endpoint,omitempty"`
	Insecure     *bool  `yaml:"insecure,omitempty"`
}

const (
	ConfigDirName  = "dscurator"
	ConfigFileName = "config.yaml"
)

// permissionWarnings receives the warning for a world or group readable file.
var permissionWarnings io.Writer = os.Stderr

// ProfilesPath returns $XDG_CONFIG_HOME/dscurator/config.yaml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func ProfilesPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, ConfigDirName, ConfigFileName), nil
}

// LoadProfiles reads the profile file. A missing file yields an empty set.
func LoadProfiles() (*Profiles, error) {
	path, err := ProfilesPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Profiles{Entries: map[string]Profile{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	if info, err := os.Stat(path); err == nil && info.Mode().Perm()&0o077 != 0 {
		fmt.Fprintf(permissionWarnings, "Warning: %s has permissions %04o, should be 0600 since it may hold credentials\n",
			path, info.Mode().Perm())
	}

	var p Profiles
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if p.Entries == nil {
		p.Entries = map[string]Profile{}
	}
	return &p, nil
}

// Save writes the profile file with 0600 permissions. The file is replaced
// atomically so a concurrent run never reads a partial file.
func (p *Profiles) Save() error {
	path, err := ProfilesPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ConfigFileName+".*")
	if err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write profiles: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write profiles: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	return nil
}

// Get returns the named profile.
func (p *Profiles) Get(name string) (Profile, error) {
	prof, ok := p.Entries[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile %q not found", name)
	}
	return prof, nil
}

// Set creates or replaces a profile.
func (p *Profiles) Set(name string, prof Profile) {
	if p.Entries == nil {
		p.Entries = map[string]Profile{}
	}
	p.Entries[name] = prof
}

// Delete removes a profile; deleting the current profile unselects it.
func (p *Profiles) Delete(name string) error {
	if _, ok := p.Entries[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	delete(p.Entries, name)
	if p.Current == name {
		p.Current = ""
	}
	return nil
}

// Names returns the profile names in sorted order.
func (p *Profiles) Names() []string {
	names := make([]string, 0, len(p.Entries))
	for name := range p.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Active returns the profile selected by override, or the current profile
// when override is empty. ok is false when no profile is selected. Naming a
// profile that does not exist is an error; a dangling current-profile is not.
func (p *Profiles) Active(override string) (prof Profile, name string, ok bool, err error) {
	if override != "" {
		prof, err := p.Get(override)
		if err != nil {
			return Profile{}, "", false, err
		}
		return prof, override, true, nil
	}
	if p.Current == "" {
		return Profile{}, "", false, nil
	}
	prof, found := p.Entries[p.Current]
	if !found {
		return Profile{}, "", false, nil
	}
	return prof, p.Current, true, nil
}

// String renders the file as YAML with plain text secrets masked.
func (p Profiles) String() string {
	masked := Profiles{Current: p.Current, Entries: make(map[string]Profile, len(p.Entries))}
	for name, prof := range p.Entries {
		masked.Entries[name] = prof.Masked()
	}
	data, err := yaml.Marshal(masked)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return strings.TrimSpace(string(data))
}

var envRef = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// IsEnvRef reports whether s is a ${VAR} reference.
func IsEnvRef(s string) bool {
	return envRef.MatchString(s)
}

type secretField struct {
	name string
	val  *string
}

func (p *Profile) secrets() []secretField {
	return []secretField{
		{"api-key", &p.Cluster.APIKey},
		{"username", &p.Cluster.Username},
		{"password", &p.Cluster.Password},
	}
}

// Resolve expands ${VAR} references in the secret fields. An unset
// variable is an error so a cron job fails instead of running unauthenticated.
func (p Profile) Resolve() (Profile, error) {
	for _, f := range p.secrets() {
		m := envRef.FindStringSubmatch(*f.val)
		if m == nil {
			continue
		}
		v, ok := os.LookupEnv(m[1])
		if !ok {
			return Profile{}, fmt.Errorf("%s refers to unset environment variable %s", f.name, m[1])
		}
		*f.val = v
	}
	return p, nil
}

// PlainTextSecrets lists the secret fields stored as literal values.
func (p Profile) PlainTextSecrets() []string {
	var names []string
	for _, f := range p.secrets() {
		if *f.val != "" && !IsEnvRef(*f.val) {
			names = append(names, f.name)
		}
	}
	return names
}

// Masked replaces literal secrets with "****"; ${VAR} references are kept.
func (p Profile) Masked() Profile {
	for _, f := range p.secrets() {
		if *f.val != "" && !IsEnvRef(*f.val) {
			*f.val = "****"
		}
	}
	return p
}

// Validate checks the values a profile would feed into Config.
func (p Profile) Validate() error {
	if p.Cluster.URL != "" {
		if err := validateURL(p.Cluster.URL); err != nil {
			return err
		}
	}
	if p.Cluster.Flavor != "" {
		if err := validateFlavor(p.Cluster.Flavor); err != nil {
			return err
		}
	}
	if p.RetentionPeriod != nil && *p.RetentionPeriod < 0 {
		return fmt.Errorf("retention-period must be >= 0 days, got %d", *p.RetentionPeriod)
	}
	return validateDataStream(p.DataStream)
}

// PlainTextWarning explains how to avoid storing the given secrets in clear.
func PlainTextWarning(fields []string) string {
	return fmt.Sprintf("Warning: %s stored in plain text. Consider an environment\n"+
		"variable reference instead, e.g. password: ${ES_PASSWORD}.", strings.Join(fields, ", "))
}
