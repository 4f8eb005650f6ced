// Package rcconfig loads host-application configuration for a rorandom
// client from YAML: the credential (resolved from an environment
// variable, never written in plaintext to the file), dispatch mode, and
// named precache-pool declarations. Grounded on
// marocz-ObsidianStack/server/internal/config.Load's
// read-parse-default-validate shape, including its env-var-indirection
// pattern for secrets (AuthConfig.KeyEnv / WebhookConfig.URLEnv).
package rcconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied by defaults() before the YAML is unmarshaled.
const (
	DefaultBlockingTimeout = 120 * time.Second
	DefaultHTTPTimeout     = 30 * time.Second
)

// Config is the `rorandom:` section of a host application's config.yaml.
type Config struct {
	Rorandom Section `yaml:"rorandom"`
}

// Section holds all rorandom client settings.
type Section struct {
	// CredentialEnv names the environment variable holding the API key.
	CredentialEnv string `yaml:"credential_env"`

	// Serialized selects serialized (single in-flight request) dispatch
	// mode; false selects unserialized (bounded concurrent) mode.
	Serialized bool `yaml:"serialized"`

	// BlockingTimeout bounds how long a serialized caller waits for the
	// dispatch worker. Zero or negative means unbounded. Default 120s.
	BlockingTimeout time.Duration `yaml:"blocking_timeout"`

	// HTTPTimeout bounds each individual HTTP round trip. Default 30s.
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// MaxConcurrentUnserialized caps in-flight requests in unserialized
	// mode. Only consulted when Serialized is false. Default 8.
	MaxConcurrentUnserialized int `yaml:"max_concurrent_unserialized"`

	// Precaches declares named background pools to start at construction.
	Precaches []PrecacheDecl `yaml:"precaches"`
}

// PrecacheDecl declares one precache pool (spec §3 "Precache
// specification").
type PrecacheDecl struct {
	Name               string `yaml:"name"`
	Method             string `yaml:"method"` // e.g. "generateIntegers"
	N                  int    `yaml:"n"`
	TargetBufferSize   int    `yaml:"target_buffer_size"`
	WithoutReplacement bool   `yaml:"without_replacement"`
}

// Credential resolves the API key from the environment.
func (s Section) Credential() string {
	if s.CredentialEnv == "" {
		return ""
	}
	return os.Getenv(s.CredentialEnv)
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rcconfig: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("rcconfig: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("rcconfig: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Rorandom: Section{
			Serialized:                true,
			BlockingTimeout:           DefaultBlockingTimeout,
			HTTPTimeout:               DefaultHTTPTimeout,
			MaxConcurrentUnserialized: 8,
		},
	}
}

func validate(cfg *Config) error {
	if cfg.Rorandom.CredentialEnv == "" {
		return fmt.Errorf("rorandom.credential_env must be set")
	}
	if cfg.Rorandom.HTTPTimeout <= 0 {
		return fmt.Errorf("rorandom.http_timeout must be positive")
	}
	seen := make(map[string]bool, len(cfg.Rorandom.Precaches))
	for _, p := range cfg.Rorandom.Precaches {
		if p.Name == "" {
			return fmt.Errorf("rorandom.precaches: entry missing name")
		}
		if seen[p.Name] {
			return fmt.Errorf("rorandom.precaches: duplicate name %q", p.Name)
		}
		seen[p.Name] = true
		if p.N <= 0 {
			return fmt.Errorf("rorandom.precaches[%s]: n must be positive", p.Name)
		}
		if p.TargetBufferSize < 2 {
			return fmt.Errorf("rorandom.precaches[%s]: target_buffer_size must be >= 2", p.Name)
		}
	}
	return nil
}
