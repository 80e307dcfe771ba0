// Package config holds the SDK configuration. It is read from
// ~/.config/agentops/config.yaml, then completed from environment
// variables, then defaulted.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/natefinch/atomic"

	"github.com/agentops-ai/agentops-go/pkg/environment"
	"github.com/agentops-ai/agentops-go/pkg/transport"
)

const (
	EnvAPIKey        = "AGENTOPS_API_KEY"
	EnvOrgKey        = "AGENTOPS_ORG_KEY"
	EnvEndpoint      = "AGENTOPS_ENDPOINT"
	EnvEnvDataOptOut = "AGENTOPS_ENV_DATA_OPT_OUT"

	DefaultEndpoint     = transport.DefaultEndpoint
	DefaultMaxWaitTime  = 1000
	DefaultMaxQueueSize = 100
)

// Config is the user-facing configuration. MaxWaitTime is in milliseconds.
type Config struct {
	APIKey           string   `yaml:"api_key,omitempty"`
	OrgKey           string   `yaml:"org_key,omitempty"`
	Tags             []string `yaml:"tags,omitempty"`
	Endpoint         string   `yaml:"endpoint,omitempty"`
	MaxWaitTime      int      `yaml:"max_wait_time,omitempty"`
	MaxQueueSize     int      `yaml:"max_queue_size,omitempty"`
	AutoStartSession *bool    `yaml:"auto_start_session,omitempty"`
	// EnvDataOptOut is read by host environment collectors; the core
	// never gathers host data.
	EnvDataOptOut bool `yaml:"env_data_opt_out,omitempty"`
}

// WithDefaults returns a copy of c with every unset field defaulted.
func (c Config) WithDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.MaxWaitTime == 0 {
		c.MaxWaitTime = DefaultMaxWaitTime
	}
	if c.MaxQueueSize == 0 {
		c.MaxQueueSize = DefaultMaxQueueSize
	}
	if c.AutoStartSession == nil {
		autoStart := true
		c.AutoStartSession = &autoStart
	}
	return c
}

// AutoStart reports whether a session starts when the client is built.
func (c Config) AutoStart() bool {
	return c.AutoStartSession == nil || *c.AutoStartSession
}

// FlushInterval returns MaxWaitTime as a duration.
func (c Config) FlushInterval() time.Duration {
	if c.MaxWaitTime <= 0 {
		return DefaultMaxWaitTime * time.Millisecond
	}
	return time.Duration(c.MaxWaitTime) * time.Millisecond
}

func (c Config) Validate() error {
	var errs []error
	if c.MaxWaitTime < 0 {
		errs = append(errs, fmt.Errorf("max_wait_time must not be negative, got %d", c.MaxWaitTime))
	}
	if c.MaxQueueSize < 0 {
		errs = append(errs, fmt.Errorf("max_queue_size must not be negative, got %d", c.MaxQueueSize))
	}
	if c.Endpoint != "" {
		if err := transport.ValidateEndpoint(c.Endpoint); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Redacted returns a copy of c safe to print.
func (c Config) Redacted() Config {
	c.APIKey = redact(c.APIKey)
	c.OrgKey = redact(c.OrgKey)
	return c
}

func redact(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) <= 8:
		return "****"
	default:
		return key[:4] + "****"
	}
}

// Read parses the YAML file at path. A missing file yields a zero Config.
func Read(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads path, fills missing credentials and endpoint from env, applies
// defaults and validates the result. An empty path skips the file.
func Load(ctx context.Context, path string, env environment.Provider) (Config, error) {
	var cfg Config
	if path != "" {
		var err error
		if cfg, err = Read(path); err != nil {
			return cfg, err
		}
	}

	if env != nil {
		if err := FromEnv(ctx, &cfg, env); err != nil {
			return cfg, err
		}
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// FromEnv sets every empty field of cfg that has an environment variable.
func FromEnv(ctx context.Context, cfg *Config, env environment.Provider) error {
	fill := func(dst *string, name string) {
		if *dst != "" {
			return
		}
		if v, ok := env.Get(ctx, name); ok {
			*dst = v
		}
	}
	fill(&cfg.APIKey, EnvAPIKey)
	fill(&cfg.OrgKey, EnvOrgKey)
	fill(&cfg.Endpoint, EnvEndpoint)

	if v, ok := env.Get(ctx, EnvEnvDataOptOut); ok && v != "" && !cfg.EnvDataOptOut {
		optOut, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvEnvDataOptOut, v, err)
		}
		cfg.EnvDataOptOut = optOut
	}
	return nil
}

// Save writes cfg to path atomically, creating the directory if needed.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return atomic.WriteFile(path, bytes.NewReader(data))
}
