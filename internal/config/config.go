// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

// Package config loads authms settings from flag defaults, an optional YAML
// file, explicitly set flags and, for secrets, the environment.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/authms/authms/internal/account"
	"github.com/authms/authms/internal/logging"
)

// Environment variables holding secrets. They are never read from the file.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvSigningKey  = "AUTHMS_SIGNING_KEY"
)

// Default values for flags.
const (
	defaultLogFormat      = "json"
	defaultLogLevel       = "info"
	defaultMetricsAddr    = "127.0.0.1:9100"
	defaultConnectRetries = 8
)

// Config is the resolved authms configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Auth     AuthConfig     `koanf:"auth"`
	Database DatabaseConfig `koanf:"database"`
	Metrics  MetricsConfig  `koanf:"metrics"`

	DatabaseURL string `koanf:"-"`
	SigningKey  string `koanf:"-"`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// AuthConfig configures token issuance and secret verification.
type AuthConfig struct {
	TokenTTL        time.Duration `koanf:"token_ttl"`
	LegacyPlaintext bool          `koanf:"legacy_plaintext"`
}

// DatabaseConfig configures the pool and the account table.
type DatabaseConfig struct {
	Table          string `koanf:"table"`
	MaxConns       int32  `koanf:"max_conns"`
	ConnectRetries uint64 `koanf:"connect_retries"`
}

// MetricsConfig configures the observability endpoint.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// flagKeys maps flag names to configuration keys. Flags not listed here,
// such as --config, are not configuration values.
var flagKeys = map[string]string{
	"log-format":       "log.format",
	"log-level":        "log.level",
	"token-ttl":        "auth.token_ttl",
	"legacy-plaintext": "auth.legacy_plaintext",
	"table":            "database.table",
	"max-conns":        "database.max_conns",
	"connect-retries":  "database.connect_retries",
	"metrics-addr":     "metrics.addr",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("log-format", defaultLogFormat, "log format (json or text)")
	fs.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	fs.Duration("token-ttl", account.DefaultTokenTTL, "lifetime of issued tokens")
	fs.Bool("legacy-plaintext", false, "accept stored secrets that predate hashing and upgrade them on login")
	fs.String("table", "", "account table name (default: account)")
	fs.Int32("max-conns", 0, "maximum pooled database connections (0 = pgxpool default)")
	fs.Uint64("connect-retries", defaultConnectRetries, "database ping retries before giving up")
	fs.String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address used by serve")
}

// Load resolves the configuration. path may be empty to skip the file.
// getenv may be nil to read the process environment.
func Load(path string, fs *pflag.FlagSet, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}
	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "decode configuration").Wrap(err)
	}
	cfg.DatabaseURL = getenv(EnvDatabaseURL)
	cfg.SigningKey = getenv(EnvSigningKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that do not depend on which command runs.
func (c *Config) Validate() error {
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("field", "log.format").
			Errorf("log format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return oops.Code("CONFIG_INVALID").With("field", "log.level").Wrap(err)
	}
	if c.Auth.TokenTTL <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("field", "auth.token_ttl").
			Errorf("token ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Database.MaxConns < 0 {
		return oops.Code("CONFIG_INVALID").
			With("field", "database.max_conns").
			Errorf("max conns must not be negative, got %d", c.Database.MaxConns)
	}
	if c.SigningKey != "" && len(c.SigningKey) < account.MinSigningKeyLength {
		return oops.Code("CONFIG_INVALID").
			With("field", EnvSigningKey).
			Errorf("%s must be at least %d bytes", EnvSigningKey, account.MinSigningKeyLength)
	}
	return nil
}

// RequireDatabaseURL returns the database URL or an error naming the variable.
func (c *Config) RequireDatabaseURL() (string, error) {
	if c.DatabaseURL == "" {
		return "", oops.Code("CONFIG_INVALID").Errorf("%s environment variable is required", EnvDatabaseURL)
	}
	return c.DatabaseURL, nil
}

// RequireSigningKey returns the token signing key or an error naming the variable.
func (c *Config) RequireSigningKey() ([]byte, error) {
	if c.SigningKey == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("%s environment variable is required", EnvSigningKey)
	}
	return []byte(c.SigningKey), nil
}
