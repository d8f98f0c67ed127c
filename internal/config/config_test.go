// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authms/authms/pkg/errutil"
)

const validKey = "0123456789abcdef0123456789abcdef"

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("authms", pflag.ContinueOnError)
	fs.String("config", "", "config file path")
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "authms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", newFlags(t), env(nil))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Auth.LegacyPlaintext)
	assert.Empty(t, cfg.Database.Table)
	assert.Equal(t, uint64(defaultConnectRetries), cfg.Database.ConnectRetries)
	assert.Equal(t, defaultMetricsAddr, cfg.Metrics.Addr)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, strings.Join([]string{
		"log:",
		"  format: text",
		"  level: debug",
		"auth:",
		"  token_ttl: 30m",
		"  legacy_plaintext: true",
		"database:",
		"  table: users",
		"  max_conns: 4",
	}, "\n"))

	cfg, err := Load(path, newFlags(t), env(nil))
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Auth.LegacyPlaintext)
	assert.Equal(t, "users", cfg.Database.Table)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.Equal(t, defaultMetricsAddr, cfg.Metrics.Addr, "unset keys keep flag defaults")
}

func TestLoad_ExplicitFlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "log:\n  format: text\nauth:\n  token_ttl: 30m\n")

	cfg, err := Load(path, newFlags(t, "--log-format=json", "--token-ttl=1h"), env(nil))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_SecretsComeFromEnvironment(t *testing.T) {
	cfg, err := Load("", newFlags(t), env(map[string]string{
		EnvDatabaseURL: "postgres://localhost/authms",
		EnvSigningKey:  validKey,
	}))
	require.NoError(t, err)

	url, err := cfg.RequireDatabaseURL()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/authms", url)

	key, err := cfg.RequireSigningKey()
	require.NoError(t, err)
	assert.Equal(t, []byte(validKey), key)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), newFlags(t), env(nil))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		vars  map[string]string
		field string
	}{
		{"log format", []string{"--log-format=xml"}, nil, "log.format"},
		{"log level", []string{"--log-level=loud"}, nil, "log.level"},
		{"token ttl", []string{"--token-ttl=0s"}, nil, "auth.token_ttl"},
		{"max conns", []string{"--max-conns=-1"}, nil, "database.max_conns"},
		{"short key", nil, map[string]string{EnvSigningKey: "short"}, EnvSigningKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("", newFlags(t, tt.args...), env(tt.vars))
			require.Error(t, err)
			errutil.AssertErrorContext(t, err, "field", tt.field)
		})
	}
}

func TestConfig_RequireMissingSecrets(t *testing.T) {
	cfg := &Config{}

	_, err := cfg.RequireDatabaseURL()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvDatabaseURL)

	_, err = cfg.RequireSigningKey()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvSigningKey)
}
