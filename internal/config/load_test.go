// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planwell/planwell/internal/auth"
	"github.com/planwell/planwell/pkg/errutil"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "config file path")
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "")

	cfg, err := Load(newFlags(t), Options{})
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DefaultReadTimeout, cfg.Server.ReadTimeout)
	assert.Equal(t, DefaultWriteTimeout, cfg.Server.WriteTimeout)
	assert.Equal(t, DefaultIdleTimeout, cfg.Server.IdleTimeout)
	assert.Empty(t, cfg.Server.CORS.AllowedOrigins)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, auth.DefaultAccessTTL, cfg.Auth.AccessTTL)
	assert.Equal(t, auth.DefaultRefreshTTL, cfg.Auth.RefreshTTL)
	assert.Equal(t, auth.AlgorithmBcrypt, cfg.Auth.Hasher)
	assert.Equal(t, auth.DefaultBcryptCost, cfg.Auth.HashCost)
	assert.Equal(t, auth.DefaultResetTTL, cfg.Reset.TTL)
	assert.Equal(t, DefaultMailPort, cfg.Mail.Port)
	assert.True(t, cfg.Mail.SSL)

	require.NoError(t, cfg.Validate(), "defaults must validate")
	err = cfg.ValidateSecrets()
	require.Error(t, err, "secrets have no default")
	errutil.AssertFieldError(t, err, "auth.access_secret")
}

func TestLoad_NilFlags(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "")

	cfg, err := Load(nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "")
	file := writeFile(t, "planwell.yaml", `
server:
  addr: ":7000"
  read_timeout: 3s
log:
  format: text
  level: debug
metrics:
  addr: "file:9100"
mail:
  host: smtp.file.example
`)
	dotenv := writeFile(t, ".env", `
PLANWELL_LOG__LEVEL=warn
PLANWELL_METRICS__ADDR=dotenv:9100
PLANWELL_AUTH__ACCESS_SECRET=from-dotenv
UNRELATED=ignored
`)
	t.Setenv("PLANWELL_METRICS__ADDR", "env:9100")

	cfg, err := Load(newFlags(t, "--addr", ":9000"), Options{File: file, DotEnv: dotenv})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr, "set flag beats file")
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout, "file beats unset flag")
	assert.Equal(t, "text", cfg.Log.Format, "unset flag default does not override file")
	assert.Equal(t, "warn", cfg.Log.Level, ".env beats file")
	assert.Equal(t, "env:9100", cfg.Metrics.Addr, "environment beats .env")
	assert.Equal(t, "smtp.file.example", cfg.Mail.Host)
	assert.Equal(t, "from-dotenv", cfg.Auth.AccessSecret)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "")
	t.Setenv("PLANWELL_ENV", "development")
	t.Setenv("PLANWELL_AUTH__ACCESS_TTL", "5m")
	t.Setenv("PLANWELL_AUTH__HASH_COST", "12")
	t.Setenv("PLANWELL_AUTH__RELAXED", "true")
	t.Setenv("PLANWELL_SERVER__CORS__ALLOWED_ORIGINS", "https://app.example.com, https://*.example.org,")
	t.Setenv("PLANWELL_NOT_A_KEY", "whatever")

	cfg, err := Load(nil, Options{})
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 12, cfg.Auth.HashCost)
	assert.True(t, cfg.Auth.Relaxed)
	assert.Equal(t, []string{"https://app.example.com", "https://*.example.org"}, cfg.Server.CORS.AllowedOrigins)
}

func TestLoad_DatabaseURL(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "postgres://platform/db")

	cfg, err := Load(nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, "postgres://platform/db", cfg.Database.URL)

	t.Setenv("PLANWELL_DATABASE__URL", "postgres://explicit/db")
	cfg, err = Load(nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, "postgres://explicit/db", cfg.Database.URL, "prefixed variable wins")

	cfg, err = Load(newFlags(t, "--database-url", "postgres://flag/db"), Options{})
	require.NoError(t, err)
	assert.Equal(t, "postgres://flag/db", cfg.Database.URL)
}

func TestLoad_RepeatedFlag(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "")

	cfg, err := Load(newFlags(t, "--cors-origin", "https://a.example", "--cors-origin", "https://b.example"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORS.AllowedOrigins)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(nil, Options{File: filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
	errutil.AssertErrorContext(t, err, "source", "file")
}

func TestLoad_MissingDotEnvIgnored(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "")

	_, err := Load(nil, Options{DotEnv: filepath.Join(t.TempDir(), ".env")})
	require.NoError(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	file := writeFile(t, "bad.yaml", "server: [unclosed")

	_, err := Load(nil, Options{File: file})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}

func TestLoad_BadValue(t *testing.T) {
	t.Setenv("PLANWELL_AUTH__HASH_COST", "lots")

	_, err := Load(nil, Options{})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_DECODE_FAILED")
}

func TestRegisterFlags_CoversNonSecretKeys(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)

	for name, key := range flagKeys {
		assert.NotNil(t, fs.Lookup(name), "flag %s", name)
		assert.Contains(t, Defaults(), key)
	}
	fs.VisitAll(func(f *pflag.Flag) {
		assert.Contains(t, flagKeys, f.Name, "flag %s has no key", f.Name)
	})
	for _, secret := range []string{"access-secret", "refresh-secret", "smtp-password"} {
		assert.Nil(t, fs.Lookup(secret))
	}
}
