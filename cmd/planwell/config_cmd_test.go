// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planwell/planwell/internal/config"
	"github.com/planwell/planwell/pkg/errutil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "planwell.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestConfigPrint_RedactsSecrets(t *testing.T) {
	validEnv(t)
	t.Setenv("DATABASE_URL", "postgres://planwell:hunter2@db:5432/planwell")

	out, err := execute(t, nil, "config", "print", "--addr", ":9999")

	require.NoError(t, err)
	assert.Contains(t, out, ":9999")
	assert.Contains(t, out, "[REDACTED]")
	assert.NotContains(t, out, testAccessSecret)
	assert.NotContains(t, out, testRefreshSecret)
	assert.NotContains(t, out, "hunter2")
}

func TestConfigPrint_FileAndFlags(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := writeConfig(t, "env: development\nlog:\n  level: debug\n")

	out, err := execute(t, nil, "config", "print", "--config", path, "--log-level", "warn")

	require.NoError(t, err)
	assert.Contains(t, out, "env: development")
	assert.Contains(t, out, "level: warn", "flags override the file")
}

func TestConfigSchema(t *testing.T) {
	out, err := execute(t, nil, "config", "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, config.SchemaID, schema["$id"])
	assert.Contains(t, schema["properties"], "auth")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		secrets  bool
		wantCode string
	}{
		{
			name:    "valid file and secrets",
			file:    "server:\n  addr: \":8081\"\nauth:\n  access_ttl: 10m\n",
			secrets: true,
		},
		{
			name:    "no file",
			secrets: true,
		},
		{
			name:     "unknown key",
			file:     "server:\n  adress: \":8081\"\n",
			secrets:  true,
			wantCode: "CONFIG_SCHEMA_VIOLATION",
		},
		{
			name:     "malformed yaml",
			file:     "server: [\n",
			secrets:  true,
			wantCode: "CONFIG_INVALID_YAML",
		},
		{
			name:     "invalid merged value",
			file:     "auth:\n  refresh_ttl: 1m\n",
			secrets:  true,
			wantCode: "CONFIG_INVALID",
		},
		{
			name:     "missing secrets",
			file:     "env: production\n",
			wantCode: "CONFIG_INVALID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", testDatabaseURL)
			if tt.secrets {
				t.Setenv("PLANWELL_AUTH__ACCESS_SECRET", testAccessSecret)
				t.Setenv("PLANWELL_AUTH__REFRESH_SECRET", testRefreshSecret)
			} else {
				t.Setenv("PLANWELL_AUTH__ACCESS_SECRET", "")
				t.Setenv("PLANWELL_AUTH__REFRESH_SECRET", "")
			}
			args := []string{"config", "validate"}
			if tt.file != "" {
				args = append(args, "--config", writeConfig(t, tt.file))
			}

			out, err := execute(t, nil, args...)

			if tt.wantCode != "" {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.wantCode)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, "Configuration is valid")
		})
	}
}

func TestConfigValidate_MissingFile(t *testing.T) {
	validEnv(t)

	_, err := execute(t, nil, "config", "validate", "--config", filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}
