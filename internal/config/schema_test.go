// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planwell/planwell/pkg/errutil"
)

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, SchemaID, schema["$id"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.NotContains(t, schema, "required")

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"env", "server", "metrics", "log", "database", "auth", "reset", "mail"} {
		assert.Contains(t, props, key)
	}

	server := props["server"].(map[string]any)["properties"].(map[string]any)
	readTimeout := server["read_timeout"].(map[string]any)
	assert.Equal(t, "string", readTimeout["type"], "durations are strings")
}

func TestValidateYAML(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"empty", "", ""},
		{"partial", "server:\n  addr: \":9000\"\n", ""},
		{
			name: "full",
			yaml: `
env: development
server:
  addr: ":8080"
  read_timeout: 10s
  cors:
    allowed_origins: ["https://*.example.com"]
log:
  format: text
  level: debug
auth:
  access_ttl: 15m
  refresh_ttl: 720h
  hasher: argon2id
  hash_cost: 12
mail:
  port: 587
  ssl: false
`,
		},
		{"unknown key", "server:\n  port: 80\n", "CONFIG_SCHEMA_VIOLATION"},
		{"bad enum", "env: staging\n", "CONFIG_SCHEMA_VIOLATION"},
		{"bad duration", "auth:\n  access_ttl: fifteen\n", "CONFIG_SCHEMA_VIOLATION"},
		{"numeric duration", "reset:\n  ttl: 3600\n", "CONFIG_SCHEMA_VIOLATION"},
		{"cost out of range", "auth:\n  hash_cost: 40\n", "CONFIG_SCHEMA_VIOLATION"},
		{"wrong type", "mail:\n  port: smtp\n", "CONFIG_SCHEMA_VIOLATION"},
		{"not yaml", "server: [", "CONFIG_INVALID_YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateYAML([]byte(tt.yaml))
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.wantErr)
		})
	}
}
