// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/planwell/planwell/internal/auth"
)

// EnvPrefix marks environment variables read as configuration. Nested keys
// are separated by a double underscore: PLANWELL_SERVER__ADDR sets
// server.addr.
const EnvPrefix = "PLANWELL_"

// DatabaseURLEnv is read as database.url for compatibility with hosting
// platforms that inject it.
const DatabaseURLEnv = "DATABASE_URL"

const delim = "."

// listKeys hold comma-separated values when set from the environment.
var listKeys = map[string]bool{
	"server.cors.allowed_origins": true,
}

// Options locates the optional configuration files.
type Options struct {
	// File is a YAML config file. It must exist when set.
	File string
	// DotEnv is a .env file. A missing file is ignored.
	DotEnv string
}

// Defaults returns the flattened default value of every key.
func Defaults() map[string]any {
	return map[string]any{
		"env":                         DefaultEnv,
		"server.addr":                 DefaultServerAddr,
		"server.read_timeout":         DefaultReadTimeout,
		"server.write_timeout":        DefaultWriteTimeout,
		"server.idle_timeout":         DefaultIdleTimeout,
		"server.cors.allowed_origins": []string{},
		"metrics.addr":                DefaultMetricsAddr,
		"log.format":                  DefaultLogFormat,
		"log.level":                   DefaultLogLevel,
		"database.url":                "",
		"database.connect_timeout":    DefaultConnectTimeout,
		"database.auto_migrate":       false,
		"auth.access_secret":          "",
		"auth.refresh_secret":         "",
		"auth.access_ttl":             auth.DefaultAccessTTL,
		"auth.refresh_ttl":            auth.DefaultRefreshTTL,
		"auth.relaxed":                false,
		"auth.hasher":                 auth.AlgorithmBcrypt,
		"auth.hash_cost":              auth.DefaultBcryptCost,
		"reset.ttl":                   auth.DefaultResetTTL,
		"reset.base_url":              DefaultResetBaseURL,
		"mail.host":                   "",
		"mail.port":                   DefaultMailPort,
		"mail.username":               "",
		"mail.password":               "",
		"mail.from":                   DefaultMailFrom,
		"mail.ssl":                    true,
	}
}

// flagKeys maps command-line flag names to config keys. Secrets have no
// flag so they never show up in a process listing.
var flagKeys = map[string]string{
	"env":                "env",
	"addr":               "server.addr",
	"read-timeout":       "server.read_timeout",
	"write-timeout":      "server.write_timeout",
	"idle-timeout":       "server.idle_timeout",
	"cors-origin":        "server.cors.allowed_origins",
	"metrics-addr":       "metrics.addr",
	"log-format":         "log.format",
	"log-level":          "log.level",
	"database-url":       "database.url",
	"db-connect-timeout": "database.connect_timeout",
	"auto-migrate":       "database.auto_migrate",
	"access-ttl":         "auth.access_ttl",
	"refresh-ttl":        "auth.refresh_ttl",
	"hasher":             "auth.hasher",
	"hash-cost":          "auth.hash_cost",
	"reset-ttl":          "reset.ttl",
	"reset-base-url":     "reset.base_url",
	"smtp-host":          "mail.host",
	"smtp-port":          "mail.port",
	"smtp-username":      "mail.username",
	"mail-from":          "mail.from",
}

// RegisterFlags adds a flag for every non-secret key to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("env", DefaultEnv, "environment (development or production)")
	flags.String("addr", DefaultServerAddr, "HTTP API listen address")
	flags.Duration("read-timeout", DefaultReadTimeout, "HTTP read timeout")
	flags.Duration("write-timeout", DefaultWriteTimeout, "HTTP write timeout")
	flags.Duration("idle-timeout", DefaultIdleTimeout, "HTTP keep-alive idle timeout")
	flags.StringSlice("cors-origin", nil, "allowed CORS origin or glob pattern (repeatable)")
	flags.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	flags.String("log-format", DefaultLogFormat, "log format (json or text)")
	flags.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.Duration("db-connect-timeout", DefaultConnectTimeout, "database connect timeout")
	flags.Bool("auto-migrate", false, "apply pending migrations on startup")
	flags.Duration("access-ttl", auth.DefaultAccessTTL, "access token lifetime")
	flags.Duration("refresh-ttl", auth.DefaultRefreshTTL, "refresh token lifetime")
	flags.String("hasher", auth.AlgorithmBcrypt, "password hashing algorithm (bcrypt or argon2id)")
	flags.Int("hash-cost", auth.DefaultBcryptCost, "bcrypt cost")
	flags.Duration("reset-ttl", auth.DefaultResetTTL, "password reset link lifetime")
	flags.String("reset-base-url", DefaultResetBaseURL, "page that receives password reset links")
	flags.String("smtp-host", "", "SMTP host (empty = log mail instead of sending)")
	flags.Int("smtp-port", DefaultMailPort, "SMTP port")
	flags.String("smtp-username", "", "SMTP username")
	flags.String("mail-from", DefaultMailFrom, "sender address for outgoing mail")
}

// Load builds a Config from, in increasing priority: defaults, the YAML
// file, the .env file, the environment, and flags set on the command line.
// flags may be nil. The result is not validated.
func Load(flags *pflag.FlagSet, opts Options) (*Config, error) {
	k := koanf.New(delim)

	if err := k.Load(confmap.Provider(Defaults(), delim), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "file").
				With("path", opts.File).
				Wrap(err)
		}
	}

	if opts.DotEnv != "" {
		if err := k.Load(dotEnvProvider{path: opts.DotEnv}, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "dotenv").
				With("path", opts.DotEnv).
				Wrap(err)
		}
	}

	if err := k.Load(env.ProviderWithValue(DatabaseURLEnv, delim, databaseURLKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}
	if err := k.Load(env.ProviderWithValue(EnvPrefix, delim, envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if flags != nil {
		p := posflag.ProviderWithFlag(flags, delim, k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(p, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	return &cfg, nil
}

// envKey turns PLANWELL_AUTH__ACCESS_TTL into auth.access_ttl. Variables
// that do not name a known key are dropped.
func envKey(name, value string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	key = strings.ReplaceAll(key, "__", delim)
	if _, ok := Defaults()[key]; !ok {
		return "", nil
	}
	if listKeys[key] {
		return key, splitList(value)
	}
	return key, value
}

func databaseURLKey(name, value string) (string, any) {
	if name != DatabaseURLEnv {
		return "", nil
	}
	return "database.url", value
}

func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// dotEnvProvider reads PLANWELL_ and DATABASE_URL entries from a .env file
// with the same naming rules as the environment.
type dotEnvProvider struct {
	path string
}

func (p dotEnvProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("dotenv provider does not support this method")
}

func (p dotEnvProvider) Read() (map[string]any, error) {
	vars, err := godotenv.Read(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}

	flat := make(map[string]any)
	for name, value := range vars {
		var key string
		var v any
		switch {
		case name == DatabaseURLEnv:
			key, v = databaseURLKey(name, value)
		case strings.HasPrefix(name, EnvPrefix):
			key, v = envKey(name, value)
		}
		if key != "" {
			flat[key] = v
		}
	}
	return maps.Unflatten(flat, delim), nil
}
