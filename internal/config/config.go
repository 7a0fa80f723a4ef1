// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

// Package config loads Planwell configuration from flags, a YAML file,
// a .env file, and the environment.
package config

import (
	"net/url"
	"time"

	"github.com/samber/oops"

	"github.com/planwell/planwell/internal/auth"
	"github.com/planwell/planwell/internal/logging"
	"github.com/planwell/planwell/internal/mail"
	"github.com/planwell/planwell/internal/store"
	"github.com/planwell/planwell/internal/validate"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Defaults for every key that has one.
const (
	DefaultEnv            = EnvProduction
	DefaultServerAddr     = ":8080"
	DefaultReadTimeout    = 10 * time.Second
	DefaultWriteTimeout   = 15 * time.Second
	DefaultIdleTimeout    = 60 * time.Second
	DefaultMetricsAddr    = "127.0.0.1:9100"
	DefaultLogFormat      = "json"
	DefaultLogLevel       = "info"
	DefaultResetBaseURL   = "http://localhost:3000/reset-password"
	DefaultMailPort       = 465
	DefaultMailFrom       = "Planwell <no-reply@planwell.local>"
	DefaultConnectTimeout = store.DefaultConnectTimeout
)

// Config is the complete application configuration.
type Config struct {
	Env      string         `koanf:"env" yaml:"env" jsonschema:"enum=development,enum=production,description=development relaxes tokens and shows error detail"`
	Server   ServerConfig   `koanf:"server" yaml:"server"`
	Metrics  MetricsConfig  `koanf:"metrics" yaml:"metrics"`
	Log      LogConfig      `koanf:"log" yaml:"log"`
	Database DatabaseConfig `koanf:"database" yaml:"database"`
	Auth     AuthConfig     `koanf:"auth" yaml:"auth"`
	Reset    ResetConfig    `koanf:"reset" yaml:"reset"`
	Mail     MailConfig     `koanf:"mail" yaml:"mail"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Addr         string        `koanf:"addr" yaml:"addr" jsonschema:"minLength=1"`
	ReadTimeout  time.Duration `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" yaml:"idle_timeout"`
	CORS         CORSConfig    `koanf:"cors" yaml:"cors"`
}

// CORSConfig lists the browser origins allowed to call the API. Entries
// may be exact origins or glob patterns such as https://*.example.com.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins" yaml:"allowed_origins"`
}

// MetricsConfig configures the observability listener.
type MetricsConfig struct {
	// Addr is empty to disable the listener.
	Addr string `koanf:"addr" yaml:"addr"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Format string `koanf:"format" yaml:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// DatabaseConfig configures PostgreSQL access.
type DatabaseConfig struct {
	URL            string        `koanf:"url" yaml:"url"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" yaml:"connect_timeout"`
	AutoMigrate    bool          `koanf:"auto_migrate" yaml:"auto_migrate"`
}

// AuthConfig configures token signing and password hashing.
type AuthConfig struct {
	AccessSecret  string        `koanf:"access_secret" yaml:"access_secret"`
	RefreshSecret string        `koanf:"refresh_secret" yaml:"refresh_secret"`
	AccessTTL     time.Duration `koanf:"access_ttl" yaml:"access_ttl"`
	RefreshTTL    time.Duration `koanf:"refresh_ttl" yaml:"refresh_ttl"`
	Relaxed       bool          `koanf:"relaxed" yaml:"relaxed"`
	Hasher        string        `koanf:"hasher" yaml:"hasher" jsonschema:"enum=bcrypt,enum=argon2id"`
	HashCost      int           `koanf:"hash_cost" yaml:"hash_cost" jsonschema:"minimum=4,maximum=31"`
}

// ResetConfig configures the password reset flow.
type ResetConfig struct {
	TTL     time.Duration `koanf:"ttl" yaml:"ttl"`
	BaseURL string        `koanf:"base_url" yaml:"base_url"`
}

// MailConfig configures SMTP delivery. An empty host logs mail instead of
// sending it.
type MailConfig struct {
	Host     string `koanf:"host" yaml:"host"`
	Port     int    `koanf:"port" yaml:"port" jsonschema:"minimum=1,maximum=65535"`
	Username string `koanf:"username" yaml:"username"`
	Password string `koanf:"password" yaml:"password"`
	From     string `koanf:"from" yaml:"from"`
	SSL      bool   `koanf:"ssl" yaml:"ssl"`
}

// IsDevelopment reports whether env is development.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Validate checks every key that does not depend on the command being run.
// Errors carry a CONFIG_INVALID code and a "fields" map keyed by config path.
func (c *Config) Validate() error {
	v := validate.Errors{}
	v.Check(c.Env == EnvDevelopment || c.Env == EnvProduction, "env", "must be development or production")
	v.Check(c.Server.Addr != "", "server.addr", "is required")
	v.Check(c.Server.ReadTimeout > 0, "server.read_timeout", "must be positive")
	v.Check(c.Server.WriteTimeout > 0, "server.write_timeout", "must be positive")
	v.Check(c.Server.IdleTimeout > 0, "server.idle_timeout", "must be positive")
	v.Check(c.Log.Format == "json" || c.Log.Format == "text", "log.format", "must be json or text")
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		v.Add("log.level", "must be debug, info, warn, or error")
	}
	v.Check(c.Database.ConnectTimeout > 0, "database.connect_timeout", "must be positive")
	v.Check(c.Auth.AccessTTL > 0, "auth.access_ttl", "must be positive")
	v.Check(c.Auth.RefreshTTL > c.Auth.AccessTTL, "auth.refresh_ttl", "must be longer than auth.access_ttl")
	v.Check(c.Auth.Hasher == auth.AlgorithmBcrypt || c.Auth.Hasher == auth.AlgorithmArgon2id,
		"auth.hasher", "must be bcrypt or argon2id")
	v.Check(c.Auth.HashCost >= 4 && c.Auth.HashCost <= 31, "auth.hash_cost", "must be between 4 and 31")
	v.Check(c.Reset.TTL > 0, "reset.ttl", "must be positive")
	if u, err := url.Parse(c.Reset.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		v.Add("reset.base_url", "must be an absolute URL")
	}
	v.Check(c.Mail.Port > 0 && c.Mail.Port <= 65535, "mail.port", "must be a valid port")
	if c.Mail.Host != "" {
		v.Check(c.Mail.From != "", "mail.from", "is required when mail.host is set")
	}
	return invalid(v)
}

// ValidateSecrets checks the signing secrets. Only commands that issue or
// verify tokens need them.
func (c *Config) ValidateSecrets() error {
	v := validate.Errors{}
	v.Check(len(c.Auth.AccessSecret) >= auth.MinSecretLength, "auth.access_secret", "must be at least 32 bytes")
	v.Check(len(c.Auth.RefreshSecret) >= auth.MinSecretLength, "auth.refresh_secret", "must be at least 32 bytes")
	if c.Auth.AccessSecret != "" {
		v.Check(c.Auth.AccessSecret != c.Auth.RefreshSecret, "auth.refresh_secret", "must differ from auth.access_secret")
	}
	return invalid(v)
}

func invalid(v validate.Errors) error {
	if len(v) == 0 {
		return nil
	}
	fields := make(map[string]string, len(v))
	for k, msg := range v {
		fields[k] = msg
	}
	return oops.Code("CONFIG_INVALID").With("fields", fields).Errorf("invalid configuration")
}

// TokenConfig returns the token codec settings.
func (c *Config) TokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		AccessSecret:  []byte(c.Auth.AccessSecret),
		RefreshSecret: []byte(c.Auth.RefreshSecret),
		AccessTTL:     c.Auth.AccessTTL,
		RefreshTTL:    c.Auth.RefreshTTL,
		Relaxed:       c.Auth.Relaxed || c.IsDevelopment(),
	}
}

// ResetConfig returns the reset flow settings.
func (c *Config) ResetConfig() auth.ResetConfig {
	return auth.ResetConfig{TTL: c.Reset.TTL, BaseURL: c.Reset.BaseURL}
}

// SMTPConfig returns the SMTP settings.
func (c *Config) SMTPConfig() mail.SMTPConfig {
	return mail.SMTPConfig{
		Host:     c.Mail.Host,
		Port:     c.Mail.Port,
		Username: c.Mail.Username,
		Password: c.Mail.Password,
		From:     c.Mail.From,
		SSL:      c.Mail.SSL,
	}
}
