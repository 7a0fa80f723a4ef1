// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package config

import (
	"net/url"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const redacted = "[REDACTED]"

// Redacted returns a copy of c with secrets replaced. Empty secrets stay
// empty so a missing value is still visible.
func (c *Config) Redacted() Config {
	out := *c
	out.Server.CORS.AllowedOrigins = append([]string(nil), c.Server.CORS.AllowedOrigins...)
	for _, s := range []*string{
		&out.Auth.AccessSecret,
		&out.Auth.RefreshSecret,
		&out.Mail.Password,
	} {
		if *s != "" {
			*s = redacted
		}
	}
	if out.Database.URL != "" {
		out.Database.URL = redactURL(out.Database.URL)
	}
	return out
}

// YAML renders the redacted config.
func (c *Config) YAML() ([]byte, error) {
	r := c.Redacted()
	data, err := yaml.Marshal(&r)
	if err != nil {
		return nil, oops.Code("CONFIG_MARSHAL_FAILED").Wrap(err)
	}
	return data, nil
}

// redactURL masks the password of a connection URL. Unparseable values are
// masked entirely.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return redacted
	}
	return u.Redacted()
}
