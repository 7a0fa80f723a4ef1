// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package main

import (
	"context"
	"log/slog"
	"net"

	"github.com/planwell/planwell/internal/config"
	"github.com/planwell/planwell/internal/mail"
	"github.com/planwell/planwell/internal/observability"
	"github.com/planwell/planwell/internal/store"
)

// Deps contains injectable dependencies for the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// PoolConnector opens the database pool.
	// Default: store.Connect
	PoolConnector func(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (Pool, error)

	// MigratorFactory opens a schema migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// MailerFactory builds the mailer for password reset links.
	// Default: newMailer
	MailerFactory func(cfg *config.Config, logger *slog.Logger) (mail.Mailer, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, registry *observability.Registry,
		ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// ListenerFactory binds the API listener.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)
}

// Pool is the database handle the commands use. *pgxpool.Pool satisfies it.
type Pool interface {
	store.DB
	Ping(ctx context.Context) error
	Close()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Force(version int) error
	Status() (*store.Status, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// withDefaults returns a copy of d with every nil field set.
func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.PoolConnector == nil {
		out.PoolConnector = func(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (Pool, error) {
			pool, err := store.Connect(ctx, cfg.URL, cfg.ConnectTimeout, logger)
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			m, err := store.NewMigrator(databaseURL)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if out.MailerFactory == nil {
		out.MailerFactory = newMailer
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, registry *observability.Registry,
			ready observability.ReadinessChecker, logger *slog.Logger,
		) ObservabilityServer {
			return observability.NewServer(addr, registry, ready, logger)
		}
	}
	if out.ListenerFactory == nil {
		out.ListenerFactory = net.Listen
	}
	return &out
}
