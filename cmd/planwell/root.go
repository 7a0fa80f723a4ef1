// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package main

import (
	"io"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/planwell/planwell/internal/config"
	"github.com/planwell/planwell/internal/logging"
)

const serviceName = "planwell"

// rootOptions holds the persistent flags every subcommand reads.
type rootOptions struct {
	configFile string
	envFile    string
}

// NewRootCmd creates the root command for the Planwell CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	opts := &rootOptions{}
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "planwell",
		Short: "Planwell - task management API",
		Long: `Planwell serves a JSON API for projects, lists, tasks, and labels
with JWT authentication and rotating refresh tokens.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded when present")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd(opts, deps))
	cmd.AddCommand(NewMigrateCmd(opts, deps))
	cmd.AddCommand(NewPruneCmd(opts, deps))
	cmd.AddCommand(NewUserCmd(opts, deps))
	cmd.AddCommand(NewConfigCmd(opts))

	return cmd
}

// load merges every configuration source for cmd without validating.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cmd.Flags(), config.Options{File: o.configFile, DotEnv: o.envFile})
}

// loadValid loads the configuration and rejects it unless it is complete
// enough to run the application, signing secrets included.
func (o *rootOptions) loadValid(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := o.load(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateSecrets(); err != nil {
		return nil, err
	}
	if err := requireDatabaseURL(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func requireDatabaseURL(cfg *config.Config) error {
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			With("fields", map[string]string{"database.url": "is required"}).
			Errorf("database.url is required (set %s or --database-url)", config.DatabaseURLEnv)
	}
	return nil
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.Setup(serviceName, version, cfg.Log.Format, level, w), nil
}
