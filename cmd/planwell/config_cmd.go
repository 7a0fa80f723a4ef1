// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package main

import (
	"fmt"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/planwell/planwell/internal/config"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the merged configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			redacted := cfg.Redacted()
			out, err := redacted.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the config file against the schema and the merged result",
		Long: `Check the file given by --config against the JSON Schema, then load
every source and validate the merged configuration, signing secrets included.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.configFile != "" {
				data, err := os.ReadFile(opts.configFile)
				if err != nil {
					return oops.Code("CONFIG_LOAD_FAILED").With("path", opts.configFile).Wrap(err)
				}
				if err := config.ValidateYAML(data); err != nil {
					return oops.With("path", opts.configFile).Wrap(err)
				}
			}
			if _, err := opts.loadValid(cmd); err != nil {
				return err
			}
			cmd.Println("Configuration is valid")
			return nil
		},
	})

	return cmd
}
