// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/planwell/planwell/internal/auth"
)

// NewPruneCmd creates the prune subcommand.
func NewPruneCmd(opts *rootOptions, deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired refresh tokens and password reset requests",
		Long: `Delete refresh tokens and password reset requests past their expiry.
Compromised refresh tokens are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAuthService(cmd, opts, deps, func(ctx context.Context, svc *auth.Service) error {
				tokens, resets, err := svc.PruneExpired(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("Pruned %d refresh tokens and %d password resets\n", tokens, resets)
				return nil
			})
		},
	}
}

// NewUserCmd creates the user command and its subcommands.
func NewUserCmd(opts *rootOptions, deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administer user accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "unblock EMAIL",
		Short: "Re-enable an account blocked after refresh token reuse",
		Long: `Clear the block on an account. Outstanding refresh tokens are revoked,
so the user signs in again with their password.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuthService(cmd, opts, deps, func(ctx context.Context, svc *auth.Service) error {
				user, err := svc.Unblock(ctx, args[0])
				if err != nil {
					return err
				}
				cmd.Printf("Unblocked %s (%s)\n", user.Email, user.ID)
				return nil
			})
		},
	})

	return cmd
}

// withAuthService connects to the database and runs fn against a fully
// wired auth service.
func withAuthService(cmd *cobra.Command, opts *rootOptions, deps *Deps, fn func(context.Context, *auth.Service) error) error {
	ctx := cmd.Context()
	cfg, err := opts.loadValid(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	pool, err := deps.PoolConnector(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	mailer, err := deps.MailerFactory(cfg, logger)
	if err != nil {
		return err
	}
	svc, err := newServices(cfg, pool, mailer, auth.NopObserver{}, logger)
	if err != nil {
		return err
	}
	return fn(ctx, svc.auth)
}
