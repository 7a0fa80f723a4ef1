// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"

	"github.com/planwell/planwell/internal/auth"
	authpg "github.com/planwell/planwell/internal/auth/postgres"
	"github.com/planwell/planwell/internal/config"
	"github.com/planwell/planwell/internal/mail"
	"github.com/planwell/planwell/internal/store"
	"github.com/planwell/planwell/internal/taskboard"
	boardpg "github.com/planwell/planwell/internal/taskboard/postgres"
)

// services is the application wired over one database handle.
type services struct {
	auth  *auth.Service
	board *taskboard.Service
}

func newServices(cfg *config.Config, db store.DB, mailer mail.Mailer, observer auth.Observer, logger *slog.Logger) (*services, error) {
	hasher, err := auth.NewPasswordHasher(cfg.Auth.Hasher, cfg.Auth.HashCost)
	if err != nil {
		return nil, err
	}
	codec, err := auth.NewTokenCodec(cfg.TokenConfig())
	if err != nil {
		return nil, err
	}

	users := authpg.NewUserRepository(db)
	tx := store.NewTransactor(db)
	sessions := auth.NewSessionStore(codec, users, authpg.NewRefreshTokenRepository(db), tx,
		auth.WithSessionLogger(logger),
		auth.WithSessionObserver(observer))
	resets, err := auth.NewPasswordResetService(users, authpg.NewPasswordResetRepository(db), hasher, tx,
		cfg.ResetConfig(),
		auth.WithResetLogger(logger))
	if err != nil {
		return nil, err
	}

	return &services{
		auth: auth.NewAuthService(users, hasher, codec, sessions, resets, mailer,
			auth.WithLogger(logger),
			auth.WithObserver(observer)),
		board: taskboard.NewService(boardpg.NewRepositories(db), taskboard.WithLogger(logger)),
	}, nil
}

// newMailer sends through SMTP when mail.host is set and logs messages
// otherwise.
func newMailer(cfg *config.Config, logger *slog.Logger) (mail.Mailer, error) {
	renderer, err := mail.NewRenderer()
	if err != nil {
		return nil, oops.Code("MAIL_TEMPLATES_FAILED").Wrap(err)
	}
	if cfg.Mail.Host == "" {
		logger.Warn("mail.host is not set, emails will be logged instead of sent")
		return mail.NewLogMailer(logger, renderer), nil
	}
	m, err := mail.NewSMTPMailer(cfg.SMTPConfig(), renderer)
	if err != nil {
		return nil, err
	}
	return m, nil
}
