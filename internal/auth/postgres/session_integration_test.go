// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

//go:build integration

package postgres_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"golang.org/x/crypto/bcrypt"

	"github.com/planwell/planwell/internal/auth"
	"github.com/planwell/planwell/internal/auth/authtest"
	"github.com/planwell/planwell/internal/auth/postgres"
	"github.com/planwell/planwell/internal/store"
	"github.com/planwell/planwell/pkg/errutil"
)

var _ = Describe("Auth on PostgreSQL", func() {
	var (
		ctx      context.Context
		users    *postgres.UserRepository
		tokens   *postgres.RefreshTokenRepository
		resets   *postgres.PasswordResetRepository
		sessions *auth.SessionStore
		service  *auth.Service
		mailer   *authtest.Mailer
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))

		users = postgres.NewUserRepository(testDB.Pool)
		tokens = postgres.NewRefreshTokenRepository(testDB.Pool)
		resets = postgres.NewPasswordResetRepository(testDB.Pool)
		tx := store.NewTransactor(testDB.Pool)

		hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		codec, err := auth.NewTokenCodec(auth.TokenConfig{
			AccessSecret:  authtest.AccessSecret,
			RefreshSecret: authtest.RefreshSecret,
		})
		Expect(err).NotTo(HaveOccurred())

		sessions = auth.NewSessionStore(codec, users, tokens, tx, auth.WithSessionLogger(logger))
		resetService, err := auth.NewPasswordResetService(users, resets, hasher, tx,
			auth.ResetConfig{BaseURL: authtest.ResetBaseURL}, auth.WithResetLogger(logger))
		Expect(err).NotTo(HaveOccurred())

		mailer = &authtest.Mailer{}
		service = auth.NewAuthService(users, hasher, codec, sessions, resetService, mailer, auth.WithLogger(logger))
	})

	signUp := func(email string) *auth.Session {
		session, err := service.SignUp(ctx, auth.SignUpInput{Name: "Alice", Email: email, Password: "password123"})
		Expect(err).NotTo(HaveOccurred())
		return session
	}

	It("signs up once per email", func() {
		signUp("alice@example.com")

		_, err := service.SignUp(ctx, auth.SignUpInput{Name: "A", Email: "ALICE@example.com", Password: "password123"})
		Expect(errutil.Code(err)).To(Equal(auth.CodeConflict))

		err = users.Create(ctx, &auth.User{
			ID: ulid.Make(), Name: "dup", Email: "Alice@Example.com",
			PasswordHash: "x", CreatedAt: time.Now(), UpdatedAt: time.Now(),
		})
		Expect(errutil.Code(err)).To(Equal(auth.CodeConflict))
	})

	It("rotates and detects reuse", func() {
		first := signUp("alice@example.com")

		next, err := service.Refresh(ctx, auth.RefreshInput{RefreshToken: first.Tokens.RefreshToken})
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Tokens.RefreshToken).NotTo(Equal(first.Tokens.RefreshToken))

		_, err = service.Refresh(ctx, auth.RefreshInput{RefreshToken: first.Tokens.RefreshToken})
		Expect(errutil.Code(err)).To(Equal(auth.CodeInvalidRefreshToken))

		user, err := users.GetByID(ctx, first.User.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(user.IsBlocked()).To(BeTrue())

		record, err := tokens.GetByTokenHash(ctx, auth.HashRefreshToken(first.Tokens.RefreshToken), first.User.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(record.IsCompromised()).To(BeTrue())

		n, err := tokens.DeleteByUser(ctx, first.User.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)), "only the unused successor is revoked")
	})

	It("lets exactly one concurrent redemption win", func() {
		first := signUp("alice@example.com")

		const racers = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			success int
		)
		for range racers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				if _, err := sessions.Redeem(ctx, first.Tokens.RefreshToken); err == nil {
					mu.Lock()
					success++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		Expect(success).To(Equal(1))
	})

	It("rejects a stale version", func() {
		first := signUp("alice@example.com")
		record, err := tokens.GetByTokenHash(ctx, auth.HashRefreshToken(first.Tokens.RefreshToken), first.User.ID)
		Expect(err).NotTo(HaveOccurred())

		now := time.Now().UTC()
		Expect(tokens.MarkUsed(ctx, record.ID, record.Version, now, now)).To(Succeed())
		err = tokens.MarkUsed(ctx, record.ID, record.Version, now, now)
		Expect(err).To(MatchError(auth.ErrStaleVersion))
	})

	It("completes a password reset once", func() {
		user := signUp("alice@example.com").User
		Expect(service.RequestPasswordReset(ctx, auth.RequestResetInput{Email: user.Email})).To(Succeed())

		msg, ok := mailer.Last()
		Expect(ok).To(BeTrue())
		link, _ := msg.Data["Link"].(string)
		token := queryParam(link, "token")

		in := auth.ResetPasswordInput{UserID: user.ID.String(), Token: token, Password: "newpassword1"}
		Expect(service.ResetPassword(ctx, in)).To(Succeed())
		Expect(errutil.Code(service.ResetPassword(ctx, in))).To(Equal(auth.CodeInvalidResetToken))

		_, err := service.Login(ctx, auth.LoginInput{Email: user.Email, Password: "newpassword1"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("keeps consumed records until their token expires", func() {
		first := signUp("alice@example.com")
		_, err := service.Refresh(ctx, auth.RefreshInput{RefreshToken: first.Tokens.RefreshToken})
		Expect(err).NotTo(HaveOccurred())

		n, err := tokens.DeleteExpired(ctx, time.Now().Add(time.Hour))
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())

		n, err = tokens.DeleteByUser(ctx, first.User.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)), "only the unused successor is revoked")

		_, err = service.Refresh(ctx, auth.RefreshInput{RefreshToken: first.Tokens.RefreshToken})
		Expect(errutil.Code(err)).To(Equal(auth.CodeInvalidRefreshToken))
		user, err := users.GetByID(ctx, first.User.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(user.IsBlocked()).To(BeTrue())
	})

	It("prunes expired records", func() {
		signUp("alice@example.com")
		n, err := tokens.DeleteExpired(ctx, time.Now().Add(365*24*time.Hour))
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))
	})
})
