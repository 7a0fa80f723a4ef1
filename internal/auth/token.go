// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package auth

import (
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token lifetimes.
const (
	DefaultAccessTTL  = 15 * time.Minute
	RelaxedAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour

	// MinSecretLength is the shortest signing secret accepted, in bytes.
	MinSecretLength = 32

	DefaultIssuer = "planwell"
)

// Token kinds, carried in the "kind" claim.
const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Principal is the verified identity behind a request.
type Principal struct {
	ID    ulid.ULID
	Email string
}

// Claims is the JWT payload of both token kinds.
type Claims struct {
	Email string `json:"email"`
	Kind  string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenPair is what a successful sign-up, login, or refresh hands back.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// TokenConfig configures a TokenCodec.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	// Relaxed stretches access tokens to RelaxedAccessTTL for local development.
	Relaxed bool
}

// TokenOption customizes a TokenCodec.
type TokenOption func(*TokenCodec)

// WithClock replaces the wall clock used for issuing and verifying tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// TokenCodec signs and verifies HS256 access and refresh tokens. The two kinds
// use separate secrets so neither verifies as the other.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewTokenCodec validates cfg and returns a codec.
func NewTokenCodec(cfg TokenConfig, opts ...TokenOption) (*TokenCodec, error) {
	if len(cfg.AccessSecret) < MinSecretLength || len(cfg.RefreshSecret) < MinSecretLength {
		return nil, oops.Code("AUTH_WEAK_SECRET").
			With("min_length", MinSecretLength).
			Errorf("token secrets must be at least %d bytes", MinSecretLength)
	}
	if subtle.ConstantTimeCompare(cfg.AccessSecret, cfg.RefreshSecret) == 1 {
		return nil, oops.Code("AUTH_SHARED_SECRET").Errorf("access and refresh secrets must differ")
	}

	c := &TokenCodec{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}
	if c.accessTTL <= 0 {
		c.accessTTL = DefaultAccessTTL
	}
	if cfg.Relaxed {
		c.accessTTL = RelaxedAccessTTL
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = DefaultRefreshTTL
	}
	if c.issuer == "" {
		c.issuer = DefaultIssuer
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AccessTTL returns the lifetime of issued access tokens.
func (c *TokenCodec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the lifetime of issued refresh tokens.
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccessToken signs a short-lived access token for p.
func (c *TokenCodec) IssueAccessToken(p Principal) (string, time.Time, error) {
	return c.issue(p, kindAccess, c.accessSecret, c.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for p.
func (c *TokenCodec) IssueRefreshToken(p Principal) (string, time.Time, error) {
	return c.issue(p, kindRefresh, c.refreshSecret, c.refreshTTL)
}

// IssuePair signs an access and a refresh token for p.
func (c *TokenCodec) IssuePair(p Principal) (*TokenPair, error) {
	access, accessExp, err := c.IssueAccessToken(p)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := c.IssueRefreshToken(p)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccessToken checks signature, expiry, and shape of an access token.
// Every failure is reported as AUTH_INVALID_TOKEN without detail.
func (c *TokenCodec) VerifyAccessToken(token string) (Principal, error) {
	return c.verify(token, kindAccess, c.accessSecret)
}

// VerifyRefreshToken checks signature, expiry, and shape of a refresh token.
// Every failure is reported as AUTH_INVALID_TOKEN without detail.
func (c *TokenCodec) VerifyRefreshToken(token string) (Principal, error) {
	return c.verify(token, kindRefresh, c.refreshSecret)
}

func (c *TokenCodec) issue(p Principal, kind string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := c.now()
	claims := Claims{
		Email: p.Email,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Issuer:    c.issuer,
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, internal("sign "+kind+" token", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

func (c *TokenCodec) verify(token, kind string, secret []byte) (Principal, error) {
	if token == "" {
		return Principal{}, errInvalidToken()
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.issuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || claims.Kind != kind || claims.Email == "" {
		return Principal{}, errInvalidToken()
	}

	id, err := ulid.ParseStrict(claims.Subject)
	if err != nil {
		return Principal{}, errInvalidToken()
	}
	return Principal{ID: id, Email: claims.Email}, nil
}
