// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package account

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the lifetime of an issued token.
const DefaultTokenTTL = 12 * time.Hour

// MinSigningKeyLength is the shortest accepted HMAC key, in bytes.
const MinSigningKeyLength = 32

// Claims is the payload of an issued token.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AccountID returns the subject as an account id.
func (c *Claims) AccountID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, oops.Code("TOKEN_INVALID_SUBJECT").With("subject", c.Subject).Wrap(err)
	}
	return id, nil
}

// TokenIssuer signs and parses HS256 session tokens.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithTTL overrides DefaultTokenTTL.
func WithTTL(ttl time.Duration) TokenOption {
	return func(ti *TokenIssuer) {
		ti.ttl = ttl
	}
}

// WithClock overrides the time source used for iat, exp and validation.
func WithClock(now func() time.Time) TokenOption {
	return func(ti *TokenIssuer) {
		ti.now = now
	}
}

// NewTokenIssuer creates a TokenIssuer signing with key.
func NewTokenIssuer(key []byte, opts ...TokenOption) (*TokenIssuer, error) {
	if len(key) < MinSigningKeyLength {
		return nil, oops.Code("TOKEN_INVALID_KEY").
			With("min_length", MinSigningKeyLength).
			Errorf("signing key must be at least %d bytes", MinSigningKeyLength)
	}
	ti := &TokenIssuer{
		key: append([]byte(nil), key...),
		ttl: DefaultTokenTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(ti)
	}
	if ti.ttl <= 0 {
		return nil, oops.Code("TOKEN_INVALID_TTL").With("ttl", ti.ttl.String()).Errorf("token ttl must be positive")
	}
	if ti.now == nil {
		return nil, oops.Code("TOKEN_INVALID_CLOCK").Errorf("clock is required")
	}
	return ti, nil
}

// Issue signs a token for acct.
func (ti *TokenIssuer) Issue(acct *Account) (string, error) {
	now := ti.now().Truncate(time.Second)
	claims := Claims{
		Name:  acct.Username,
		Email: acct.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(acct.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.key)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("account_id", acct.ID).Wrap(err)
	}
	return signed, nil
}

// Parse validates a token's signature and lifetime and returns its claims.
// Issuer and audience are not checked.
func (ti *TokenIssuer) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return ti.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(ti.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, oops.Code("TOKEN_INVALID").Wrap(err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, oops.Code("TOKEN_INVALID").Wrap(jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}
