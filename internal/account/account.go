// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package account

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/authms/authms/internal/validation"
)

// Account is a registered principal.
type Account struct {
	ID               int64     `db:"id_account" json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	CredentialSecret string    `json:"-"`
	CorrelationID    uuid.UUID `db:"correlation_id" json:"correlation_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewAccount builds an unsaved account with a fresh correlation id.
// It does not validate; call Validate before storing it.
func NewAccount(username, email, secret string) *Account {
	return &Account{
		Username:         username,
		Email:            email,
		CredentialSecret: secret,
		CorrelationID:    uuid.New(),
	}
}

// Validate runs every account rule and returns all violations at once.
func (a *Account) Validate() validation.Result {
	return validation.New().
		NotEmpty("Username", a.Username).
		NotEmpty("Email", a.Email).
		NotEmpty("CredentialSecret", a.CredentialSecret).
		Result()
}

var _ validation.Validatable = (*Account)(nil)

// Credentials is login or registration input. Which fields are required
// depends on the AuthMode.
type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Secret   string `json:"secret"`
}

// AuthMode selects the credential pair a login attempt supplies.
type AuthMode int

// Authentication modes.
const (
	ByUsername AuthMode = iota + 1
	ByEmail
)

func (m AuthMode) String() string {
	switch m {
	case ByUsername:
		return "username"
	case ByEmail:
		return "email"
	default:
		return "unknown"
	}
}

// Valid reports whether m is a known mode.
func (m AuthMode) Valid() bool {
	return m == ByUsername || m == ByEmail
}

// ParseAuthMode parses "username" or "email", case-insensitively.
func ParseAuthMode(s string) (AuthMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "username":
		return ByUsername, nil
	case "email":
		return ByEmail, nil
	default:
		return 0, oops.Code("AUTH_INVALID_MODE").With("mode", s).Wrap(ErrInvalidAuthMode)
	}
}

// satisfiedBy reports whether creds carries the fields mode needs.
func (m AuthMode) satisfiedBy(creds Credentials) bool {
	if creds.Secret == "" {
		return false
	}
	switch m {
	case ByUsername:
		return creds.Username != ""
	case ByEmail:
		return creds.Email != ""
	default:
		return false
	}
}
