// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/authms/authms/internal/validation"
)

// Service provides the account provisioning and authentication use cases.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	gateway Gateway
	issuer  *TokenIssuer
	logger  *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new Service.
func NewService(gateway Gateway, issuer *TokenIssuer, opts ...ServiceOption) (*Service, error) {
	if gateway == nil {
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("account gateway is required")
	}
	if issuer == nil {
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("token issuer is required")
	}
	s := &Service{
		gateway: gateway,
		issuer:  issuer,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("logger is required")
	}
	return s, nil
}

// Login verifies creds for mode and returns a signed token.
// An unknown mode or missing fields fail before storage is consulted.
func (s *Service) Login(ctx context.Context, creds Credentials, mode AuthMode) (string, error) {
	if !mode.Valid() {
		loginsTotal.WithLabelValues(mode.String(), outcomeInvalid).Inc()
		return "", oops.Code("AUTH_INVALID_MODE").With("mode", int(mode)).Wrap(ErrInvalidAuthMode)
	}
	if !mode.satisfiedBy(creds) {
		loginsTotal.WithLabelValues(mode.String(), outcomeInvalid).Inc()
		return "", oops.Code("AUTH_MISSING_FIELDS").With("mode", mode.String()).Wrap(ErrMissingCredentialFields)
	}

	var (
		acct *Account
		err  error
	)
	switch mode {
	case ByUsername:
		acct, err = s.gateway.GetByUsernameAndSecret(ctx, creds.Username, creds.Secret)
	case ByEmail:
		acct, err = s.gateway.GetByEmailAndSecret(ctx, creds.Email, creds.Secret)
	}
	if err != nil {
		loginsTotal.WithLabelValues(mode.String(), outcomeError).Inc()
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "lookup account").
			With("mode", mode.String()).
			Wrap(err)
	}
	if acct == nil {
		loginsTotal.WithLabelValues(mode.String(), outcomeRejected).Inc()
		s.logger.WarnContext(ctx, "login rejected", "mode", mode.String())
		return "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	token, err := s.issuer.Issue(acct)
	if err != nil {
		loginsTotal.WithLabelValues(mode.String(), outcomeError).Inc()
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			With("account_id", acct.ID).
			Wrap(err)
	}

	loginsTotal.WithLabelValues(mode.String(), outcomeSuccess).Inc()
	s.logger.InfoContext(ctx, "login succeeded", "account_id", acct.ID, "mode", mode.String())
	return token, nil
}

// Create validates creds, rejects an email or username that is already
// registered, and stores the new account.
func (s *Service) Create(ctx context.Context, creds Credentials) (*Account, error) {
	acct, err := s.create(ctx, creds)
	creationsTotal.WithLabelValues(creationOutcome(err)).Inc()
	return acct, err
}

func creationOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, ErrDuplicate):
		return outcomeDuplicate
	case errors.Is(err, ErrInvalidAccount):
		return outcomeInvalid
	default:
		return outcomeError
	}
}

func (s *Service) create(ctx context.Context, creds Credentials) (*Account, error) {
	candidate := NewAccount(creds.Username, creds.Email, creds.Secret)
	if result := candidate.Validate(); !result.Valid() {
		return nil, oops.Code("ACCOUNT_INVALID").
			With("violations", result.Len()).
			Wrap(&InvalidAccountError{Result: result})
	}

	exists, err := s.gateway.ExistsByEmail(ctx, candidate.Email)
	if err != nil {
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").With("operation", "check email").Wrap(err)
	}
	if exists {
		return nil, oops.Code("ACCOUNT_DUPLICATE_EMAIL").Wrap(ErrDuplicateEmail)
	}

	exists, err = s.gateway.ExistsByUsername(ctx, candidate.Username)
	if err != nil {
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").With("operation", "check username").Wrap(err)
	}
	if exists {
		return nil, oops.Code("ACCOUNT_DUPLICATE_USERNAME").Wrap(ErrDuplicateUsername)
	}

	acct, err := s.gateway.Insert(ctx, candidate)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, err
		}
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").With("operation", "insert account").Wrap(err)
	}

	s.logger.InfoContext(ctx, "account created",
		"account_id", acct.ID,
		"correlation_id", acct.CorrelationID.String(),
	)
	return acct, nil
}

// GetAll returns every account.
func (s *Service) GetAll(ctx context.Context) ([]Account, error) {
	accounts, err := s.gateway.GetAll(ctx)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").Wrap(err)
	}
	return accounts, nil
}

// GetByID returns the account with id, or nil if there is none.
func (s *Service) GetByID(ctx context.Context, id int64) (*Account, error) {
	if result := validation.New().ID("Id", id, true).Result(); !result.Valid() {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("id", id).
			With("violations", result.Summary()).
			Wrap(ErrInvalidID)
	}

	acct, err := s.gateway.GetByID(ctx, id)
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").With("id", id).Wrap(err)
	}
	return acct, nil
}

// DeleteAll removes every account and returns how many were removed.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.gateway.DeleteAll(ctx)
	if err != nil {
		return 0, oops.Code("ACCOUNT_DELETE_ALL_FAILED").Wrap(err)
	}
	s.logger.InfoContext(ctx, "accounts deleted", "count", n)
	return n, nil
}
