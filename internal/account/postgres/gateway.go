// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

// Package postgres implements account storage on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/authms/authms/internal/account"
	"github.com/authms/authms/internal/persistence"
)

// IDColumn is the storage-generated identifier column of the account table.
const IDColumn = "id_account"

// AccountGateway implements account.Gateway over a persistence.Connection.
type AccountGateway struct {
	conn   *persistence.Connection
	hasher account.SecretHasher
	table  string
	logger *slog.Logger
}

// Option configures an AccountGateway.
type Option func(*AccountGateway)

// WithTable overrides the table name, which defaults to the entity name.
func WithTable(table string) Option {
	return func(g *AccountGateway) {
		g.table = table
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *AccountGateway) {
		g.logger = logger
	}
}

// NewAccountGateway creates a new AccountGateway.
func NewAccountGateway(conn *persistence.Connection, hasher account.SecretHasher, opts ...Option) (*AccountGateway, error) {
	if conn == nil {
		return nil, oops.Code("GATEWAY_INVALID_CONFIG").Errorf("connection is required")
	}
	if hasher == nil {
		return nil, oops.Code("GATEWAY_INVALID_CONFIG").Errorf("secret hasher is required")
	}
	g := &AccountGateway{
		conn:   conn,
		hasher: hasher,
		table:  persistence.TableName[account.Account](),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		return nil, oops.Code("GATEWAY_INVALID_CONFIG").Errorf("logger is required")
	}
	return g, nil
}

// Table returns the table the gateway reads and writes.
func (g *AccountGateway) Table() string {
	return g.table
}

// GetAll returns every account.
func (g *AccountGateway) GetAll(ctx context.Context) ([]account.Account, error) {
	accounts, err := persistence.ListAll[account.Account](ctx, g.conn, g.table)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").With("table", g.table).Wrap(err)
	}
	return accounts, nil
}

// GetByID returns the account with id, or nil if there is none.
func (g *AccountGateway) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	acct, err := persistence.SearchFirst[account.Account](ctx, g.conn, g.table,
		IDColumn+" = @id", persistence.Params{"id": id})
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").With("id", id).Wrap(err)
	}
	return acct, nil
}

// DeleteAll removes every account in a single unconditional delete.
func (g *AccountGateway) DeleteAll(ctx context.Context) (int64, error) {
	n, err := g.conn.Delete(ctx, g.table, "1=1", nil)
	if err != nil {
		return 0, oops.Code("ACCOUNT_DELETE_ALL_FAILED").With("table", g.table).Wrap(err)
	}
	return n, nil
}

// Insert hashes the candidate's secret, stores the row and returns it as
// read back from storage.
func (g *AccountGateway) Insert(ctx context.Context, candidate *account.Account) (*account.Account, error) {
	hash, err := g.hasher.Hash(candidate.CredentialSecret)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INSERT_FAILED").With("operation", "hash secret").Wrap(err)
	}
	correlationID := candidate.CorrelationID
	if correlationID == uuid.Nil {
		correlationID = uuid.New()
	}

	id, err := g.conn.InsertReturningID(ctx, g.table, persistence.Params{
		"username":          candidate.Username,
		"email":             candidate.Email,
		"credential_secret": hash,
		"correlation_id":    correlationID,
	}, IDColumn)
	if err != nil {
		if dup := duplicateOf(err); dup != nil {
			return nil, oops.Code(duplicateCode(dup)).With("table", g.table).Wrap(dup)
		}
		return nil, oops.Code("ACCOUNT_INSERT_FAILED").With("operation", "insert account").Wrap(err)
	}

	acct, err := g.GetByID(ctx, id)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INSERT_FAILED").With("operation", "read back account").With("id", id).Wrap(err)
	}
	if acct == nil {
		return nil, oops.Code("ACCOUNT_INSERT_FAILED").With("id", id).Errorf("inserted account not found")
	}
	return acct, nil
}

// duplicateOf maps a unique violation on the email or username constraint
// to the matching account error.
func duplicateOf(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	if strings.Contains(pgErr.ConstraintName, "email") {
		return account.ErrDuplicateEmail
	}
	return account.ErrDuplicateUsername
}

func duplicateCode(dup error) string {
	if errors.Is(dup, account.ErrDuplicateEmail) {
		return "ACCOUNT_DUPLICATE_EMAIL"
	}
	return "ACCOUNT_DUPLICATE_USERNAME"
}

// GetByEmailAndSecret returns the account with email if secret verifies.
func (g *AccountGateway) GetByEmailAndSecret(ctx context.Context, email, secret string) (*account.Account, error) {
	return g.getVerified(ctx, "email", email, secret)
}

// GetByUsernameAndSecret returns the account with username if secret verifies.
func (g *AccountGateway) GetByUsernameAndSecret(ctx context.Context, username, secret string) (*account.Account, error) {
	return g.getVerified(ctx, "username", username, secret)
}

// getVerified looks up an account by an exact match on column and verifies
// secret against it. A miss still runs one verification against
// account.DummySecretHash. A stored value the hasher does not support is
// reported as no match; only a corrupt hash is an error.
func (g *AccountGateway) getVerified(ctx context.Context, column, value, secret string) (*account.Account, error) {
	acct, err := persistence.SearchFirst[account.Account](ctx, g.conn, g.table,
		column+" = @"+column, persistence.Params{column: value})
	if err != nil {
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").With("by", column).Wrap(err)
	}

	stored := account.DummySecretHash
	if acct != nil {
		stored = acct.CredentialSecret
	}
	ok, verifyErr := g.hasher.Verify(secret, stored)
	if acct == nil {
		return nil, nil
	}
	if errors.Is(verifyErr, account.ErrUnsupportedHash) {
		g.logger.WarnContext(ctx, "stored secret is not a supported hash", "account_id", acct.ID)
		return nil, nil
	}
	if verifyErr != nil {
		return nil, oops.Code("ACCOUNT_VERIFY_FAILED").With("account_id", acct.ID).Wrap(verifyErr)
	}
	if !ok {
		return nil, nil
	}

	if g.hasher.NeedsUpgrade(acct.CredentialSecret) {
		g.upgradeSecret(ctx, acct, secret)
	}
	return acct, nil
}

// upgradeSecret replaces a legacy stored secret with its hash. Failures are
// logged and do not fail the login.
func (g *AccountGateway) upgradeSecret(ctx context.Context, acct *account.Account, secret string) {
	hash, err := g.hasher.Hash(secret)
	if err != nil {
		g.logger.WarnContext(ctx, "failed to hash legacy secret", "account_id", acct.ID, "error", err)
		return
	}
	_, err = g.conn.Update(ctx, g.table,
		persistence.Params{"credential_secret": hash},
		IDColumn+" = @id", persistence.Params{"id": acct.ID})
	if err != nil {
		g.logger.WarnContext(ctx, "failed to upgrade legacy secret", "account_id", acct.ID, "error", err)
		return
	}
	acct.CredentialSecret = hash
	g.logger.InfoContext(ctx, "upgraded legacy secret", "account_id", acct.ID)
}

// ExistsByEmail reports whether an account uses email.
func (g *AccountGateway) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return g.exists(ctx, "email", email)
}

// ExistsByUsername reports whether an account uses username.
func (g *AccountGateway) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return g.exists(ctx, "username", username)
}

func (g *AccountGateway) exists(ctx context.Context, column, value string) (bool, error) {
	found, err := g.conn.Exists(ctx, g.table, column+" = @"+column, persistence.Params{column: value})
	if err != nil {
		return false, oops.Code("ACCOUNT_EXISTS_FAILED").With("by", column).Wrap(err)
	}
	return found, nil
}

var _ account.Gateway = (*AccountGateway)(nil)
