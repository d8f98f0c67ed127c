// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package account

import "context"

// Gateway is the typed storage facade for accounts.
// Lookups return (nil, nil) when no row matches.
type Gateway interface {
	// GetAll returns every account.
	GetAll(ctx context.Context) ([]Account, error)

	// GetByID returns the account with the given id.
	GetByID(ctx context.Context, id int64) (*Account, error)

	// DeleteAll removes every account and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)

	// Insert stores candidate, hashing its secret, and returns the account as
	// stored. candidate is not modified.
	Insert(ctx context.Context, candidate *Account) (*Account, error)

	// GetByEmailAndSecret returns the account with the given email if secret
	// verifies against it.
	GetByEmailAndSecret(ctx context.Context, email, secret string) (*Account, error)

	// GetByUsernameAndSecret returns the account with the given username if
	// secret verifies against it.
	GetByUsernameAndSecret(ctx context.Context, username, secret string) (*Account, error)

	// ExistsByEmail reports whether an account uses email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByUsername reports whether an account uses username.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
