// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

// Package account provides account provisioning and credential authentication.
//
// # Domain Types
//
// Account is the persisted principal. Candidates should be created with
// NewAccount, which assigns a correlation id, and checked with Validate
// before they are stored. Credentials carries login input and is never
// persisted.
//
// # Services
//
// Service coordinates the use cases over a Gateway:
//   - Login - verifies credentials by username or email and issues a token
//   - Create - validates and registers a new account, rejecting duplicates
//   - GetAll, GetByID, DeleteAll - account administration
//
// Services are created with NewService, which validates its dependencies.
// Storage is reached only through the Gateway interface; the PostgreSQL
// implementation lives in the postgres subpackage.
package account
