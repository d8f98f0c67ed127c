// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package account

import (
	"errors"

	"github.com/authms/authms/internal/validation"
)

var (
	// ErrInvalidAccount is returned when a candidate account fails validation.
	// The full violation summary is available through *InvalidAccountError.
	ErrInvalidAccount = errors.New("invalid account")

	// ErrDuplicate matches both ErrDuplicateEmail and ErrDuplicateUsername.
	ErrDuplicate = errors.New("account already registered")

	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail error = &duplicateError{field: "email"}

	// ErrDuplicateUsername is returned when the username is already registered.
	ErrDuplicateUsername error = &duplicateError{field: "username"}

	// ErrInvalidCredentials is returned when no account matches the supplied
	// credentials. It never says which field was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingCredentialFields is returned when the fields required by the
	// authentication mode are empty.
	ErrMissingCredentialFields = errors.New("missing credential fields")

	// ErrInvalidAuthMode is returned for an unknown authentication mode.
	ErrInvalidAuthMode = errors.New("invalid authentication mode")

	// ErrInvalidID is returned for identifiers that cannot exist in storage.
	ErrInvalidID = errors.New("invalid account id")
)

type duplicateError struct {
	field string
}

func (e *duplicateError) Error() string {
	return e.field + " already registered"
}

func (e *duplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// InvalidAccountError carries the validation result of a rejected account.
type InvalidAccountError struct {
	Result validation.Result
}

func (e *InvalidAccountError) Error() string {
	return ErrInvalidAccount.Error() + ": " + e.Result.Err().Error()
}

// Unwrap exposes ErrInvalidAccount and the underlying *validation.Error.
func (e *InvalidAccountError) Unwrap() []error {
	return []error{ErrInvalidAccount, e.Result.Err()}
}

// Summary returns the violation summary, one "kind - message" line per violation.
func (e *InvalidAccountError) Summary() string {
	return e.Result.Summary()
}
