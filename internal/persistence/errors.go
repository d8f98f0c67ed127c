// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package persistence

import (
	"errors"

	"github.com/samber/oops"
)

var (
	// ErrTransport marks any failure reported by the driver or while dialing.
	// Callers decide whether to retry; this package never does.
	ErrTransport = errors.New("persistence transport failure")

	// ErrMissingParam is returned when a statement references an unbound @name.
	ErrMissingParam = errors.New("missing statement parameter")

	// ErrBindingCollision is returned when a where-clause binding shares a name
	// with one of the values being written.
	ErrBindingCollision = errors.New("where-clause binding collides with value key")

	// ErrInvalidIdentifier is returned for table or column names that are not
	// plain SQL identifiers.
	ErrInvalidIdentifier = errors.New("invalid sql identifier")

	// ErrNoValues is returned when an insert or update has nothing to write.
	ErrNoValues = errors.New("no values to write")

	// ErrShape is returned when a result column cannot be assigned to its field.
	ErrShape = errors.New("cannot shape result row")

	// ErrSplitColumnNotFound is returned by the typed join helpers when a row
	// has fewer segments than requested.
	ErrSplitColumnNotFound = errors.New("split column not found")
)

// transportError pairs a driver error with ErrTransport so both match errors.Is.
type transportError struct {
	op  string
	err error
}

func (e *transportError) Error() string {
	return e.op + ": " + e.err.Error()
}

func (e *transportError) Unwrap() []error {
	return []error{ErrTransport, e.err}
}

// transport wraps a driver failure for the given operation.
func transport(op, table string, err error) error {
	b := oops.Code("DB_TRANSPORT").In("persistence").With("operation", op)
	if table != "" {
		b = b.With("table", table)
	}
	return b.Wrap(&transportError{op: op, err: err})
}
