// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package errutil

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err carries the given oops code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, Code(err), "unexpected code on %v", err)
}

// AssertFailure asserts that err carries code and still matches the package
// sentinel it wraps, as ACCOUNT_DUPLICATE_EMAIL wraps account.ErrDuplicateEmail.
func AssertFailure(t *testing.T, err error, code string, sentinel error) {
	t.Helper()
	AssertErrorCode(t, err, code)
	assert.True(t, errors.Is(err, sentinel), "expected %v to wrap %v", err, sentinel)
}

// AssertCodeFamily asserts that err's code belongs to family, for example
// "AUTH" or "DB".
func AssertCodeFamily(t *testing.T, err error, family string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, family, Family(err), "code %q outside family %q", Code(err), family)
}

// AssertErrorContext asserts that the oops context of err holds key with value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, value, oopsErr.Context()[key], "context key %q", key)
}
