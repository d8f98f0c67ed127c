// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package errutil_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"

	"github.com/authms/authms/pkg/errutil"
)

var errTaken = errors.New("username taken")

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	errutil.AssertErrorCode(t, oops.Code("TOKEN_INVALID").Errorf("bad token"), "TOKEN_INVALID")
}

func TestAssertFailure_CodeAndSentinel(t *testing.T) {
	err := oops.Code("ACCOUNT_DUPLICATE_USERNAME").With("username", "ada").Wrap(errTaken)
	errutil.AssertFailure(t, err, "ACCOUNT_DUPLICATE_USERNAME", errTaken)
}

func TestAssertCodeFamily(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		family string
	}{
		{"auth", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("rejected"), "AUTH"},
		{"account", oops.Code("ACCOUNT_INVALID_ID").Errorf("bad id"), "ACCOUNT"},
		{"storage", oops.Code("DB_TRANSPORT").Errorf("down"), "DB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errutil.AssertCodeFamily(t, tt.err, tt.family)
		})
	}
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	errutil.AssertErrorContext(t, oops.With("table", "account").Errorf("test error"), "table", "account")
}
