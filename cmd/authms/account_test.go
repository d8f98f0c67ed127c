// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authms/authms/internal/account"
	"github.com/authms/authms/internal/config"
	"github.com/authms/authms/pkg/errutil"
)

// fakeService is an AccountService whose behavior each test sets.
type fakeService struct {
	login     func(account.Credentials, account.AuthMode) (string, error)
	create    func(account.Credentials) (*account.Account, error)
	getAll    func() ([]account.Account, error)
	getByID   func(int64) (*account.Account, error)
	deleteAll func() (int64, error)
}

var errNotStubbed = errors.New("not stubbed")

func (f *fakeService) Login(_ context.Context, creds account.Credentials, mode account.AuthMode) (string, error) {
	if f.login == nil {
		return "", errNotStubbed
	}
	return f.login(creds, mode)
}

func (f *fakeService) Create(_ context.Context, creds account.Credentials) (*account.Account, error) {
	if f.create == nil {
		return nil, errNotStubbed
	}
	return f.create(creds)
}

func (f *fakeService) GetAll(context.Context) ([]account.Account, error) {
	if f.getAll == nil {
		return nil, errNotStubbed
	}
	return f.getAll()
}

func (f *fakeService) GetByID(_ context.Context, id int64) (*account.Account, error) {
	if f.getByID == nil {
		return nil, errNotStubbed
	}
	return f.getByID(id)
}

func (f *fakeService) DeleteAll(context.Context) (int64, error) {
	if f.deleteAll == nil {
		return 0, errNotStubbed
	}
	return f.deleteAll()
}

// serviceDeps returns Deps serving svc and records whether it was released.
func serviceDeps(svc AccountService, released *bool) *Deps {
	return &Deps{
		AccountServiceFactory: func(context.Context, *config.Config, *slog.Logger) (AccountService, func(), error) {
			return svc, func() {
				if released != nil {
					*released = true
				}
			}, nil
		},
	}
}

var sampleAccount = account.Account{
	ID:            7,
	Username:      "ada",
	Email:         "ada@example.com",
	CorrelationID: uuid.MustParse("1b4e28ba-2fa1-11d2-883f-0016d3cca427"),
	CreatedAt:     time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC),
}

func TestAccountCreate(t *testing.T) {
	var got account.Credentials
	var released bool
	svc := &fakeService{create: func(creds account.Credentials) (*account.Account, error) {
		got = creds
		acct := sampleAccount
		return &acct, nil
	}}

	res := execute(t, serviceDeps(svc, &released), testEnv, "",
		"account", "create", "--username", "ada", "--email", "ada@example.com", "--secret", "s3cret")
	require.NoError(t, res.err)

	assert.Equal(t, account.Credentials{Username: "ada", Email: "ada@example.com", Secret: "s3cret"}, got)
	assert.Contains(t, res.stdout, "ada@example.com")
	assert.Contains(t, res.stdout, "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	assert.Contains(t, res.stdout, "2026-05-04T12:00:00Z")
	assert.True(t, released, "service should be released after the command")
}

func TestAccountCreate_SecretFromStdin(t *testing.T) {
	var got account.Credentials
	svc := &fakeService{create: func(creds account.Credentials) (*account.Account, error) {
		got = creds
		acct := sampleAccount
		return &acct, nil
	}}

	res := execute(t, serviceDeps(svc, nil), testEnv, "from-stdin\n",
		"account", "create", "--username", "ada", "--email", "ada@example.com")
	require.NoError(t, res.err)
	assert.Equal(t, "from-stdin", got.Secret)
}

func TestAccountCreate_PrintsViolations(t *testing.T) {
	svc := &fakeService{create: func(account.Credentials) (*account.Account, error) {
		result := account.NewAccount("", "ada@example.com", "s").Validate()
		return nil, oops.Code("ACCOUNT_INVALID").Wrap(&account.InvalidAccountError{Result: result})
	}}

	res := execute(t, serviceDeps(svc, nil), testEnv, "", "account", "create", "--email", "ada@example.com", "--secret", "s")
	require.Error(t, res.err)
	errutil.AssertErrorCode(t, res.err, "ACCOUNT_INVALID")
	assert.Contains(t, res.stderr, "EmptyStringError")
	assert.Contains(t, res.stderr, `"code":"ACCOUNT_INVALID"`, "failure is logged with its code")
}

func TestAccountGet(t *testing.T) {
	svc := &fakeService{getByID: func(id int64) (*account.Account, error) {
		if id != 7 {
			return nil, nil
		}
		acct := sampleAccount
		return &acct, nil
	}}
	deps := serviceDeps(svc, nil)

	t.Run("found as JSON", func(t *testing.T) {
		res := execute(t, deps, testEnv, "", "account", "get", "7", "--json")
		require.NoError(t, res.err)

		var accounts []map[string]any
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &accounts))
		require.Len(t, accounts, 1)
		assert.Equal(t, "ada", accounts[0]["username"])
		assert.NotContains(t, accounts[0], "CredentialSecret")
	})

	t.Run("not found", func(t *testing.T) {
		res := execute(t, deps, testEnv, "", "account", "get", "8")
		require.Error(t, res.err)
		errutil.AssertErrorCode(t, res.err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("non-numeric id", func(t *testing.T) {
		res := execute(t, deps, testEnv, "", "account", "get", "seven")
		require.Error(t, res.err)
		errutil.AssertErrorCode(t, res.err, "INVALID_ARGUMENT")
	})
}

func TestAccountList(t *testing.T) {
	second := sampleAccount
	second.ID, second.Username, second.Email = 8, "grace", "grace@example.com"
	svc := &fakeService{getAll: func() ([]account.Account, error) {
		return []account.Account{sampleAccount, second}, nil
	}}

	res := execute(t, serviceDeps(svc, nil), testEnv, "", "account", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "USERNAME")
	assert.Contains(t, res.stdout, "ada")
	assert.Contains(t, res.stdout, "grace@example.com")
}

func TestAccountDeleteAll(t *testing.T) {
	var calls int
	svc := &fakeService{deleteAll: func() (int64, error) {
		calls++
		return 3, nil
	}}
	deps := serviceDeps(svc, nil)

	res := execute(t, deps, testEnv, "", "account", "delete-all")
	require.Error(t, res.err)
	errutil.AssertErrorCode(t, res.err, "CONFIRMATION_REQUIRED")
	assert.Zero(t, calls)

	res = execute(t, deps, testEnv, "", "account", "delete-all", "--yes")
	require.NoError(t, res.err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, res.stdout, "Deleted 3 accounts")
}

func TestAccountCommands_DefaultFactoryNeedsSecrets(t *testing.T) {
	res := execute(t, nil, map[string]string{}, "", "account", "list")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "AUTHMS_SIGNING_KEY")

	res = execute(t, nil, map[string]string{"AUTHMS_SIGNING_KEY": testSigningKey}, "", "account", "list")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "DATABASE_URL")
}
