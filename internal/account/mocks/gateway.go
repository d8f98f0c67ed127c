// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

// Package mocks provides testify mocks for the account package.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/authms/authms/internal/account"
)

// MockGateway is a mock for account.Gateway.
type MockGateway struct {
	mock.Mock
}

// NewMockGateway creates a MockGateway whose expectations are asserted when
// the test finishes.
func NewMockGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGateway {
	m := &MockGateway{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockGateway) GetAll(ctx context.Context) ([]account.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]account.Account), args.Error(1)
}

func (m *MockGateway) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	args := m.Called(ctx, id)
	return accountOrNil(args.Get(0)), args.Error(1)
}

func (m *MockGateway) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGateway) Insert(ctx context.Context, candidate *account.Account) (*account.Account, error) {
	args := m.Called(ctx, candidate)
	return accountOrNil(args.Get(0)), args.Error(1)
}

func (m *MockGateway) GetByEmailAndSecret(ctx context.Context, email, secret string) (*account.Account, error) {
	args := m.Called(ctx, email, secret)
	return accountOrNil(args.Get(0)), args.Error(1)
}

func (m *MockGateway) GetByUsernameAndSecret(ctx context.Context, username, secret string) (*account.Account, error) {
	args := m.Called(ctx, username, secret)
	return accountOrNil(args.Get(0)), args.Error(1)
}

func (m *MockGateway) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockGateway) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func accountOrNil(v any) *account.Account {
	if v == nil {
		return nil
	}
	return v.(*account.Account)
}

var _ account.Gateway = (*MockGateway)(nil)
