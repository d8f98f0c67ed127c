// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/authms/authms/internal/account"
	"github.com/authms/authms/internal/account/postgres"
	"github.com/authms/authms/internal/config"
	"github.com/authms/authms/internal/observability"
	"github.com/authms/authms/internal/persistence"
	"github.com/authms/authms/internal/store"
)

// Deps contains injectable dependencies for the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// AccountServiceFactory builds the account use cases and returns a
	// function releasing what it opened.
	// Default: openAccountService
	AccountServiceFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (AccountService, func(), error)

	// MigratorFactory creates a migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ReadinessFactory opens the database used by the readiness probe.
	// Default: openReadiness
	ReadinessFactory func(ctx context.Context, cfg *config.Config) (observability.ReadinessChecker, func(), error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer with the persistence and account metrics
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer
}

// AccountService wraps the methods used from account.Service.
type AccountService interface {
	Login(ctx context.Context, creds account.Credentials, mode account.AuthMode) (string, error)
	Create(ctx context.Context, creds account.Credentials) (*account.Account, error)
	GetAll(ctx context.Context) ([]account.Account, error)
	GetByID(ctx context.Context, id int64) (*account.Account, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Pending() ([]uint, error)
	Force(version int) error
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.AccountServiceFactory == nil {
		out.AccountServiceFactory = openAccountService
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	if out.ReadinessFactory == nil {
		out.ReadinessFactory = openReadiness
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker, persistence.RegisterMetrics, account.RegisterMetrics)
		}
	}
	return &out
}

func poolConfig(cfg *config.Config) store.PoolConfig {
	pc := store.DefaultPoolConfig()
	pc.MaxConns = cfg.Database.MaxConns
	pc.ConnectRetries = cfg.Database.ConnectRetries
	return pc
}

// openConnection connects the pool and wraps it in a persistence.Connection.
func openConnection(ctx context.Context, cfg *config.Config) (*persistence.Connection, func(), error) {
	databaseURL, err := cfg.RequireDatabaseURL()
	if err != nil {
		return nil, nil, err
	}
	pool, err := store.Connect(ctx, databaseURL, poolConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	conn, err := persistence.NewConnection(persistence.PoolDialer{Pool: pool})
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return conn, pool.Close, nil
}

// openAccountService wires the postgres gateway, the argon2id hasher and the
// token issuer into an account.Service.
func openAccountService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (AccountService, func(), error) {
	key, err := cfg.RequireSigningKey()
	if err != nil {
		return nil, nil, err
	}
	issuer, err := account.NewTokenIssuer(key, account.WithTTL(cfg.Auth.TokenTTL))
	if err != nil {
		return nil, nil, err
	}

	conn, release, err := openConnection(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	hasher := account.NewArgon2idHasher(account.WithLegacyPlaintext(cfg.Auth.LegacyPlaintext))
	opts := []postgres.Option{postgres.WithLogger(logger)}
	if cfg.Database.Table != "" {
		opts = append(opts, postgres.WithTable(cfg.Database.Table))
	}
	gateway, err := postgres.NewAccountGateway(conn, hasher, opts...)
	if err != nil {
		release()
		return nil, nil, err
	}

	svc, err := account.NewService(gateway, issuer, account.WithLogger(logger))
	if err != nil {
		release()
		return nil, nil, oops.With("operation", "create account service").Wrap(err)
	}
	return svc, release, nil
}

// openReadiness reports ready while the database answers a trivial query.
func openReadiness(ctx context.Context, cfg *config.Config) (observability.ReadinessChecker, func(), error) {
	conn, release, err := openConnection(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	raw := conn.Raw()
	return func(ctx context.Context) error {
		_, err := raw.Exec(ctx, "SELECT 1")
		return err
	}, release, nil
}
