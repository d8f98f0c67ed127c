// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// PoolConfig tunes Connect.
type PoolConfig struct {
	// MaxConns caps the pool size. Zero keeps the pgxpool default.
	MaxConns int32
	// ConnectRetries is how many times a failed ping is retried before
	// Connect gives up.
	ConnectRetries uint64
	// RetryBase is the first backoff interval; later ones double.
	RetryBase time.Duration
	// RetryCap bounds a single backoff interval.
	RetryCap time.Duration
}

// DefaultPoolConfig waits roughly half a minute for the database to come up.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		ConnectRetries: 8,
		RetryBase:      250 * time.Millisecond,
		RetryCap:       5 * time.Second,
	}
}

// Connect opens a pgx pool for dsn and pings it, retrying with exponential
// backoff until the database answers or the retries run out.
func Connect(ctx context.Context, dsn string, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_INVALID_CONFIG").In("store").Wrapf(err, "parse database url")
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").In("store").Wrapf(err, "create pool")
	}

	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultPoolConfig().RetryBase
	}
	backoff := retry.NewExponential(cfg.RetryBase)
	if cfg.RetryCap > 0 {
		backoff = retry.WithCappedDuration(cfg.RetryCap, backoff)
	}
	backoff = retry.WithMaxRetries(cfg.ConnectRetries, backoff)

	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			slog.WarnContext(ctx, "database not ready",
				"attempt", attempt,
				"host", poolCfg.ConnConfig.Host,
				"error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_UNAVAILABLE").
			In("store").
			With("attempts", attempt).
			With("host", poolCfg.ConnConfig.Host).
			Wrapf(err, "ping database")
	}
	return pool, nil
}
