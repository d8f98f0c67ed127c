// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// ConnDialer opens a new physical connection per Dial.
type ConnDialer struct {
	DSN string
}

// Dial connects to DSN.
func (d ConnDialer) Dial(ctx context.Context) (Link, error) {
	conn, err := pgx.Connect(ctx, d.DSN)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").In("persistence").Wrap(err)
	}
	return conn, nil
}

// PoolDialer acquires connections from a pgxpool. Closing the returned link
// releases it back to the pool.
type PoolDialer struct {
	Pool *pgxpool.Pool
}

// Dial acquires a pooled connection.
func (d PoolDialer) Dial(ctx context.Context) (Link, error) {
	if d.Pool == nil {
		return nil, oops.Code("DB_INVALID_CONFIG").In("persistence").Errorf("pool is required")
	}
	conn, err := d.Pool.Acquire(ctx)
	if err != nil {
		return nil, oops.Code("DB_ACQUIRE_FAILED").In("persistence").Wrap(err)
	}
	return pooledLink{conn}, nil
}

type pooledLink struct {
	*pgxpool.Conn
}

func (l pooledLink) Close(context.Context) error {
	l.Release()
	return nil
}

var (
	_ Dialer = ConnDialer{}
	_ Dialer = PoolDialer{}
	_ Link   = (*pgx.Conn)(nil)
	_ Link   = pooledLink{}
)
