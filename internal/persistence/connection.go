// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

// Package persistence is a small parameterized data-access layer over pgx.
//
// A Connection builds INSERT, UPDATE, DELETE and SELECT statements from
// table names, value maps and where-clause fragments with @name placeholders,
// and shapes result rows into Go structs by matching snake_case columns to
// field names.
//
// # Connection lifetime
//
// Every operation acquires a link through the Connection's Dialer and releases
// it when done, unless the caller opened the Connection explicitly with Open.
// A caller-opened link stays open across operations until the caller calls
// Close. Operations never close a link they did not open.
//
// A Connection holding a caller-opened link must not be used from several
// goroutines at once. A closed Connection dials a private link per operation
// and is safe for concurrent use.
//
// # Raw statements
//
// Joins and arbitrary SQL go through the separate Raw capability returned by
// Connection.Raw, so structured callers cannot reach them by accident.
package persistence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// Link is one physical database connection. *pgx.Conn satisfies it.
type Link interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close(ctx context.Context) error
}

// Dialer opens links.
type Dialer interface {
	Dial(ctx context.Context) (Link, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context) (Link, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context) (Link, error) {
	return f(ctx)
}

// State is the caller-visible state of a Connection.
type State int

// Connection states.
const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Connection executes statements over links produced by a Dialer.
type Connection struct {
	dialer Dialer

	mu   sync.Mutex
	link Link // caller-managed link, nil when closed
}

// NewConnection creates a closed Connection.
func NewConnection(dialer Dialer) (*Connection, error) {
	if dialer == nil {
		return nil, oops.Code("DB_INVALID_CONFIG").In("persistence").Errorf("dialer is required")
	}
	return &Connection{dialer: dialer}, nil
}

// Open dials a link that stays open until Close. Opening an open Connection
// is a no-op.
func (c *Connection) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.link != nil {
		return nil
	}
	link, err := c.dialer.Dial(ctx)
	if err != nil {
		return transport("open", "", err)
	}
	c.link = link
	return nil
}

// Close releases the link opened by Open. Closing a closed Connection is a no-op.
func (c *Connection) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.link == nil {
		return nil
	}
	link := c.link
	c.link = nil
	if err := link.Close(ctx); err != nil {
		return transport("close", "", err)
	}
	return nil
}

// State reports whether a caller-managed link is open.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.link != nil {
		return StateOpen
	}
	return StateClosed
}

// withLink runs fn on the caller-managed link if there is one. Otherwise it
// dials a link for this call only and closes it afterwards.
func (c *Connection) withLink(ctx context.Context, op, table string, fn func(Link) error) (err error) {
	c.mu.Lock()
	held := c.link
	c.mu.Unlock()

	if held != nil {
		return fn(held)
	}

	link, err := c.dialer.Dial(ctx)
	if err != nil {
		return transport(op, table, err)
	}
	defer func() {
		if closeErr := link.Close(ctx); closeErr != nil {
			if err == nil {
				err = transport(op, table, closeErr)
				return
			}
			slog.WarnContext(ctx, "failed to close link after error",
				"operation", op,
				"error", closeErr,
			)
		}
	}()
	return fn(link)
}

// exec binds and executes a statement that returns no rows.
func (c *Connection) exec(ctx context.Context, op, table, query string, params Params) (int64, error) {
	sql, args, err := bind(query, params)
	if err != nil {
		return 0, err
	}

	var affected int64
	err = c.withLink(ctx, op, table, func(link Link) error {
		start := time.Now()
		logStatement(ctx, op, sql, args)
		tag, execErr := link.Exec(ctx, sql, args...)
		observe(op, start, execErr)
		if execErr != nil {
			return transport(op, table, execErr)
		}
		affected = tag.RowsAffected()
		return nil
	})
	return affected, err
}

// query binds and runs a statement, handing the open rows to each.
// Rows are always closed before query returns.
func (c *Connection) query(ctx context.Context, op, table, query string, params Params, each func(pgx.Rows) error) error {
	sql, args, err := bind(query, params)
	if err != nil {
		return err
	}

	return c.withLink(ctx, op, table, func(link Link) error {
		start := time.Now()
		logStatement(ctx, op, sql, args)
		rows, queryErr := link.Query(ctx, sql, args...)
		if queryErr != nil {
			observe(op, start, queryErr)
			return transport(op, table, queryErr)
		}
		defer rows.Close()

		if eachErr := each(rows); eachErr != nil {
			observe(op, start, eachErr)
			return eachErr
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			observe(op, start, rowsErr)
			return transport(op, table, rowsErr)
		}
		observe(op, start, nil)
		return nil
	})
}

// queryRow binds and runs a statement returning a single row.
func (c *Connection) queryRow(ctx context.Context, op, table, query string, params Params, dest ...any) error {
	sql, args, err := bind(query, params)
	if err != nil {
		return err
	}

	return c.withLink(ctx, op, table, func(link Link) error {
		start := time.Now()
		logStatement(ctx, op, sql, args)
		scanErr := link.QueryRow(ctx, sql, args...).Scan(dest...)
		observe(op, start, scanErr)
		if scanErr != nil {
			return transport(op, table, scanErr)
		}
		return nil
	})
}

func logStatement(ctx context.Context, op, sql string, args []any) {
	slog.DebugContext(ctx, "executing statement",
		"operation", op,
		"sql", sql,
		"args", len(args),
	)
}

// columnNames extracts the result column names of rows.
func columnNames(rows pgx.Rows) []string {
	fds := rows.FieldDescriptions()
	names := make([]string, len(fds))
	for i, fd := range fds {
		names[i] = fd.Name
	}
	return names
}
