// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package persistence

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
)

// SearchFirst returns the first row of table matching where, shaped into T.
// Returns nil, nil when no row matches.
func SearchFirst[T any](ctx context.Context, c *Connection, table, where string, params Params) (*T, error) {
	if err := checkIdentifiers(table); err != nil {
		return nil, err
	}
	found, err := collect[T](ctx, c, "select_first", table, "SELECT * FROM "+table+" WHERE "+where+" LIMIT 1", params)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

// SearchMany returns all rows of table matching where, shaped into T.
func SearchMany[T any](ctx context.Context, c *Connection, table, where string, params Params) ([]T, error) {
	if err := checkIdentifiers(table); err != nil {
		return nil, err
	}
	return collect[T](ctx, c, "select_many", table, "SELECT * FROM "+table+" WHERE "+where, params)
}

// ListAll returns every row of table, projecting columns when given and * otherwise.
func ListAll[T any](ctx context.Context, c *Connection, table string, columns ...string) ([]T, error) {
	if err := checkIdentifiers(append([]string{table}, columns...)...); err != nil {
		return nil, err
	}
	projection := "*"
	if len(columns) > 0 {
		projection = strings.Join(columns, ", ")
	}
	return collect[T](ctx, c, "list_all", table, "SELECT "+projection+" FROM "+table, nil)
}

// collect runs query and shapes every row into T.
func collect[T any](ctx context.Context, c *Connection, op, table, query string, params Params) ([]T, error) {
	var out []T
	err := c.query(ctx, op, table, query, params, func(rows pgx.Rows) error {
		columns := columnNames(rows)
		p := newPlan[T](columns)
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return transport(op, table, err)
			}
			item, err := p.decode(columns, values)
			if err != nil {
				return err
			}
			out = append(out, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
