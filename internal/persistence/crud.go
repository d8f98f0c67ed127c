// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package persistence

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

// DefaultIDColumn is the identifier column used by InsertReturningID when
// none is given.
const DefaultIDColumn = "id"

// sortedKeys returns the keys of values in a stable order so generated SQL is
// deterministic.
func sortedKeys(values Params) []string {
	return slices.Sorted(maps.Keys(values))
}

func placeholders(keys []string) string {
	marked := make([]string, len(keys))
	for i, k := range keys {
		marked[i] = string(bindingMarker) + k
	}
	return strings.Join(marked, ", ")
}

func insertSQL(table string, values Params) (string, error) {
	if len(values) == 0 {
		return "", oops.Code("DB_NO_VALUES").In("persistence").With("table", table).Wrap(ErrNoValues)
	}
	keys := sortedKeys(values)
	if err := checkIdentifiers(append([]string{table}, keys...)...); err != nil {
		return "", err
	}
	return "INSERT INTO " + table + " (" + strings.Join(keys, ", ") + ") VALUES (" + placeholders(keys) + ")", nil
}

// Insert writes one row built from values and returns the number of rows affected.
func (c *Connection) Insert(ctx context.Context, table string, values Params) (int64, error) {
	query, err := insertSQL(table, values)
	if err != nil {
		return 0, err
	}
	return c.exec(ctx, "insert", table, query, values)
}

// InsertReturningID writes one row and returns the value generated for
// idColumn in the same round trip. An empty idColumn means DefaultIDColumn.
func (c *Connection) InsertReturningID(ctx context.Context, table string, values Params, idColumn string) (int64, error) {
	if idColumn == "" {
		idColumn = DefaultIDColumn
	}
	query, err := insertSQL(table, values)
	if err != nil {
		return 0, err
	}
	if err := checkIdentifiers(idColumn); err != nil {
		return 0, err
	}

	var id int64
	err = c.queryRow(ctx, "insert_returning_id", table, query+" RETURNING "+idColumn, values, &id)
	return id, err
}

// Update sets values on the rows matching where and returns the number of rows
// affected. Names bound by where must not also be keys of values.
func (c *Connection) Update(ctx context.Context, table string, values Params, where string, whereParams Params) (int64, error) {
	if len(values) == 0 {
		return 0, oops.Code("DB_NO_VALUES").In("persistence").With("table", table).Wrap(ErrNoValues)
	}
	keys := sortedKeys(values)
	if err := checkIdentifiers(append([]string{table}, keys...)...); err != nil {
		return 0, err
	}
	for _, name := range referencedNames(where) {
		if _, clash := values[name]; clash {
			return 0, oops.Code("DB_BINDING_COLLISION").
				In("persistence").
				With("table", table).
				With("param", name).
				Wrap(ErrBindingCollision)
		}
	}

	sets := make([]string, len(keys))
	for i, k := range keys {
		sets[i] = k + " = " + string(bindingMarker) + k
	}

	merged := make(Params, len(values)+len(whereParams))
	maps.Copy(merged, whereParams)
	maps.Copy(merged, values)

	query := "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE " + where
	return c.exec(ctx, "update", table, query, merged)
}

// Delete removes the rows matching where and returns the number of rows affected.
func (c *Connection) Delete(ctx context.Context, table, where string, whereParams Params) (int64, error) {
	if err := checkIdentifiers(table); err != nil {
		return 0, err
	}
	return c.exec(ctx, "delete", table, "DELETE FROM "+table+" WHERE "+where, whereParams)
}

// Exists reports whether any row matches where. No columns are projected.
func (c *Connection) Exists(ctx context.Context, table, where string, whereParams Params) (bool, error) {
	if err := checkIdentifiers(table); err != nil {
		return false, err
	}

	var found bool
	err := c.query(ctx, "exists", table, "SELECT 1 FROM "+table+" WHERE "+where+" LIMIT 1", whereParams, func(rows pgx.Rows) error {
		found = rows.Next()
		return nil
	})
	return found, err
}
