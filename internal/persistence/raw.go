// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

// MaxJoinSegments is the most segments a joined row is split into.
// Columns past the last boundary stay in the final segment.
const MaxJoinSegments = 5

// Raw runs caller-written SQL. It is kept apart from the structured
// operations of Connection on purpose: nothing here validates identifiers.
type Raw struct {
	c *Connection
}

// Raw returns the raw-statement capability of c.
func (c *Connection) Raw() *Raw {
	return &Raw{c: c}
}

// Exec runs sql as-is and returns the number of rows affected.
func (r *Raw) Exec(ctx context.Context, sql string) (int64, error) {
	var affected int64
	err := r.c.withLink(ctx, "raw_exec", "", func(link Link) error {
		start := time.Now()
		logStatement(ctx, "raw_exec", sql, nil)
		tag, err := link.Exec(ctx, sql)
		observe("raw_exec", start, err)
		if err != nil {
			return transport("raw_exec", "", err)
		}
		affected = tag.RowsAffected()
		return nil
	})
	return affected, err
}

// Segment is a contiguous run of columns from one joined row.
type Segment struct {
	Columns []string
	Values  []any
}

// Decode shapes a segment into T using the same column rules as the
// structured queries. A pointer-to-struct T decodes an all-NULL segment
// (an unmatched outer join) to nil.
func Decode[T any](s Segment) (T, error) {
	return newPlan[T](s.Columns).decode(s.Columns, s.Values)
}

// splitBounds returns the start index of each segment. splitOn is a
// comma-separated list of column names; the n-th boundary is the first column
// after the previous boundary named by the n-th entry, and the last entry
// repeats for further boundaries.
func splitBounds(columns []string, splitOn string) []int {
	bounds := []int{0}
	var names []string
	for _, name := range strings.Split(splitOn, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return bounds
	}

	for len(bounds) < MaxJoinSegments {
		name := names[min(len(bounds)-1, len(names)-1)]
		next := -1
		for i := bounds[len(bounds)-1] + 1; i < len(columns); i++ {
			if strings.EqualFold(columns[i], name) {
				next = i
				break
			}
		}
		if next < 0 {
			break
		}
		bounds = append(bounds, next)
	}
	return bounds
}

func segmentsOf(columns []string, values []any, bounds []int) []Segment {
	segs := make([]Segment, len(bounds))
	for i, start := range bounds {
		end := len(columns)
		if i+1 < len(bounds) {
			end = bounds[i+1]
		}
		segs[i] = Segment{Columns: columns[start:end], Values: values[start:end]}
	}
	return segs
}

// QueryJoin runs a join query and hands each row to mapFn split into segments
// at the splitOn columns.
func QueryJoin[R any](ctx context.Context, r *Raw, sql string, params Params, splitOn string, mapFn func([]Segment) (R, error)) ([]R, error) {
	var out []R
	err := r.c.query(ctx, "raw_query", "", sql, params, func(rows pgx.Rows) error {
		columns := columnNames(rows)
		bounds := splitBounds(columns, splitOn)
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return transport("raw_query", "", err)
			}
			item, err := mapFn(segmentsOf(columns, values, bounds))
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
	return out, nil
}

func requireSegments(segs []Segment, n int, splitOn string) error {
	if len(segs) < n {
		return oops.Code("DB_SPLIT_NOT_FOUND").
			In("persistence").
			With("split_on", splitOn).
			With("segments", len(segs)).
			With("required", n).
			Wrap(ErrSplitColumnNotFound)
	}
	return nil
}

// Join2 is QueryJoin for rows made of two typed segments.
func Join2[A, B, R any](ctx context.Context, r *Raw, sql string, params Params, splitOn string, fn func(A, B) R) ([]R, error) {
	return QueryJoin(ctx, r, sql, params, splitOn, func(segs []Segment) (R, error) {
		var zero R
		if err := requireSegments(segs, 2, splitOn); err != nil {
			return zero, err
		}
		a, err := Decode[A](segs[0])
		if err != nil {
			return zero, err
		}
		b, err := Decode[B](segs[1])
		if err != nil {
			return zero, err
		}
		return fn(a, b), nil
	})
}

// Join3 is QueryJoin for rows made of three typed segments.
func Join3[A, B, C, R any](ctx context.Context, r *Raw, sql string, params Params, splitOn string, fn func(A, B, C) R) ([]R, error) {
	return QueryJoin(ctx, r, sql, params, splitOn, func(segs []Segment) (R, error) {
		var zero R
		if err := requireSegments(segs, 3, splitOn); err != nil {
			return zero, err
		}
		a, err := Decode[A](segs[0])
		if err != nil {
			return zero, err
		}
		b, err := Decode[B](segs[1])
		if err != nil {
			return zero, err
		}
		c, err := Decode[C](segs[2])
		if err != nil {
			return zero, err
		}
		return fn(a, b, c), nil
	})
}
