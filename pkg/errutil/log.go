// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

// Package errutil bridges oops errors to logging and tests.
package errutil

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/oops"
)

// Code returns the oops code carried by err, or "" for other errors.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	if code, ok := oopsErr.Code().(string); ok {
		return code
	}
	return ""
}

// Family returns the leading segment of err's code, such as "ACCOUNT" for
// ACCOUNT_DUPLICATE_EMAIL or "DB" for DB_TRANSPORT. It is "" when err has no code.
func Family(err error) string {
	family, _, _ := strings.Cut(Code(err), "_")
	return family
}

// Attrs returns slog attributes describing err. Oops errors contribute their
// code, domain and context; other errors only their message.
func Attrs(err error) []any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return []any{"error", err}
	}
	attrs := []any{"error", oopsErr.Error()}
	if code := Code(err); code != "" {
		attrs = append(attrs, "code", code)
	}
	if domain := oopsErr.Domain(); domain != "" {
		attrs = append(attrs, "domain", domain)
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		attrs = append(attrs, "context", ctx)
	}
	return attrs
}

// LogError logs err at error level with its structured context.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	logger.ErrorContext(ctx, msg, Attrs(err)...)
}
