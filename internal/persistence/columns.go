// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package persistence

import (
	"reflect"
	"strings"
	"unicode"
)

// ToSnakeCase converts a field name to its storage column name.
// Every upper-case rune after the first is preceded by an underscore, and all
// runes are lower-cased: "IdColaborador" becomes "id_colaborador" and
// "HTTPCode" becomes "h_t_t_p_code".
func ToSnakeCase(name string) string {
	var sb strings.Builder
	sb.Grow(len(name) + 4)
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			sb.WriteByte('_')
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

// FieldForColumn returns the first field whose snake-case form equals column.
// The boolean is false when no field matches.
func FieldForColumn(fields []string, column string) (string, bool) {
	for _, f := range fields {
		if ToSnakeCase(f) == column {
			return f, true
		}
	}
	return "", false
}

// TableName returns the default table for an entity type: the snake-case
// form of its type name.
func TableName[T any]() string {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return ToSnakeCase(t.Name())
}
