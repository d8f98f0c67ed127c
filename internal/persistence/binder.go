// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package persistence

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/oops"
)

// bindingMarker prefixes named parameters in statements.
const bindingMarker = '@'

// Params binds @name placeholders to values. For writes, keys are also the
// column names.
type Params map[string]any

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// checkIdentifiers rejects names that cannot be spliced into SQL verbatim.
func checkIdentifiers(names ...string) error {
	for _, name := range names {
		if !identifierRegex.MatchString(name) {
			return oops.Code("DB_INVALID_IDENTIFIER").
				In("persistence").
				With("identifier", name).
				Wrap(ErrInvalidIdentifier)
		}
	}
	return nil
}

// bind rewrites @name placeholders into positional $n placeholders and
// returns the arguments in order. A name used more than once reuses its index.
// Quoted literals, quoted identifiers and the @@ operator are left untouched.
func bind(query string, params Params) (string, []any, error) {
	var (
		args    []any
		indexes = map[string]int{}
		missing string
	)
	out := rewriteNamed(query, func(name string) string {
		if idx, ok := indexes[name]; ok {
			return "$" + strconv.Itoa(idx)
		}
		v, ok := params[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return string(bindingMarker) + name
		}
		args = append(args, v)
		indexes[name] = len(args)
		return "$" + strconv.Itoa(len(args))
	})
	if missing != "" {
		return "", nil, oops.Code("DB_MISSING_PARAM").
			In("persistence").
			With("param", missing).
			Wrap(ErrMissingParam)
	}
	return out, args, nil
}

// referencedNames lists the distinct @names used by a statement fragment.
func referencedNames(fragment string) []string {
	var names []string
	seen := map[string]bool{}
	rewriteNamed(fragment, func(name string) string {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return string(bindingMarker) + name
	})
	return names
}

// rewriteNamed calls replace for every @name outside quotes and substitutes
// its return value.
func rewriteNamed(query string, replace func(name string) string) string {
	var sb strings.Builder
	sb.Grow(len(query))

	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]

		if quote != 0 {
			sb.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}

		switch {
		case c == '\'' || c == '"':
			quote = c
			sb.WriteByte(c)
		case c == bindingMarker && i+1 < len(query) && query[i+1] == bindingMarker:
			sb.WriteString("@@")
			i++
		case c == bindingMarker && i+1 < len(query) && isIdentStart(query[i+1]):
			j := i + 1
			for j < len(query) && isIdentPart(query[j]) {
				j++
			}
			sb.WriteString(replace(query[i+1 : j]))
			i = j - 1
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
