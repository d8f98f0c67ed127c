// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package validation

import (
	"fmt"
	"strings"
)

// Kind identifies the variant of a Violation.
type Kind int

// Violation kinds. The set is closed: every kind has exactly one variant type.
const (
	KindNegativeID Kind = iota + 1
	KindIDZero
	KindNegativeValue
	KindValueZero
	KindEmptyString
	KindByteArraySize
)

// String returns the kind name used in summaries.
func (k Kind) String() string {
	switch k {
	case KindNegativeID:
		return "NegativeIdError"
	case KindIDZero:
		return "IdZeroError"
	case KindNegativeValue:
		return "NegativeValueError"
	case KindValueZero:
		return "ValueZeroError"
	case KindEmptyString:
		return "EmptyStringError"
	case KindByteArraySize:
		return "ByteArraySizeError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Violation is a single field-level validation failure.
// Implementations are limited to the variant types declared in this package.
type Violation interface {
	Kind() Kind
	Message() string
	Properties() []string
	sealed()
}

// NegativeIDError reports an identifier below zero.
type NegativeIDError struct {
	Property string
	Value    int64
}

// IDZeroError reports an identifier that is zero where zero is disallowed.
type IDZeroError struct {
	Property string
}

// NegativeValueError reports a magnitude below zero.
type NegativeValueError struct {
	Property string
	Value    int64
}

// ValueZeroError reports a magnitude that is zero where zero is disallowed.
type ValueZeroError struct {
	Property string
}

// EmptyStringError reports a missing or empty string.
type EmptyStringError struct {
	Property string
}

// ByteArraySizeError reports a byte sequence that is nil or has the wrong length.
// Actual is -1 when the sequence was nil.
type ByteArraySizeError struct {
	Property string
	Expected int
	Actual   int
}

func (NegativeIDError) Kind() Kind    { return KindNegativeID }
func (IDZeroError) Kind() Kind        { return KindIDZero }
func (NegativeValueError) Kind() Kind { return KindNegativeValue }
func (ValueZeroError) Kind() Kind     { return KindValueZero }
func (EmptyStringError) Kind() Kind   { return KindEmptyString }
func (ByteArraySizeError) Kind() Kind { return KindByteArraySize }

func (e NegativeIDError) Properties() []string    { return []string{e.Property} }
func (e IDZeroError) Properties() []string        { return []string{e.Property} }
func (e NegativeValueError) Properties() []string { return []string{e.Property} }
func (e ValueZeroError) Properties() []string     { return []string{e.Property} }
func (e EmptyStringError) Properties() []string   { return []string{e.Property} }
func (e ByteArraySizeError) Properties() []string { return []string{e.Property} }

func (e NegativeIDError) Message() string    { return message(e) }
func (e IDZeroError) Message() string        { return message(e) }
func (e NegativeValueError) Message() string { return message(e) }
func (e ValueZeroError) Message() string     { return message(e) }
func (e EmptyStringError) Message() string   { return message(e) }
func (e ByteArraySizeError) Message() string { return message(e) }

func (NegativeIDError) sealed()    {}
func (IDZeroError) sealed()        {}
func (NegativeValueError) sealed() {}
func (ValueZeroError) sealed()     {}
func (EmptyStringError) sealed()   {}
func (ByteArraySizeError) sealed() {}

// message renders the human-readable text for a violation.
// Adding a variant requires a case here.
func message(v Violation) string {
	switch v := v.(type) {
	case NegativeIDError:
		return fmt.Sprintf("'%s' cannot be negative.", v.Property)
	case IDZeroError:
		return fmt.Sprintf("'%s' cannot be 0", v.Property)
	case NegativeValueError:
		return fmt.Sprintf("'%s' cannot be negative.", v.Property)
	case ValueZeroError:
		return fmt.Sprintf("'%s' cannot be 0", v.Property)
	case EmptyStringError:
		return fmt.Sprintf("'%s' was not provided!", v.Property)
	case ByteArraySizeError:
		return fmt.Sprintf("'%s' must contain exactly %d bytes.", v.Property, v.Expected)
	default:
		return fmt.Sprintf("unknown violation %T", v)
	}
}

// PropertiesSummary joins the affected property names with ", ".
// Returns an empty string when the violation names no properties.
func PropertiesSummary(v Violation) string {
	names := make([]string, 0, len(v.Properties()))
	for _, name := range v.Properties() {
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}
