// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

// Package validation provides batch validation of entity fields.
//
// A Validator runs every rule it is given and collects all failures into a
// Result instead of stopping at the first one. Each call to Result returns a
// fresh, read-only value, so repeated validation passes never accumulate
// violations from earlier runs.
package validation

import (
	"slices"
	"strings"
)

// defaultIDProperty names the property checked by ID when none is given.
const defaultIDProperty = "Id"

// Validatable is implemented by entities that can validate themselves.
type Validatable interface {
	Validate() Result
}

// Validator collects violations from a sequence of rules.
type Validator struct {
	violations []Violation
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

// ID fails with NegativeIDError if value is negative, and also with
// IDZeroError if value is zero and validateZero is set.
func (v *Validator) ID(property string, value int64, validateZero bool) *Validator {
	if property == "" {
		property = defaultIDProperty
	}
	if value < 0 {
		v.violations = append(v.violations, NegativeIDError{Property: property, Value: value})
	}
	if validateZero && value == 0 {
		v.violations = append(v.violations, IDZeroError{Property: property})
	}
	return v
}

// Positive mirrors ID for generic numeric magnitudes.
func (v *Validator) Positive(property string, value int64, validateZero bool) *Validator {
	if value < 0 {
		v.violations = append(v.violations, NegativeValueError{Property: property, Value: value})
	}
	if validateZero && value == 0 {
		v.violations = append(v.violations, ValueZeroError{Property: property})
	}
	return v
}

// NotEmpty fails with EmptyStringError if value is empty.
func (v *Validator) NotEmpty(property, value string) *Validator {
	if value == "" {
		v.violations = append(v.violations, EmptyStringError{Property: property})
	}
	return v
}

// NotEmptyPtr is NotEmpty for optional strings; nil counts as empty.
func (v *Validator) NotEmptyPtr(property string, value *string) *Validator {
	if value == nil {
		v.violations = append(v.violations, EmptyStringError{Property: property})
		return v
	}
	return v.NotEmpty(property, *value)
}

// ByteSize fails with ByteArraySizeError if value is nil or its length is not expected.
func (v *Validator) ByteSize(property string, value []byte, expected int) *Validator {
	switch {
	case value == nil:
		v.violations = append(v.violations, ByteArraySizeError{Property: property, Expected: expected, Actual: -1})
	case len(value) != expected:
		v.violations = append(v.violations, ByteArraySizeError{Property: property, Expected: expected, Actual: len(value)})
	}
	return v
}

// Add records a violation produced outside the built-in rules.
func (v *Validator) Add(violation Violation) *Validator {
	if violation != nil {
		v.violations = append(v.violations, violation)
	}
	return v
}

// Result returns the violations collected so far as a new Result.
func (v *Validator) Result() Result {
	return Result{violations: slices.Clone(v.violations)}
}

// Result is the outcome of a validation pass.
// The zero value is a valid, empty result.
type Result struct {
	violations []Violation
}

// Valid reports whether the pass produced no violations.
func (r Result) Valid() bool {
	return len(r.violations) == 0
}

// Len returns the number of violations.
func (r Result) Len() int {
	return len(r.violations)
}

// Violations returns the violations in registration order.
func (r Result) Violations() []Violation {
	return slices.Clone(r.violations)
}

// Contains reports whether property failed with the given kind.
func (r Result) Contains(kind Kind, property string) bool {
	for _, v := range r.violations {
		if v.Kind() == kind && slices.Contains(v.Properties(), property) {
			return true
		}
	}
	return false
}

// Summary renders one "Kind - message" line per violation.
func (r Result) Summary() string {
	var sb strings.Builder
	for _, v := range r.violations {
		sb.WriteString(v.Kind().String())
		sb.WriteString(" - ")
		sb.WriteString(v.Message())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// String returns Summary.
func (r Result) String() string {
	return r.Summary()
}

// Err returns nil for a valid result and an *Error otherwise.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &Error{Result: r}
}

// Error wraps a failed Result so it can travel as an error.
type Error struct {
	Result Result
}

func (e *Error) Error() string {
	return "validation failed: " + strings.TrimRight(strings.ReplaceAll(e.Result.Summary(), "\n", "; "), "; ")
}
