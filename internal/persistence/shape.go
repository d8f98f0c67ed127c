// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package persistence

import (
	"database/sql"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"
)

// structField is an exported, settable field of a shaped type.
type structField struct {
	name  string
	tag   string
	index []int
}

// typeInfo lists the fields of a struct type, with embedded structs flattened.
type typeInfo struct {
	fields []structField
	names  []string
}

var typeCache sync.Map // reflect.Type -> *typeInfo

func infoFor(t reflect.Type) *typeInfo {
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeInfo)
	}
	info := &typeInfo{}
	collectFields(t, nil, info)
	actual, _ := typeCache.LoadOrStore(t, info)
	return actual.(*typeInfo)
}

func collectFields(t reflect.Type, parent []int, info *typeInfo) {
	for i := range t.NumField() {
		sf := t.Field(i)
		index := append(append([]int(nil), parent...), i)
		tag := sf.Tag.Get("db")
		if tag == "-" {
			continue
		}
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && tag == "" {
			collectFields(sf.Type, index, info)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		info.fields = append(info.fields, structField{name: sf.Name, tag: tag, index: index})
		info.names = append(info.names, sf.Name)
	}
}

// resolve maps a column to a field: db tag first, then the snake-case
// translator, then a case-insensitive name match.
func (info *typeInfo) resolve(column string) (structField, bool) {
	for _, f := range info.fields {
		if f.tag != "" && f.tag == column {
			return f, true
		}
	}
	if name, ok := FieldForColumn(info.names, column); ok {
		for _, f := range info.fields {
			if f.name == name && f.tag == "" {
				return f, true
			}
		}
	}
	for _, f := range info.fields {
		if f.tag == "" && strings.EqualFold(f.name, column) {
			return f, true
		}
	}
	return structField{}, false
}

// plan is the column-to-field mapping for one result set and one type.
type plan[T any] struct {
	scalar  bool
	pointer bool
	fields  []*structField // nil entries are discarded columns
}

var timeType = reflect.TypeFor[time.Time]()

func isStructTarget(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t == timeType {
		return false
	}
	return !reflect.PointerTo(t).Implements(reflect.TypeFor[sql.Scanner]())
}

func newPlan[T any](columns []string) *plan[T] {
	t := reflect.TypeFor[T]()
	p := &plan[T]{}
	if t.Kind() == reflect.Pointer && isStructTarget(t.Elem()) {
		p.pointer = true
		t = t.Elem()
	}
	if !isStructTarget(t) {
		p.scalar = true
		return p
	}
	info := infoFor(t)
	p.fields = make([]*structField, len(columns))
	for i, col := range columns {
		if f, ok := info.resolve(col); ok {
			p.fields[i] = &f
		}
	}
	return p
}

// decode builds a T from one row of values.
func (p *plan[T]) decode(columns []string, values []any) (T, error) {
	var out T
	target := reflect.ValueOf(&out).Elem()

	if p.scalar {
		if len(values) == 0 {
			return out, nil
		}
		if err := assign(target, values[0]); err != nil {
			return out, shapeErr(columns[0], target.Type(), values[0], err)
		}
		return out, nil
	}

	if p.pointer {
		if allNil(values) {
			return out, nil
		}
		target.Set(reflect.New(target.Type().Elem()))
		target = target.Elem()
	}

	for i, f := range p.fields {
		if f == nil {
			continue
		}
		dst := target.FieldByIndex(f.index)
		if err := assign(dst, values[i]); err != nil {
			return out, shapeErr(columns[i], dst.Type(), values[i], err)
		}
	}
	return out, nil
}

func allNil(values []any) bool {
	for _, v := range values {
		if v != nil {
			return false
		}
	}
	return true
}

// assign stores a driver value into dst, converting where Go allows it.
func assign(dst reflect.Value, src any) error {
	if src == nil {
		dst.SetZero()
		return nil
	}
	sv := reflect.ValueOf(src)

	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}
	if dst.Kind() == reflect.Interface && sv.Type().Implements(dst.Type()) {
		dst.Set(sv)
		return nil
	}
	if convertible(sv.Type(), dst.Type()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	if dst.CanAddr() {
		if scanner, ok := dst.Addr().Interface().(sql.Scanner); ok {
			return scanner.Scan(src)
		}
	}
	return oops.Errorf("unsupported conversion from %T to %s", src, dst.Type())
}

// convertible allows the numeric widenings and same-shape conversions of
// reflect, but not integer to string.
func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	if to.Kind() == reflect.String {
		return from.Kind() == reflect.String || (from.Kind() == reflect.Slice && from.Elem().Kind() == reflect.Uint8)
	}
	return true
}

func shapeErr(column string, to reflect.Type, value any, err error) error {
	return oops.Code("DB_SHAPE_FAILED").
		In("persistence").
		With("column", column).
		With("target", to.String()).
		With("value_type", reflect.TypeOf(value).String()).
		Wrapf(&shapeError{err: err}, "shape column %q", column)
}

type shapeError struct{ err error }

func (e *shapeError) Error() string   { return e.err.Error() }
func (e *shapeError) Unwrap() []error { return []error{ErrShape, e.err} }
