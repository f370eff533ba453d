/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/suparena/tablekit/errors"
	"github.com/suparena/tablekit/fieldcodec"
)

// TagName is the struct tag that renames or skips a field.
const TagName = "table"

// Binding ties one struct field to the codec that stores it as a string.
type Binding struct {
	Name  string
	Index []int
	Type  reflect.Type
	// NullableOf is the element type when Type is a pointer, nil otherwise.
	NullableOf reflect.Type
	Codec      fieldcodec.Codec
}

// Schema is the ordered list of custom-handled fields of one struct type.
type Schema struct {
	Type     reflect.Type
	Bindings []Binding
	Declared bool
}

// Lookup finds a binding by property name.
func (s *Schema) Lookup(name string) (Binding, bool) {
	for _, b := range s.Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

// Names lists the property names of every binding.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Bindings))
	for i, b := range s.Bindings {
		names[i] = b.Name
	}
	return names
}

// StructType returns the struct type behind t, unwrapping one pointer.
func StructType(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, errors.NewValidationError("type", "must not be nil")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.NewValidationError("type", t.String()+" is not a struct")
	}
	return t, nil
}

// Field is a storable struct field with its resolved property name.
type Field struct {
	reflect.StructField
	Name string
}

// Fields lists the exported, non-skipped fields of struct type t in
// declaration order, promoted fields included. Fields reached through an
// embedded pointer are left out.
func Fields(t reflect.Type) ([]Field, error) {
	st, err := StructType(t)
	if err != nil {
		return nil, err
	}

	var out []Field
	seen := make(map[string]string)
	for _, f := range reflect.VisibleFields(st) {
		if f.Anonymous || !f.IsExported() || viaPointer(st, f.Index) {
			continue
		}
		name, skip := fieldName(f)
		if skip {
			continue
		}
		if prev, dup := seen[name]; dup {
			return nil, errors.NewValidationError(name, fmt.Sprintf("property name used by both %s and %s", prev, f.Name))
		}
		seen[name] = f.Name
		out = append(out, Field{StructField: f, Name: name})
	}
	return out, nil
}

// Scan builds the schema of t from every field r can resolve. A named integer
// field that r cannot resolve is an error, since it would otherwise be stored
// by ordinal.
func Scan(t reflect.Type, r fieldcodec.Resolver) (*Schema, error) {
	if r == nil {
		return nil, errors.NewValidationError("resolver", "must not be nil")
	}
	st, err := StructType(t)
	if err != nil {
		return nil, err
	}
	fields, err := Fields(st)
	if err != nil {
		return nil, err
	}

	s := &Schema{Type: st}
	for _, f := range fields {
		codec, ok := r.Resolve(f.Type)
		if !ok {
			if fieldcodec.IsUnresolvedEnum(f.Type) {
				return nil, errors.NewValidationError(f.Name, fmt.Sprintf(
					"enum type %s has no codec; register fieldcodec.Enum(names) or implement encoding.TextMarshaler", f.Type))
			}
			continue
		}
		s.Bindings = append(s.Bindings, newBinding(f, codec))
	}
	return s, nil
}

func newBinding(f Field, codec fieldcodec.Codec) Binding {
	b := Binding{
		Name:  f.Name,
		Index: f.Index,
		Type:  f.Type,
		Codec: codec,
	}
	if f.Type.Kind() == reflect.Pointer {
		b.NullableOf = f.Type.Elem()
	}
	return b
}

func fieldName(f reflect.StructField) (string, bool) {
	tag, ok := f.Tag.Lookup(TagName)
	if !ok {
		return f.Name, false
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return "", true
	}
	if name == "" {
		return f.Name, false
	}
	return name, false
}

func viaPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Pointer {
			return true
		}
		t = f.Type
	}
	return false
}
