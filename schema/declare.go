/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"
	"reflect"

	"github.com/suparena/tablekit/errors"
	"github.com/suparena/tablekit/fieldcodec"
)

// Builder assembles a declared schema field by field.
type Builder struct {
	typ      reflect.Type
	fields   map[string]Field
	bindings []Binding
	err      error
}

// Declare starts a declared schema for struct type t.
func Declare(t reflect.Type) *Builder {
	b := &Builder{fields: make(map[string]Field)}
	st, err := StructType(t)
	if err != nil {
		b.err = err
		return b
	}
	fields, err := Fields(st)
	if err != nil {
		b.err = err
		return b
	}
	b.typ = st
	for _, f := range fields {
		b.fields[f.Name] = f
	}
	return b
}

// Field binds the property name to codec. A codec for T may be given for a
// *T field; it is wrapped with fieldcodec.Nullable.
func (b *Builder) Field(name string, codec fieldcodec.Codec) *Builder {
	if b.err != nil {
		return b
	}
	f, ok := b.fields[name]
	if !ok {
		b.err = errors.NewValidationError(name, fmt.Sprintf("%s has no storable field with this name", b.typ))
		return b
	}
	if codec == nil {
		b.err = errors.NewValidationError(name, "codec must not be nil")
		return b
	}
	for _, existing := range b.bindings {
		if existing.Name == name {
			b.err = errors.NewValidationError(name, "declared twice")
			return b
		}
	}

	switch {
	case codec.Type() == f.Type:
	case f.Type.Kind() == reflect.Pointer && codec.Type() == f.Type.Elem():
		codec = fieldcodec.Nullable(codec)
	default:
		b.err = errors.NewValidationError(name, fmt.Sprintf("codec for %s cannot store field of type %s", codec.Type(), f.Type))
		return b
	}
	b.bindings = append(b.bindings, newBinding(f, codec))
	return b
}

// Build returns the declared schema or the first error recorded.
func (b *Builder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Schema{Type: b.typ, Bindings: b.bindings, Declared: true}, nil
}
