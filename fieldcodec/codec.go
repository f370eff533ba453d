/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fieldcodec

import (
	stderrors "errors"
	"fmt"
	"reflect"

	"github.com/suparena/tablekit/errors"
)

// Codec converts values of one Go type to and from their stored string form.
type Codec interface {
	Type() reflect.Type
	Serialize(v any) (string, error)
	Deserialize(s string) (any, error)
}

// FieldSerializer is the function-pair Codec used by every built-in.
type FieldSerializer struct {
	typ         reflect.Type
	serialize   func(any) (string, error)
	deserialize func(string) (any, error)
}

// New creates a FieldSerializer. All three arguments are required.
func New(t reflect.Type, serialize func(any) (string, error), deserialize func(string) (any, error)) (*FieldSerializer, error) {
	if t == nil {
		return nil, errors.NewValidationError("type", "must not be nil")
	}
	if serialize == nil {
		return nil, errors.NewValidationError("serialize", "must not be nil")
	}
	if deserialize == nil {
		return nil, errors.NewValidationError("deserialize", "must not be nil")
	}
	return &FieldSerializer{typ: t, serialize: serialize, deserialize: deserialize}, nil
}

func (f *FieldSerializer) Type() reflect.Type { return f.typ }

// Serialize encodes v. A nil value encodes as the empty string.
func (f *FieldSerializer) Serialize(v any) (string, error) {
	if isNil(v) {
		return "", nil
	}
	return f.serialize(v)
}

// Deserialize decodes s. The empty string decodes as nil.
func (f *FieldSerializer) Deserialize(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	v, err := f.deserialize(s)
	if err != nil {
		return nil, asParseError(f.typ, s, err)
	}
	return v, nil
}

func (f *FieldSerializer) String() string {
	return "fieldcodec(" + f.typ.String() + ")"
}

// Of builds a codec for T from a typed encode/decode pair.
func Of[T any](encode func(T) string, decode func(string) (T, error)) *FieldSerializer {
	t := reflect.TypeFor[T]()
	return &FieldSerializer{
		typ: t,
		serialize: func(v any) (string, error) {
			tv, ok := v.(T)
			if !ok {
				return "", mismatch(t, v)
			}
			return encode(tv), nil
		},
		deserialize: func(s string) (any, error) {
			return decode(s)
		},
	}
}

// NullableOf builds a codec for *T, the nullable form of T.
func NullableOf[T any](encode func(T) string, decode func(string) (T, error)) *FieldSerializer {
	return Nullable(Of(encode, decode))
}

// Nullable wraps inner so it accepts and produces *T. A plain T is also
// accepted on Serialize.
func Nullable(inner Codec) *FieldSerializer {
	elem := inner.Type()
	t := reflect.PointerTo(elem)
	return &FieldSerializer{
		typ: t,
		serialize: func(v any) (string, error) {
			rv := reflect.ValueOf(v)
			switch rv.Type() {
			case t:
				return inner.Serialize(rv.Elem().Interface())
			case elem:
				return inner.Serialize(v)
			}
			return "", mismatch(t, v)
		},
		deserialize: func(s string) (any, error) {
			v, err := inner.Deserialize(s)
			if err != nil || v == nil {
				return nil, err
			}
			p := reflect.New(elem)
			p.Elem().Set(reflect.ValueOf(v))
			return p.Interface(), nil
		},
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func mismatch(want reflect.Type, got any) error {
	return errors.NewValidationError("value", fmt.Sprintf("expected %s, got %T", want, got))
}

func asParseError(t reflect.Type, s string, err error) error {
	var pe *errors.ParseError
	if stderrors.As(err, &pe) {
		return err
	}
	return errors.NewParseError(t.String(), s, err)
}
