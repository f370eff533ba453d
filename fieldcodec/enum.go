/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fieldcodec

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"

	"github.com/suparena/tablekit/errors"
)

// Integer is the set of types an enum can be declared over.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

var (
	textMarshaler   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshaler = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Enum builds a codec for the named integer type E that stores values by
// their symbolic name. Values missing from names are stored as numbers.
// Decoding accepts a declared name or a number.
func Enum[E Integer](names map[E]string) (*FieldSerializer, error) {
	t := reflect.TypeFor[E]()
	byName := make(map[string]E, len(names))
	for v, name := range names {
		if name == "" {
			return nil, errors.NewValidationError("names", fmt.Sprintf("%s value %v has an empty name", t, v))
		}
		if prev, dup := byName[name]; dup {
			return nil, errors.NewValidationError("names", fmt.Sprintf("%s name %q used by %v and %v", t, name, prev, v))
		}
		byName[name] = v
	}

	return &FieldSerializer{
		typ: t,
		serialize: func(v any) (string, error) {
			e, ok := v.(E)
			if !ok {
				return "", mismatch(t, v)
			}
			if name, ok := names[e]; ok {
				return name, nil
			}
			return formatInteger(reflect.ValueOf(e)), nil
		},
		deserialize: func(s string) (any, error) {
			if e, ok := byName[s]; ok {
				return e, nil
			}
			rv, err := parseInteger(t, s)
			if err != nil {
				return nil, fmt.Errorf("not a declared %s name or number", t)
			}
			return rv.Interface(), nil
		},
	}, nil
}

// NullableEnum is Enum for *E.
func NullableEnum[E Integer](names map[E]string) (*FieldSerializer, error) {
	c, err := Enum(names)
	if err != nil {
		return nil, err
	}
	return Nullable(c), nil
}

// Text builds a codec for a type that implements encoding.TextMarshaler and
// whose pointer implements encoding.TextUnmarshaler.
func Text(t reflect.Type) (*FieldSerializer, error) {
	if t == nil {
		return nil, errors.NewValidationError("type", "must not be nil")
	}
	if !isText(t) {
		return nil, errors.NewValidationError("type", t.String()+" does not implement encoding.TextMarshaler and TextUnmarshaler")
	}
	return &FieldSerializer{
		typ: t,
		serialize: func(v any) (string, error) {
			if reflect.TypeOf(v) != t {
				return "", mismatch(t, v)
			}
			b, err := v.(encoding.TextMarshaler).MarshalText()
			return string(b), err
		},
		deserialize: func(s string) (any, error) {
			p := reflect.New(t)
			if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return nil, err
			}
			return p.Elem().Interface(), nil
		},
	}, nil
}

func isText(t reflect.Type) bool {
	return t.Kind() != reflect.Pointer && t.Implements(textMarshaler) && reflect.PointerTo(t).Implements(textUnmarshaler)
}

func formatInteger(rv reflect.Value) string {
	if rv.CanInt() {
		return strconv.FormatInt(rv.Int(), 10)
	}
	return strconv.FormatUint(rv.Uint(), 10)
}

func parseInteger(t reflect.Type, s string) (reflect.Value, error) {
	rv := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return rv, err
		}
		rv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return rv, err
		}
		rv.SetUint(n)
	default:
		return rv, fmt.Errorf("%s is not an integer type", t)
	}
	return rv, nil
}
