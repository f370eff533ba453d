/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fieldcodec

import (
	"reflect"
	"strconv"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	decimalType  = reflect.TypeFor[decimal.Decimal]()
	dateTimeType = reflect.TypeFor[strfmt.DateTime]()
	timeType     = reflect.TypeFor[time.Time]()
	uuidType     = reflect.TypeFor[uuid.UUID]()
	durationType = reflect.TypeFor[time.Duration]()
	bytesType    = reflect.TypeFor[[]byte]()
)

// nativeTypes are the field types a table store maps without help.
var nativeTypes = map[reflect.Type]bool{
	reflect.TypeFor[string]():  true,
	bytesType:                  true,
	reflect.TypeFor[bool]():    true,
	reflect.TypeFor[int32]():   true,
	reflect.TypeFor[int64]():   true,
	reflect.TypeFor[int]():     true,
	reflect.TypeFor[float64](): true,
	timeType:                   true,
	uuidType:                   true,
}

// IsNative reports whether t is stored natively. Pointers to native types
// count as native.
func IsNative(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return nativeTypes[t]
}

// Primitives resolves the primitive types the store cannot hold natively:
// odd integer widths, float32, decimals, strfmt date-times, named scalar
// types (text-marshalling ones by name) and pointers to anything storable.
// Named integer types are enums and are left to Enum or TextMarshaler; see
// IsUnresolvedEnum.
var Primitives Resolver = ResolverFunc(resolvePrimitive)

func resolvePrimitive(t reflect.Type) (Codec, bool) {
	if t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Pointer {
		return resolveNullable(t.Elem())
	}
	if nativeTypes[t] {
		return nil, false
	}
	switch t {
	case decimalType:
		return Decimal(), true
	case dateTimeType:
		return DateTime(), true
	case reflect.TypeFor[int16]():
		return Int16(), true
	case reflect.TypeFor[uint8]():
		return Uint8(), true
	case reflect.TypeFor[float32]():
		return Float32(), true
	}
	if isText(t) {
		c, err := Text(t)
		return c, err == nil
	}
	if IsUnresolvedEnum(t) {
		return nil, false
	}
	return scalar(t)
}

// IsUnresolvedEnum reports whether t, or the type t points to, is a named
// integer type with no text marshalling. Such a type must be given an Enum
// codec so it is stored by name. time.Duration is stored as a number and
// does not count.
func IsUnresolvedEnum(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t == durationType || isText(t) {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func resolveNullable(elem reflect.Type) (Codec, bool) {
	switch elem {
	case reflect.TypeFor[int32]():
		return NullableInt32(), true
	case reflect.TypeFor[int64]():
		return NullableInt64(), true
	case reflect.TypeFor[int]():
		return NullableInt(), true
	case reflect.TypeFor[float64]():
		return NullableFloat64(), true
	case reflect.TypeFor[bool]():
		return NullableBool(), true
	case timeType:
		return NullableTime(), true
	case uuidType:
		return NullableUUID(), true
	case decimalType:
		return NullableDecimal(), true
	case dateTimeType:
		return NullableDateTime(), true
	case reflect.TypeFor[int16]():
		return NullableInt16(), true
	case reflect.TypeFor[uint8]():
		return NullableUint8(), true
	case reflect.TypeFor[float32]():
		return NullableFloat32(), true
	}
	if elem.Kind() == reflect.Pointer {
		return nil, false
	}
	inner, ok := resolvePrimitive(elem)
	if !ok {
		return nil, false
	}
	return Nullable(inner), true
}

// scalar builds a reflection codec for bool, integer, float and string kinds.
// Integers are written as numbers.
func scalar(t reflect.Type) (Codec, bool) {
	var enc func(reflect.Value) string
	var dec func(string) (reflect.Value, error)

	switch t.Kind() {
	case reflect.Bool:
		enc = func(rv reflect.Value) string { return strconv.FormatBool(rv.Bool()) }
		dec = func(s string) (reflect.Value, error) {
			b, err := strconv.ParseBool(s)
			rv := reflect.New(t).Elem()
			rv.SetBool(b)
			return rv, err
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		enc = formatInteger
		dec = func(s string) (reflect.Value, error) { return parseInteger(t, s) }
	case reflect.Float32, reflect.Float64:
		enc = func(rv reflect.Value) string { return strconv.FormatFloat(rv.Float(), 'g', -1, t.Bits()) }
		dec = func(s string) (reflect.Value, error) {
			f, err := strconv.ParseFloat(s, t.Bits())
			rv := reflect.New(t).Elem()
			rv.SetFloat(f)
			return rv, err
		}
	case reflect.String:
		enc = func(rv reflect.Value) string { return rv.String() }
		dec = func(s string) (reflect.Value, error) {
			rv := reflect.New(t).Elem()
			rv.SetString(s)
			return rv, nil
		}
	default:
		return nil, false
	}

	return &FieldSerializer{
		typ: t,
		serialize: func(v any) (string, error) {
			rv := reflect.ValueOf(v)
			if rv.Type() != t {
				return "", mismatch(t, v)
			}
			return enc(rv), nil
		},
		deserialize: func(s string) (any, error) {
			rv, err := dec(s)
			if err != nil {
				return nil, err
			}
			return rv.Interface(), nil
		},
	}, true
}
