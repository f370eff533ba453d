/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entity

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/suparena/tablekit/errors"
	"github.com/suparena/tablekit/fieldcodec"
	"github.com/suparena/tablekit/schema"
)

var (
	stringType  = reflect.TypeFor[string]()
	bytesType   = reflect.TypeFor[[]byte]()
	boolType    = reflect.TypeFor[bool]()
	int32Type   = reflect.TypeFor[int32]()
	int64Type   = reflect.TypeFor[int64]()
	intType     = reflect.TypeFor[int]()
	float64Type = reflect.TypeFor[float64]()
	timeType    = reflect.TypeFor[time.Time]()
	uuidType    = reflect.TypeFor[uuid.UUID]()
)

// WriteNative maps the natively storable fields of the struct behind src to
// properties. Nil pointers and nil byte slices are omitted.
func WriteNative(src any) (Properties, error) {
	rv, err := structValue(src)
	if err != nil {
		return nil, err
	}
	fields, err := schema.Fields(rv.Type())
	if err != nil {
		return nil, err
	}

	props := make(Properties)
	for _, f := range fields {
		if !fieldcodec.IsNative(f.Type) {
			continue
		}
		fv := rv.FieldByIndex(f.Index)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		if p, ok := nativeProperty(fv); ok {
			props[f.Name] = p
		}
	}
	return props, nil
}

func nativeProperty(fv reflect.Value) (Property, bool) {
	switch fv.Type() {
	case stringType:
		return NewString(fv.String()), true
	case bytesType:
		if fv.IsNil() {
			return Property{}, false
		}
		return NewBinary(fv.Bytes()), true
	case boolType:
		return NewBoolean(fv.Bool()), true
	case int32Type:
		return NewInt32(int32(fv.Int())), true
	case int64Type, intType:
		return NewInt64(fv.Int()), true
	case float64Type:
		return NewDouble(fv.Float()), true
	case timeType:
		return NewDateTime(fv.Interface().(time.Time)), true
	case uuidType:
		return NewGUID(fv.Interface().(uuid.UUID)), true
	}
	return Property{}, false
}

// ReadNative fills the natively storable fields of the struct behind dst
// from props. Numeric kinds convert to the field width, and String
// properties are parsed for non-string fields. Missing properties leave the
// field untouched.
func ReadNative(dst any, props Properties) error {
	rv, err := structValue(dst)
	if err != nil {
		return err
	}
	if !rv.CanSet() {
		return errors.NewValidationError("entity", "must be a non-nil pointer to a struct")
	}
	fields, err := schema.Fields(rv.Type())
	if err != nil {
		return err
	}

	for _, f := range fields {
		if !fieldcodec.IsNative(f.Type) {
			continue
		}
		p, ok := props[f.Name]
		if !ok || p.Value == nil {
			continue
		}
		fv := rv.FieldByIndex(f.Index)
		target := fv
		if fv.Kind() == reflect.Pointer {
			target = reflect.New(fv.Type().Elem()).Elem()
		}
		if err := assignNative(target, p); err != nil {
			return errors.WithField(err, f.Name)
		}
		if fv.Kind() == reflect.Pointer {
			fv.Set(target.Addr())
		}
	}
	return nil
}

func assignNative(fv reflect.Value, p Property) error {
	switch fv.Type() {
	case stringType:
		s, ok := p.Value.(string)
		if !ok {
			return kindError(fv.Type(), p)
		}
		fv.SetString(s)

	case bytesType:
		b, ok := p.Value.([]byte)
		if !ok {
			return kindError(fv.Type(), p)
		}
		fv.SetBytes(b)

	case boolType:
		switch v := p.Value.(type) {
		case bool:
			fv.SetBool(v)
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.NewParseError("bool", v, err)
			}
			fv.SetBool(b)
		default:
			return kindError(fv.Type(), p)
		}

	case int32Type, int64Type, intType:
		n, err := toInt(p)
		if err != nil {
			return err
		}
		if fv.OverflowInt(n) {
			return errors.NewParseError(fv.Type().String(), fmt.Sprint(p.Value), strconv.ErrRange)
		}
		fv.SetInt(n)

	case float64Type:
		f, err := toFloat(p)
		if err != nil {
			return err
		}
		fv.SetFloat(f)

	case timeType:
		switch v := p.Value.(type) {
		case time.Time:
			fv.Set(reflect.ValueOf(v))
		case string:
			t, err := fieldcodec.ParseTime(v)
			if err != nil {
				return errors.NewParseError("time.Time", v, err)
			}
			fv.Set(reflect.ValueOf(t))
		default:
			return kindError(fv.Type(), p)
		}

	case uuidType:
		switch v := p.Value.(type) {
		case uuid.UUID:
			fv.Set(reflect.ValueOf(v))
		case string:
			id, err := uuid.Parse(v)
			if err != nil {
				return errors.NewParseError("uuid.UUID", v, err)
			}
			fv.Set(reflect.ValueOf(id))
		default:
			return kindError(fv.Type(), p)
		}
	}
	return nil
}

func toInt(p Property) (int64, error) {
	switch v := p.Value.(type) {
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 || v < math.MinInt64 {
			return 0, errors.NewParseError("integer", strconv.FormatFloat(v, 'g', -1, 64), strconv.ErrRange)
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, errors.NewParseError("integer", v, err)
		}
		return n, nil
	}
	return 0, kindError(int64Type, p)
}

func toFloat(p Property) (float64, error) {
	switch v := p.Value.(type) {
	case float64:
		return v, nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, errors.NewParseError("float64", v, err)
		}
		return f, nil
	}
	return 0, kindError(float64Type, p)
}

func kindError(t reflect.Type, p Property) error {
	return errors.NewParseError(t.String(), fmt.Sprint(p.Value), fmt.Errorf("stored kind is %s", p.Type))
}

func structValue(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, errors.NewValidationError("entity", "must not be nil")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, errors.NewValidationError("entity", fmt.Sprintf("%T is not a struct", v))
	}
	return rv, nil
}
