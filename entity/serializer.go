/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entity

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/suparena/tablekit/errors"
	"github.com/suparena/tablekit/fieldcodec"
	"github.com/suparena/tablekit/schema"
)

// Serializer turns entities into records and back. Native fields are
// mapped first; fields with a codec are then stored as strings.
type Serializer struct {
	resolver fieldcodec.Resolver
	cache    *schema.Cache
	logger   *slog.Logger
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithCache shares c between serializers. The cache must only be shared by
// serializers with the same resolver.
func WithCache(c *schema.Cache) Option {
	return func(s *Serializer) {
		s.cache = c
	}
}

// WithoutCache scans entity types on every call.
func WithoutCache() Option {
	return func(s *Serializer) {
		s.cache = nil
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Serializer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSerializer creates a Serializer resolving field codecs with r. It owns
// a fresh schema cache unless WithCache or WithoutCache is given.
func NewSerializer(r fieldcodec.Resolver, opts ...Option) (*Serializer, error) {
	if r == nil {
		return nil, errors.NewValidationError("resolver", "must not be nil")
	}
	s := &Serializer{
		resolver: r,
		cache:    schema.NewCache(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Schema returns the bindings the serializer applies to e.
func (s *Serializer) Schema(e Entity) (*schema.Schema, error) {
	if e == nil {
		return nil, errors.NewValidationError("entity", "must not be nil")
	}
	return s.schemaFor(e, reflect.TypeOf(e))
}

func (s *Serializer) schemaFor(e any, t reflect.Type) (*schema.Schema, error) {
	r := s.resolver
	if cp, ok := e.(CodecProvider); ok {
		if own := cp.FieldCodecs(); own != nil {
			r = own
		}
	}
	useCache := s.cache != nil
	if u, ok := e.(BindingCacheUser); ok && !u.UseBindingCache() {
		useCache = false
	}
	if useCache {
		return s.cache.LoadOrScan(t, r)
	}
	return schema.Scan(t, r)
}

// Write converts src into a record. Fields already written natively are not
// written again, and nil values are omitted rather than stored as "".
func (s *Serializer) Write(src Entity) (Record, error) {
	rv, err := entityValue(src)
	if err != nil {
		return Record{}, err
	}
	props, err := WriteNative(src)
	if err != nil {
		return Record{}, err
	}
	sch, err := s.schemaFor(src, rv.Type())
	if err != nil {
		return Record{}, err
	}

	for _, b := range sch.Bindings {
		if _, done := props[b.Name]; done {
			continue
		}
		fv := rv.FieldByIndex(b.Index)
		if fv.Kind() == reflect.Pointer && fv.IsNil() {
			continue
		}
		str, err := b.Codec.Serialize(fv.Interface())
		if err != nil {
			return Record{}, fmt.Errorf("serialize field %s: %w", b.Name, err)
		}
		props[b.Name] = NewString(str)
	}

	base := src.Base()
	return Record{
		PartitionKey: base.PartitionKey,
		RowKey:       base.RowKey,
		ETag:         base.ETag,
		Timestamp:    base.Timestamp,
		Properties:   props,
	}, nil
}

// Read fills dst from rec. Bound fields missing from the record, or stored
// with a non-string kind, are left alone; an empty string sets the zero
// value. A value that does not decode fails the read with a ParseError.
func (s *Serializer) Read(dst Entity, rec Record) error {
	rv, err := entityValue(dst)
	if err != nil {
		return err
	}

	base := dst.Base()
	base.PartitionKey = rec.PartitionKey
	base.RowKey = rec.RowKey
	base.ETag = rec.ETag
	base.Timestamp = rec.Timestamp

	if err := ReadNative(dst, rec.Properties); err != nil {
		return err
	}
	sch, err := s.schemaFor(dst, rv.Type())
	if err != nil {
		return err
	}

	for _, b := range sch.Bindings {
		p, ok := rec.Properties[b.Name]
		if !ok {
			continue
		}
		str, ok := p.StringValue()
		if !ok {
			s.logger.Debug("property kind is not string, leaving it to native mapping",
				slog.String("property", b.Name),
				slog.String("kind", p.Type.String()))
			continue
		}
		fv := rv.FieldByIndex(b.Index)
		if str == "" {
			fv.SetZero()
			continue
		}
		v, err := b.Codec.Deserialize(str)
		if err != nil {
			return errors.WithField(err, b.Name)
		}
		if err := assign(fv, v); err != nil {
			return fmt.Errorf("field %s: %w", b.Name, err)
		}
	}
	return nil
}

func assign(fv reflect.Value, v any) error {
	if v == nil {
		fv.SetZero()
		return nil
	}
	val := reflect.ValueOf(v)
	switch {
	case val.Type().AssignableTo(fv.Type()):
		fv.Set(val)
	case fv.Kind() == reflect.Pointer && val.Type().AssignableTo(fv.Type().Elem()):
		p := reflect.New(fv.Type().Elem())
		p.Elem().Set(val)
		fv.Set(p)
	default:
		return errors.NewValidationError("codec", fmt.Sprintf("decoded %s cannot be stored in %s", val.Type(), fv.Type()))
	}
	return nil
}

func entityValue(e Entity) (reflect.Value, error) {
	if e == nil {
		return reflect.Value{}, errors.NewValidationError("entity", "must not be nil")
	}
	rv := reflect.ValueOf(e)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, errors.NewValidationError("entity", "must be a non-nil pointer")
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, errors.NewValidationError("entity", fmt.Sprintf("%T does not point to a struct", e))
	}
	return rv, nil
}
