/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fieldcodec

import (
	"fmt"
	"reflect"

	"github.com/suparena/tablekit/errors"
)

// Resolver finds the codec for a declared field type.
type Resolver interface {
	Resolve(t reflect.Type) (Codec, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(t reflect.Type) (Codec, bool)

func (f ResolverFunc) Resolve(t reflect.Type) (Codec, bool) { return f(t) }

// Registry is an immutable set of codecs keyed by exact type.
type Registry struct {
	codecs map[reflect.Type]Codec
	order  []reflect.Type
}

// NewRegistry builds a Registry. Nil codecs and duplicate types are rejected.
func NewRegistry(codecs ...Codec) (*Registry, error) {
	r := &Registry{codecs: make(map[reflect.Type]Codec, len(codecs))}
	for i, c := range codecs {
		if c == nil || c.Type() == nil {
			return nil, errors.NewValidationError("codecs", fmt.Sprintf("codec %d is nil", i))
		}
		t := c.Type()
		if _, dup := r.codecs[t]; dup {
			return nil, errors.NewValidationError("codecs", "duplicate codec for "+t.String())
		}
		r.codecs[t] = c
		r.order = append(r.order, t)
	}
	return r, nil
}

// MustRegistry is NewRegistry that panics on error, for package-level vars.
func MustRegistry(codecs ...Codec) *Registry {
	r, err := NewRegistry(codecs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the codec registered for exactly t.
func (r *Registry) Lookup(t reflect.Type) (Codec, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.codecs[t]
	return c, ok
}

// Resolve implements Resolver with exact type matching.
func (r *Registry) Resolve(t reflect.Type) (Codec, bool) {
	return r.Lookup(t)
}

// Types lists the registered types in registration order.
func (r *Registry) Types() []reflect.Type {
	if r == nil {
		return nil
	}
	return append([]reflect.Type(nil), r.order...)
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

type chain []Resolver

func (c chain) Resolve(t reflect.Type) (Codec, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}
		if codec, ok := r.Resolve(t); ok {
			return codec, true
		}
	}
	return nil, false
}

// Chain tries each resolver in order and returns the first match.
func Chain(resolvers ...Resolver) Resolver {
	return chain(resolvers)
}
