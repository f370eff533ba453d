/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/suparena/tablekit/errors"
	"github.com/suparena/tablekit/fieldcodec"
	"github.com/suparena/tablekit/metrics"
)

// Cache maps a struct type to its schema. Entries are never evicted.
type Cache struct {
	entries *xsync.MapOf[reflect.Type, *Schema]
	metrics *metrics.Metrics
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithMetrics reports hits and misses to m.
func WithMetrics(m *metrics.Metrics) CacheOption {
	return func(c *Cache) {
		c.metrics = m
	}
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{entries: xsync.NewMapOf[reflect.Type, *Schema]()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadOrScan returns the cached schema for t, scanning it with r on first
// use. Concurrent first uses of the same type scan once.
func (c *Cache) LoadOrScan(t reflect.Type, r fieldcodec.Resolver) (*Schema, error) {
	st, err := StructType(t)
	if err != nil {
		return nil, err
	}
	if s, ok := c.entries.Load(st); ok {
		c.metrics.CacheHit()
		return s, nil
	}

	var scanErr error
	s, loaded := c.entries.LoadOrTryCompute(st, func() (*Schema, bool) {
		s, err := Scan(st, r)
		if err != nil {
			scanErr = err
			return nil, true
		}
		return s, false
	})
	if scanErr != nil {
		return nil, scanErr
	}
	if loaded {
		c.metrics.CacheHit()
	} else {
		c.metrics.CacheMiss()
	}
	return s, nil
}

// Load returns the schema cached for t, if any.
func (c *Cache) Load(t reflect.Type) (*Schema, bool) {
	st, err := StructType(t)
	if err != nil {
		return nil, false
	}
	return c.entries.Load(st)
}

// Store installs s, replacing any scanned or declared schema for its type.
func (c *Cache) Store(s *Schema) error {
	if s == nil || s.Type == nil {
		return errors.NewValidationError("schema", "must not be nil")
	}
	c.entries.Store(s.Type, s)
	return nil
}

// Len is the number of cached types.
func (c *Cache) Len() int {
	return c.entries.Size()
}

// Range calls f for every cached schema until f returns false.
func (c *Cache) Range(f func(*Schema) bool) {
	c.entries.Range(func(_ reflect.Type, s *Schema) bool {
		return f(s)
	})
}
