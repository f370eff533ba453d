/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablekit

import (
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// entityStores holds the entity stores an Account has opened, one storeSet
// per entity type.
type entityStores struct {
	sets *xsync.MapOf[reflect.Type, any]
}

func newEntityStores() *entityStores {
	return &entityStores{sets: xsync.NewMapOf[reflect.Type, any]()}
}

// storeSet keeps the stores of entity type T by table name.
type storeSet[T any] struct {
	mu      sync.Mutex
	byTable map[string]*EntityStore[T]
}

func storesOf[T any](s *entityStores) *storeSet[T] {
	set, _ := s.sets.LoadOrCompute(reflect.TypeFor[T](), func() any {
		return &storeSet[T]{byTable: make(map[string]*EntityStore[T])}
	})
	return set.(*storeSet[T])
}

// loadOrOpen returns the store kept for table, or calls open and keeps the
// result. Concurrent callers for the same table get the same store. A failed
// open keeps nothing.
func (s *storeSet[T]) loadOrOpen(table string, open func() (*EntityStore[T], error)) (store *EntityStore[T], loaded bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.byTable[table]; ok {
		return store, true, nil
	}
	store, err = open()
	if err != nil {
		return nil, false, err
	}
	s.byTable[table] = store
	return store, false, nil
}

func (s *storeSet[T]) forget(table string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.byTable[table]
	delete(s.byTable, table)
	return ok
}

func (s *storeSet[T]) tables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.byTable))
}
