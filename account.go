/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablekit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"

	"github.com/suparena/tablekit/blob"
	"github.com/suparena/tablekit/datastore"
	"github.com/suparena/tablekit/entity"
	"github.com/suparena/tablekit/errors"
	"github.com/suparena/tablekit/fieldcodec"
)

// Account gives access to the tables and blobs of one storage account.
// Tables and entity stores are opened once and shared; it is safe for
// concurrent use.
type Account struct {
	open       datastore.Opener
	blobs      *blob.Client
	serializer *entity.Serializer
	logger     *slog.Logger
	stores     *entityStores

	mu     sync.Mutex
	tables map[string]datastore.Table
}

// AccountOption configures an Account.
type AccountOption func(*Account)

// WithBlobs attaches a blob client.
func WithBlobs(c *blob.Client) AccountOption {
	return func(a *Account) {
		a.blobs = c
	}
}

// WithSerializer sets the serializer shared by the account's entity stores.
func WithSerializer(s *entity.Serializer) AccountOption {
	return func(a *Account) {
		a.serializer = s
	}
}

// WithAccountLogger sets the account logger.
func WithAccountLogger(l *slog.Logger) AccountOption {
	return func(a *Account) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAccount creates an Account opening tables with open. Without
// WithSerializer, entities are serialized with fieldcodec.Primitives.
func NewAccount(open datastore.Opener, opts ...AccountOption) (*Account, error) {
	if open == nil {
		return nil, errors.NewValidationError("opener", "must not be nil")
	}
	a := &Account{
		open:   open,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tables: make(map[string]datastore.Table),
		stores: newEntityStores(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.serializer == nil {
		s, err := entity.NewSerializer(fieldcodec.Primitives, entity.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
		a.serializer = s
	}
	return a, nil
}

// Table opens the named table, or returns the one already open.
func (a *Account) Table(ctx context.Context, name string) (datastore.Table, error) {
	if name == "" {
		return nil, errors.NewValidationError("table", "empty string is not allowed")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if t, ok := a.tables[name]; ok {
		return t, nil
	}
	t, err := a.open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open table %q: %w", name, err)
	}
	a.tables[name] = t
	a.logger.Debug("table opened", slog.String("table", name))
	return t, nil
}

// Tables returns the names of the open tables.
func (a *Account) Tables() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.tables))
	for name := range a.tables {
		names = append(names, name)
	}
	return names
}

// Blobs returns the blob client, or nil when none was configured.
func (a *Account) Blobs() *blob.Client {
	return a.blobs
}

// Serializer returns the account's entity serializer.
func (a *Account) Serializer() *entity.Serializer {
	return a.serializer
}

// OpenEntityStore returns the EntityStore for T over the named table,
// opening it on first use. Later calls for the same T and table return the
// same store.
func OpenEntityStore[T any](ctx context.Context, a *Account, table string) (*EntityStore[T], error) {
	store, loaded, err := storesOf[T](a.stores).loadOrOpen(table, func() (*EntityStore[T], error) {
		t, err := a.Table(ctx, table)
		if err != nil {
			return nil, err
		}
		return NewEntityStore[T](t, a.serializer, WithStoreLogger(a.logger))
	})
	if err != nil {
		return nil, err
	}
	if !loaded {
		a.logger.Debug("entity store opened",
			slog.String("table", table),
			slog.String("type", reflect.TypeFor[T]().String()))
	}
	return store, nil
}

// EntityStores lists, in order, the tables with an open EntityStore for T.
func EntityStores[T any](a *Account) []string {
	return storesOf[T](a.stores).tables()
}

// ForgetEntityStore drops the EntityStore for T over table so the next
// OpenEntityStore builds a new one. The table itself stays open. It reports
// whether a store was dropped.
func ForgetEntityStore[T any](a *Account, table string) bool {
	return storesOf[T](a.stores).forget(table)
}
