/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablekit

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/suparena/tablekit/datastore"
	"github.com/suparena/tablekit/entity"
	"github.com/suparena/tablekit/errors"
	"github.com/suparena/tablekit/registry"
	"github.com/suparena/tablekit/storagemodels"
)

// EntityStore reads and writes entities of type T in one table. *T must
// implement entity.Entity, normally by embedding entity.TableEntity.
type EntityStore[T any] struct {
	table      datastore.Table
	serializer *entity.Serializer
	logger     *slog.Logger
}

// StoreOption configures an EntityStore.
type StoreOption func(*storeConfig)

type storeConfig struct {
	logger *slog.Logger
}

// WithStoreLogger sets the logger of an EntityStore.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(c *storeConfig) {
		c.logger = l
	}
}

// NewEntityStore creates a store for T over table.
func NewEntityStore[T any](table datastore.Table, serializer *entity.Serializer, opts ...StoreOption) (*EntityStore[T], error) {
	if table == nil {
		return nil, errors.NewValidationError("table", "must not be nil")
	}
	if serializer == nil {
		return nil, errors.NewValidationError("serializer", "must not be nil")
	}
	if _, ok := any(new(T)).(entity.Entity); !ok {
		return nil, errors.NewValidationError("T", fmt.Sprintf("*%s does not implement entity.Entity", reflect.TypeFor[T]()))
	}

	cfg := storeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &EntityStore[T]{
		table:      table,
		serializer: serializer,
		logger:     cfg.logger.With(slog.String("table", table.Name())),
	}, nil
}

// Table returns the underlying table.
func (s *EntityStore[T]) Table() datastore.Table {
	return s.table
}

// InsertEntity inserts e. It fails with AlreadyExistsError when the key is taken.
func (s *EntityStore[T]) InsertEntity(ctx context.Context, e *T) error {
	return s.write(ctx, e, false, s.table.Insert)
}

// InsertOrMergeEntity inserts e or merges its non-nil fields into the
// stored entity.
func (s *EntityStore[T]) InsertOrMergeEntity(ctx context.Context, e *T) error {
	return s.write(ctx, e, false, s.table.InsertOrMerge)
}

// InsertOrReplaceEntity inserts e or replaces the stored entity.
func (s *EntityStore[T]) InsertOrReplaceEntity(ctx context.Context, e *T) error {
	return s.write(ctx, e, false, s.table.InsertOrReplace)
}

// MergeEntity merges e into the stored entity. An empty ETag matches any
// stored version.
func (s *EntityStore[T]) MergeEntity(ctx context.Context, e *T) error {
	return s.write(ctx, e, true, s.table.Merge)
}

// ReplaceEntity replaces the stored entity with e. An empty ETag matches any
// stored version.
func (s *EntityStore[T]) ReplaceEntity(ctx context.Context, e *T) error {
	return s.write(ctx, e, true, s.table.Replace)
}

// RetrieveEntity loads the entity with the given keys. It returns nil and
// no error when the entity does not exist.
func (s *EntityStore[T]) RetrieveEntity(ctx context.Context, partitionKey, rowKey string) (*T, error) {
	rec, err := s.table.Retrieve(ctx, partitionKey, rowKey)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return s.decode(rec)
}

// Retrieve reloads e by its own keys and reports whether it was found. e is
// left unchanged when it was not.
func (s *EntityStore[T]) Retrieve(ctx context.Context, e *T) (bool, error) {
	ent, err := s.entityOf(e)
	if err != nil {
		return false, err
	}
	base := ent.Base()
	rec, err := s.table.Retrieve(ctx, base.PartitionKey, base.RowKey)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	loaded, err := s.decode(rec)
	if err != nil {
		return false, err
	}
	*e = *loaded
	return true, nil
}

// DeleteEntity deletes e. An empty ETag matches any stored version.
func (s *EntityStore[T]) DeleteEntity(ctx context.Context, e *T) error {
	ent, err := s.entityOf(e)
	if err != nil {
		return err
	}
	base := ent.Base()
	etag := base.ETag
	if etag == "" {
		etag = entity.AnyETag
	}
	if err := s.table.Delete(ctx, base.PartitionKey, base.RowKey, etag); err != nil {
		return err
	}
	s.logger.Debug("entity deleted",
		slog.String("partitionKey", base.PartitionKey),
		slog.String("rowKey", base.RowKey))
	return nil
}

// StreamPartition streams the entities of one partition. Records that do
// not decode are delivered as errors and the stream continues.
func (s *EntityStore[T]) StreamPartition(ctx context.Context, q storagemodels.PartitionQuery, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[*T] {
	options := storagemodels.Apply(opts...)
	records := s.table.QueryPartition(ctx, q, opts...)
	out := make(chan storagemodels.StreamResult[*T], options.BufferSize)

	go func() {
		defer close(out)
		for res := range records {
			item := storagemodels.StreamResult[*T]{Error: res.Error, Meta: res.Meta}
			if res.Error == nil {
				item.Item, item.Error = s.decode(res.Item)
			}
			select {
			case out <- item:
			case <-ctx.Done():
				// drain so the producer can exit
				for range records {
				}
				return
			}
		}
	}()
	return out
}

func (s *EntityStore[T]) write(ctx context.Context, e *T, conditional bool, op func(context.Context, entity.Record) (entity.Record, error)) error {
	ent, err := s.entityOf(e)
	if err != nil {
		return err
	}
	if err := s.applyKeys(ent); err != nil {
		return err
	}
	rec, err := s.serializer.Write(ent)
	if err != nil {
		return err
	}
	if conditional && rec.ETag == "" {
		rec.ETag = entity.AnyETag
	}

	stored, err := op(ctx, rec)
	if err != nil {
		return err
	}
	base := ent.Base()
	base.ETag = stored.ETag
	base.Timestamp = stored.Timestamp
	return nil
}

func (s *EntityStore[T]) applyKeys(ent entity.Entity) error {
	base := ent.Base()
	if base.PartitionKey != "" && base.RowKey != "" {
		return nil
	}
	err := registry.ApplyKeys[T](ent)
	if stderrors.Is(err, errors.ErrNoKeyMap) {
		return nil
	}
	return err
}

func (s *EntityStore[T]) decode(rec entity.Record) (*T, error) {
	out := new(T)
	if err := s.serializer.Read(any(out).(entity.Entity), rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", rec.Key(), err)
	}
	return out, nil
}

func (s *EntityStore[T]) entityOf(e *T) (entity.Entity, error) {
	if e == nil {
		return nil, errors.NewValidationError("entity", "must not be nil")
	}
	return any(e).(entity.Entity), nil
}
