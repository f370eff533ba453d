/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory datastore.Table for testing
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/suparena/tablekit/datastore"
	"github.com/suparena/tablekit/entity"
	"github.com/suparena/tablekit/errors"
	"github.com/suparena/tablekit/storagemodels"
)

type key struct {
	pk, rk string
}

// Table is an in-memory datastore.Table with merge, replace and ETag
// semantics matching the real backends.
type Table struct {
	mu   sync.RWMutex
	name string
	data map[key]entity.Record
	now  func() time.Time

	insertError   error
	mergeError    error
	replaceError  error
	retrieveError error
	deleteError   error
	queryError    error
}

var _ datastore.Table = (*Table)(nil)

// New creates an empty mock table
func New(name string) *Table {
	return &Table{
		name: name,
		data: make(map[key]entity.Record),
		now:  time.Now,
	}
}

// Opener returns a datastore.Opener that creates a fresh mock per name and
// hands out the same instance on later opens.
func Opener() datastore.Opener {
	var mu sync.Mutex
	tables := make(map[string]*Table)
	return func(_ context.Context, name string) (datastore.Table, error) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := tables[name]; ok {
			return t, nil
		}
		t := New(name)
		tables[name] = t
		return t, nil
	}
}

// WithClock sets the time source for record timestamps
func (m *Table) WithClock(now func() time.Time) *Table {
	m.now = now
	return m
}

// WithInsertError makes Insert, InsertOrMerge and InsertOrReplace fail
func (m *Table) WithInsertError(err error) *Table {
	m.insertError = err
	return m
}

// WithMergeError makes Merge fail
func (m *Table) WithMergeError(err error) *Table {
	m.mergeError = err
	return m
}

// WithReplaceError makes Replace fail
func (m *Table) WithReplaceError(err error) *Table {
	m.replaceError = err
	return m
}

// WithRetrieveError makes Retrieve fail
func (m *Table) WithRetrieveError(err error) *Table {
	m.retrieveError = err
	return m
}

// WithDeleteError makes Delete fail
func (m *Table) WithDeleteError(err error) *Table {
	m.deleteError = err
	return m
}

// WithQueryError makes QueryPartition deliver err and stop
func (m *Table) WithQueryError(err error) *Table {
	m.queryError = err
	return m
}

func (m *Table) Name() string { return m.name }

func (m *Table) Insert(ctx context.Context, rec entity.Record) (entity.Record, error) {
	if m.insertError != nil {
		return entity.Record{}, m.insertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{rec.PartitionKey, rec.RowKey}
	if _, exists := m.data[k]; exists {
		return entity.Record{}, errors.NewAlreadyExistsError("entity", rec.Key())
	}
	return m.store(k, rec.Properties.Clone()), nil
}

func (m *Table) InsertOrMerge(ctx context.Context, rec entity.Record) (entity.Record, error) {
	if m.insertError != nil {
		return entity.Record{}, m.insertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{rec.PartitionKey, rec.RowKey}
	props := rec.Properties.Clone()
	if cur, exists := m.data[k]; exists {
		props = datastore.MergeProperties(cur.Properties, rec.Properties)
	}
	return m.store(k, props), nil
}

func (m *Table) InsertOrReplace(ctx context.Context, rec entity.Record) (entity.Record, error) {
	if m.insertError != nil {
		return entity.Record{}, m.insertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store(key{rec.PartitionKey, rec.RowKey}, rec.Properties.Clone()), nil
}

func (m *Table) Merge(ctx context.Context, rec entity.Record) (entity.Record, error) {
	if m.mergeError != nil {
		return entity.Record{}, m.mergeError
	}
	if err := datastore.RequireETag("merge", rec.ETag); err != nil {
		return entity.Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{rec.PartitionKey, rec.RowKey}
	cur, err := m.current("merge", k, rec.ETag)
	if err != nil {
		return entity.Record{}, err
	}
	return m.store(k, datastore.MergeProperties(cur.Properties, rec.Properties)), nil
}

func (m *Table) Replace(ctx context.Context, rec entity.Record) (entity.Record, error) {
	if m.replaceError != nil {
		return entity.Record{}, m.replaceError
	}
	if err := datastore.RequireETag("replace", rec.ETag); err != nil {
		return entity.Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{rec.PartitionKey, rec.RowKey}
	if _, err := m.current("replace", k, rec.ETag); err != nil {
		return entity.Record{}, err
	}
	return m.store(k, rec.Properties.Clone()), nil
}

func (m *Table) Retrieve(ctx context.Context, partitionKey, rowKey string) (entity.Record, error) {
	if m.retrieveError != nil {
		return entity.Record{}, m.retrieveError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.data[key{partitionKey, rowKey}]
	if !exists {
		return entity.Record{}, errors.NewNotFoundError("entity", partitionKey+"/"+rowKey)
	}
	return copyRecord(rec), nil
}

func (m *Table) Delete(ctx context.Context, partitionKey, rowKey, etag string) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	if err := datastore.RequireETag("delete", etag); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{partitionKey, rowKey}
	if _, err := m.current("delete", k, etag); err != nil {
		return err
	}
	delete(m.data, k)
	return nil
}

// QueryPartition streams a snapshot of the partition taken when called.
func (m *Table) QueryPartition(ctx context.Context, q storagemodels.PartitionQuery, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[entity.Record] {
	o := storagemodels.Apply(opts...)
	out := make(chan storagemodels.StreamResult[entity.Record], o.BufferSize)

	records := m.snapshot(q)
	queryErr := m.queryError

	go func() {
		defer close(out)
		if queryErr != nil {
			select {
			case <-ctx.Done():
			case out <- storagemodels.StreamResult[entity.Record]{Error: queryErr}:
			}
			return
		}
		fetched := m.now()
		for i, rec := range records {
			res := storagemodels.StreamResult[entity.Record]{
				Item: rec,
				Meta: storagemodels.StreamMeta{Index: int64(i), PageNumber: 1, Timestamp: fetched},
			}
			select {
			case <-ctx.Done():
				return
			case out <- res:
			}
		}
	}()
	return out
}

func (m *Table) snapshot(q storagemodels.PartitionQuery) []entity.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []entity.Record
	for k, rec := range m.data {
		if k.pk == q.PartitionKey && strings.HasPrefix(k.rk, q.RowKeyPrefix) {
			records = append(records, copyRecord(rec))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if q.Descending {
			return records[i].RowKey > records[j].RowKey
		}
		return records[i].RowKey < records[j].RowKey
	})
	if q.Limit > 0 && len(records) > q.Limit {
		records = records[:q.Limit]
	}
	return records
}

// current returns the stored record for k if etag allows overwriting it.
// Callers hold the write lock.
func (m *Table) current(op string, k key, etag string) (entity.Record, error) {
	cur, exists := m.data[k]
	if !exists {
		return entity.Record{}, errors.NewNotFoundError("entity", k.pk+"/"+k.rk)
	}
	if !datastore.MatchETag(cur.ETag, etag) {
		return entity.Record{}, errors.NewConditionFailedError(op, fmt.Sprintf("etag %s does not match %s", etag, cur.ETag))
	}
	return cur, nil
}

// store writes a new version of k. Callers hold the write lock.
func (m *Table) store(k key, props entity.Properties) entity.Record {
	if props == nil {
		props = entity.Properties{}
	}
	rec := entity.Record{
		PartitionKey: k.pk,
		RowKey:       k.rk,
		ETag:         datastore.NewETag(),
		Timestamp:    m.now().UTC(),
		Properties:   props,
	}
	m.data[k] = rec
	return copyRecord(rec)
}

// Helper methods for testing

// Put stores rec as-is, keeping its ETag and Timestamp
func (m *Table) Put(rec entity.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Properties = rec.Properties.Clone()
	m.data[key{rec.PartitionKey, rec.RowKey}] = rec
}

// Records returns a copy of every stored record, ordered by key
func (m *Table) Records() []entity.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]entity.Record, 0, len(m.data))
	for _, rec := range m.data {
		out = append(out, copyRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Count returns the number of stored records
func (m *Table) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Clear removes all records
func (m *Table) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[key]entity.Record)
}

func copyRecord(rec entity.Record) entity.Record {
	rec.Properties = rec.Properties.Clone()
	return rec
}
