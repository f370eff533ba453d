/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/google/uuid"

	"github.com/suparena/tablekit/entity"
	"github.com/suparena/tablekit/errors"
	"github.com/suparena/tablekit/storagemodels"
)

// Table is one table of a key/property store. Writes return the record as
// stored, with its new ETag and Timestamp.
type Table interface {
	Name() string

	// Insert fails with AlreadyExistsError when the key is taken.
	Insert(ctx context.Context, rec entity.Record) (entity.Record, error)

	// InsertOrMerge inserts, or updates only the supplied properties.
	InsertOrMerge(ctx context.Context, rec entity.Record) (entity.Record, error)

	// InsertOrReplace inserts, or overwrites the whole entity.
	InsertOrReplace(ctx context.Context, rec entity.Record) (entity.Record, error)

	// Merge updates the supplied properties of an existing entity whose
	// ETag matches rec.ETag.
	Merge(ctx context.Context, rec entity.Record) (entity.Record, error)

	// Replace overwrites an existing entity whose ETag matches rec.ETag.
	// Properties not in rec are removed.
	Replace(ctx context.Context, rec entity.Record) (entity.Record, error)

	// Retrieve fails with NotFoundError when the key does not exist.
	Retrieve(ctx context.Context, partitionKey, rowKey string) (entity.Record, error)

	Delete(ctx context.Context, partitionKey, rowKey, etag string) error

	// QueryPartition streams the records of one partition in row key order.
	// The channel is closed when the query ends.
	QueryPartition(ctx context.Context, q storagemodels.PartitionQuery, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[entity.Record]
}

// Opener opens a table by name.
type Opener func(ctx context.Context, name string) (Table, error)

// NewETag returns a fresh opaque entity version.
func NewETag() string {
	return `W/"` + uuid.NewString() + `"`
}

// MatchETag reports whether a conditional write expecting expected may
// overwrite the version current.
func MatchETag(current, expected string) bool {
	return expected == entity.AnyETag || expected == current
}

// RequireETag rejects the empty ETag on conditional operations.
func RequireETag(op, etag string) error {
	if etag == "" {
		return errors.NewValidationError("etag", op+" requires an ETag, use \"*\" to match any version")
	}
	return nil
}

// MergeProperties applies the properties of patch on top of base.
func MergeProperties(base, patch entity.Properties) entity.Properties {
	out := base.Clone()
	if out == nil {
		out = make(entity.Properties, len(patch))
	}
	for k, v := range patch.Clone() {
		out[k] = v
	}
	return out
}
