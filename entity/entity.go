/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entity

import (
	"time"

	"github.com/suparena/tablekit/fieldcodec"
)

// AnyETag matches whatever version of an entity is stored.
const AnyETag = "*"

// TableEntity holds the system fields every stored entity carries. Embed it
// in entity structs.
type TableEntity struct {
	PartitionKey string    `table:"-" json:"PartitionKey"`
	RowKey       string    `table:"-" json:"RowKey"`
	ETag         string    `table:"-" json:"ETag,omitempty"`
	Timestamp    time.Time `table:"-" json:"Timestamp,omitempty"`
}

// Base returns the embedded system fields.
func (e *TableEntity) Base() *TableEntity { return e }

// Entity is implemented by any struct pointer embedding TableEntity.
type Entity interface {
	Base() *TableEntity
}

// BindingCacheUser lets an entity instance opt out of the schema cache.
// Entities that do not implement it use the cache.
type BindingCacheUser interface {
	UseBindingCache() bool
}

// CodecProvider lets an entity type supply its own field codecs instead of
// the serializer's resolver.
type CodecProvider interface {
	FieldCodecs() fieldcodec.Resolver
}
