/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// PartitionQuery selects the entities of one partition, optionally narrowed
// to row keys starting with RowKeyPrefix.
type PartitionQuery struct {
	PartitionKey string
	// RowKeyPrefix is optional.
	RowKeyPrefix string
	// Limit caps the total number of entities returned. Zero means no cap.
	Limit int
	// Descending walks row keys from high to low.
	Descending bool
}
