/*
Package datastore defines the table abstraction tablekit's typed helpers are
built on.

A Table stores entity.Record values, addressed by partition and row key:

	type Table interface {
	    Insert(ctx, rec) (entity.Record, error)
	    InsertOrMerge(ctx, rec) (entity.Record, error)
	    InsertOrReplace(ctx, rec) (entity.Record, error)
	    Merge(ctx, rec) (entity.Record, error)
	    Replace(ctx, rec) (entity.Record, error)
	    Retrieve(ctx, pk, rk) (entity.Record, error)
	    Delete(ctx, pk, rk, etag) error
	    QueryPartition(ctx, q, opts...) <-chan storagemodels.StreamResult[entity.Record]
	}

Merge, Replace and Delete are conditional on the record's ETag. "*" matches
any stored version; a mismatch returns errors.ConditionFailedError and a
missing entity returns errors.NotFoundError.

Implementations:
  - ddb: Amazon DynamoDB, one item per record
  - mock: in-memory table with error injection, for tests
*/
package datastore
