/*
Package ddb implements datastore.Table on Amazon DynamoDB.

Each record is one item. The key attributes are PK (partition key) and SK
(row key); the record's ETag and timestamp live in the _etag and _ts
attributes. Property names starting with "_" are reserved.

Property kinds map to attribute types as follows:

	String, DateTime, GUID  -> S
	Binary                  -> B
	Boolean                 -> BOOL
	Int32, Int64, Double    -> N

Numbers read back as Int64 when integral and as Double otherwise; dates and
GUIDs read back as String. The entity package converts them to the field
types on read.

Conditional writes:

	Insert          PutItem      attribute_not_exists(PK)
	Replace         PutItem      attribute_exists(PK) [AND _etag = :etag]
	Merge           UpdateItem   attribute_exists(PK) [AND _etag = :etag]
	Delete          DeleteItem   attribute_exists(PK) [AND _etag = :etag]
	InsertOrMerge   UpdateItem   none
	InsertOrReplace PutItem      none

The ETag clause is left out for "*". Failed conditions are classified with
the old item DynamoDB returns, so a missing entity reports NotFoundError and
a stale ETag reports ConditionFailedError.

Partition queries stream through QueryPartition with the options in
storagemodels:

	for res := range table.QueryPartition(ctx, storagemodels.PartitionQuery{PartitionKey: "customer-1"},
	    storagemodels.WithPageSize(25),
	    storagemodels.WithMaxRetries(3),
	) {
	    ...
	}
*/
package ddb
