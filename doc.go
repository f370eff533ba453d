/*
Package tablekit is a convenience layer over cloud table and blob storage.

Entities are plain structs embedding entity.TableEntity. Fields of the
kinds a table stores natively (strings, bytes, booleans, 32 and 64-bit
integers, doubles, times and UUIDs) are written as they are; other
primitives such as decimals, enums, int16 or float32 are turned into
strings by the field codecs of package fieldcodec.

Basic Usage:

	type Order struct {
	    entity.TableEntity
	    Total  decimal.Decimal
	    Status Status
	    Due    *time.Time
	}

	account, _ := tablekit.NewAccount(ddb.Opener(client))
	orders, _ := tablekit.OpenEntityStore[Order](ctx, account, "orders")

	o := &Order{Total: decimal.RequireFromString("1.56")}
	o.PartitionKey, o.RowKey = "customer-42", "order-7"
	err := orders.InsertEntity(ctx, o)       // o.ETag is set on success
	o.Total = decimal.RequireFromString("2")
	err = orders.MergeEntity(ctx, o)          // conditional on o.ETag
	got, err := orders.RetrieveEntity(ctx, "customer-42", "order-7") // nil when absent

Merge, replace and delete use the entity's ETag; an empty ETag matches any
stored version. An Account keeps one entity store per entity type and table,
so repeated OpenEntityStore calls share it.

Blob uploads and deletes live in package blob and are reachable through
Account.Blobs.
*/
package tablekit
