/*
Package storagemodels holds the backend-neutral query and streaming types
shared by the table backends and the typed entity stores.

PartitionQuery selects one partition:

	q := storagemodels.PartitionQuery{
	    PartitionKey: "customer-1",
	    RowKeyPrefix: "order-",
	    Limit:        500,
	}

Streams deliver StreamResult values on a channel that is closed when the
partition is exhausted or the context is cancelled:

	for res := range orders.StreamPartition(ctx, q,
	    storagemodels.WithPageSize(25),
	    storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
	        log.Printf("%d items, %d pages", p.ItemsProcessed, p.PagesProcessed)
	    }),
	) {
	    if res.Error != nil {
	        return res.Error
	    }
	    handle(res.Item)
	}
*/
package storagemodels
