/*
Package registry keeps per-type key templates for entities whose
PartitionKey and RowKey are derived from their own fields.

	registry.RegisterKeyMap[Order](map[string]string{
	    "PartitionKey": "CUSTOMER#{CustomerID}",
	    "RowKey":       "ORDER#{OrderID}",
	})

	o := &Order{CustomerID: "42", OrderID: 7}
	err := registry.ApplyKeys[Order](o) // PartitionKey "CUSTOMER#42", RowKey "ORDER#7"

Macros name top-level fields (embedded fields included) and are rendered
from the field's attribute form, so strings, numbers and booleans work.

The registry is safe for concurrent use and is normally filled during
initialization.
*/
package registry
