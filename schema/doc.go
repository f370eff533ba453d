/*
Package schema finds the struct fields of an entity type that need a
fieldcodec, and caches the result per type.

A Schema lists one Binding per field, in declaration order:

	s, err := schema.Scan(reflect.TypeFor[Order](), fieldcodec.Primitives)
	for _, b := range s.Bindings {
	    fmt.Println(b.Name, b.Type, b.Codec.Type())
	}

Fields are named by their Go name, or by a `table:"Name"` tag. A `table:"-"`
tag skips the field.

Scanning is reflective and repeated on every call unless a Cache is used.
The Cache is safe for concurrent use; readers never block and scans of
unrelated types run in parallel. Entries live as long as the cache.

Instead of scanning, a schema can be declared up front:

	s, err := schema.Declare(reflect.TypeFor[Order]()).
	    Field("Total", fieldcodec.Decimal()).
	    Field("Rating", fieldcodec.NullableInt16()).
	    Build()
	cache.Store(s)
*/
package schema
