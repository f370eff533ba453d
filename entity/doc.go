/*
Package entity maps Go structs to the property records a table store holds.

An entity is a struct that embeds TableEntity:

	type Order struct {
	    entity.TableEntity
	    Customer string
	    Total    decimal.Decimal
	    Rating   *int16
	    Status   Status // named integer with MarshalText
	}

Fields of kinds the store understands (string, []byte, bool, int32, int64,
int, float64, time.Time, uuid.UUID and pointers to them) are mapped
natively. Every other field that the Serializer's resolver knows is written
as a String property through its fieldcodec.Codec:

	ser, _ := entity.NewSerializer(fieldcodec.Primitives)
	rec, err := ser.Write(&order)
	err = ser.Read(&copy, rec)

On write, a nil value is omitted from the record, so a merge leaves the
stored value alone while a replace clears it. On read, properties that are
missing or not String-kinded are skipped, and "" sets the field's zero value.

An entity can opt out of the schema cache by implementing BindingCacheUser,
or bring its own codecs by implementing CodecProvider.
*/
package entity
