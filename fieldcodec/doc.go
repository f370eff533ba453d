/*
Package fieldcodec converts field types that a table store cannot hold
natively into the string property kind, and back.

A Codec is a (type, serialize, deserialize) triple. Codecs are grouped into an
immutable Registry keyed by exact reflect.Type, or resolved on the fly by the
Primitives resolver, which recognises odd integer widths, float32, decimals,
text-marshalling enums and pointer (nullable) wrappers. Plain named integer
types (type Color int) are not picked up; give them an Enum codec.

Basic usage:

	reg, err := fieldcodec.NewRegistry(
	    fieldcodec.Decimal(),
	    fieldcodec.NullableInt16(),
	)

	s, _ := fieldcodec.Decimal().Serialize(decimal.RequireFromString("1.56")) // "1.56"

Conventions shared by every codec:

  - the empty string means "no value": Deserialize("") returns nil
  - Serialize(nil) and Serialize of a nil pointer return ""
  - numbers are formatted with strconv, never with a locale
  - times use time.RFC3339Nano
  - enums encode by symbolic name and decode by name or by number

Stored strings that do not decode return an errors.ParseError.
*/
package fieldcodec
