/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entity

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/tablekit/errors"
	"github.com/suparena/tablekit/fieldcodec"
	"github.com/suparena/tablekit/schema"
)

type Status int32

const (
	Pending Status = iota
	Shipped
	Cancelled
)

var statusNames = map[Status]string{Pending: "Pending", Shipped: "Shipped", Cancelled: "Cancelled"}

func (s Status) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown status %d", int32(s))
	}
	return []byte(name), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for v, name := range statusNames {
		if name == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

type order struct {
	TableEntity
	Customer  string
	Count     int32
	Placed    time.Time
	Ref       uuid.UUID
	Note      *string
	Total     decimal.Decimal
	Discount  *decimal.Decimal
	Rating    *int16
	Small     int16
	Flags     uint8
	Weight    float32
	Status    Status
	Next      *Status
	Shipped   *strfmt.DateTime
	Seen      *time.Time
	Confirmed *bool
	Ignored   int16 `table:"-"`
}

func newSerializer(t *testing.T, opts ...Option) *Serializer {
	t.Helper()
	s, err := NewSerializer(fieldcodec.Primitives, opts...)
	require.NoError(t, err)
	return s
}

func fullOrder() *order {
	d := decimal.RequireFromString("1.56")
	r := int16(-7)
	next := Cancelled
	shipped := strfmt.DateTime(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	seen := time.Date(2024, 5, 2, 11, 30, 0, 500, time.UTC)
	yes := true
	note := "leave at door"
	return &order{
		TableEntity: TableEntity{PartitionKey: "cust-1", RowKey: "order-1"},
		Customer:    "ada",
		Count:       3,
		Placed:      time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC),
		Ref:         uuid.MustParse("0b6f3e62-5d3a-4c1a-9d55-2d4f0c4b8a11"),
		Note:        &note,
		Total:       decimal.RequireFromString("99.90"),
		Discount:    &d,
		Rating:      &r,
		Small:       12,
		Flags:       200,
		Weight:      2.5,
		Status:      Shipped,
		Next:        &next,
		Shipped:     &shipped,
		Seen:        &seen,
		Confirmed:   &yes,
		Ignored:     5,
	}
}

func TestWriteProperties(t *testing.T) {
	s := newSerializer(t)
	rec, err := s.Write(fullOrder())
	require.NoError(t, err)

	assert.Equal(t, "cust-1", rec.PartitionKey)
	assert.Equal(t, "order-1", rec.RowKey)

	p := rec.Properties
	assert.Equal(t, NewString("ada"), p["Customer"])
	assert.Equal(t, NewInt32(3), p["Count"])
	assert.Equal(t, DateTime, p["Placed"].Type)
	assert.Equal(t, GUID, p["Ref"].Type)
	assert.Equal(t, NewString("leave at door"), p["Note"])
	assert.Equal(t, NewString("99.9"), p["Total"])
	assert.Equal(t, NewString("1.56"), p["Discount"])
	assert.Equal(t, NewString("-7"), p["Rating"])
	assert.Equal(t, NewString("12"), p["Small"])
	assert.Equal(t, NewString("200"), p["Flags"])
	assert.Equal(t, NewString("2.5"), p["Weight"])
	assert.Equal(t, NewString("Shipped"), p["Status"])
	assert.Equal(t, NewString("Cancelled"), p["Next"])
	assert.Equal(t, DateTime, p["Seen"].Type, "pointers to native kinds stay native")
	assert.Equal(t, NewBoolean(true), p["Confirmed"])

	_, ok := p["Ignored"]
	assert.False(t, ok)
	for _, sys := range []string{"PartitionKey", "RowKey", "ETag", "Timestamp"} {
		_, ok := p[sys]
		assert.False(t, ok, sys)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newSerializer(t)
	in := fullOrder()
	rec, err := s.Write(in)
	require.NoError(t, err)
	rec.ETag = "v1"

	var out order
	require.NoError(t, s.Read(&out, rec))

	assert.Equal(t, "v1", out.ETag)
	assert.Equal(t, in.Customer, out.Customer)
	assert.Equal(t, in.Count, out.Count)
	assert.True(t, in.Placed.Equal(out.Placed))
	assert.Equal(t, in.Ref, out.Ref)
	assert.Equal(t, in.Note, out.Note)
	assert.True(t, in.Total.Equal(out.Total))
	require.NotNil(t, out.Discount)
	assert.True(t, in.Discount.Equal(*out.Discount))
	assert.Equal(t, in.Rating, out.Rating)
	assert.Equal(t, in.Small, out.Small)
	assert.Equal(t, in.Flags, out.Flags)
	assert.Equal(t, in.Weight, out.Weight)
	assert.Equal(t, in.Status, out.Status)
	assert.Equal(t, in.Next, out.Next)
	require.NotNil(t, out.Shipped)
	assert.True(t, time.Time(*in.Shipped).Equal(time.Time(*out.Shipped)))
	require.NotNil(t, out.Seen)
	assert.True(t, in.Seen.Equal(*out.Seen))
	assert.Equal(t, in.Confirmed, out.Confirmed)
	assert.Zero(t, out.Ignored)

	// writing what was read yields the same record
	again, err := s.Write(&out)
	require.NoError(t, err)
	for name, p := range rec.Properties {
		assert.True(t, p.Equal(again.Properties[name]), name)
	}
	assert.Len(t, again.Properties, len(rec.Properties))
}

func TestWriteOmitsNil(t *testing.T) {
	s := newSerializer(t)
	rec, err := s.Write(&order{TableEntity: TableEntity{PartitionKey: "p", RowKey: "r"}})
	require.NoError(t, err)

	for _, name := range []string{"Note", "Discount", "Rating", "Next", "Shipped", "Seen", "Confirmed"} {
		_, ok := rec.Properties[name]
		assert.False(t, ok, "%s should be omitted", name)
	}
	// non-nullable custom fields are always written
	assert.Equal(t, NewString("0"), rec.Properties["Total"])
	assert.Equal(t, NewString("Pending"), rec.Properties["Status"])

	var out order
	require.NoError(t, s.Read(&out, rec))
	assert.Nil(t, out.Rating)
	assert.Nil(t, out.Discount)
}

func TestReadEmptyStringSetsZero(t *testing.T) {
	s := newSerializer(t)
	out := fullOrder()

	rec := Record{Properties: Properties{
		"Rating":   NewString(""),
		"Discount": NewString(""),
		"Small":    NewString(""),
		"Status":   NewString(""),
	}}
	require.NoError(t, s.Read(out, rec))

	assert.Nil(t, out.Rating)
	assert.Nil(t, out.Discount)
	assert.Zero(t, out.Small)
	assert.Equal(t, Pending, out.Status)
	assert.NotNil(t, out.Next, "absent properties leave fields alone")
}

func TestReadSkipsNonStringKinds(t *testing.T) {
	s := newSerializer(t)
	r := int16(4)
	out := &order{Rating: &r}

	rec := Record{Properties: Properties{"Rating": NewInt32(9)}}
	require.NoError(t, s.Read(out, rec))
	assert.Equal(t, int16(4), *out.Rating)
}

func TestReadParseError(t *testing.T) {
	s := newSerializer(t)

	tests := []struct {
		name  string
		prop  string
		value string
	}{
		{"unknown enum name", "Status", "Lost"},
		{"nullable enum", "Next", "Lost"},
		{"int16 overflow", "Small", "70000"},
		{"decimal", "Total", "12,5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out order
			err := s.Read(&out, Record{Properties: Properties{tt.prop: NewString(tt.value)}})
			require.Error(t, err)
			assert.True(t, errors.IsParseError(err))

			var pe *errors.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.prop, pe.Field)
			assert.Equal(t, tt.value, pe.Value)
		})
	}
}

func TestNilEntity(t *testing.T) {
	s := newSerializer(t)

	_, err := s.Write(nil)
	assert.True(t, errors.IsValidationError(err))

	var o *order
	_, err = s.Write(o)
	assert.True(t, errors.IsValidationError(err))
	assert.True(t, errors.IsValidationError(s.Read(o, Record{})))

	_, err = NewSerializer(nil)
	assert.True(t, errors.IsValidationError(err))
}

type uncached struct {
	TableEntity
	Amount decimal.Decimal
	Level  *int16
}

func (uncached) UseBindingCache() bool { return false }

func TestCacheOptOut(t *testing.T) {
	cache := schema.NewCache()
	s := newSerializer(t, WithCache(cache))

	lvl := int16(2)
	rec, err := s.Write(&uncached{Amount: decimal.NewFromInt(5), Level: &lvl})
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())

	var out uncached
	require.NoError(t, s.Read(&out, rec))
	assert.Equal(t, int16(2), *out.Level)
	assert.Equal(t, 0, cache.Len())

	_, err = s.Write(fullOrder())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())
}

// normalize puts times in UTC and decimals in canonical form so equal values
// compare equal field by field.
func normalize(o *order) {
	o.Placed = o.Placed.UTC()
	o.Timestamp = o.Timestamp.UTC()
	o.Total = decimal.RequireFromString(o.Total.String())
	if o.Discount != nil {
		d := decimal.RequireFromString(o.Discount.String())
		o.Discount = &d
	}
	if o.Shipped != nil {
		dt := strfmt.DateTime(time.Time(*o.Shipped).UTC())
		o.Shipped = &dt
	}
	if o.Seen != nil {
		seen := o.Seen.UTC()
		o.Seen = &seen
	}
}

func TestCacheOnOffEquivalence(t *testing.T) {
	cached := newSerializer(t)
	uncachedSer := newSerializer(t, WithoutCache())

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o := fullOrder()
			o.Count = int32(i)
			small := int16(i)
			o.Rating = &small

			a, err := cached.Write(o)
			if err != nil {
				errs <- err
				return
			}
			b, err := uncachedSer.Write(o)
			if err != nil {
				errs <- err
				return
			}
			if len(a.Properties) != len(b.Properties) {
				errs <- fmt.Errorf("instance %d: property count differs", i)
				return
			}
			for name, p := range a.Properties {
				if !p.Equal(b.Properties[name]) {
					errs <- fmt.Errorf("instance %d: %s differs", i, name)
					return
				}
			}

			var x, y order
			if err := cached.Read(&x, a); err != nil {
				errs <- err
				return
			}
			if err := uncachedSer.Read(&y, a); err != nil {
				errs <- err
				return
			}
			want := *o
			want.Ignored = 0
			normalize(&want)
			normalize(&x)
			normalize(&y)
			if !assert.ObjectsAreEqual(x, y) {
				errs <- fmt.Errorf("instance %d: read results differ:\n%+v\n%+v", i, x, y)
				return
			}
			if !assert.ObjectsAreEqual(want, x) {
				errs <- fmt.Errorf("instance %d: read does not match written:\n%+v\n%+v", i, want, x)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

type explicit struct {
	TableEntity
	Price decimal.Decimal
	Stock int16
	Count *int32
}

var explicitCodecs = fieldcodec.MustRegistry(fieldcodec.Decimal(), fieldcodec.NullableInt32())

func (*explicit) FieldCodecs() fieldcodec.Resolver { return explicitCodecs }

func TestCodecProvider(t *testing.T) {
	s := newSerializer(t)
	n := int32(4)
	rec, err := s.Write(&explicit{Price: decimal.RequireFromString("3.10"), Stock: 9, Count: &n})
	require.NoError(t, err)

	assert.Equal(t, NewString("3.1"), rec.Properties["Price"])
	_, ok := rec.Properties["Stock"]
	assert.False(t, ok, "int16 has no codec in the explicit list")
	assert.Equal(t, NewInt32(4), rec.Properties["Count"], "natively written fields are not rewritten")

	sch, err := s.Schema(&explicit{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Price", "Count"}, sch.Names())
}

func TestDeclaredSchemaInCache(t *testing.T) {
	cache := schema.NewCache()
	declared, err := schema.Declare(reflect.TypeFor[explicit]()).
		Field("Stock", fieldcodec.Int16()).
		Build()
	require.NoError(t, err)
	require.NoError(t, cache.Store(declared))

	s, err := NewSerializer(fieldcodec.Primitives, WithCache(cache))
	require.NoError(t, err)

	rec, err := s.Write(&explicit{Price: decimal.NewFromInt(1), Stock: 9})
	require.NoError(t, err)
	assert.Equal(t, NewString("9"), rec.Properties["Stock"])
	_, ok := rec.Properties["Price"]
	assert.False(t, ok, "declared schema replaces the scan")
}
