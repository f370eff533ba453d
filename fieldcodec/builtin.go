/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fieldcodec

import (
	"strconv"
	"sync"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// zoneless is the round-trip layout other clients write for unspecified-kind
// dates. It is read as UTC.
const zoneless = "2006-01-02T15:04:05.9999999"

// Built-in codecs. Each is created on first use and shared for the life of
// the process.
var (
	Int16 = sync.OnceValue(func() *FieldSerializer {
		return Of(func(v int16) string { return strconv.FormatInt(int64(v), 10) }, parseInt16)
	})
	Uint8 = sync.OnceValue(func() *FieldSerializer {
		return Of(func(v uint8) string { return strconv.FormatUint(uint64(v), 10) }, parseUint8)
	})
	Float32 = sync.OnceValue(func() *FieldSerializer {
		return Of(formatFloat32, parseFloat32)
	})
	Decimal = sync.OnceValue(func() *FieldSerializer {
		return Of(decimal.Decimal.String, decimal.NewFromString)
	})
	Time = sync.OnceValue(func() *FieldSerializer {
		return Of(formatTime, ParseTime)
	})
	DateTime = sync.OnceValue(func() *FieldSerializer {
		return Of(formatDateTime, parseDateTime)
	})

	NullableUint8    = sync.OnceValue(func() *FieldSerializer { return Nullable(Uint8()) })
	NullableInt16    = sync.OnceValue(func() *FieldSerializer { return Nullable(Int16()) })
	NullableFloat32  = sync.OnceValue(func() *FieldSerializer { return Nullable(Float32()) })
	NullableDecimal  = sync.OnceValue(func() *FieldSerializer { return Nullable(Decimal()) })
	NullableTime     = sync.OnceValue(func() *FieldSerializer { return Nullable(Time()) })
	NullableDateTime = sync.OnceValue(func() *FieldSerializer { return Nullable(DateTime()) })

	NullableInt32 = sync.OnceValue(func() *FieldSerializer {
		return NullableOf(func(v int32) string { return strconv.FormatInt(int64(v), 10) }, parseInt32)
	})
	NullableInt64 = sync.OnceValue(func() *FieldSerializer {
		return NullableOf(func(v int64) string { return strconv.FormatInt(v, 10) }, parseInt64)
	})
	NullableInt = sync.OnceValue(func() *FieldSerializer {
		return NullableOf(strconv.Itoa, strconv.Atoi)
	})
	NullableFloat64 = sync.OnceValue(func() *FieldSerializer {
		return NullableOf(formatFloat64, parseFloat64)
	})
	NullableBool = sync.OnceValue(func() *FieldSerializer {
		return NullableOf(strconv.FormatBool, strconv.ParseBool)
	})
	NullableUUID = sync.OnceValue(func() *FieldSerializer {
		return NullableOf(uuid.UUID.String, uuid.Parse)
	})
)

// ParseTime reads an RFC 3339 timestamp, falling back to the zone-less
// round-trip layout.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	if t2, err2 := time.ParseInLocation(zoneless, s, time.UTC); err2 == nil {
		return t2, nil
	}
	return time.Time{}, err
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// strfmt's own String keeps milliseconds only.
func formatDateTime(v strfmt.DateTime) string {
	return time.Time(v).Format(time.RFC3339Nano)
}

func parseDateTime(s string) (strfmt.DateTime, error) {
	t, err := ParseTime(s)
	return strfmt.DateTime(t), err
}

func formatFloat32(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func formatFloat64(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseFloat32(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	return float32(f), err
}

func parseFloat64(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func parseInt16(s string) (int16, error) {
	n, err := strconv.ParseInt(s, 10, 16)
	return int16(n), err
}

func parseInt32(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	return int32(n), err
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func parseUint8(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	return uint8(n), err
}
