/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entity

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EdmType is the wire kind of a stored property.
type EdmType int

const (
	String EdmType = iota
	Binary
	Boolean
	Int32
	Int64
	Double
	DateTime
	GUID
)

var edmNames = [...]string{"String", "Binary", "Boolean", "Int32", "Int64", "Double", "DateTime", "Guid"}

func (t EdmType) String() string {
	if t < 0 || int(t) >= len(edmNames) {
		return fmt.Sprintf("EdmType(%d)", int(t))
	}
	return edmNames[t]
}

// Property is one typed value of a stored record. Value holds string,
// []byte, bool, int32, int64, float64, time.Time or uuid.UUID according
// to Type.
type Property struct {
	Type  EdmType
	Value any
}

func NewString(v string) Property      { return Property{Type: String, Value: v} }
func NewBinary(v []byte) Property      { return Property{Type: Binary, Value: v} }
func NewBoolean(v bool) Property       { return Property{Type: Boolean, Value: v} }
func NewInt32(v int32) Property        { return Property{Type: Int32, Value: v} }
func NewInt64(v int64) Property        { return Property{Type: Int64, Value: v} }
func NewDouble(v float64) Property     { return Property{Type: Double, Value: v} }
func NewDateTime(v time.Time) Property { return Property{Type: DateTime, Value: v} }
func NewGUID(v uuid.UUID) Property     { return Property{Type: GUID, Value: v} }

// StringValue returns the value of a String property.
func (p Property) StringValue() (string, bool) {
	if p.Type != String {
		return "", false
	}
	s, ok := p.Value.(string)
	return s, ok
}

// Equal compares kind and value.
func (p Property) Equal(o Property) bool {
	if p.Type != o.Type {
		return false
	}
	switch a := p.Value.(type) {
	case []byte:
		b, ok := o.Value.([]byte)
		return ok && bytes.Equal(a, b)
	case time.Time:
		b, ok := o.Value.(time.Time)
		return ok && a.Equal(b)
	}
	return p.Value == o.Value
}

func (p Property) String() string {
	return fmt.Sprintf("%s(%v)", p.Type, p.Value)
}

// Properties is the property bag of a record, keyed by name.
type Properties map[string]Property

// Clone copies the bag, including binary values.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		if b, ok := v.Value.([]byte); ok {
			v.Value = bytes.Clone(b)
		}
		out[k] = v
	}
	return out
}

// Record is the shape every table backend stores and returns.
type Record struct {
	PartitionKey string
	RowKey       string
	ETag         string
	Timestamp    time.Time
	Properties   Properties
}

// Key renders the record key for messages.
func (r Record) Key() string {
	return r.PartitionKey + "/" + r.RowKey
}
