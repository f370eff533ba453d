/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/suparena/tablekit/entity"
	"github.com/suparena/tablekit/errors"
)

// Attribute names reserved for the record's system fields.
const (
	AttrPartitionKey = "PK"
	AttrRowKey       = "SK"
	AttrETag         = "_etag"
	AttrTimestamp    = "_ts"
)

var reserved = map[string]bool{
	AttrPartitionKey: true,
	AttrRowKey:       true,
	AttrETag:         true,
	AttrTimestamp:    true,
}

func keyOf(pk, rk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPartitionKey: &types.AttributeValueMemberS{Value: pk},
		AttrRowKey:       &types.AttributeValueMemberS{Value: rk},
	}
}

func validateKey(pk, rk string) error {
	if pk == "" {
		return errors.NewValidationError("PartitionKey", "must not be empty")
	}
	if rk == "" {
		return errors.NewValidationError("RowKey", "must not be empty")
	}
	return nil
}

// toAttributes converts the properties of a record to DynamoDB attributes.
func toAttributes(props entity.Properties) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(props))
	for name, p := range props {
		if reserved[name] || strings.HasPrefix(name, "_") {
			return nil, errors.NewValidationError(name, "property name is reserved")
		}
		av, err := toAttribute(p)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		out[name] = av
	}
	return out, nil
}

func toAttribute(p entity.Property) (types.AttributeValue, error) {
	switch v := p.Value.(type) {
	case string:
		return &types.AttributeValueMemberS{Value: v}, nil
	case []byte:
		return &types.AttributeValueMemberB{Value: v}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: v}, nil
	case int32:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(int64(v), 10)}, nil
	case int64:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.NewValidationError("value", "NaN and infinity cannot be stored")
		}
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(v, 'g', -1, 64)}, nil
	case time.Time:
		return &types.AttributeValueMemberS{Value: v.UTC().Format(time.RFC3339Nano)}, nil
	case uuid.UUID:
		return &types.AttributeValueMemberS{Value: v.String()}, nil
	}
	// anything else goes through the SDK marshaler
	av, err := attributevalue.Marshal(p.Value)
	if err != nil {
		return nil, fmt.Errorf("unsupported %s value %T: %w", p.Type, p.Value, err)
	}
	return av, nil
}

// fromItem converts a DynamoDB item back to a record. Numbers come back as
// Int64 when integral and Double otherwise; dates and GUIDs come back as
// strings.
func fromItem(item map[string]types.AttributeValue) (entity.Record, error) {
	rec := entity.Record{Properties: make(entity.Properties, len(item))}
	for name, av := range item {
		switch name {
		case AttrPartitionKey:
			rec.PartitionKey = stringAttr(av)
			continue
		case AttrRowKey:
			rec.RowKey = stringAttr(av)
			continue
		case AttrETag:
			rec.ETag = stringAttr(av)
			continue
		case AttrTimestamp:
			if ts, err := time.Parse(time.RFC3339Nano, stringAttr(av)); err == nil {
				rec.Timestamp = ts
			}
			continue
		}

		p, ok, err := fromAttribute(av)
		if err != nil {
			return entity.Record{}, fmt.Errorf("attribute %s: %w", name, err)
		}
		if ok {
			rec.Properties[name] = p
		}
	}
	return rec, nil
}

func fromAttribute(av types.AttributeValue) (entity.Property, bool, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return entity.NewString(v.Value), true, nil
	case *types.AttributeValueMemberB:
		return entity.NewBinary(v.Value), true, nil
	case *types.AttributeValueMemberBOOL:
		return entity.NewBoolean(v.Value), true, nil
	case *types.AttributeValueMemberN:
		if n, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
			return entity.NewInt64(n), true, nil
		}
		f, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return entity.Property{}, false, err
		}
		return entity.NewDouble(f), true, nil
	case *types.AttributeValueMemberNULL:
		return entity.Property{}, false, nil
	}
	// sets, lists and maps written by other tools are kept in printed form
	var generic any
	if err := attributevalue.Unmarshal(av, &generic); err != nil {
		return entity.Property{}, false, err
	}
	return entity.NewString(fmt.Sprint(generic)), true, nil
}

func stringAttr(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}
