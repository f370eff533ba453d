/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/tablekit/entity"
	"github.com/suparena/tablekit/errors"
)

// Key map fields.
const (
	PartitionKey = "PartitionKey"
	RowKey       = "RowKey"
)

var (
	keyMapRegistry = make(map[reflect.Type]map[string]string)
	mu             sync.RWMutex

	macroPattern = regexp.MustCompile(`{([^}]+)}`)
)

// RegisterKeyMap associates entity type T with key templates such as
//
//	{"PartitionKey": "CUSTOMER#{CustomerID}", "RowKey": "ORDER#{OrderID}"}
//
// Only the PartitionKey and RowKey entries are allowed.
func RegisterKeyMap[T any](keyMap map[string]string) error {
	for field := range keyMap {
		if field != PartitionKey && field != RowKey {
			return errors.NewValidationError(field, "key maps only accept PartitionKey and RowKey")
		}
	}
	cp := make(map[string]string, len(keyMap))
	for k, v := range keyMap {
		cp[k] = v
	}

	mu.Lock()
	defer mu.Unlock()
	keyMapRegistry[baseType[T]()] = cp
	return nil
}

// GetKeyMap retrieves the key map for type T, if any.
func GetKeyMap[T any]() (map[string]string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := keyMapRegistry[baseType[T]()]
	return m, ok
}

// UnregisterKeyMap removes the key map for type T.
func UnregisterKeyMap[T any]() {
	mu.Lock()
	defer mu.Unlock()
	delete(keyMapRegistry, baseType[T]())
}

// ApplyKeys fills the empty PartitionKey and RowKey of e from the key map
// registered for T. Keys already set are kept. Without a key map, e is left
// unchanged and ErrNoKeyMap is returned.
func ApplyKeys[T any](e entity.Entity) error {
	keyMap, ok := GetKeyMap[T]()
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrNoKeyMap, baseType[T]())
	}
	base := e.Base()
	if base.PartitionKey != "" && base.RowKey != "" {
		return nil
	}

	expanded, err := ExpandKeys(keyMap, e)
	if err != nil {
		return err
	}
	if base.PartitionKey == "" {
		base.PartitionKey = expanded[PartitionKey]
	}
	if base.RowKey == "" {
		base.RowKey = expanded[RowKey]
	}
	return nil
}

// ExpandKeys replaces every {Field} macro in the templates with the value of
// that field of src.
func ExpandKeys(keyMap map[string]string, src any) (map[string]string, error) {
	av, err := attributevalue.MarshalMap(src)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key source: %w", err)
	}

	res := make(map[string]string, len(keyMap))
	for field, template := range keyMap {
		var missing []string
		expanded := macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			name := strings.Trim(macro, "{}")
			val, ok := av[name]
			if !ok {
				missing = append(missing, name)
				return ""
			}
			return attributeText(val)
		})
		if len(missing) > 0 {
			return nil, errors.NewValidationError(field, fmt.Sprintf("no value for %s", strings.Join(missing, ", ")))
		}
		res[field] = expanded
	}
	return res, nil
}

func attributeText(val types.AttributeValue) string {
	switch tv := val.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value
	case *types.AttributeValueMemberN:
		return tv.Value
	case *types.AttributeValueMemberBOOL:
		return fmt.Sprintf("%v", tv.Value)
	default:
		// NULL, binary, sets and documents do not render into keys
		return ""
	}
}

func baseType[T any]() reflect.Type {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
