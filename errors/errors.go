/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below.
var (
	// ErrNotFound is returned when a table entity or blob does not exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when inserting a key that is already taken
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput is returned for nil or empty required arguments
	ErrInvalidInput = errors.New("invalid argument")

	// ErrConditionFailed is returned when an ETag precondition does not hold
	ErrConditionFailed = errors.New("precondition failed")

	// ErrNoKeyMap is returned when no key template is registered for a type
	ErrNoKeyMap = errors.New("no key map registered for type")

	// ErrParse is returned when a stored string cannot be decoded into a field
	ErrParse = errors.New("cannot parse stored value")
)

// NotFoundError reports a missing entity or blob.
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError reports an insert collision.
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError is the invalid-argument error raised before any I/O.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid argument: " + e.Message
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConditionFailedError reports an ETag mismatch on a conditional write.
type ConditionFailedError struct {
	Operation string
	Condition string
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("%s: precondition failed: %s", e.Operation, e.Condition)
}

func (e *ConditionFailedError) Is(target error) bool {
	return target == ErrConditionFailed
}

// ParseError reports a stored string that does not decode into the
// declared field type.
type ParseError struct {
	Field string
	Type  string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("cannot parse %q as %s", e.Value, e.Type)
	if e.Field != "" {
		msg = fmt.Sprintf("field %s: %s", e.Field, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(kind, key string) error {
	return &NotFoundError{Type: kind, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(kind, key string) error {
	return &AlreadyExistsError{Type: kind, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConditionFailedError creates a new ConditionFailedError
func NewConditionFailedError(operation, condition string) error {
	return &ConditionFailedError{Operation: operation, Condition: condition}
}

// NewParseError creates a new ParseError
func NewParseError(typeName, value string, cause error) error {
	return &ParseError{Type: typeName, Value: value, Err: cause}
}

// WithField returns err with the field name attached when err is a
// ParseError that has none yet. Other errors are returned as-is.
func WithField(err error, field string) error {
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Field != "" {
		return err
	}
	cp := *pe
	cp.Field = field
	return &cp
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists reports whether err is an already-exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError reports whether err is an invalid-argument error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConditionFailed reports whether err is an ETag precondition failure
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

// IsParseError reports whether err is a stored-value parse failure
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}
