package schema

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes catalog errors.
type ErrorCode string

const (
	// ErrCodeNameConflict indicates a name is already present in the catalog.
	ErrCodeNameConflict ErrorCode = "NAME_CONFLICT"

	// ErrCodeModuleNotFound indicates an object names a module the catalog lacks.
	ErrCodeModuleNotFound ErrorCode = "MODULE_NOT_FOUND"

	// ErrCodeItemNotFound indicates a lookup, delete or update missed.
	ErrCodeItemNotFound ErrorCode = "ITEM_NOT_FOUND"

	// ErrCodeInvalidField indicates a field unknown to the variant or a value of the wrong kind.
	ErrCodeInvalidField ErrorCode = "INVALID_FIELD"

	// ErrCodeDuplicateID indicates an identity that is already in use.
	ErrCodeDuplicateID ErrorCode = "DUPLICATE_ID"
)

// SchemaError is returned by every failing catalog operation.
// The catalog value the operation was called on is unchanged.
type SchemaError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, format string, args ...any) *SchemaError {
	return &SchemaError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// HasCode reports whether err is a SchemaError with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code ErrorCode) bool {
	var se *SchemaError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsNameConflict returns true if the error is a duplicate-name error.
func IsNameConflict(err error) bool {
	return HasCode(err, ErrCodeNameConflict)
}

// IsModuleNotFound returns true if the error is a missing-module error.
func IsModuleNotFound(err error) bool {
	return HasCode(err, ErrCodeModuleNotFound)
}

// IsNotFound returns true if the error is a lookup miss.
func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeItemNotFound)
}
