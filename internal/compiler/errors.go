package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/qlbind/internal/qlast"
)

// ErrorCode categorizes user-facing compile errors.
type ErrorCode string

const (
	// ErrCodeParameterNotCallable indicates a call of a name that denotes a
	// parameter of the enclosing function.
	ErrCodeParameterNotCallable ErrorCode = "PARAMETER_NOT_CALLABLE"

	// ErrCodeArgumentTypeUnresolved indicates type inference failed for a call argument.
	ErrCodeArgumentTypeUnresolved ErrorCode = "ARGUMENT_TYPE_UNRESOLVED"

	// ErrCodeFunctionNotFound indicates the call names no overload group.
	ErrCodeFunctionNotFound ErrorCode = "FUNCTION_NOT_FOUND"

	// ErrCodeNoMatchingVariant indicates every candidate rejected the arguments.
	ErrCodeNoMatchingVariant ErrorCode = "NO_MATCHING_VARIANT"

	// ErrCodeAmbiguousCall indicates a zero-argument call matched more than one candidate.
	ErrCodeAmbiguousCall ErrorCode = "AMBIGUOUS_CALL"

	// ErrCodePolymorphicTypeUnresolved indicates an empty default needs a
	// concrete type that no argument established.
	ErrCodePolymorphicTypeUnresolved ErrorCode = "POLYMORPHIC_TYPE_UNRESOLVED"

	// ErrCodeTypeNotFound indicates a type reference that names no catalog type.
	ErrCodeTypeNotFound ErrorCode = "TYPE_NOT_FOUND"

	// ErrCodeInvalidReference indicates a bare name that is not a parameter in scope.
	ErrCodeInvalidReference ErrorCode = "INVALID_REFERENCE"

	// ErrCodeSyntax indicates a fragment that does not parse.
	ErrCodeSyntax ErrorCode = "SYNTAX_ERROR"
)

// CompileError is a user-facing failure to compile an expression.
type CompileError struct {
	Code    ErrorCode
	Message string
	Pos     qlast.Pos
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, pos qlast.Pos, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// HasCode reports whether err is a CompileError with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code ErrorCode) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// CodeOf returns the code of a CompileError, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// InvariantError reports an internal contradiction in the resolver.
// It is a programming error, never a property of the user's query.
type InvariantError struct {
	Message string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return "invariant violation: " + e.Message
}

// IsInvariantError returns true if err is an InvariantError.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
