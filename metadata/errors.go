// Package metadata holds the plugin and group metadata model: the value
// types carried by masterlists and userlists, the merge algebra over them,
// and the store that keeps the two documents apart while answering merged
// queries.
package metadata

import (
	"errors"
	"fmt"
)

// ErrorCode categorises library errors so callers can react without
// matching on message text.
type ErrorCode string

const (
	// ErrorCodeFileAccess indicates a required file is missing or unwritable.
	ErrorCodeFileAccess ErrorCode = "FILE_ACCESS_ERROR"
	// ErrorCodeInvalidArgument indicates the caller violated a precondition.
	ErrorCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrorCodeParse indicates a document oracle rejected its input.
	ErrorCodeParse ErrorCode = "PARSE_ERROR"
	// ErrorCodeConditionSyntax indicates the condition evaluator rejected a
	// condition string.
	ErrorCodeConditionSyntax ErrorCode = "CONDITION_SYNTAX_ERROR"
	// ErrorCodeUndefinedGroup indicates a group reference names a group
	// that does not exist.
	ErrorCodeUndefinedGroup ErrorCode = "UNDEFINED_GROUP"
	// ErrorCodeCyclicInteraction indicates a cycle was detected in a plugin
	// or group graph.
	ErrorCodeCyclicInteraction ErrorCode = "CYCLIC_INTERACTION"
)

// Error is a structured library error carrying a code, a message and an
// optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain handling.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates an Error with the given code, message and cause.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the error code attached to err, or the empty code when
// err carries none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var u *UndefinedGroupError
	if errors.As(err, &u) {
		return ErrorCodeUndefinedGroup
	}
	return ""
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// UndefinedGroupError reports a reference to a group that is not defined
// in the merged group list.
type UndefinedGroupError struct {
	// GroupName is the name of the missing group.
	GroupName string
}

// Error implements the error interface.
func (e *UndefinedGroupError) Error() string {
	return fmt.Sprintf("[%s] the group %q does not exist", ErrorCodeUndefinedGroup, e.GroupName)
}
