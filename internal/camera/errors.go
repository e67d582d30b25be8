package camera

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failed device call.
type ErrorCode string

// Device error codes.
const (
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeWrongType     ErrorCode = "WRONG_TYPE"
	CodeInvalidValue  ErrorCode = "INVALID_VALUE"
	CodeInvalidAccess ErrorCode = "INVALID_ACCESS"
	CodeInvalidCall   ErrorCode = "INVALID_CALL"
	CodeBusy          ErrorCode = "BUSY"
	CodeNotAvailable  ErrorCode = "NOT_AVAILABLE"
	CodeDeviceClosed  ErrorCode = "DEVICE_NOT_OPEN"
)

// Error is returned by every Link operation that does not succeed.
type Error struct {
	Code    ErrorCode
	Op      string
	Feature string
	Message string
}

func (e *Error) Error() string {
	var target string
	if e.Feature != "" {
		target = " " + e.Feature
	}
	if e.Message != "" {
		return fmt.Sprintf("camera: %s%s: %s: %s", e.Op, target, e.Code, e.Message)
	}
	return fmt.Sprintf("camera: %s%s: %s", e.Op, target, e.Code)
}

// Is matches any *Error carrying the same code, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Op == "" && t.Feature == "" && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrNotFound      = &Error{Code: CodeNotFound}
	ErrWrongType     = &Error{Code: CodeWrongType}
	ErrInvalidValue  = &Error{Code: CodeInvalidValue}
	ErrInvalidAccess = &Error{Code: CodeInvalidAccess}
	ErrInvalidCall   = &Error{Code: CodeInvalidCall}
	ErrBusy          = &Error{Code: CodeBusy}
	ErrNotAvailable  = &Error{Code: CodeNotAvailable}
	ErrDeviceClosed  = &Error{Code: CodeDeviceClosed}
)

func newError(code ErrorCode, op, feature, format string, args ...any) *Error {
	e := &Error{Code: code, Op: op, Feature: feature}
	if format != "" {
		e.Message = fmt.Sprintf(format, args...)
	}
	return e
}
