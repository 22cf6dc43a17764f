package core

import (
	"errors"
	"fmt"
)

// Canonical error codes shared across tool handlers and the automation layer.
const (
	CodeInvalidArgument = "InvalidArgument"
	CodeNotFound        = "NotFound"
	CodeScriptFailed    = "ScriptFailed"
	CodeTimeout         = "DeadlineExceeded"
	CodeUnavailable     = "Unavailable"
	CodeInternal        = "Internal"
)

// Error carries a machine readable code and optional details next to the cause.
type Error struct {
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

func NewError(err error, code string, details map[string]any) *Error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Error{Message: msg, Code: code, Details: details, cause: err}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) AsMap() map[string]any {
	if e == nil {
		return nil
	}
	out := map[string]any{"message": e.Message}
	if e.Code != "" {
		out["code"] = e.Code
	}
	if len(e.Details) > 0 {
		out["details"] = e.Details
	}
	return out
}

func InvalidArgument(err error, details map[string]any) *Error {
	return NewError(err, CodeInvalidArgument, details)
}

func NotFound(err error, details map[string]any) *Error {
	return NewError(err, CodeNotFound, details)
}

func ScriptFailed(err error, details map[string]any) *Error {
	return NewError(err, CodeScriptFailed, details)
}

func DeadlineExceeded(err error, details map[string]any) *Error {
	return NewError(err, CodeTimeout, details)
}

func Unavailable(err error, details map[string]any) *Error {
	return NewError(err, CodeUnavailable, details)
}

func Internal(err error, details map[string]any) *Error {
	return NewError(err, CodeInternal, details)
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr.Code
	}
	return ""
}
