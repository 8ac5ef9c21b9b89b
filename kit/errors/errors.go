package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error codes shared by every stash component. Adapters and plugins
// should pick the closest code rather than inventing new ones.
const (
	EInternal    = "internal error"
	EConflict    = "conflict"    // the backend state changed underneath the operation
	EInvalid     = "invalid"     // validation failed
	EUnavailable = "unavailable" // the backend is not connected or reachable
	EForbidden   = "forbidden"
)

// Error is the error returned by stash components.
//
// Code is for programs deciding how to react, Msg is for whoever issued
// the storage operation, and Op names the failing operation, for example
// "postgres.SetItem". Err chains the cause, so nested Errors form a
// logical stack trace:
//
//	&Error{
//	    Code: EUnavailable,
//	    Op:   "postgres.Connect",
//	    Msg:  "failed to ping database",
//	    Err:  err,
//	}
type Error struct {
	Code string
	Msg  string
	Op   string
	Err  error
}

// NewError returns an instance of an error.
func NewError(options ...func(*Error)) *Error {
	err := &Error{}
	for _, o := range options {
		o(err)
	}

	return err
}

// WithErrorErr sets the err on the error.
func WithErrorErr(err error) func(*Error) {
	return func(e *Error) {
		e.Err = err
	}
}

// WithErrorCode sets the code on the error.
func WithErrorCode(code string) func(*Error) {
	return func(e *Error) {
		e.Code = code
	}
}

// WithErrorMsg sets the message on the error.
func WithErrorMsg(msg string) func(*Error) {
	return func(e *Error) {
		e.Msg = msg
	}
}

// WithErrorOp sets the op on the error.
func WithErrorOp(op string) func(*Error) {
	return func(e *Error) {
		e.Op = op
	}
}

// Invalidf is a shorthand for an EInvalid error with a formatted message.
func Invalidf(format string, args ...interface{}) *Error {
	return &Error{
		Code: EInvalid,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Error joins the message and the cause. Without either it falls back to
// the code.
func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return fmt.Sprintf("<%s>", e.Code)
}

// Unwrap returns the wrapped error so errors.Is and errors.As see through it.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns the code of the root error, if available; otherwise returns EInternal.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !errors.As(err, &e) {
		return EInternal
	}

	if e == nil {
		return ""
	}

	if e.Code != "" {
		return e.Code
	}

	if e.Err != nil {
		return ErrorCode(e.Err)
	}

	return EInternal
}

// ErrorOp returns the op of the error, if available; otherwise return empty string.
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !errors.As(err, &e) || e == nil {
		return ""
	}

	if e.Op != "" {
		return e.Op
	}

	if e.Err != nil {
		return ErrorOp(e.Err)
	}

	return ""
}

// ErrorMessage returns the human-readable message of the error, if available.
// Otherwise returns a generic error message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !errors.As(err, &e) {
		return "An internal error has occurred."
	}

	if e == nil {
		return ""
	}

	if e.Msg != "" {
		return e.Msg
	}

	if e.Err != nil {
		return ErrorMessage(e.Err)
	}

	return "An internal error has occurred."
}

// jsonError is the wire form of Error. Err holds either a nested
// *Error or the text of a foreign cause.
type jsonError struct {
	Code string      `json:"code"`
	Msg  string      `json:"message,omitempty"`
	Op   string      `json:"op,omitempty"`
	Err  interface{} `json:"error,omitempty"`
}

// MarshalJSON encodes e together with its chain of causes.
func (e *Error) MarshalJSON() ([]byte, error) {
	out := jsonError{Code: e.Code, Msg: e.Msg, Op: e.Op}
	switch cause := e.Err.(type) {
	case nil:
	case *Error:
		out.Err = cause
	default:
		out.Err = cause.Error()
	}
	return json.Marshal(out)
}
