// Package cerr defines the error taxonomy for pipeline jobs. Every failure
// a job can end in carries exactly one Code, and callers switch on the code
// rather than on error strings.
package cerr

import (
	"errors"
	"fmt"
)

// Code represents a stable error category that callers can switch on.
type Code string

const (
	CodeUnknown        Code = "unknown"
	CodeValidation     Code = "validation"      // parameter outside its documented domain, caught before launch
	CodeExport         Code = "export"          // host failed to materialize the input temp file
	CodeLaunch         Code = "launch"          // interpreter or tool not resolvable / not startable
	CodeTimeout        Code = "timeout"         // execution budget exceeded, child killed
	CodeProcessFailure Code = "process_failure" // tool ran but exited nonzero
	CodeOutputMissing  Code = "output_missing"  // tool reported success but the expected file is absent
	CodeFormat         Code = "format"          // output file unreadable or unrecognized extension
	CodeConflict       Code = "conflict"        // another job already owns the target
)

// Error is a value type that carries a Code plus the underlying error.
type Error struct {
	Code Code
	err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// New wraps an error with the provided code. If err is nil a nil is returned.
func New(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, err: err}
}

// Newf builds a coded error from a format string.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, err: fmt.Errorf(format, args...)}
}

// IsCode helps callers compare codes without type assertions. It unwraps, so
// a coded error remains recognizable through fmt.Errorf("%w") wrapping.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from an error chain, or CodeUnknown when the
// chain carries none.
func CodeOf(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
