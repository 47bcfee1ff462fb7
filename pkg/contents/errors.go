package contents

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/marmos91/nbcontents/pkg/backend"
	"github.com/marmos91/nbcontents/pkg/vpath"
)

// ErrorCode classifies a contents failure. Every code maps to exactly one
// HTTP status.
type ErrorCode int

const (
	// ErrInternal is an unexpected failure, usually from the backend.
	ErrInternal ErrorCode = iota

	// ErrNotFound: the path does not exist, is the wrong type, or escapes
	// the root.
	ErrNotFound

	// ErrConflict: the target already exists, or a directory is not empty.
	ErrConflict

	// ErrReadOnly: the backend refuses writes.
	ErrReadOnly

	// ErrBadFormat: an unknown or missing content format, or missing content.
	ErrBadFormat

	// ErrMissingType: a save without an entry type.
	ErrMissingType

	// ErrNotUTF8: text was requested for bytes that are not valid UTF-8.
	ErrNotUTF8

	// ErrEncoding: content could not be encoded to bytes.
	ErrEncoding

	// ErrMalformedDocument: a notebook could not be parsed.
	ErrMalformedDocument

	// ErrInvalidTarget: the operation cannot apply to the path, such as
	// renaming or deleting the root.
	ErrInvalidTarget
)

var codeNames = map[ErrorCode]string{
	ErrInternal:          "internal",
	ErrNotFound:          "not found",
	ErrConflict:          "conflict",
	ErrReadOnly:          "read only",
	ErrBadFormat:         "bad format",
	ErrMissingType:       "missing type",
	ErrNotUTF8:           "not utf-8",
	ErrEncoding:          "encoding",
	ErrMalformedDocument: "malformed document",
	ErrInvalidTarget:     "invalid target",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Status returns the HTTP status for the code.
func (c ErrorCode) Status() int {
	switch c {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict, ErrReadOnly, ErrInvalidTarget:
		return http.StatusConflict
	case ErrBadFormat, ErrMissingType, ErrNotUTF8, ErrEncoding, ErrMalformedDocument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is the error type returned by every Manager and Checkpoints
// operation.
type Error struct {
	Code    ErrorCode
	Message string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error's code.
func (e *Error) Status() int { return e.Code.Status() }

// Reason is the short, stable description reported to HTTP clients.
func (e *Error) Reason() string { return e.Code.String() }

func newError(code ErrorCode, path, format string, args ...any) *Error {
	return &Error{Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code of err. Errors that are not *Error are internal.
func CodeOf(err error) ErrorCode {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrInternal
}

func IsNotFound(err error) bool { return err != nil && CodeOf(err) == ErrNotFound }
func IsConflict(err error) bool { return err != nil && CodeOf(err) == ErrConflict }

// translate maps a backend or path error onto the contents error codes.
// Errors already translated pass through with their path filled in.
func translate(err error, path string) error {
	if err == nil {
		return nil
	}

	var ce *Error
	if errors.As(err, &ce) {
		if ce.Path == "" {
			ce.Path = path
		}
		return ce
	}

	switch {
	case errors.Is(err, vpath.ErrPathEscape):
		return &Error{Code: ErrNotFound, Path: path, Message: "No such file or directory: " + path, Err: err}
	case errors.Is(err, backend.ErrNotFound), errors.Is(err, backend.ErrNotDirectory):
		return &Error{Code: ErrNotFound, Path: path, Message: "No such file or directory: " + path, Err: err}
	case errors.Is(err, backend.ErrExists):
		return &Error{Code: ErrConflict, Path: path, Message: "File already exists: " + path, Err: err}
	case errors.Is(err, backend.ErrNotEmpty):
		return &Error{Code: ErrConflict, Path: path, Message: "Directory not empty: " + path, Err: err}
	case errors.Is(err, backend.ErrIsDirectory):
		return &Error{Code: ErrConflict, Path: path, Message: "Is a directory: " + path, Err: err}
	case errors.Is(err, backend.ErrReadOnly):
		return &Error{Code: ErrReadOnly, Path: path, Message: "Read-only storage: " + path, Err: err}
	}
	return &Error{Code: ErrInternal, Path: path, Message: "Unexpected error on " + path, Err: err}
}
