package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so the transport layer can map it to a
// status code without inspecting error strings.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindInUse        Kind = "in_use"
	KindUnitMismatch Kind = "unit_mismatch"
	KindConflict     Kind = "conflict"
	KindValidation   Kind = "validation"
)

// Error is a domain error with a kind and optional structured fields
// (e.g. the referencing count on an in-use deletion).
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]any
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

// With attaches a structured field to the error and returns it for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// New creates a domain error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a domain error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), err: err}
}

func NotFound(format string, args ...any) *Error     { return New(KindNotFound, format, args...) }
func InUse(format string, args ...any) *Error        { return New(KindInUse, format, args...) }
func UnitMismatch(format string, args ...any) *Error { return New(KindUnitMismatch, format, args...) }
func Conflict(format string, args ...any) *Error     { return New(KindConflict, format, args...) }
func Validation(format string, args ...any) *Error   { return New(KindValidation, format, args...) }

// KindOf returns the kind of err if it is (or wraps) a domain error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// FieldsOf returns the structured fields of err if it is a domain error.
func FieldsOf(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
