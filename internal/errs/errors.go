// Package errs provides the unified error type used across featurerepo.
//
// Construction of a data-source declaration or of the object-store binding
// fails with one of three kinds: validation, credential or endpoint. Reads
// through an object-store handle fail later with one of the read-time kinds
// (not found, permission denied, timeout, …). Callers use the Is* predicates
// and never import a client library to classify an error.
//
// Usage:
//
//	// In a constructor, name the offending field:
//	return nil, errs.Field(errs.ErrKindValidation, "timestamp_field", "must not be empty")
//
//	// At startup, abort on any construction failure:
//	if errs.IsCredential(err) {
//	    log.Fatalf("credentials: %v", err)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing client-specific codes.
type ErrKind int

const (
	ErrKindUnknown ErrKind = iota

	// Construction time.
	ErrKindValidation // malformed or missing declaration field
	ErrKindCredential // missing authentication material
	ErrKindEndpoint   // malformed or inconsistent endpoint URL

	// Read time, produced by object-store handles only.
	ErrKindNotFound         // no such bucket or object
	ErrKindConnectionFailed // cannot reach the store
	ErrKindTimeout          // context deadline / cancellation
	ErrKindInvalidInput     // request rejected by the store
	ErrKindPermissionDenied // access denied / signature mismatch
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindValidation:
		return "validation"
	case ErrKindCredential:
		return "credential"
	case ErrKindEndpoint:
		return "endpoint"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by featurerepo packages.
type Error struct {
	Kind    ErrKind
	Field   string // offending configuration field, empty for read-time errors
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Field creates an *Error attributed to a named configuration field.
func Field(kind ErrKind, field, msg string) *Error {
	return &Error{Kind: kind, Field: field, Message: msg}
}

// WrapField is Field with an underlying cause.
func WrapField(kind ErrKind, field, msg string, cause error) *Error {
	return &Error{Kind: kind, Field: field, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsValidation reports whether err is a malformed or missing declaration field.
func IsValidation(err error) bool {
	return kindOf(err) == ErrKindValidation
}

// IsCredential reports whether err is caused by missing authentication material.
func IsCredential(err error) bool {
	return kindOf(err) == ErrKindCredential
}

// IsEndpoint reports whether err is caused by a malformed or mismatched endpoint.
func IsEndpoint(err error) bool {
	return kindOf(err) == ErrKindEndpoint
}

// IsNotFound reports whether err represents a missing bucket or object.
func IsNotFound(err error) bool {
	return kindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return kindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity failure.
func IsConnectionFailed(err error) bool {
	return kindOf(err) == ErrKindConnectionFailed
}

// IsInvalidInput reports whether the store rejected the request as malformed.
func IsInvalidInput(err error) bool {
	return kindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return kindOf(err) == ErrKindPermissionDenied
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	return kindOf(err)
}

// FieldOf returns the configuration field an error is attributed to, if any.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

func kindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
