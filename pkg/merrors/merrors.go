// Package merrors defines Minerva's error taxonomy.
//
// Errors are classified by semantic kind rather than by source type:
// Configuration errors originate from environment or file-system input,
// Database errors originate from the server, and Runtime errors are
// invariant violations or missing-entity failures discovered while
// reconciling an instance. All three carry an optional underlying cause,
// stored as given and exposed through Unwrap; no stack trace is captured.
package merrors

import (
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

type (
	// Kind classifies a Minerva error into one of the three semantic
	// families described in the package doc.
	Kind string

	// Error is a Minerva error carrying a Kind, a human-readable message,
	// and (for database errors) the originating SQLSTATE if the driver
	// supplied one.
	Error struct {
		Kind     Kind
		Message  string
		SQLState string
		cause    error
	}
)

const (
	// KindConfiguration marks environment or file-system input that could
	// not be used: a missing variable, unparsable YAML/JSON, an unsupported
	// SSL mode, or an unknown file extension. Never retried.
	KindConfiguration Kind = "configuration"

	// KindDatabase marks any failure originating from the server:
	// connection, query, or transaction errors.
	KindDatabase Kind = "database"

	// KindRuntime marks invariant violations, unsupported coercions, or
	// missing entities discovered while reconciling an instance.
	KindRuntime Kind = "runtime"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Configuration wraps cause as a configuration error with the given message.
func Configuration(cause error, message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message, cause: cause}
}

// Configurationf formats a configuration error with no underlying cause.
func Configurationf(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: errors.Errorf(format, args...).Error()}
}

// Database wraps cause as a database error, extracting the SQLSTATE from a
// *pgconn.PgError when the driver supplied one.
func Database(cause error, message string) *Error {
	e := &Error{Kind: KindDatabase, Message: message, cause: cause}

	var pgErr *pgconn.PgError
	if errors.As(cause, &pgErr) {
		e.SQLState = pgErr.Code
	}

	return e
}

// Databasef formats a database error with no underlying cause.
func Databasef(format string, args ...any) *Error {
	return &Error{Kind: KindDatabase, Message: errors.Errorf(format, args...).Error()}
}

// Runtime wraps cause as a runtime error with the given message.
func Runtime(cause error, message string) *Error {
	return &Error{Kind: KindRuntime, Message: message, cause: cause}
}

// Runtimef formats a runtime error with no underlying cause.
func Runtimef(format string, args ...any) *Error {
	return &Error{Kind: KindRuntime, Message: errors.Errorf(format, args...).Error()}
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
