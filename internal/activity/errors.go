package activity

import (
	"errors"
	"fmt"
)

// ErrNotFound marks the specific "no row with this id" failure that the
// upsert path converts into an insert. It is always wrapped in an Error
// of KindData; match it with errors.Is.
var ErrNotFound = errors.New("no activity found with given id")

// Kind categorizes store failures.
type Kind string

const (
	// KindInitialization: schema or connection setup failed. Fatal,
	// non-retryable, surfaced at startup.
	KindInitialization Kind = "INITIALIZATION"

	// KindInsert: a write violated a constraint or failed at the
	// statement level.
	KindInsert Kind = "INSERT"

	// KindData: a logical precondition was violated - empty identifier,
	// referenced row absent, transaction-control failure.
	KindData Kind = "DATA"

	// KindRetrieval: a read or query failed at the statement or decode
	// level.
	KindRetrieval Kind = "RETRIEVAL"
)

// Error is the structured error returned by every ledger operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error of the given kind wrapping an optional cause.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// ErrorKind extracts the kind from a (possibly wrapped) store error.
// Returns the empty kind for non-store errors.
func ErrorKind(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsDataError reports whether err is a store error of KindData.
func IsDataError(err error) bool {
	return ErrorKind(err) == KindData
}

// IsNotFound reports whether err is the specific not-found failure that
// upsert falls back on.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
