package blocktank

import "fmt"

// Kind categorizes cache failures, mirroring the ledger's error shape.
type Kind string

const (
	KindInitialization Kind = "INITIALIZATION"
	KindInsert         Kind = "INSERT"
	KindData           Kind = "DATA"
	KindRetrieval      Kind = "RETRIEVAL"
)

// Error is the structured error returned by every cache operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
