package session

import (
	"errors"
	"fmt"
)

var (
	errSessionClosed = errors.New("session: already closed")
	errCursorClosed  = errors.New("session: cursor is already closed")
)

// InvalidStateError reports an illegal call sequence, such as ending a
// transaction that was never begun. The session state is left untouched.
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("session: cannot %s: %s", e.Op, e.Reason)
}

func errNoTransaction(op string) error {
	return &InvalidStateError{Op: op, Reason: "there is no current transaction"}
}

func errMarkedSuccessful(op string) error {
	return &InvalidStateError{Op: op, Reason: "the transaction has already been marked successful; " +
		"the only thing you can do now is call EndTransaction"}
}

// SQLError carries the engine's diagnostic text for a statement the engine
// rejected or failed to run. Cancellation is never reported as an SQLError;
// it surfaces as the context's own error.
type SQLError struct {
	SQL string
	Err error
}

func (e *SQLError) Error() string {
	if e.SQL == "" {
		return "sql: " + e.Err.Error()
	}
	return fmt.Sprintf("sql: %v (while executing %q)", e.Err, e.SQL)
}

func (e *SQLError) Unwrap() error {
	return e.Err
}
