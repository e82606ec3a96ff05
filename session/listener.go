package session

// TransactionListener observes the lifecycle of a single transaction level.
// A non-nil error from any hook vetoes the corresponding phase: an OnBegin
// error aborts the begin (rolling back the physical transaction if one was
// just started), and an OnCommit or OnRollback error forces the transaction
// to be treated as unsuccessful. Hook errors are never swallowed; they are
// returned to the caller after the required bookkeeping has run.
type TransactionListener interface {
	OnBegin() error
	OnCommit() error
	OnRollback() error
}
