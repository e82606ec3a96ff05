// Package session provides a single client the ability to use a database
// connection, managing the lifecycle of implicit and explicit transactions.
//
// A Session is bound to exactly one Connection for its entire lifetime and
// is single-owner: it has no internal locking and must not be shared between
// concurrent callers. Concurrent access is achieved by giving each caller
// its own Session over its own connection, typically from a pool.
//
// Explicit transactions nest. A nested transaction is begun with
// BeginTransaction, marked with SetTransactionSuccessful and ended with
// EndTransaction just like an outermost one, but only the outermost level
// talks to the engine. If any level is not marked successful, the entire
// transaction is rolled back when the outermost level ends.
//
// Recommended usage:
//
//	if err := s.BeginTransaction(ctx, session.TransactionModeDeferred, nil); err != nil {
//		return err
//	}
//	defer s.EndTransaction(ctx)
//
//	if err := s.Execute(ctx, "INSERT INTO ...", args); err != nil {
//		return err
//	}
//
//	return s.SetTransactionSuccessful()
//
// The session must tolerate reentrant use: a transaction listener may itself
// run statements on the same session. All physical engine calls and listener
// hooks therefore run before the transaction stack is mutated, except for
// the begin hook, which runs after the physical BEGIN so the listener
// observes a live transaction.
package session

import "context"

// Session orchestrates nested transactions over a single Connection and
// intercepts raw transaction-control SQL so the engine's transaction state
// and the session's bookkeeping can never diverge.
type Session struct {
	conn   Connection
	arena  txArena
	stack  int
	closed bool
}

// NewSession binds a session to a connection. The session assumes exclusive
// use of the connection until Close.
func NewSession(conn Connection) *Session {
	return &Session{
		arena: newTxArena(),
		conn:  conn,
		stack: noTransaction,
	}
}

// HasTransaction reports whether a transaction is in progress.
func (s *Session) HasTransaction() bool {
	return s.stack != noTransaction
}

// HasNestedTransaction reports whether a nested transaction is in progress.
func (s *Session) HasNestedTransaction() bool {
	return s.stack != noTransaction && s.arena.record(s.stack).parent != noTransaction
}

// BeginTransaction begins an explicit transaction, nesting if one is already
// in progress. The mode and listener apply only to the level being created;
// for a nested transaction no physical statement is issued and the mode has
// no effect.
//
// Every call to BeginTransaction must be matched exactly by a call to
// EndTransaction, with SetTransactionSuccessful in between if the level's
// changes should be committed.
func (s *Session) BeginTransaction(ctx context.Context, mode TransactionMode, listener TransactionListener) error {
	if s.stack != noTransaction && s.arena.record(s.stack).markedSuccessful {
		return errMarkedSuccessful("begin transaction")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// The physical BEGIN and the listener hook both run before any
	// bookkeeping so a failure here leaves the session exactly as it was.
	if s.stack == noTransaction {
		var begin string

		switch mode {
		case TransactionModeImmediate:
			begin = "BEGIN IMMEDIATE;"
		case TransactionModeExclusive:
			begin = "BEGIN EXCLUSIVE;"
		default:
			begin = "BEGIN;"
		}

		if err := s.conn.Execute(ctx, begin, nil); err != nil {
			return err
		}
	}

	if listener != nil {
		if err := listener.OnBegin(); err != nil {
			if s.stack == noTransaction {
				if rollbackErr := s.conn.Execute(ctx, "ROLLBACK;", nil); rollbackErr != nil {
					return rollbackErr
				}
			}

			return err
		}
	}

	handle := s.arena.obtain(mode, listener)
	s.arena.record(handle).parent = s.stack
	s.stack = handle

	return nil
}

// SetTransactionSuccessful marks the current transaction as having completed
// successfully. It can be called at most once per transaction level, and the
// level's changes are only committed if it was called before EndTransaction.
func (s *Session) SetTransactionSuccessful() error {
	if s.stack == noTransaction {
		return errNoTransaction("mark transaction successful")
	}

	if s.arena.record(s.stack).markedSuccessful {
		return errMarkedSuccessful("mark transaction successful")
	}

	s.arena.record(s.stack).markedSuccessful = true

	return nil
}

// EndTransaction ends the current transaction level. When ending the
// outermost level, the whole transaction is committed if every level was
// marked successful and none of its nested transactions failed; otherwise it
// is rolled back. When ending a nested level, failure is recorded in the
// enclosing level and no physical statement is issued.
//
// A listener error forces the level to be unsuccessful but never skips the
// bookkeeping or the physical COMMIT/ROLLBACK; it is returned after both
// have run. If the physical statement itself fails, that error is returned
// instead and the engine's own transaction state is authoritative from then
// on, since the session's stack has already been unwound.
func (s *Session) EndTransaction(ctx context.Context) error {
	if s.stack == noTransaction {
		return errNoTransaction("end transaction")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	top := s.arena.record(s.stack)
	successful := top.markedSuccessful && !top.childFailed

	var listenerErr error

	if top.listener != nil {
		if successful {
			listenerErr = top.listener.OnCommit()
		} else {
			listenerErr = top.listener.OnRollback()
		}

		if listenerErr != nil {
			successful = false
		}
	}

	handle := s.stack
	s.stack = top.parent
	s.arena.recycle(handle)

	if s.stack != noTransaction {
		if !successful {
			s.arena.record(s.stack).childFailed = true
		}
	} else {
		var stmt string

		if successful {
			stmt = "COMMIT;"
		} else {
			stmt = "ROLLBACK;"
		}

		if err := s.conn.Execute(ctx, stmt, nil); err != nil {
			return err
		}
	}

	return listenerErr
}

// Prepare compiles sql without executing it, so syntax errors surface before
// execution. When info is non-nil it is populated with statement metadata.
func (s *Session) Prepare(ctx context.Context, sql string, info *StatementInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.conn.Prepare(ctx, sql, info)
}

// Execute runs a statement that returns no result.
func (s *Session) Execute(ctx context.Context, sql string, args []any) error {
	handled, err := s.executeSpecial(ctx, sql)

	if handled || err != nil {
		return err
	}

	return s.conn.Execute(ctx, sql, args)
}

// ExecuteForInt64 runs a statement and returns the first column of the first
// row as an integer, or 0 if the statement returned no rows.
func (s *Session) ExecuteForInt64(ctx context.Context, sql string, args []any) (int64, error) {
	handled, err := s.executeSpecial(ctx, sql)

	if handled || err != nil {
		return 0, err
	}

	return s.conn.ExecuteForInt64(ctx, sql, args)
}

// ExecuteForString runs a statement and returns the first column of the
// first row as a string, or "" if the statement returned no rows.
func (s *Session) ExecuteForString(ctx context.Context, sql string, args []any) (string, error) {
	handled, err := s.executeSpecial(ctx, sql)

	if handled || err != nil {
		return "", err
	}

	return s.conn.ExecuteForString(ctx, sql, args)
}

// ExecuteForChangedRowCount runs an UPDATE or DELETE statement and returns
// the number of rows it changed.
func (s *Session) ExecuteForChangedRowCount(ctx context.Context, sql string, args []any) (int64, error) {
	handled, err := s.executeSpecial(ctx, sql)

	if handled || err != nil {
		return 0, err
	}

	return s.conn.ExecuteForChangedRowCount(ctx, sql, args)
}

// ExecuteForLastInsertedRowID runs an INSERT statement and returns the rowid
// of the last row it inserted, or 0 if none.
func (s *Session) ExecuteForLastInsertedRowID(ctx context.Context, sql string, args []any) (int64, error) {
	handled, err := s.executeSpecial(ctx, sql)

	if handled || err != nil {
		return 0, err
	}

	return s.conn.ExecuteForLastInsertedRowID(ctx, sql, args)
}

// ExecuteForBufferedRows runs a statement and fills buf with a range of its
// result rows starting at startPos, guaranteeing the row at requiredPos is
// present. It returns the number of rows counted during execution, which is
// only the full result count when countAll is set.
func (s *Session) ExecuteForBufferedRows(ctx context.Context, sql string, args []any,
	buf *RowBuffer, startPos, requiredPos int, countAll bool,
) (int, error) {
	handled, err := s.executeSpecial(ctx, sql)

	if handled || err != nil {
		if handled {
			buf.Clear()
		}

		return 0, err
	}

	return s.conn.ExecuteForBufferedRows(ctx, sql, args, buf, startPos, requiredPos, countAll)
}

// Query runs a statement and returns a cursor over its result rows, paged
// through buf. A nil buf gets a buffer of the default capacity.
func (s *Session) Query(ctx context.Context, sql string, args []any, buf *RowBuffer) (*Cursor, error) {
	if buf == nil {
		buf = NewRowBuffer(0)
	}

	count, err := s.ExecuteForBufferedRows(ctx, sql, args, buf, 0, 0, true)

	if err != nil {
		return nil, err
	}

	return &Cursor{
		args:    args,
		buf:     buf,
		count:   count,
		pos:     -1,
		session: s,
		sql:     sql,
	}, nil
}

// executeSpecial reinterprets raw "BEGIN", "COMMIT" and "ROLLBACK" statements
// as calls to the transaction API so that legacy callers managing their own
// transactions through raw SQL cannot desynchronize the session's stack from
// the engine's transaction state. It reports whether the statement was
// handled here; handled statements are never sent to the connection.
func (s *Session) executeSpecial(ctx context.Context, sql string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	switch statementTypeOf(sql) {
	case StatementBegin:
		return true, s.BeginTransaction(ctx, TransactionModeExclusive, nil)

	case StatementCommit:
		if err := s.SetTransactionSuccessful(); err != nil {
			return true, err
		}

		return true, s.EndTransaction(ctx)

	case StatementAbort:
		return true, s.EndTransaction(ctx)
	}

	return false, nil
}

// Close releases the session's connection. The session must not be used
// afterwards.
func (s *Session) Close() error {
	if s.closed {
		return errSessionClosed
	}

	s.closed = true

	return s.conn.Close()
}
