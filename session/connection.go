package session

import "context"

// StatementInfo describes a prepared statement without executing it.
type StatementInfo struct {
	NumParameters int
	ColumnNames   []string
	ReadOnly      bool
}

// Connection executes SQL against the underlying engine. A Session holds
// exactly one Connection for its entire lifetime and assumes exclusive use
// of it for the duration of any call.
//
// Every operation honors ctx: cancellation observed before or during a call
// surfaces as the context's error, distinct from an *SQLError. Malformed SQL
// and bind-argument mismatches surface as *SQLError carrying the engine's
// diagnostic text.
type Connection interface {
	// Execute runs a statement that returns no result.
	Execute(ctx context.Context, sql string, args []any) error

	// ExecuteForInt64 returns the first column of the first row as an
	// integer, or 0 if the statement returned no rows.
	ExecuteForInt64(ctx context.Context, sql string, args []any) (int64, error)

	// ExecuteForString returns the first column of the first row as a
	// string, or "" if the statement returned no rows.
	ExecuteForString(ctx context.Context, sql string, args []any) (string, error)

	// ExecuteForChangedRowCount returns the number of rows changed by an
	// UPDATE or DELETE statement.
	ExecuteForChangedRowCount(ctx context.Context, sql string, args []any) (int64, error)

	// ExecuteForLastInsertedRowID returns the rowid of the last row
	// inserted by the statement, or 0 if none.
	ExecuteForLastInsertedRowID(ctx context.Context, sql string, args []any) (int64, error)

	// ExecuteForBufferedRows clears buf and fills it with a range of the
	// statement's result rows starting at startPos. The row at requiredPos
	// is guaranteed to be present, evicting earlier rows when the buffer
	// fills. When countAll is set, rows beyond what fits are still counted.
	// Returns the number of rows counted during execution.
	ExecuteForBufferedRows(ctx context.Context, sql string, args []any,
		buf *RowBuffer, startPos, requiredPos int, countAll bool) (int, error)

	// Prepare compiles sql without executing it, surfacing syntax errors
	// early. When info is non-nil it is populated with statement metadata.
	Prepare(ctx context.Context, sql string, info *StatementInfo) error

	// Close releases the connection.
	Close() error
}
