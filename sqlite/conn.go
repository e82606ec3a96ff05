// Package sqlite implements the session.Connection capability over an
// embedded SQLite engine (modernc.org/sqlite). Each Conn owns one dedicated
// driver connection, so transaction state set through it is never observed
// by another caller.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/sqlitekit/sqlitekit-go/session"

	_ "modernc.org/sqlite"
)

// Conn is a single engine connection. It implements session.Connection and
// is single-owner, like the Session bound to it.
type Conn struct {
	closed  bool
	conn    *sql.Conn
	id      string
	release func(*Conn)
}

// ID is the pool's identifier for this connection.
func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) Execute(ctx context.Context, sqlText string, args []any) error {
	_, err := c.conn.ExecContext(ctx, sqlText, args...)

	return wrapError(sqlText, err)
}

func (c *Conn) ExecuteForInt64(ctx context.Context, sqlText string, args []any) (int64, error) {
	var value sql.NullInt64

	err := c.conn.QueryRowContext(ctx, sqlText, args...).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}

	if err != nil {
		return 0, wrapError(sqlText, err)
	}

	return value.Int64, nil
}

func (c *Conn) ExecuteForString(ctx context.Context, sqlText string, args []any) (string, error) {
	var value sql.NullString

	err := c.conn.QueryRowContext(ctx, sqlText, args...).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}

	if err != nil {
		return "", wrapError(sqlText, err)
	}

	return value.String, nil
}

func (c *Conn) ExecuteForChangedRowCount(ctx context.Context, sqlText string, args []any) (int64, error) {
	result, err := c.conn.ExecContext(ctx, sqlText, args...)

	if err != nil {
		return 0, wrapError(sqlText, err)
	}

	changes, err := result.RowsAffected()

	return changes, wrapError(sqlText, err)
}

func (c *Conn) ExecuteForLastInsertedRowID(ctx context.Context, sqlText string, args []any) (int64, error) {
	result, err := c.conn.ExecContext(ctx, sqlText, args...)

	if err != nil {
		return 0, wrapError(sqlText, err)
	}

	rowID, err := result.LastInsertId()

	return rowID, wrapError(sqlText, err)
}

// ExecuteForBufferedRows fills buf with result rows starting at startPos.
// When the buffer fills before the row at requiredPos has been stored, the
// buffered rows are evicted and filling restarts at the current row, so the
// required row always ends up in the buffer. Rows that no longer fit are
// still counted when countAll is set.
func (c *Conn) ExecuteForBufferedRows(ctx context.Context, sqlText string, args []any,
	buf *session.RowBuffer, startPos, requiredPos int, countAll bool,
) (int, error) {
	if startPos < 0 {
		startPos = 0
	}

	if requiredPos < startPos {
		requiredPos = startPos
	}

	rows, err := c.conn.QueryContext(ctx, sqlText, args...)

	if err != nil {
		return 0, wrapError(sqlText, err)
	}

	defer rows.Close()

	columns, err := rows.Columns()

	if err != nil {
		return 0, wrapError(sqlText, err)
	}

	buf.Clear()

	if err := buf.SetNumColumns(len(columns)); err != nil {
		return 0, err
	}

	if err := buf.SetStartPosition(startPos); err != nil {
		return 0, err
	}

	values := make([]any, len(columns))
	scanDest := make([]any, len(columns))

	for i := range values {
		scanDest[i] = &values[i]
	}

	total := 0
	filling := true

	for rows.Next() {
		pos := total
		total++

		if pos < buf.StartPosition() || !filling {
			continue
		}

		if err := rows.Scan(scanDest...); err != nil {
			return 0, wrapError(sqlText, err)
		}

		if buf.AppendRow(values) {
			continue
		}

		if pos <= requiredPos {
			// The required row has not been stored yet. Evict what
			// was filled so far and restart the window here.
			buf.Clear()

			if err := buf.SetStartPosition(pos); err != nil {
				return 0, err
			}

			buf.AppendRow(values)

			continue
		}

		filling = false

		if !countAll {
			break
		}
	}

	if err := rows.Err(); err != nil {
		return 0, wrapError(sqlText, err)
	}

	return total, nil
}

var parameterPattern = regexp.MustCompile(`\?\d*|[:@$]\w+`)

// Prepare compiles sqlText so syntax errors surface before execution. For a
// parameterless read-only statement the column names are probed as well;
// database/sql exposes no prepared-statement metadata short of running the
// query, so other statements report parameter count only.
func (c *Conn) Prepare(ctx context.Context, sqlText string, info *session.StatementInfo) error {
	stmt, err := c.conn.PrepareContext(ctx, sqlText)

	if err != nil {
		return wrapError(sqlText, err)
	}

	defer stmt.Close()

	if info == nil {
		return nil
	}

	info.NumParameters = len(parameterPattern.FindAllString(sqlText, -1))
	info.ReadOnly = isReadOnly(sqlText)
	info.ColumnNames = nil

	if info.ReadOnly && info.NumParameters == 0 {
		rows, err := stmt.QueryContext(ctx)

		if err != nil {
			return wrapError(sqlText, err)
		}

		defer rows.Close()

		info.ColumnNames, err = rows.Columns()

		if err != nil {
			return wrapError(sqlText, err)
		}
	}

	return nil
}

// Close releases the connection back to its pool.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}

	c.closed = true
	err := c.conn.Close()

	if c.release != nil {
		c.release(c)
	}

	return err
}

func isReadOnly(sqlText string) bool {
	trimmed := strings.TrimSpace(sqlText)

	if len(trimmed) < 3 {
		return false
	}

	switch strings.ToUpper(trimmed[:3]) {
	case "SEL", "EXP", "PRA", "WIT":
		return true
	}

	return false
}

// wrapError wraps an engine failure in *session.SQLError. Cancellation is
// passed through untouched so callers can tell a deliberate abort from an
// engine rejection.
func wrapError(sqlText string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return &session.SQLError{SQL: sqlText, Err: err}
}
