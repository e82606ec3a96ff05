package session

import (
	"context"
	"fmt"
)

// Cursor provides random access to a query's result rows, paging them
// through a RowBuffer on demand. It re-runs the query against the session's
// connection whenever the requested row is outside the buffered range, so it
// observes the transaction state of the session it was created from.
//
// A cursor starts positioned before the first row.
type Cursor struct {
	args    []any
	buf     *RowBuffer
	closed  bool
	count   int
	pos     int
	session *Session
	sql     string
}

// Count is the total number of rows in the result set.
func (c *Cursor) Count() int {
	return c.count
}

// Position is the current row position, or -1 before the first row.
func (c *Cursor) Position() int {
	return c.pos
}

// NumColumns is the number of columns in the result set.
func (c *Cursor) NumColumns() int {
	return c.buf.NumColumns()
}

// MoveToPosition moves the cursor to an absolute row position, refilling the
// buffer if the row is not already buffered. It returns false when pos is
// past the last row.
func (c *Cursor) MoveToPosition(ctx context.Context, pos int) (bool, error) {
	if c.closed {
		return false, errCursorClosed
	}

	if pos < 0 {
		c.pos = -1
		return false, nil
	}

	if pos >= c.count {
		c.pos = c.count
		return false, nil
	}

	if !c.buf.Contains(pos) {
		_, err := c.session.ExecuteForBufferedRows(ctx, c.sql, c.args, c.buf, pos, pos, false)

		if err != nil {
			return false, err
		}
	}

	c.pos = pos

	return true, nil
}

// Next advances the cursor to the next row, returning false after the last
// row.
func (c *Cursor) Next(ctx context.Context) (bool, error) {
	return c.MoveToPosition(ctx, c.pos+1)
}

// Value returns the value of the given column in the current row.
func (c *Cursor) Value(col int) (any, error) {
	if c.closed {
		return nil, errCursorClosed
	}

	if c.pos < 0 || c.pos >= c.count {
		return nil, fmt.Errorf("session: cursor is not positioned on a row (position %d of %d)", c.pos, c.count)
	}

	return c.buf.At(c.pos, col)
}

// Close releases the cursor. The underlying row buffer may be reused.
func (c *Cursor) Close() error {
	if c.closed {
		return errCursorClosed
	}

	c.closed = true
	c.buf.Clear()

	return nil
}
