package session

import "fmt"

// DefaultRowBufferCapacity is the row capacity used when a RowBuffer is
// created with a non-positive capacity.
const DefaultRowBufferCapacity = 1024

// RowBuffer is a reusable, bounded window onto a query's result set. A
// connection fills it with a contiguous range of rows beginning at the start
// position; callers address rows by their absolute position in the result
// set. The buffer is reused across fills to avoid allocation churn.
//
// Like a Session, a RowBuffer is single-owner and performs no locking.
type RowBuffer struct {
	capacity   int
	startPos   int
	numColumns int
	rows       [][]any
}

func NewRowBuffer(capacity int) *RowBuffer {
	if capacity <= 0 {
		capacity = DefaultRowBufferCapacity
	}

	return &RowBuffer{capacity: capacity}
}

// Clear empties the buffer and resets the start position to zero. The column
// count is retained until the next SetNumColumns.
func (b *RowBuffer) Clear() {
	b.startPos = 0
	b.rows = b.rows[:0]
}

func (b *RowBuffer) Capacity() int {
	return b.capacity
}

// StartPosition is the absolute position of the first buffered row.
func (b *RowBuffer) StartPosition() int {
	return b.startPos
}

func (b *RowBuffer) SetStartPosition(pos int) error {
	if len(b.rows) > 0 {
		return fmt.Errorf("rowbuffer: cannot move start position to %d with %d rows buffered", pos, len(b.rows))
	}

	b.startPos = pos

	return nil
}

func (b *RowBuffer) NumColumns() int {
	return b.numColumns
}

func (b *RowBuffer) SetNumColumns(numColumns int) error {
	if len(b.rows) > 0 && numColumns != b.numColumns {
		return fmt.Errorf("rowbuffer: cannot change column count from %d to %d with rows buffered", b.numColumns, numColumns)
	}

	b.numColumns = numColumns

	return nil
}

func (b *RowBuffer) NumRows() int {
	return len(b.rows)
}

// Contains reports whether the row at the absolute position pos is buffered.
func (b *RowBuffer) Contains(pos int) bool {
	return pos >= b.startPos && pos < b.startPos+len(b.rows)
}

// AppendRow copies values into the buffer as the next row. It returns false
// without appending when the buffer is full.
func (b *RowBuffer) AppendRow(values []any) bool {
	if len(b.rows) >= b.capacity {
		return false
	}

	row := make([]any, len(values))
	copy(row, values)
	b.rows = append(b.rows, row)

	return true
}

// At returns the value at the absolute row position pos and column col.
func (b *RowBuffer) At(pos, col int) (any, error) {
	if !b.Contains(pos) {
		return nil, fmt.Errorf("rowbuffer: row %d is not buffered (have %d..%d)", pos, b.startPos, b.startPos+len(b.rows)-1)
	}

	row := b.rows[pos-b.startPos]

	if col < 0 || col >= len(row) {
		return nil, fmt.Errorf("rowbuffer: column %d out of range for row of %d columns", col, len(row))
	}

	return row[col], nil
}
