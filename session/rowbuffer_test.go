package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowBufferAppendAndLookup(t *testing.T) {
	buf := NewRowBuffer(2)

	require.NoError(t, buf.SetNumColumns(2))
	require.NoError(t, buf.SetStartPosition(10))

	assert.True(t, buf.AppendRow([]any{int64(1), "a"}))
	assert.True(t, buf.AppendRow([]any{int64(2), "b"}))
	assert.False(t, buf.AppendRow([]any{int64(3), "c"}), "buffer should be full")

	assert.Equal(t, 2, buf.NumRows())
	assert.True(t, buf.Contains(10))
	assert.True(t, buf.Contains(11))
	assert.False(t, buf.Contains(9))
	assert.False(t, buf.Contains(12))

	value, err := buf.At(11, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", value)

	_, err = buf.At(12, 0)
	require.Error(t, err)

	_, err = buf.At(10, 2)
	require.Error(t, err)
}

func TestRowBufferAppendCopiesValues(t *testing.T) {
	buf := NewRowBuffer(4)
	require.NoError(t, buf.SetNumColumns(1))

	row := []any{"original"}
	require.True(t, buf.AppendRow(row))
	row[0] = "mutated"

	value, err := buf.At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "original", value)
}

func TestRowBufferClearRetainsColumns(t *testing.T) {
	buf := NewRowBuffer(4)
	require.NoError(t, buf.SetNumColumns(3))
	require.NoError(t, buf.SetStartPosition(5))
	require.True(t, buf.AppendRow([]any{1, 2, 3}))

	buf.Clear()

	assert.Zero(t, buf.NumRows())
	assert.Zero(t, buf.StartPosition())
	assert.Equal(t, 3, buf.NumColumns())
}

func TestRowBufferGuards(t *testing.T) {
	buf := NewRowBuffer(4)
	require.NoError(t, buf.SetNumColumns(1))
	require.True(t, buf.AppendRow([]any{1}))

	// Neither the start position nor the column count may change while
	// rows are buffered.
	require.Error(t, buf.SetStartPosition(3))
	require.Error(t, buf.SetNumColumns(2))
	require.NoError(t, buf.SetNumColumns(1))
}

func TestRowBufferDefaultCapacity(t *testing.T) {
	buf := NewRowBuffer(0)

	assert.Equal(t, DefaultRowBufferCapacity, buf.Capacity())
}
