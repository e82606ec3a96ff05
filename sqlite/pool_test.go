package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsBadOptions(t *testing.T) {
	_, err := Open("max_connections=2")

	require.Error(t, err)
}

func TestPoolHandsOutDistinctConnections(t *testing.T) {
	pool := testPool(t, "")
	ctx := context.Background()

	first, err := pool.Get(ctx)
	require.NoError(t, err)

	second, err := pool.Get(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID(), second.ID())

	require.NoError(t, first.Close())
	require.NoError(t, second.Close())
}

func TestPoolBlocksWhenExhausted(t *testing.T) {
	pool := testPool(t, "max_connections=1")
	ctx := context.Background()

	held, err := pool.Get(ctx)
	require.NoError(t, err)

	timeout, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	_, err = pool.Get(timeout)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// Returning the connection frees the slot.
	require.NoError(t, held.Close())

	conn, err := pool.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestPoolConnCloseIsIdempotent(t *testing.T) {
	pool := testPool(t, "max_connections=1")
	ctx := context.Background()

	conn, err := pool.Get(ctx)
	require.NoError(t, err)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	// The slot must only have been released once.
	conn, err = pool.Get(ctx)
	require.NoError(t, err)

	timeout, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	_, err = pool.Get(timeout)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, conn.Close())
}

func TestPoolOpenSession(t *testing.T) {
	pool := testPool(t, "")
	ctx := context.Background()

	s, err := pool.OpenSession(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Execute(ctx, "CREATE TABLE t (id INTEGER)", nil))

	n, err := s.ExecuteForInt64(ctx, "SELECT COUNT(*) FROM t", nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Close())
}

func TestPoolCloseRejectsFurtherGets(t *testing.T) {
	pool := testPool(t, "")

	require.NoError(t, pool.Close())

	_, err := pool.Get(context.Background())
	require.Error(t, err)

	// Closing again is a no-op.
	require.NoError(t, pool.Close())
}

func TestPoolCloseReleasesActiveConnections(t *testing.T) {
	pool := testPool(t, "")

	conn, err := pool.Get(context.Background())
	require.NoError(t, err)

	require.NoError(t, pool.Close())

	// The outstanding connection was closed by the pool.
	err = conn.Execute(context.Background(), "SELECT 1", nil)
	require.Error(t, err)
}
