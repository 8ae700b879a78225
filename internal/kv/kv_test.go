package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	_, ok, err := tx.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tx.Set(ctx, []byte("a"), []byte("1")))
	v, ok, err := tx.Get(ctx, []byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, tx.Commit(ctx))

	tx2, err := s.Begin(ctx)
	require.NoError(t, err)
	v, ok, err = tx2.Get(ctx, []byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("1"), v)
}

func TestMemStoreSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	tx1, err := s.Begin(ctx)
	require.NoError(t, err)

	tx2, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx2.Set(ctx, []byte("k"), []byte("v")))
	require.NoError(t, tx2.Commit(ctx))

	// tx1 took its snapshot before tx2 committed, so it must not see tx2's write.
	_, ok, err := tx1.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemStoreScanRangePrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	for _, k := range []string{"a/1", "a/2", "a/3", "b/1"} {
		require.NoError(t, tx.Set(ctx, []byte(k), []byte(k)))
	}

	it, err := ScanPrefix(ctx, tx, []byte("a/"), false)
	require.NoError(t, err)
	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	assert.Equal(t, []string{"a/1", "a/2", "a/3"}, got)
}

func TestMemStoreScanRangeReverse(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, tx.Set(ctx, []byte(k), []byte(k)))
	}

	it, err := tx.ScanRange(ctx, []byte("a"), []byte("c"), true, true, true)
	require.NoError(t, err)
	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	assert.Equal(t, []string{"c", "b", "a"}, got)
}

func TestMemStoreSavepointRollback(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.Set(ctx, []byte("k1"), []byte("v1")))

	sp, err := tx.Savepoint(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.Set(ctx, []byte("k2"), []byte("v2")))
	_, ok, _ := tx.Get(ctx, []byte("k2"))
	require.True(t, ok)

	require.NoError(t, sp.RollbackTo(ctx))

	_, ok, _ = tx.Get(ctx, []byte("k2"))
	assert.False(t, ok, "write after savepoint should be undone")

	_, ok, _ = tx.Get(ctx, []byte("k1"))
	assert.True(t, ok, "write before savepoint should survive rollback")
}

func TestPrefixUpperBound(t *testing.T) {
	assert.Equal(t, []byte{0x61, 0x01}, prefixUpperBound([]byte{0x61, 0x00}))
	assert.Nil(t, prefixUpperBound([]byte{0xff, 0xff}))
}
