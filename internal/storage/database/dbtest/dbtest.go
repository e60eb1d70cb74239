// Package dbtest holds behaviour tests shared by every database.DB backend.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/LeJamon/goOracled/internal/storage/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises db. The database must start empty.
func Run(t *testing.T, db database.DB) {
	ctx := context.Background()

	t.Run("Basic Operations", func(t *testing.T) {
		key := []byte("basic")
		_, err := db.Read(ctx, key)
		assert.ErrorIs(t, err, database.ErrKeyNotFound)

		require.NoError(t, db.Write(ctx, key, []byte("v1")))
		got, err := db.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)

		require.NoError(t, db.Write(ctx, key, []byte("v2")))
		got, err = db.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)

		require.NoError(t, db.Delete(ctx, key))
		_, err = db.Read(ctx, key)
		assert.ErrorIs(t, err, database.ErrKeyNotFound)
	})

	t.Run("Read Returns Copy", func(t *testing.T) {
		key := []byte("copy")
		require.NoError(t, db.Write(ctx, key, []byte("abc")))
		got, err := db.Read(ctx, key)
		require.NoError(t, err)
		got[0] = 'x'

		again, err := db.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
		require.NoError(t, db.Delete(ctx, key))
	})

	t.Run("Batch Operations", func(t *testing.T) {
		require.NoError(t, db.Write(ctx, []byte("batch-gone"), []byte("x")))

		ops := []database.BatchOperation{
			{Type: database.BatchPut, Key: []byte("batch-1"), Value: []byte("one")},
			{Type: database.BatchPut, Key: []byte("batch-2"), Value: []byte("two")},
			{Type: database.BatchDelete, Key: []byte("batch-gone")},
		}
		require.NoError(t, db.Batch(ctx, ops))

		v, err := db.Read(ctx, []byte("batch-1"))
		require.NoError(t, err)
		assert.Equal(t, []byte("one"), v)
		v, err = db.Read(ctx, []byte("batch-2"))
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), v)
		_, err = db.Read(ctx, []byte("batch-gone"))
		assert.ErrorIs(t, err, database.ErrKeyNotFound)

		require.NoError(t, db.Batch(ctx, []database.BatchOperation{
			{Type: database.BatchDelete, Key: []byte("batch-1")},
			{Type: database.BatchDelete, Key: []byte("batch-2")},
		}))
	})

	t.Run("Batch Rejects Unknown Operation", func(t *testing.T) {
		err := db.Batch(ctx, []database.BatchOperation{
			{Type: database.BatchPut, Key: []byte("never"), Value: []byte("x")},
			{Type: database.BatchOpType(99), Key: []byte("bad")},
		})
		require.Error(t, err)
		_, err = db.Read(ctx, []byte("never"))
		assert.ErrorIs(t, err, database.ErrKeyNotFound, "a failed batch must not be partially applied")
	})

	t.Run("Iterator", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			key := []byte(fmt.Sprintf("iter-%d", i))
			require.NoError(t, db.Write(ctx, key, []byte{byte(i)}))
		}

		it, err := db.Iterator(ctx, []byte("iter-1"), []byte("iter-4"))
		require.NoError(t, err)
		var keys []string
		for it.Next() {
			keys = append(keys, string(it.Key()))
			assert.Len(t, it.Value(), 1)
		}
		require.NoError(t, it.Error())
		require.NoError(t, it.Close())
		assert.Equal(t, []string{"iter-1", "iter-2", "iter-3"}, keys, "end bound is exclusive")

		it, err = db.Iterator(ctx, nil, nil)
		require.NoError(t, err)
		count := 0
		for it.Next() {
			count++
		}
		require.NoError(t, it.Close())
		assert.Equal(t, 5, count)
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := db.Write(cctx, []byte("cancelled"), []byte("x"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
