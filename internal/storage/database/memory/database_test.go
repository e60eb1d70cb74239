package memory

import (
	"context"
	"testing"

	"github.com/LeJamon/goOracled/internal/storage/database"
	"github.com/LeJamon/goOracled/internal/storage/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDB(t *testing.T) {
	dbtest.Run(t, NewDB())
}

func TestMemoryDB_Closed(t *testing.T) {
	db := NewDB()
	require.NoError(t, db.Close())

	_, err := db.Read(context.Background(), []byte("k"))
	assert.ErrorIs(t, err, database.ErrDBClosed)
	assert.ErrorIs(t, db.Write(context.Background(), []byte("k"), nil), database.ErrDBClosed)
}

func TestMemoryManager(t *testing.T) {
	m := NewManager()
	a, err := m.OpenDB("a")
	require.NoError(t, err)
	again, err := m.OpenDB("a")
	require.NoError(t, err)
	assert.Same(t, a, again)

	require.NoError(t, m.CloseDB("a"))
	assert.ErrorIs(t, m.CloseDB("a"), database.ErrNamespaceNotFound)
	require.NoError(t, m.Close())
}
