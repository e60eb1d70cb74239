package bbolt

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/LeJamon/goOracled/internal/storage/database"
	"github.com/LeJamon/goOracled/internal/storage/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Manager {
	manager := NewManager(t.TempDir())
	t.Cleanup(func() { manager.Close() })
	return manager
}

func TestBBoltDB(t *testing.T) {
	manager := setupTestDB(t)

	db, err := manager.OpenDB("suite")
	require.NoError(t, err)
	dbtest.Run(t, db)
}

func TestBBoltDB_Lifecycle(t *testing.T) {
	manager := setupTestDB(t)
	ctx := context.Background()

	db, err := manager.OpenDB("test")
	require.NoError(t, err)
	require.NoError(t, db.Write(ctx, []byte("lifecycle-test"), []byte("test-value")))

	require.NoError(t, manager.CloseDB("test"))
	_, err = db.Read(ctx, []byte("lifecycle-test"))
	assert.ErrorIs(t, err, database.ErrDBClosed)

	_, err = os.Stat(filepath.Join(manager.path, "test.db"))
	require.NoError(t, err, "database file was not created")

	db, err = manager.OpenDB("test")
	require.NoError(t, err)
	got, err := db.Read(ctx, []byte("lifecycle-test"))
	require.NoError(t, err)
	assert.Equal(t, []byte("test-value"), got)
}
