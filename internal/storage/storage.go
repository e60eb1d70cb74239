// Package storage opens the configured database backend.
package storage

import (
	"fmt"
	"os"
	"strings"

	"github.com/LeJamon/goOracled/internal/storage/database"
	"github.com/LeJamon/goOracled/internal/storage/database/bbolt"
	"github.com/LeJamon/goOracled/internal/storage/database/memory"
	"github.com/LeJamon/goOracled/internal/storage/database/pebble"
)

const (
	BackendPebble = "pebble"
	BackendBBolt  = "bbolt"
	BackendMemory = "memory"
)

// NewManager returns the database manager for backend rooted at path.
func NewManager(backend, path string) (database.Manager, error) {
	switch strings.ToLower(backend) {
	case BackendPebble:
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		return pebble.NewManager(path, nil), nil
	case BackendBBolt:
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		return bbolt.NewManager(path), nil
	case BackendMemory:
		return memory.NewManager(), nil
	default:
		return nil, fmt.Errorf("%w: %q", database.ErrUnknownBackend, backend)
	}
}

// Open opens the database name of backend under path. Closing the returned
// manager closes the database.
func Open(backend, path, name string) (database.DB, database.Manager, error) {
	m, err := NewManager(backend, path)
	if err != nil {
		return nil, nil, err
	}
	db, err := m.OpenDB(name)
	if err != nil {
		m.Close()
		return nil, nil, err
	}
	return db, m, nil
}
