package pebble

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/LeJamon/goOracled/internal/storage/database"
	"github.com/cockroachdb/pebble"
)

type handle struct {
	db     *pebble.DB
	closed *atomic.Bool
}

// Manager opens one pebble directory per database name under path.
type Manager struct {
	dbs     map[string]handle
	path    string
	options *pebble.Options
	mu      sync.Mutex
}

// NewManager creates a manager rooted at path. opts may be nil.
func NewManager(path string, opts *pebble.Options) *Manager {
	return &Manager{
		dbs:     make(map[string]handle),
		path:    path,
		options: opts,
	}
}

func (m *Manager) OpenDB(name string) (database.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, exists := m.dbs[name]; exists {
		return NewDB(h.db, h.closed), nil // Already opened
	}

	opts := m.options
	if opts == nil {
		opts = &pebble.Options{}
	}

	dbPath := filepath.Join(m.path, name+".db")
	db, err := pebble.Open(dbPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", name, err)
	}

	h := handle{db: db, closed: new(atomic.Bool)}
	m.dbs[name] = h
	return NewDB(h.db, h.closed), nil
}

func (m *Manager) CloseDB(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, exists := m.dbs[name]
	if !exists {
		return fmt.Errorf("%w: %s", database.ErrNamespaceNotFound, name)
	}

	h.closed.Store(true)
	delete(m.dbs, name)
	return h.db.Close()
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lastErr error
	for name, h := range m.dbs {
		h.closed.Store(true)
		if err := h.db.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close database %s: %w", name, err)
		}
		delete(m.dbs, name)
	}
	return lastErr
}

var _ database.Manager = (*Manager)(nil)
