package database

import "errors"

// Backend errors. Implementations return these unwrapped or wrapped with %w.
var (
	ErrDBClosed             = errors.New("database is closed")
	ErrKeyNotFound          = errors.New("key not found")
	ErrNamespaceNotFound    = errors.New("namespace not found")
	ErrBatchOperationFailed = errors.New("batch operation failed")

	// ErrUnknownBackend is returned by storage.Open for a backend name other
	// than pebble, bbolt or memory.
	ErrUnknownBackend = errors.New("unknown database backend")
)
