// Package state persists account state in a key-value database, with an LRU
// of recently used accounts in front of it.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/LeJamon/goOracled/internal/core/ledger/keylet"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/LeJamon/goOracled/internal/storage/database"
	"github.com/gagliardetto/solana-go"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is used when Config.CacheSize is zero.
const DefaultCacheSize = 256

var _ tx.BatchView = (*Ledger)(nil)

// Config holds configuration for the state ledger
type Config struct {
	// CacheSize is the number of accounts kept in memory
	CacheSize int
}

// Ledger is the committed account state. Accounts are keyed by address.
// Callers serialize access to a single address; the engine does so with its
// address locks.
type Ledger struct {
	db    database.DB
	cache *lru.Cache[solana.PublicKey, []byte]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a state ledger over db
func New(db database.DB, config Config) (*Ledger, error) {
	if config.CacheSize <= 0 {
		config.CacheSize = DefaultCacheSize
	}
	cache, err := lru.New[solana.PublicKey, []byte](config.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Ledger{db: db, cache: cache}, nil
}

// Read returns a copy of the account at k, or nil when there is none.
func (l *Ledger) Read(k keylet.Keylet) ([]byte, error) {
	if data, ok := l.cache.Get(k.Key); ok {
		l.hits.Add(1)
		return clone(data), nil
	}
	l.misses.Add(1)

	data, err := l.db.Read(context.Background(), k.Key[:])
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", k.Key, err)
	}
	l.cache.Add(k.Key, clone(data))
	return data, nil
}

// Exists checks if an account is stored at k
func (l *Ledger) Exists(k keylet.Keylet) (bool, error) {
	data, err := l.Read(k)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

// Insert stores a new account; an occupied address fails with tx.ErrEntryExists
func (l *Ledger) Insert(k keylet.Keylet, data []byte) error {
	exists, err := l.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return tx.ErrEntryExists
	}
	return l.put(k, data)
}

// Update overwrites an existing account; a missing one fails with tx.ErrEntryNotFound
func (l *Ledger) Update(k keylet.Keylet, data []byte) error {
	exists, err := l.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return tx.ErrEntryNotFound
	}
	return l.put(k, data)
}

// Erase removes an existing account
func (l *Ledger) Erase(k keylet.Keylet) error {
	exists, err := l.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return tx.ErrEntryNotFound
	}
	if err := l.db.Delete(context.Background(), k.Key[:]); err != nil {
		return fmt.Errorf("delete %s: %w", k.Key, err)
	}
	l.cache.Remove(k.Key)
	return nil
}

func (l *Ledger) put(k keylet.Keylet, data []byte) error {
	if err := l.db.Write(context.Background(), k.Key[:], data); err != nil {
		return fmt.Errorf("write %s: %w", k.Key, err)
	}
	l.cache.Add(k.Key, clone(data))
	return nil
}

// ApplyChanges commits changes in one database batch. Either every change is
// stored or none is.
func (l *Ledger) ApplyChanges(changes []tx.Change) error {
	ops := make([]database.BatchOperation, 0, len(changes))
	for _, c := range changes {
		key := c.Key.Key
		switch c.Action {
		case tx.ActionInsert, tx.ActionModify:
			ops = append(ops, database.BatchOperation{Type: database.BatchPut, Key: key[:], Value: c.Data})
		case tx.ActionErase:
			ops = append(ops, database.BatchOperation{Type: database.BatchDelete, Key: key[:]})
		default:
			return fmt.Errorf("unexpected change action %s for %s", c.Action, c.Key.Key)
		}
	}

	if err := l.db.Batch(context.Background(), ops); err != nil {
		// the cache may hold entries the batch meant to replace; drop them
		for _, c := range changes {
			l.cache.Remove(c.Key.Key)
		}
		return fmt.Errorf("commit %d changes: %w", len(changes), err)
	}

	for _, c := range changes {
		if c.Action == tx.ActionErase {
			l.cache.Remove(c.Key.Key)
			continue
		}
		l.cache.Add(c.Key.Key, clone(c.Data))
	}
	return nil
}

// ForEach iterates over every stored account in address order
func (l *Ledger) ForEach(fn func(key solana.PublicKey, data []byte) bool) error {
	it, err := l.db.Iterator(context.Background(), nil, nil)
	if err != nil {
		return fmt.Errorf("iterate: %w", err)
	}
	defer it.Close()

	for it.Next() {
		if len(it.Key()) != solana.PublicKeyLength {
			continue
		}
		if !fn(solana.PublicKeyFromBytes(it.Key()), clone(it.Value())) {
			break
		}
	}
	return it.Error()
}

// Count returns the number of stored accounts
func (l *Ledger) Count() (int, error) {
	n := 0
	err := l.ForEach(func(solana.PublicKey, []byte) bool {
		n++
		return true
	})
	return n, err
}

// CacheStats returns cache hits and misses since creation
func (l *Ledger) CacheStats() (hits, misses uint64) {
	return l.hits.Load(), l.misses.Load()
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
