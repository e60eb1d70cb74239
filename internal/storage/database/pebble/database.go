package pebble

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/LeJamon/goOracled/internal/storage/database"
	"github.com/cockroachdb/pebble"
)

// DB adapts a pebble instance to database.DB. Writes are synced.
type DB struct {
	db     *pebble.DB
	closed *atomic.Bool
}

func NewDB(db *pebble.DB, closed *atomic.Bool) *DB {
	if closed == nil {
		closed = new(atomic.Bool)
	}
	return &DB{db: db, closed: closed}
}

func (p *DB) usable(ctx context.Context) error {
	if p.db == nil || p.closed.Load() {
		return database.ErrDBClosed
	}
	return ctx.Err()
}

func (p *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if err := p.usable(ctx); err != nil {
		return nil, err
	}

	val, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, database.ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()

	// Copy the value out, it is only valid until closer.Close
	valCopy := make([]byte, len(val))
	copy(valCopy, val)
	return valCopy, nil
}

func (p *DB) Write(ctx context.Context, key, value []byte) error {
	if err := p.usable(ctx); err != nil {
		return err
	}
	return p.db.Set(key, value, pebble.Sync)
}

func (p *DB) Delete(ctx context.Context, key []byte) error {
	if err := p.usable(ctx); err != nil {
		return err
	}
	return p.db.Delete(key, pebble.Sync)
}

func (p *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	if err := p.usable(ctx); err != nil {
		return err
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		switch op.Type {
		case database.BatchPut:
			if err := batch.Set(op.Key, op.Value, nil); err != nil {
				return fmt.Errorf("%w: %v", database.ErrBatchOperationFailed, err)
			}
		case database.BatchDelete:
			if err := batch.Delete(op.Key, nil); err != nil {
				return fmt.Errorf("%w: %v", database.ErrBatchOperationFailed, err)
			}
		default:
			return fmt.Errorf("%w: unknown operation type %d", database.ErrBatchOperationFailed, op.Type)
		}
	}

	return batch.Commit(pebble.Sync)
}

type Iterator struct {
	iter    *pebble.Iterator
	started bool
	current struct {
		key, value []byte
	}
}

func (p *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	if err := p.usable(ctx); err != nil {
		return nil, err
	}

	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return nil, err
	}
	return &Iterator{iter: iter}, nil
}

func (it *Iterator) Next() bool {
	var valid bool
	if !it.started {
		it.started = true
		valid = it.iter.First()
	} else {
		valid = it.iter.Next()
	}
	if !valid {
		it.current.key, it.current.value = nil, nil
		return false
	}

	key := it.iter.Key()
	val := it.iter.Value()
	it.current.key = append([]byte(nil), key...)
	it.current.value = append([]byte(nil), val...)
	return true
}

func (it *Iterator) Key() []byte {
	return it.current.key
}

func (it *Iterator) Value() []byte {
	return it.current.value
}

func (it *Iterator) Error() error {
	return it.iter.Error()
}

func (it *Iterator) Close() error {
	return it.iter.Close()
}
