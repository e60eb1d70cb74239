package bbolt

import (
	"bytes"
	"context"
	"fmt"

	"github.com/LeJamon/goOracled/internal/storage/database"
	"go.etcd.io/bbolt"
)

// DB adapts one bbolt bucket to database.DB.
type DB struct {
	db     *bbolt.DB
	bucket []byte
}

func NewDB(db *bbolt.DB, bucket []byte) *DB {
	return &DB{
		db:     db,
		bucket: bucket,
	}
}

func (b *DB) usable(ctx context.Context) error {
	if b.db == nil {
		return database.ErrDBClosed
	}
	return ctx.Err()
}

func (b *DB) bucketOf(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	bucket := tx.Bucket(b.bucket)
	if bucket == nil {
		return nil, fmt.Errorf("%w: bucket %s", database.ErrNamespaceNotFound, b.bucket)
	}
	return bucket, nil
}

func (b *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if err := b.usable(ctx); err != nil {
		return nil, err
	}

	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket, err := b.bucketOf(tx)
		if err != nil {
			return err
		}

		v := bucket.Get(key)
		if v == nil {
			return database.ErrKeyNotFound
		}

		// bbolt values are only valid during the transaction
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return value, nil
}

func (b *DB) Write(ctx context.Context, key []byte, value []byte) error {
	if err := b.usable(ctx); err != nil {
		return err
	}
	return translate(b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := b.bucketOf(tx)
		if err != nil {
			return err
		}
		return bucket.Put(key, value)
	}))
}

func (b *DB) Delete(ctx context.Context, key []byte) error {
	if err := b.usable(ctx); err != nil {
		return err
	}
	return translate(b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := b.bucketOf(tx)
		if err != nil {
			return err
		}
		return bucket.Delete(key)
	}))
}

// Batch runs all operations inside one read-write transaction.
func (b *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	if err := b.usable(ctx); err != nil {
		return err
	}

	return translate(b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := b.bucketOf(tx)
		if err != nil {
			return err
		}

		for _, op := range ops {
			var err error
			switch op.Type {
			case database.BatchPut:
				err = bucket.Put(op.Key, op.Value)
			case database.BatchDelete:
				err = bucket.Delete(op.Key)
			default:
				return fmt.Errorf("%w: unknown operation type %d", database.ErrBatchOperationFailed, op.Type)
			}
			if err != nil {
				return fmt.Errorf("%w: %v", database.ErrBatchOperationFailed, err)
			}
		}
		return nil
	}))
}

type Iterator struct {
	tx      *bbolt.Tx
	cursor  *bbolt.Cursor
	started bool
	current struct {
		key, value []byte
	}
	start, end []byte
}

// Iterator holds a read transaction open until Close.
func (b *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	if err := b.usable(ctx); err != nil {
		return nil, err
	}

	tx, err := b.db.Begin(false) // Read-only transaction
	if err != nil {
		return nil, translate(err)
	}

	bucket, err := b.bucketOf(tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	return &Iterator{
		tx:     tx,
		cursor: bucket.Cursor(),
		start:  start,
		end:    end,
	}, nil
}

func (it *Iterator) Next() bool {
	var k, v []byte
	if !it.started {
		it.started = true
		if it.start == nil {
			k, v = it.cursor.First()
		} else {
			k, v = it.cursor.Seek(it.start)
		}
	} else {
		k, v = it.cursor.Next()
	}

	if k == nil || (it.end != nil && bytes.Compare(k, it.end) >= 0) {
		it.current.key = nil
		it.current.value = nil
		return false
	}

	it.current.key = append([]byte(nil), k...)
	it.current.value = append([]byte(nil), v...)
	return true
}

func (it *Iterator) Key() []byte {
	return it.current.key
}

func (it *Iterator) Value() []byte {
	return it.current.value
}

func (it *Iterator) Error() error {
	return nil
}

func (it *Iterator) Close() error {
	return it.tx.Rollback()
}

func translate(err error) error {
	if err == bbolt.ErrDatabaseNotOpen {
		return database.ErrDBClosed
	}
	return err
}
