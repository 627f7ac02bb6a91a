package kv

import (
	"go.dedis.ch/inkconn/core/store"
	"golang.org/x/xerrors"
)

// Store is an adapter of a database bucket to a store backend. Reads happen in
// their own read-only transaction, and a batch of writes is applied in a single
// writable transaction.
//
// - implements store.Backend
type Store struct {
	db     DB
	bucket []byte
}

// NewStore returns a store backend using the bucket of the database. The
// bucket is created on the first update.
func NewStore(db DB, bucket []byte) Store {
	return Store{
		db:     db,
		bucket: bucket,
	}
}

// Get implements store.Readable. It returns a copy of the value stored for the
// key, or nil if it does not exist.
func (s Store) Get(key []byte) ([]byte, error) {
	var value []byte

	err := s.db.View(func(tx ReadableTx) error {
		bucket := tx.GetBucket(s.bucket)
		if bucket == nil {
			return nil
		}

		raw := bucket.Get(key)
		if raw != nil {
			// The slice is only valid for the lifetime of the transaction.
			value = append([]byte{}, raw...)
		}

		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("read failed: %v", err)
	}

	return value, nil
}

// Update implements store.Backend. It executes the callback inside a single
// writable transaction so that the writes are applied atomically.
func (s Store) Update(fn func(store.Writable) error) error {
	err := s.db.Update(func(tx WritableTx) error {
		bucket, err := tx.GetBucketOrCreate(s.bucket)
		if err != nil {
			return xerrors.Errorf("bucket: %v", err)
		}

		return fn(bucketWriter{bucket: bucket})
	})
	if err != nil {
		return xerrors.Errorf("update failed: %v", err)
	}

	return nil
}

// bucketWriter exposes a bucket as a writable store.
//
// - implements store.Writable
type bucketWriter struct {
	bucket Bucket
}

func (w bucketWriter) Set(key, value []byte) error {
	return w.bucket.Set(key, value)
}

func (w bucketWriter) Delete(key []byte) error {
	return w.bucket.Delete(key)
}
