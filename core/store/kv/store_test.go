package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/inkconn/core/store"
	"go.dedis.ch/inkconn/internal/testing/fake"
)

func TestStore_Get(t *testing.T) {
	s := NewStore(makeDB(t), []byte("state"))

	// The bucket does not exist yet.
	value, err := s.Get([]byte("A"))
	require.NoError(t, err)
	require.Nil(t, value)

	err = s.Update(func(w store.Writable) error {
		return w.Set([]byte("A"), []byte{1})
	})
	require.NoError(t, err)

	value, err = s.Get([]byte("A"))
	require.NoError(t, err)
	require.Equal(t, []byte{1}, value)

	closed := NewStore(makeClosedDB(t), []byte("state"))
	_, err = closed.Get([]byte("A"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "read failed: ")
}

func TestStore_Update(t *testing.T) {
	s := NewStore(makeDB(t), []byte("state"))

	err := s.Update(func(w store.Writable) error {
		require.NoError(t, w.Set([]byte("A"), []byte{1}))
		require.NoError(t, w.Set([]byte("B"), []byte{2}))
		return w.Delete([]byte("B"))
	})
	require.NoError(t, err)

	value, err := s.Get([]byte("B"))
	require.NoError(t, err)
	require.Nil(t, value)

	err = s.Update(func(w store.Writable) error {
		require.NoError(t, w.Set([]byte("A"), []byte{9}))
		return fake.GetError()
	})
	require.EqualError(t, err, fake.Err("update failed"))

	// The transaction has been rolled back.
	value, err = s.Get([]byte("A"))
	require.NoError(t, err)
	require.Equal(t, []byte{1}, value)

	s.bucket = nil
	err = s.Update(func(store.Writable) error { return nil })
	require.EqualError(t, err,
		"update failed: bucket: create bucket failed: bucket name required")
}

// -----------------------------------------------------------------------------
// Utility functions

func makeClosedDB(t *testing.T) DB {
	db := makeDB(t)
	require.NoError(t, db.Close())

	return db
}
