// Package prefixed implements a snapshot adapter that namespaces the keys with
// a prefix. It isolates the storage of contracts that share the same state.
package prefixed

import (
	"encoding/binary"

	"go.dedis.ch/inkconn/core/store"
	"golang.org/x/crypto/blake2b"
)

type readable struct {
	store.Readable
	prefix []byte
}

type writable struct {
	store.Writable
	prefix []byte
}

type snapshot struct {
	*writable
	*readable
}

// NewSnapshot creates a new prefixed Snapshot.
func NewSnapshot(prefix []byte, snap store.Snapshot) store.Snapshot {
	return &snapshot{
		&writable{snap, prefix},
		&readable{snap, prefix},
	}
}

// NewReadable creates a new prefixed Readable.
func NewReadable(prefix []byte, r store.Readable) store.Readable {
	return &readable{r, prefix}
}

// Get implements store.Readable
func (s *readable) Get(key []byte) ([]byte, error) {
	k := NewPrefixedKey(s.prefix, key)
	return s.Readable.Get(k)
}

// Set implements store.Writable
func (s *writable) Set(key []byte, value []byte) error {
	k := NewPrefixedKey(s.prefix, key)
	return s.Writable.Set(k, value)
}

// Delete implements store.Writable
func (s *writable) Delete(key []byte) error {
	k := NewPrefixedKey(s.prefix, key)
	return s.Writable.Delete(k)
}

// NewPrefixedKey creates a 256bit (hashed) key from a prefix and a base key.
// The lengths are part of the digest so that two pairs cannot collide by
// moving bytes from the key to the prefix.
func NewPrefixedKey(prefix, key []byte) []byte {
	h, _ := blake2b.New256(nil)

	length := []byte{0, 0}
	binary.LittleEndian.PutUint16(length, uint16(len(prefix)))

	h.Write(length)
	h.Write(prefix)

	length = []byte{0, 0}
	binary.LittleEndian.PutUint16(length, uint16(len(key)))

	h.Write(length)
	h.Write(key)

	return h.Sum(nil)
}
