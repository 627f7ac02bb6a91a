// Package store defines the primitives of a simple key/value storage used as
// the state of an execution session.
//
// Documentation Last Review: 19.10.2026
//
package store

// Readable is the interface for a readable store.
type Readable interface {
	// Get returns the value of the key, or nil if it is not set. The caller
	// owns the returned slice.
	Get(key []byte) ([]byte, error)
}

// Writable is the interface for a writable store.
type Writable interface {
	Set(key []byte, value []byte) error

	Delete(key []byte) error
}

// Snapshot is a state of the store that can be read and write independently. A
// write is applied only to the snapshot reference.
type Snapshot interface {
	Readable
	Writable
}

// Backend is a store that can apply a batch of writes atomically. It is the
// base layer on which staged snapshots are committed.
type Backend interface {
	Readable

	// Update executes the callback in the context of an atomic update. Either
	// every write done by the callback is applied, or none if it returns an
	// error.
	Update(fn func(Writable) error) error
}
