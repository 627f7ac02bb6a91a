// Package mem implements in-memory stores.
//
// The trie is an overlay on top of a readable store. It records the updates
// in memory and only keeps the updates of the current layer, so that it can be
// discarded, or applied to its parent at once.
//
// Documentation Last Review: 19.10.2026
//
package mem

import (
	"sort"
	"sync"

	"go.dedis.ch/inkconn/core/store"
	"golang.org/x/xerrors"
)

type item struct {
	value   []byte
	deleted bool
}

// Trie is an in-memory overlay. When reading, it'll look up by following the
// parent if the key is not found in the layer.
//
// - implements store.Snapshot
type Trie struct {
	parent store.Readable
	store  map[string]item
}

// NewTrie returns a new empty trie without parent.
func NewTrie() *Trie {
	return &Trie{
		store: make(map[string]item),
	}
}

// NewOverlay returns a new empty trie on top of the given parent.
func NewOverlay(parent store.Readable) *Trie {
	trie := NewTrie()
	trie.parent = parent

	return trie
}

// Get implements store.Readable. It returns a copy of the value of the layer if
// any, otherwise it looks up the parent.
func (t *Trie) Get(key []byte) ([]byte, error) {
	it, found := t.store[string(key)]
	if found {
		if it.deleted {
			return nil, nil
		}

		return clone(it.value), nil
	}

	if t.parent == nil {
		return nil, nil
	}

	value, err := t.parent.Get(key)
	if err != nil {
		return nil, xerrors.Errorf("parent: %v", err)
	}

	return value, nil
}

// Set implements store.Writable. It sets the value in the layer.
func (t *Trie) Set(key, value []byte) error {
	buffer := make([]byte, len(value))
	copy(buffer, value)

	t.store[string(key)] = item{value: buffer}

	return nil
}

// Delete implements store.Writable. It marks the key as deleted in the layer.
func (t *Trie) Delete(key []byte) error {
	t.store[string(key)] = item{deleted: true}

	return nil
}

// Len returns the number of updates in the layer.
func (t *Trie) Len() int {
	return len(t.store)
}

// Stage creates a child layer that is passed to the callback, then returns it.
// The trie itself is left untouched.
func (t *Trie) Stage(fn func(store.Snapshot) error) (*Trie, error) {
	child := NewOverlay(t)

	err := fn(child)
	if err != nil {
		return nil, xerrors.Errorf("callback failed: %v", err)
	}

	return child, nil
}

// Apply writes the updates of the layer to the writable store. Keys are
// written in order so that the result is deterministic.
func (t *Trie) Apply(w store.Writable) error {
	keys := make([]string, 0, len(t.store))
	for key := range t.store {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		it := t.store[key]

		var err error
		if it.deleted {
			err = w.Delete([]byte(key))
		} else {
			err = w.Set([]byte(key), it.value)
		}

		if err != nil {
			return xerrors.Errorf("failed to write %#x: %v", key, err)
		}
	}

	return nil
}

// Store is a thread-safe in-memory backend.
//
// - implements store.Backend
type Store struct {
	sync.Mutex
	values map[string][]byte
}

// NewStore returns a new empty in-memory backend.
func NewStore() *Store {
	return &Store{
		values: make(map[string][]byte),
	}
}

// Get implements store.Readable. It returns a copy of the value.
func (s *Store) Get(key []byte) ([]byte, error) {
	s.Lock()
	defer s.Unlock()

	return clone(s.values[string(key)]), nil
}

// Update implements store.Backend. The writes are collected in an overlay and
// only applied if the callback succeeds.
func (s *Store) Update(fn func(store.Writable) error) error {
	s.Lock()
	defer s.Unlock()

	overlay := NewTrie()

	err := fn(overlay)
	if err != nil {
		return xerrors.Errorf("callback failed: %v", err)
	}

	for key, it := range overlay.store {
		if it.deleted {
			delete(s.values, key)
		} else {
			s.values[key] = it.value
		}
	}

	return nil
}

func clone(value []byte) []byte {
	if value == nil {
		return nil
	}

	return append([]byte{}, value...)
}
