package vaultlock

import (
	"sync"
	"sync/atomic"

	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// HandleTable allocates and owns open file/directory handles on behalf
// of mount backends. IDs are monotonically increasing for the lifetime
// of the table and are never reused, even after Remove — a stale handle
// id a backend still holds after Remove always misses rather than
// silently hitting a different, newer handle.
type HandleTable[T any] struct {
	next atomic.Uint64

	mu      sync.RWMutex
	entries map[uint64]T
}

// NewHandleTable creates an empty handle table for state type T (a
// streaming.Reader, a streaming.Writer, or a backend-specific directory
// cursor).
func NewHandleTable[T any]() *HandleTable[T] {
	return &HandleTable[T]{entries: make(map[uint64]T)}
}

// Insert allocates a fresh id for state and stores it, returning the id.
func (t *HandleTable[T]) Insert(state T) uint64 {
	id := t.next.Add(1)
	t.mu.Lock()
	t.entries[id] = state
	t.mu.Unlock()
	return id
}

// Get returns the state for id, or vaulterr.ErrInvalidHandle if it does
// not exist (never existed, or was already removed).
func (t *HandleTable[T]) Get(id uint64) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[id]
	if !ok {
		var zero T
		return zero, vaulterr.NewInvalidHandleError()
	}
	return v, nil
}

// Remove deletes id from the table and returns its state, or
// vaulterr.ErrInvalidHandle if it did not exist.
func (t *HandleTable[T]) Remove(id uint64) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.entries[id]
	if !ok {
		var zero T
		return zero, vaulterr.NewInvalidHandleError()
	}
	delete(t.entries, id)
	return v, nil
}

// Len reports the number of currently open handles.
func (t *HandleTable[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
