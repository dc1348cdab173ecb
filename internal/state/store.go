// Package state implements the client-side persistence boundary: a durable
// key/value store for the auth credential and an ephemeral store for the
// analytics session id and recency buffers.
//
// Ownership is deliberately narrow: only the auth service touches the durable
// credential key, and only the session subsystem touches the ephemeral keys.
// Both stores degrade gracefully; callers that can tolerate storage loss
// (session id, recency buffers) treat errors as "not persisted" rather than
// failures.
package state

import (
	"errors"
	"sync"
)

// ErrKeyNotFound is returned when a requested key has no stored value.
var ErrKeyNotFound = errors.New("state: key not found")

// DurableStore persists values across process restarts. The auth credential
// lives here.
type DurableStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// EphemeralStore persists values for the lifetime of one client session,
// the per-tab storage analogue. Values are lost on restart by design.
type EphemeralStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStore is a mutex-guarded in-memory key/value store. It backs the
// ephemeral session-scoped storage and doubles as the test fake for the
// durable interface.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]string

	// FailWrites makes Set/Delete return an error, for exercising the
	// degraded-storage paths in tests.
	FailWrites bool
	// FailReads makes Get return an error.
	FailReads bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

var errStoreUnavailable = errors.New("state: store unavailable")

// Get returns the stored value or ErrKeyNotFound.
func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return "", errStoreUnavailable
	}
	v, ok := s.m[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

// Set stores value under key, replacing any previous value.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errStoreUnavailable
	}
	s.m[key] = value
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errStoreUnavailable
	}
	delete(s.m, key)
	return nil
}

// Len reports the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
