package flagstore

import (
	"strings"
	"sync"
)

// MemStore is an in-memory Store for tests and ephemeral runs.
type MemStore struct {
	mu     sync.RWMutex
	values map[string]bool

	// FailWrites simulates storage being unavailable: Set/Reset still
	// update memory but report an error, matching FileStore semantics.
	FailWrites bool
	WriteErr   error
}

// NewMemStore constructs an empty in-memory flag store.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]bool)}
}

func (s *MemStore) Get(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[strings.TrimSpace(key)]
}

func (s *MemStore) Set(key string, value bool) error {
	k := strings.TrimSpace(key)
	if k == "" {
		return ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.values[k]; ok && current == value {
		return nil
	}
	s.values[k] = value
	if s.FailWrites {
		return s.writeErr()
	}
	return nil
}

func (s *MemStore) Reset(key string) error {
	k := strings.TrimSpace(key)
	if k == "" {
		return ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, k)
	if s.FailWrites {
		return s.writeErr()
	}
	return nil
}

func (s *MemStore) Snapshot() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s *MemStore) writeErr() error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	return ErrWriteUnavailable
}
