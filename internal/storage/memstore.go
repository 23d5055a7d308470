package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Failures can be injected per operation.
type MemoryStore struct {
	mu sync.Mutex
	kv map[string]string

	FailGet   bool
	FailSet   bool
	FailClear bool
	Writes    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{kv: map[string]string{}}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailGet {
		return "", ErrInjectedFail
	}
	return s.kv[key], nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSet {
		return ErrInjectedFail
	}
	s.kv[key] = value
	s.Writes++
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSet {
		return ErrInjectedFail
	}
	delete(s.kv, key)
	s.Writes++
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailClear {
		return ErrInjectedFail
	}
	s.kv = map[string]string{}
	s.Writes++
	return nil
}

// Len returns the number of keys held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.kv)
}

var _ Store = (*MemoryStore)(nil)
