package kv

import (
	"context"
	"sync"
)

// MemoryStore keeps values in a map. A positive quota caps the total number
// of stored bytes, mirroring the browser storage limit.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	quota  int
	closed bool
}

func NewMemoryStore(quotaBytes int) *MemoryStore {
	return &MemoryStore{values: make(map[string]string), quota: quotaBytes}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.quota > 0 {
		used := 0
		for k, v := range s.values {
			if k != key {
				used += len(k) + len(v)
			}
		}
		if used+len(key)+len(value) > s.quota {
			return ErrQuotaExceeded
		}
	}
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
