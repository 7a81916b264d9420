package kv

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory. This is the default lock
// backend: a single crpipe process only needs to serialize its own jobs.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
}

type memoryItem struct {
	value   []byte
	expires time.Time // zero = never
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem)}
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = newItem(value, ttl)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[key]
	if !ok || item.expired() {
		delete(s.items, key)
		return nil, ErrNotFound
	}
	return item.value, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

func (s *MemoryStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.items[key]; ok && !item.expired() {
		return false, nil
	}
	s.items[key] = newItem(value, ttl)
	return true, nil
}

// DeleteIfEqual removes key only while it still holds value. Lock release
// uses this so an expired-and-reacquired lock is left with its new owner.
func (s *MemoryStore) DeleteIfEqual(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[key]
	if !ok || item.expired() || !bytes.Equal(item.value, value) {
		return nil
	}
	delete(s.items, key)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func newItem(value []byte, ttl time.Duration) memoryItem {
	item := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expires = time.Now().Add(ttl)
	}
	return item
}

func (i memoryItem) expired() bool {
	return !i.expires.IsZero() && time.Now().After(i.expires)
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
