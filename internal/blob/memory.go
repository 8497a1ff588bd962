package blob

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryStore struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

type memoryBlob struct {
	data        []byte
	contentType string
}

// NewMemory returns an in-memory Store suitable for tests.
func NewMemory() Store {
	return &memoryStore{blobs: make(map[string]memoryBlob)}
}

func (s *memoryStore) Driver() Driver { return DriverMemory }

func (s *memoryStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	s.blobs[key] = memoryBlob{data: copied, contentType: contentType}
	return nil
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, "", ErrNotFound
	}
	copied := make([]byte, len(b.data))
	copy(copied, b.data)
	return copied, b.contentType, nil
}

func (s *memoryStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return false, nil
	}
	delete(s.blobs, key)
	return true, nil
}

func (s *memoryStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.blobs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
