package kvstore

import (
	"encoding/json"
	"sync"
	"time"
)

// memoryStore is a process-local driver for tests. It round-trips values
// through JSON so decode behaviour matches the file and redis drivers.
type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory Store.
func NewMemory() Store {
	return &memoryStore{data: map[string][]byte{}}
}

func (s *memoryStore) Get(key string, dest interface{}) bool {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (s *memoryStore) Set(key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Delete(keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.data, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Has(key string) bool {
	s.mu.RLock()
	_, ok := s.data[key]
	s.mu.RUnlock()
	return ok
}
