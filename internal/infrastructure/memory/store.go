// Package memory keeps what the agent was asked to remember for the life of
// the process.
package memory

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"browser-pilot/internal/application/port/output"
)

var _ output.MemoryPort = (*Store)(nil)

const DefaultSize = 256

// Store is a bounded key/value memory. The least recently used key is
// evicted once the store is full.
type Store struct {
	cache *lru.Cache[string, string]
}

func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create memory store: %w", err)
	}
	return &Store{cache: cache}, nil
}

func (s *Store) Remember(key, value string) {
	s.cache.Add(key, value)
}

func (s *Store) Recall(key string) (string, bool) {
	return s.cache.Get(key)
}

func (s *Store) Len() int {
	return s.cache.Len()
}

// Keys lists keys from oldest to newest.
func (s *Store) Keys() []string {
	return s.cache.Keys()
}
