package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/cellardoor/indieauth/domain"
)

// MemoryCodeStore implements CodeStore on a capacity-bounded LRU with a
// fixed time-to-live per record. The LRU serializes access internally, so
// concurrent authorization and exchange requests are safe.
type MemoryCodeStore struct {
	lru *expirable.LRU[string, *domain.AuthCode]
}

// NewMemoryCodeStore creates an in-memory code store. When capacity would be
// exceeded, the least-recently-used record is evicted first. Records older
// than ttl are treated as absent.
//
//nolint:ireturn
func NewMemoryCodeStore(capacity int, ttl time.Duration) CodeStore {
	return &MemoryCodeStore{
		lru: expirable.NewLRU[string, *domain.AuthCode](capacity, nil, ttl),
	}
}

// Put implements CodeStore.Put.
func (s *MemoryCodeStore) Put(_ context.Context, code *domain.AuthCode) error {
	s.lru.Add(code.Code, code)
	return nil
}

// Get implements CodeStore.Get. A hit refreshes the record's recency for
// eviction purposes but never its TTL.
func (s *MemoryCodeStore) Get(_ context.Context, code string) (*domain.AuthCode, error) {
	rec, ok := s.lru.Get(code)
	if !ok {
		return nil, ErrCodeNotFound
	}
	return rec, nil
}

// Delete removes a code from the store.
func (s *MemoryCodeStore) Delete(_ context.Context, code string) error {
	s.lru.Remove(code)
	return nil
}

// Count returns the number of live records.
func (s *MemoryCodeStore) Count(_ context.Context) int {
	return s.lru.Len()
}

// Close implements CodeStore.Close. The expirable LRU holds no resources
// that need explicit release.
func (s *MemoryCodeStore) Close() error {
	return nil
}
