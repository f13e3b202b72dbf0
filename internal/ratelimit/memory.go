package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore keeps records in process memory. Suitable for a single instance.
type MemoryStore struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, Record]
}

// NewMemoryStore creates a memory store and starts its expiry loop.
func NewMemoryStore() *MemoryStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, Record](),
	)
	go cache.Start()

	return &MemoryStore{cache: cache}
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, key string) (Record, bool, error) {
	item := s.cache.Get(key)
	if item == nil {
		return Record{}, false, nil
	}
	return item.Value(), true, nil
}

// Increment implements Store.Increment.
func (s *MemoryStore) Increment(_ context.Context, key string, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec Record
	if item := s.cache.Get(key); item != nil {
		rec = item.Value()
	}
	rec.Count++
	s.cache.Set(key, rec, ttl)
	return rec.Count, nil
}

// Block implements Store.Block.
func (s *MemoryStore) Block(_ context.Context, key string, until time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec Record
	if item := s.cache.Get(key); item != nil {
		rec = item.Value()
	}
	rec.BlockedUntil = until
	s.cache.Set(key, rec, ttl)
	return nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// Len returns the number of tracked clients.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

// Close stops the expiry loop.
func (s *MemoryStore) Close() error {
	s.cache.Stop()
	return nil
}
