package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Compile-time interface check.
var _ Cache[struct{}] = (*MemoryCache[struct{}])(nil)

// MemoryCache keeps values in process memory. Suitable for single-instance deployments.
type MemoryCache[T any] struct {
	items *ttlcache.Cache[string, T]
}

// NewMemoryCache creates a memory cache and starts its expiry loop.
func NewMemoryCache[T any]() *MemoryCache[T] {
	items := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, T](),
	)
	go items.Start()

	return &MemoryCache[T]{items: items}
}

func (m *MemoryCache[T]) Get(_ context.Context, key string) (T, error) {
	item := m.items.Get(key)
	if item == nil || item.IsExpired() {
		var zero T
		return zero, ErrCacheMiss
	}
	return item.Value(), nil
}

func (m *MemoryCache[T]) Set(_ context.Context, key string, value T, ttl time.Duration) error {
	m.items.Set(key, value, ttl)
	return nil
}

func (m *MemoryCache[T]) Delete(_ context.Context, key string) error {
	m.items.Delete(key)
	return nil
}

// GetWithFetch loads missing keys through a ttlcache loader. Concurrent
// misses on the same key may each call fetch.
func (m *MemoryCache[T]) GetWithFetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetch FetchFunc[T],
) (T, error) {
	var fetchErr error
	loader := ttlcache.LoaderFunc[string, T](
		func(c *ttlcache.Cache[string, T], key string) *ttlcache.Item[string, T] {
			value, err := fetch(ctx, key)
			if err != nil {
				fetchErr = err
				return nil
			}
			return c.Set(key, value, ttl)
		},
	)

	item := m.items.Get(key, ttlcache.WithLoader[string, T](loader))
	if fetchErr != nil {
		var zero T
		return zero, fetchErr
	}
	if item == nil {
		var zero T
		return zero, ErrCacheMiss
	}
	return item.Value(), nil
}

// Health always succeeds for the memory cache.
func (m *MemoryCache[T]) Health(context.Context) error {
	return nil
}

// Close stops the expiry loop and drops all entries.
func (m *MemoryCache[T]) Close() error {
	m.items.Stop()
	m.items.DeleteAll()
	return nil
}
