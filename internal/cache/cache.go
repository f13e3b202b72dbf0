package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// FetchFunc loads a value from the source of truth on cache miss.
type FetchFunc[T any] func(ctx context.Context, key string) (T, error)

// Cache is a typed key-value cache with TTL.
type Cache[T any] interface {
	// Get returns ErrCacheMiss if the key does not exist or has expired.
	Get(ctx context.Context, key string) (T, error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// GetWithFetch returns the cached value or calls fetch and caches its result.
	GetWithFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc[T]) (T, error)

	Health(ctx context.Context) error
	Close() error
}

// encode and decode serialize values for the redis-backed caches.
func encode[T any](value T) (string, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return string(b), nil
}

func decode[T any](raw string) (T, error) {
	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return value, nil
}
