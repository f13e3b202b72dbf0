// Package ratelimit counts failed activation attempts per client and blocks
// clients that exceed the threshold for a fixed window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Default policy
const (
	DefaultMaxAttempts   = 5
	DefaultBlockDuration = 15 * time.Minute
)

const keyPrefix = "activation:"

// Record is the failure state kept per client.
type Record struct {
	Count        int
	BlockedUntil time.Time
}

// Store persists failure records. Implementations must make Increment atomic.
type Store interface {
	// Get returns the record for key and whether it exists.
	Get(ctx context.Context, key string) (Record, bool, error)
	// Increment bumps the failure count and (re)sets the record's ttl.
	Increment(ctx context.Context, key string, ttl time.Duration) (int, error)
	// Block stamps BlockedUntil and keeps the record alive for ttl.
	Block(ctx context.Context, key string, until time.Time, ttl time.Duration) error
	// Delete removes the record.
	Delete(ctx context.Context, key string) error
}

// Result is the outcome of a Check or RecordFailure call.
type Result struct {
	Allowed           bool
	RemainingAttempts int
	BlockedFor        time.Duration
}

// BlockedMinutes is the remaining block rounded up to whole minutes.
func (r Result) BlockedMinutes() int {
	if r.BlockedFor <= 0 {
		return 0
	}
	return int((r.BlockedFor + time.Minute - 1) / time.Minute)
}

// RetryAfterSeconds is the remaining block rounded up to whole seconds.
func (r Result) RetryAfterSeconds() int {
	if r.BlockedFor <= 0 {
		return 0
	}
	return int((r.BlockedFor + time.Second - 1) / time.Second)
}

// Config holds the limiter policy.
type Config struct {
	MaxAttempts   int
	BlockDuration time.Duration
}

// Limiter guards activation endpoints against brute force.
type Limiter struct {
	store         Store
	maxAttempts   int
	blockDuration time.Duration
	now           func() time.Time
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock overrides the limiter's time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a limiter over store. Zero config values fall back to defaults.
func New(store Store, cfg Config, opts ...Option) *Limiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BlockDuration <= 0 {
		cfg.BlockDuration = DefaultBlockDuration
	}
	l := &Limiter{
		store:         store,
		maxAttempts:   cfg.MaxAttempts,
		blockDuration: cfg.BlockDuration,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check reports whether ip may attempt an activation. A lapsed block is
// deleted and the client gets its full budget back.
func (l *Limiter) Check(ctx context.Context, ip string) (Result, error) {
	key := keyPrefix + ip
	rec, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read rate limit record: %w", err)
	}
	if !ok {
		return l.allowed(0), nil
	}

	if !rec.BlockedUntil.IsZero() {
		now := l.now()
		if now.Before(rec.BlockedUntil) {
			return Result{BlockedFor: rec.BlockedUntil.Sub(now)}, nil
		}
		if err := l.store.Delete(ctx, key); err != nil {
			return Result{}, fmt.Errorf("failed to reset rate limit record: %w", err)
		}
		return l.allowed(0), nil
	}

	return l.allowed(rec.Count), nil
}

// RecordFailure counts a failed attempt. Reaching the threshold blocks ip for
// the block window. Failures while blocked do not extend the block.
func (l *Limiter) RecordFailure(ctx context.Context, ip string) (Result, error) {
	current, err := l.Check(ctx, ip)
	if err != nil {
		return Result{}, err
	}
	if !current.Allowed {
		return current, nil
	}

	key := keyPrefix + ip
	count, err := l.store.Increment(ctx, key, l.blockDuration)
	if err != nil {
		return Result{}, fmt.Errorf("failed to record activation failure: %w", err)
	}

	if count >= l.maxAttempts {
		until := l.now().Add(l.blockDuration)
		if err := l.store.Block(ctx, key, until, l.blockDuration); err != nil {
			return Result{}, fmt.Errorf("failed to block client: %w", err)
		}
		log.Info().
			Str("ip", ip).
			Int("failures", count).
			Time("blocked_until", until).
			Msg("activation attempts blocked")
		return Result{BlockedFor: l.blockDuration}, nil
	}

	log.Debug().Str("ip", ip).Int("failures", count).Msg("activation failure recorded")
	return l.allowed(count), nil
}

// Clear forgets every failure recorded for ip.
func (l *Limiter) Clear(ctx context.Context, ip string) error {
	if err := l.store.Delete(ctx, keyPrefix+ip); err != nil {
		return fmt.Errorf("failed to clear rate limit record: %w", err)
	}
	return nil
}

func (l *Limiter) allowed(count int) Result {
	return Result{
		Allowed:           true,
		RemainingAttempts: max(l.maxAttempts-count, 0),
	}
}
