package metrics

import (
	"context"
	"time"

	"github.com/go-authgate/screenpair/internal/cache"
)

// Cache keys for gauge counts
const (
	keyLiveBindings  = "gauge:live_bindings"
	keyPendingCodes  = "gauge:pending_codes"
	keyOnlineScreens = "gauge:online_screens"
)

// GaugeStore is the subset of store.Store needed to compute gauges.
type GaugeStore interface {
	CountLiveBindings(ctx context.Context) (int64, error)
	CountPendingActivationCodes(ctx context.Context, now time.Time) (int64, error)
	CountOnlineScreens(ctx context.Context, since time.Time) (int64, error)
}

// CacheWrapper provides read-through caching of gauge counts so that several
// replicas refreshing gauges do not all hit the database.
type CacheWrapper struct {
	store GaugeStore
	cache cache.Cache[int64]
}

// NewCacheWrapper creates a new cache wrapper for metrics.
func NewCacheWrapper(store GaugeStore, cache cache.Cache[int64]) *CacheWrapper {
	return &CacheWrapper{
		store: store,
		cache: cache,
	}
}

func (w *CacheWrapper) LiveBindingsCount(ctx context.Context, ttl time.Duration) (int64, error) {
	return w.cache.GetWithFetch(ctx, keyLiveBindings, ttl,
		func(ctx context.Context, _ string) (int64, error) {
			return w.store.CountLiveBindings(ctx)
		},
	)
}

func (w *CacheWrapper) PendingActivationCodesCount(ctx context.Context, ttl time.Duration) (int64, error) {
	return w.cache.GetWithFetch(ctx, keyPendingCodes, ttl,
		func(ctx context.Context, _ string) (int64, error) {
			return w.store.CountPendingActivationCodes(ctx, time.Now().UTC())
		},
	)
}

// OnlineScreensCount counts screens seen within window.
func (w *CacheWrapper) OnlineScreensCount(
	ctx context.Context,
	window time.Duration,
	ttl time.Duration,
) (int64, error) {
	return w.cache.GetWithFetch(ctx, keyOnlineScreens, ttl,
		func(ctx context.Context, _ string) (int64, error) {
			return w.store.CountOnlineScreens(ctx, time.Now().UTC().Add(-window))
		},
	)
}

// UpdateGauges refreshes every gauge on recorder. A failed query is counted
// and leaves the previous gauge value in place.
func (w *CacheWrapper) UpdateGauges(
	ctx context.Context,
	recorder Recorder,
	onlineWindow time.Duration,
	ttl time.Duration,
) {
	if count, err := w.LiveBindingsCount(ctx, ttl); err != nil {
		recorder.RecordDatabaseQueryError("count_live_bindings")
	} else {
		recorder.SetActiveBindingsCount(count)
	}

	if count, err := w.PendingActivationCodesCount(ctx, ttl); err != nil {
		recorder.RecordDatabaseQueryError("count_pending_codes")
	} else {
		recorder.SetPendingActivationCodesCount(count)
	}

	if count, err := w.OnlineScreensCount(ctx, onlineWindow, ttl); err != nil {
		recorder.RecordDatabaseQueryError("count_online_screens")
	} else {
		recorder.SetOnlineScreensCount(count)
	}
}
