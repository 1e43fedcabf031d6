// Package cache keeps recent aggregate results so repeated requests for the
// same instrument skip a full crawl.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DeafMist/stock-sentiment/backend/internal/models"
)

const keyPrefix = "sentiment:result:"

// Store is a byte-oriented key value store with expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Open returns a Redis store and an instrument Locker sharing one client when
// addr is set. Without addr it returns an in-process store and a nil Locker.
func Open(addr string, lockTTL time.Duration) (Store, *Locker) {
	if addr == "" {
		return NewMemory(), nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return NewRedis(client), NewLocker(client, lockTTL, 0)
}

// Results stores AggregateResult values keyed by instrument.
type Results struct {
	store Store
	ttl   time.Duration
}

// NewResults wraps store. A non-positive ttl disables caching.
func NewResults(store Store, ttl time.Duration) *Results {
	return &Results{store: store, ttl: ttl}
}

// Enabled reports whether results are cached at all.
func (r *Results) Enabled() bool {
	return r != nil && r.store != nil && r.ttl > 0
}

// Get returns the cached result for instrument.
func (r *Results) Get(ctx context.Context, instrument string) (models.AggregateResult, bool, error) {
	if !r.Enabled() {
		return models.AggregateResult{}, false, nil
	}

	raw, ok, err := r.store.Get(ctx, keyPrefix+instrument)
	if err != nil || !ok {
		return models.AggregateResult{}, false, err
	}

	var res models.AggregateResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return models.AggregateResult{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return res, true, nil
}

// Put caches res for instrument.
func (r *Results) Put(ctx context.Context, instrument string, res models.AggregateResult) error {
	if !r.Enabled() {
		return nil
	}

	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return r.store.Set(ctx, keyPrefix+instrument, raw, r.ttl)
}

// Invalidate drops the cached result for instrument.
func (r *Results) Invalidate(ctx context.Context, instrument string) error {
	if !r.Enabled() {
		return nil
	}
	return r.store.Delete(ctx, keyPrefix+instrument)
}
