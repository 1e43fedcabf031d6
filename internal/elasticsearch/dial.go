package elasticsearch

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DialOptions bound the startup connection loop.
type DialOptions struct {
	Attempts   int
	FirstDelay time.Duration
	MaxDelay   time.Duration
}

// DefaultDialOptions wait roughly three minutes for the cluster to come up.
var DefaultDialOptions = DialOptions{Attempts: 10, FirstDelay: 2 * time.Second, MaxDelay: 30 * time.Second}

// Dial creates a Store, waits until the cluster answers a ping and makes sure
// the index exists. Delays between attempts double up to MaxDelay.
func Dial(ctx context.Context, addr, index string, log *slog.Logger, opts DialOptions) (*Store, error) {
	store, err := New(addr, index, log)
	if err != nil {
		return nil, err
	}

	delay := opts.FirstDelay
	var lastErr error
	for attempt := 1; attempt <= max(opts.Attempts, 1); attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		lastErr = store.Ping(pingCtx)
		cancel()
		if lastErr == nil {
			break
		}

		log.Warn("elasticsearch ping failed, retrying",
			slog.Any("err", lastErr),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", opts.Attempts),
			slog.Duration("retry_in", delay),
		)
		if attempt == opts.Attempts {
			return nil, fmt.Errorf("connect to elasticsearch: %w", lastErr)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		delay *= 2
		if opts.MaxDelay > 0 && delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", lastErr)
	}

	if err := store.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
