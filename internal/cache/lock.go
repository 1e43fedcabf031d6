package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "sentiment:lock:"

// releaseScript deletes the lock only while it still holds our token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) end return 0`

// ErrLockTimeout is returned when ctx ends before the lock is acquired.
var ErrLockTimeout = errors.New("lock not acquired")

// Locker is a Redis mutex per instrument shared by every process using the
// same server. A holder that dies releases the lock after ttl.
type Locker struct {
	client redis.Cmdable
	ttl    time.Duration
	retry  time.Duration
	token  func() string
}

// NewLocker builds a Locker. retry is the poll interval while the lock is held elsewhere.
func NewLocker(client redis.Cmdable, ttl, retry time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if retry <= 0 {
		retry = 200 * time.Millisecond
	}
	return &Locker{client: client, ttl: ttl, retry: retry, token: uuid.NewString}
}

// Lock blocks until the instrument lock is held or ctx ends.
func (l *Locker) Lock(ctx context.Context, instrument string) (func(), error) {
	key := lockPrefix + instrument
	token := l.token()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", instrument, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-time.After(l.retry):
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w: %w", instrument, ErrLockTimeout, ctx.Err())
		}
	}
}

func (l *Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = l.client.Eval(ctx, releaseScript, []string{key}, token).Err()
}
