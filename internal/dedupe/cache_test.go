package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheSeenDuplicate(t *testing.T) {
	cache := NewCache(10, time.Minute)
	require.False(t, cache.IsSeen("005930"))
	cache.MarkSeen("005930")
	require.True(t, cache.IsSeen("005930"))
}

func TestCacheTTLExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewCache(10, time.Minute)
	cache.now = func() time.Time { return now }

	cache.MarkSeen("000660")
	require.True(t, cache.IsSeen("000660"))

	now = now.Add(2 * time.Minute)
	require.False(t, cache.IsSeen("000660"))
}

func TestCacheCapacityEvictsOldest(t *testing.T) {
	cache := NewCache(1, time.Minute)
	cache.MarkSeen("first")
	cache.MarkSeen("second")

	require.False(t, cache.IsSeen("first"))
	require.True(t, cache.IsSeen("second"))
}

func TestCacheRemarkMovesToBack(t *testing.T) {
	cache := NewCache(2, time.Minute)
	cache.MarkSeen("a")
	cache.MarkSeen("b")
	cache.MarkSeen("a")
	cache.MarkSeen("c")

	require.True(t, cache.IsSeen("a"))
	require.False(t, cache.IsSeen("b"))
	require.True(t, cache.IsSeen("c"))
}

func TestSet(t *testing.T) {
	s := NewSet()
	require.True(t, s.Add("삼성전자 가즈아"))
	require.False(t, s.Add("삼성전자 가즈아"))
	require.True(t, s.Has("삼성전자 가즈아"))
	require.False(t, s.Has("other"))
	require.Equal(t, 1, s.Len())
}
