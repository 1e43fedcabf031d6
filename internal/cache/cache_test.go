package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"

	"github.com/DeafMist/stock-sentiment/backend/internal/models"
)

func sampleResult() models.AggregateResult {
	res := models.EmptyResult()
	res.TotalSentiment = models.Positive
	res.TotalScore = 87
	res.SentimentCount.Positive.News = 4
	res.Keywords.Total = []string{"반도체", "실적"}
	return res
}

func TestMemoryExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	mem := NewMemory()
	mem.now = func() time.Time { return now }

	require.NoError(t, mem.Set(ctx, "k", []byte("v"), time.Minute))
	got, ok, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), got)

	now = now.Add(2 * time.Minute)
	_, ok, err = mem.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, mem.Delete(ctx, "k"))
	_, ok, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResultsRoundTripInMemory(t *testing.T) {
	ctx := context.Background()
	store, locker := Open("", time.Minute)
	require.Nil(t, locker)
	results := NewResults(store, time.Minute)
	require.True(t, results.Enabled())

	_, ok, err := results.Get(ctx, "005930")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, results.Put(ctx, "005930", sampleResult()))
	got, ok, err := results.Get(ctx, "005930")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, sampleResult(), got)

	require.NoError(t, results.Invalidate(ctx, "005930"))
	_, ok, err = results.Get(ctx, "005930")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResultsDisabledWithoutTTL(t *testing.T) {
	ctx := context.Background()
	results := NewResults(NewMemory(), 0)
	require.False(t, results.Enabled())
	require.NoError(t, results.Put(ctx, "005930", sampleResult()))
	_, ok, err := results.Get(ctx, "005930")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResultsOverRedis(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	results := NewResults(NewRedis(db), 5*time.Minute)

	raw, err := json.Marshal(sampleResult())
	require.NoError(t, err)

	mock.ExpectSet(keyPrefix+"005930", raw, 5*time.Minute).SetVal("OK")
	require.NoError(t, results.Put(ctx, "005930", sampleResult()))

	mock.ExpectGet(keyPrefix + "005930").SetVal(string(raw))
	got, ok, err := results.Get(ctx, "005930")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, sampleResult(), got)

	mock.ExpectGet(keyPrefix + "000660").RedisNil()
	_, ok, err = results.Get(ctx, "000660")
	require.NoError(t, err)
	require.False(t, ok)

	mock.ExpectDel(keyPrefix + "005930").SetVal(1)
	require.NoError(t, results.Invalidate(ctx, "005930"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisErrorPropagates(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedis(db)

	mock.ExpectGet("k").SetErr(errors.New("connection refused"))
	_, _, err := store.Get(context.Background(), "k")
	require.ErrorContains(t, err, "connection refused")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultsRejectsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.Set(ctx, keyPrefix+"005930", []byte("{not json"), 0))
	_, _, err := NewResults(mem, time.Minute).Get(ctx, "005930")
	require.ErrorContains(t, err, "decode cached result")
}
