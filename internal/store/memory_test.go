package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/stock-sentiment/backend/internal/models"
	"github.com/DeafMist/stock-sentiment/backend/internal/store"
)

func TestMemoryPartitions(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, m.InsertOne(ctx, models.StoredRecord{ID: "b", InstrumentID: "005930", Source: models.SourceNews, Seq: 2}))
	require.NoError(t, m.InsertOne(ctx, models.StoredRecord{ID: "a", InstrumentID: "005930", Source: models.SourceNews, Seq: 1}))
	require.NoError(t, m.InsertOne(ctx, models.StoredRecord{ID: "c", InstrumentID: "005930", Source: models.SourceBoard, Seq: 1}))

	news, err := m.FindAll(ctx, "005930", models.SourceNews)
	require.NoError(t, err)
	require.Len(t, news, 2)
	require.Equal(t, "a", news[0].ID)

	require.NoError(t, m.DeleteAll(ctx, "005930", models.SourceNews))
	news, err = m.FindAll(ctx, "005930", models.SourceNews)
	require.NoError(t, err)
	require.Empty(t, news)

	board, err := m.FindAll(ctx, "005930", models.SourceBoard)
	require.NoError(t, err)
	require.Len(t, board, 1)
}

func TestMemoryInsertReplacesSameID(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, m.InsertOne(ctx, models.StoredRecord{ID: "x", InstrumentID: "1", Source: models.SourceForum, Text: "old"}))
	require.NoError(t, m.InsertOne(ctx, models.StoredRecord{ID: "x", InstrumentID: "1", Source: models.SourceForum, Text: "new"}))

	recs, err := m.FindAll(ctx, "1", models.SourceForum)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "new", recs[0].Text)
}

func TestMemoryDeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, m.InsertOne(ctx, models.StoredRecord{ID: "old", InstrumentID: "1", Source: models.SourceNews, CrawledAt: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, m.InsertOne(ctx, models.StoredRecord{ID: "fresh", InstrumentID: "1", Source: models.SourceNews, CrawledAt: time.Now()}))

	deleted, err := m.DeleteOlderThan(ctx, 24*time.Hour, 100)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	recs, err := m.FindAll(ctx, "1", models.SourceNews)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "fresh", recs[0].ID)
}
