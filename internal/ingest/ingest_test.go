package ingest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/stock-sentiment/backend/internal/ingest"
	"github.com/DeafMist/stock-sentiment/backend/internal/logger"
	"github.com/DeafMist/stock-sentiment/backend/internal/models"
	"github.com/DeafMist/stock-sentiment/backend/internal/store"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type pagedFetcher struct {
	pages   [][]models.RawItem
	failAt  int
	fetched []int
}

func (f *pagedFetcher) FetchPage(_ context.Context, _ string, page int) ([]models.RawItem, error) {
	f.fetched = append(f.fetched, page)
	if f.failAt == page {
		return nil, errors.New("boom")
	}
	if page > len(f.pages) {
		return nil, nil
	}
	return f.pages[page-1], nil
}

func item(text string, age time.Duration) models.RawItem {
	return models.RawItem{Text: text, Timestamp: now.Add(-age)}
}

func newIngestor(mem *store.Memory, src models.Source, f ingest.Fetcher) *ingest.Ingestor {
	return ingest.New(mem, map[models.Source]ingest.Fetcher{src: f}, ingest.Options{
		Now: func() time.Time { return now },
	}, logger.Discard(), nil)
}

func texts(recs []models.StoredRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Text)
	}
	return out
}

func TestIngestFiltersStaleInvalidAndDuplicates(t *testing.T) {
	mem := store.NewMemory()
	f := &pagedFetcher{pages: [][]models.RawItem{{
		item("오늘 상승", time.Hour),
		item("english only", time.Hour),
		item("오늘 상승", 2*time.Hour),
		item("너무 오래된 글", 4*24*time.Hour),
		item("내일 하락", 3*time.Hour),
	}}}

	stats := newIngestor(mem, models.SourceBoard, f).Ingest(context.Background(), "005930", models.SourceBoard)
	require.NoError(t, stats.Err)
	require.Equal(t, 2, stats.Stored)
	require.Equal(t, 1, stats.Invalid)
	require.Equal(t, 1, stats.Duplicate)
	require.Equal(t, 1, stats.Stale)

	recs, err := mem.FindAll(context.Background(), "005930", models.SourceBoard)
	require.NoError(t, err)
	require.Equal(t, []string{"오늘 상승", "내일 하락"}, texts(recs))
	require.Equal(t, int64(1), recs[0].Seq)
	require.Equal(t, int64(2), recs[1].Seq)
	require.Equal(t, now, recs[0].CrawledAt)
}

func TestIngestStopsOnPageWithNothingNew(t *testing.T) {
	mem := store.NewMemory()
	f := &pagedFetcher{pages: [][]models.RawItem{
		{item("첫 페이지", time.Hour)},
		{item("첫 페이지", time.Hour), item("오래된 뉴스", 6*24*time.Hour)},
		{item("도달하지 않는 페이지", time.Hour)},
	}}

	stats := newIngestor(mem, models.SourceNews, f).Ingest(context.Background(), "005930", models.SourceNews)
	require.NoError(t, stats.Err)
	require.Equal(t, []int{1, 2}, f.fetched)
	require.Equal(t, 1, stats.Stored)
}

func TestIngestStopsOnEmptyPage(t *testing.T) {
	mem := store.NewMemory()
	f := &pagedFetcher{pages: [][]models.RawItem{{item("한 건", time.Hour)}}}

	stats := newIngestor(mem, models.SourceForum, f).Ingest(context.Background(), "005930", models.SourceForum)
	require.NoError(t, stats.Err)
	require.Equal(t, []int{1, 2}, f.fetched)
	require.Equal(t, 2, stats.Pages)
}

func TestIngestTwiceKeepsOneRecordPerItem(t *testing.T) {
	mem := store.NewMemory()
	f := &pagedFetcher{pages: [][]models.RawItem{{
		item("가", time.Hour),
		item("나", time.Hour),
		item("다", time.Hour),
	}}}
	in := newIngestor(mem, models.SourceNews, f)

	in.Ingest(context.Background(), "005930", models.SourceNews)
	in.Ingest(context.Background(), "005930", models.SourceNews)

	recs, err := mem.FindAll(context.Background(), "005930", models.SourceNews)
	require.NoError(t, err)
	require.Equal(t, []string{"가", "나", "다"}, texts(recs))
}

func TestIngestFetchFailureIsSourceLocal(t *testing.T) {
	mem := store.NewMemory()
	f := &pagedFetcher{
		pages:  [][]models.RawItem{{item("저장됨", time.Hour)}, {item("못 감", time.Hour)}},
		failAt: 2,
	}

	stats := newIngestor(mem, models.SourceBoard, f).Ingest(context.Background(), "005930", models.SourceBoard)
	require.Error(t, stats.Err)
	require.Equal(t, 1, stats.Stored)

	recs, err := mem.FindAll(context.Background(), "005930", models.SourceBoard)
	require.NoError(t, err)
	require.Equal(t, []string{"저장됨"}, texts(recs))
}

func TestIngestMissingFetcher(t *testing.T) {
	mem := store.NewMemory()
	in := newIngestor(mem, models.SourceBoard, &pagedFetcher{})

	stats := in.Ingest(context.Background(), "005930", models.SourceNews)
	require.ErrorIs(t, stats.Err, ingest.ErrNoFetcher)
}

func TestIngestRespectsMaxPages(t *testing.T) {
	mem := store.NewMemory()
	f := &pagedFetcher{pages: [][]models.RawItem{
		{item("하나", time.Hour)},
		{item("둘", time.Hour)},
		{item("셋", time.Hour)},
	}}
	in := ingest.New(mem, map[models.Source]ingest.Fetcher{models.SourceNews: f}, ingest.Options{
		MaxPages: 2,
		Now:      func() time.Time { return now },
	}, logger.Discard(), nil)

	stats := in.Ingest(context.Background(), "005930", models.SourceNews)
	require.Equal(t, 2, stats.Stored)
	require.Equal(t, []int{1, 2}, f.fetched)
}
