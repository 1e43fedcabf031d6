package filter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/stock-sentiment/backend/internal/filter"
	"github.com/DeafMist/stock-sentiment/backend/internal/models"
)

func rec(text string, up, down int) models.StoredRecord {
	return models.StoredRecord{Text: text, Upvotes: up, Downvotes: down}
}

func TestEngaging(t *testing.T) {
	require.False(t, filter.Engaging(1, 5))
	require.True(t, filter.Engaging(5, 1))
	require.True(t, filter.Engaging(0, 0))
	require.True(t, filter.Engaging(2, 1))
	require.False(t, filter.Engaging(1, 1))
}

func TestApplyBoard(t *testing.T) {
	f := filter.New([]string{"정의당", " "})
	records := []models.StoredRecord{
		rec("실적 좋다", 5, 1),
		rec(" 실적 좋다 ", 5, 0),
		rec("정의당 얘기", 10, 0),
		rec("별로다", 1, 5),
		rec("반등 온다", 0, 0),
		rec("실적 좋다", 3, 0),
	}

	got := f.Apply(models.SourceBoard, records)
	require.Equal(t, []string{"실적 좋다", "반등 온다", "실적 좋다"}, got)
}

func TestApplyComparesWithLastKept(t *testing.T) {
	f := filter.New(nil)
	records := []models.StoredRecord{
		rec("같은 글", 0, 0),
		rec("비추 많은 글", 0, 9),
		rec("같은 글", 0, 0),
	}

	got := f.Apply(models.SourceBoard, records)
	require.Equal(t, []string{"같은 글"}, got)
}

func TestApplyDropsBlankTexts(t *testing.T) {
	f := filter.New(nil)
	records := []models.StoredRecord{
		rec("   ", 0, 0),
		rec("외국인 순매수", 0, 0),
		rec(" \t", 0, 0),
		rec("", 0, 0),
		rec("기관 매도", 0, 0),
	}

	require.Equal(t, []string{"외국인 순매수", "기관 매도"}, f.Apply(models.SourceNews, records))
	require.Equal(t, []string{"외국인 순매수", "기관 매도"}, f.Apply(models.SourceBoard, records))
}

func TestApplyNewsSkipsBoardChecks(t *testing.T) {
	f := filter.New([]string{"정의당"})
	records := []models.StoredRecord{
		rec("정의당 논평", 0, 9),
		rec("정의당 논평", 0, 0),
		rec("", 0, 0),
		rec("증시 마감", 0, 0),
	}

	got := f.Apply(models.SourceNews, records)
	require.Equal(t, []string{"정의당 논평", "증시 마감"}, got)
}

func TestApplyNeverEmitsConsecutiveDuplicates(t *testing.T) {
	f := filter.New(nil)
	inputs := []string{"a", "a", " a", "b", "b ", "a", "c", "c", "c"}
	records := make([]models.StoredRecord, 0, len(inputs))
	for _, in := range inputs {
		records = append(records, rec(in, 0, 0))
	}

	for _, src := range models.Sources {
		got := f.Apply(src, records)
		for i := 1; i < len(got); i++ {
			require.NotEqual(t, got[i-1], got[i])
		}
		require.Equal(t, []string{"a", "b", "a", "c"}, got)
	}
}
