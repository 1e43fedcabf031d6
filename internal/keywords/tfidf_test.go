package keywords_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/stock-sentiment/backend/internal/keywords"
	"github.com/DeafMist/stock-sentiment/backend/internal/models"
)

func TestExtractEmptyInput(t *testing.T) {
	e := keywords.New(nil)
	require.Equal(t, []string{}, e.Extract(nil, 10))
	require.Equal(t, []string{}, e.Extract([]string{"", "  "}, 10))
	require.Equal(t, []string{}, e.Extract([]string{"반도체 실적"}, 0))
}

func TestExtractTermInEveryDocumentRanksLast(t *testing.T) {
	e := keywords.New(nil)
	got := e.Extract([]string{"삼성 반도체", "삼성 주가", "삼성"}, 10)
	require.Equal(t, []string{"반도체", "주가", "삼성"}, got)
}

func TestExtractPrefersConcentratedTerms(t *testing.T) {
	e := keywords.New(nil)
	docs := []string{
		"실적 호조 실적",
		"실적 발표 예정",
		"배당 확대",
		"배당 확대 기대",
	}
	got := e.Extract(docs, 2)
	require.Len(t, got, 2)
	require.NotContains(t, got, "예정")
}

func TestExtractSkipsStopwordsAndExcluded(t *testing.T) {
	e := keywords.New([]string{"그리고"})
	docs := []string{"그리고 상승 반도체", "그리고 하락 배터리", "그리고 상승 배터리"}

	got := e.Extract(docs, 10)
	require.NotContains(t, got, "그리고")

	excluded := e.Extract(docs, 10, []string{"상승"}, []string{"배터리"})
	require.NotContains(t, excluded, "상승")
	require.NotContains(t, excluded, "배터리")
	require.ElementsMatch(t, []string{"반도체", "하락"}, excluded)
}

func TestExtractLimitsTopN(t *testing.T) {
	e := keywords.New(nil)
	got := e.Extract([]string{"가나 다라 마바", "사아 자차 카타"}, 4)
	require.Len(t, got, 4)
}

func TestExtractForFiltersClass(t *testing.T) {
	e := keywords.New(nil)
	pairs := []models.ClassifiedPair{
		{Text: "실적 호조 기대", Sentiment: models.Positive},
		{Text: "주가 급락 우려", Sentiment: models.Negative},
		{Text: "배당 호조", Sentiment: models.Positive},
	}

	got := e.ExtractFor(pairs, models.Positive, 10)
	require.Contains(t, got, "실적")
	require.NotContains(t, got, "급락")

	require.Equal(t, []string{}, e.ExtractFor(pairs, models.Neutral, 10))
}

func TestTexts(t *testing.T) {
	pairs := []models.ClassifiedPair{{Text: "a"}, {Text: "b"}}
	require.Equal(t, []string{"a", "b"}, keywords.Texts(pairs))
}

func TestStopwords(t *testing.T) {
	require.Contains(t, keywords.DefaultStopwords(), "있다")

	defaults, err := keywords.LoadStopwords("")
	require.NoError(t, err)
	require.Equal(t, keywords.DefaultStopwords(), defaults)

	path := filepath.Join(t.TempDir(), "stop.txt")
	require.NoError(t, os.WriteFile(path, []byte("Foo\n\n 바 \n"), 0o600))
	words, err := keywords.LoadStopwords(path)
	require.NoError(t, err)
	require.Equal(t, []string{"foo", "바"}, words)
}

func TestExtractCapsVocabularyByFrequency(t *testing.T) {
	corpus := func(shared int) []string {
		words := make([]string, shared)
		for i := range words {
			words[i] = fmt.Sprintf("term%03d", i)
		}
		common := strings.Join(words, " ")
		return []string{"희귀종목 " + common, common, common}
	}
	e := keywords.New(nil)

	// Inside the cap the single-document term carries the only non-zero weight.
	require.Equal(t, "희귀종목", e.Extract(corpus(10), 3)[0])

	// Past the cap it is the least frequent term and never enters the vocabulary.
	got := e.Extract(corpus(keywords.MaxFeatures), 10)
	require.NotContains(t, got, "희귀종목")
	require.Equal(t, []string{
		"term000", "term001", "term002", "term003", "term004",
		"term005", "term006", "term007", "term008", "term009",
	}, got)
}
