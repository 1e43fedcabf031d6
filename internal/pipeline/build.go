package pipeline

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/DeafMist/stock-sentiment/backend/internal/cache"
	"github.com/DeafMist/stock-sentiment/backend/internal/classifier"
	"github.com/DeafMist/stock-sentiment/backend/internal/config"
	"github.com/DeafMist/stock-sentiment/backend/internal/crawler"
	"github.com/DeafMist/stock-sentiment/backend/internal/filter"
	"github.com/DeafMist/stock-sentiment/backend/internal/ingest"
	"github.com/DeafMist/stock-sentiment/backend/internal/keywords"
	"github.com/DeafMist/stock-sentiment/backend/internal/metrics"
	"github.com/DeafMist/stock-sentiment/backend/internal/models"
	"github.com/DeafMist/stock-sentiment/backend/internal/scoring"
)

// Crawlers returns the live fetchers of every source, sharing one rate limit.
func Crawlers(cfg *config.Pipeline) map[models.Source]ingest.Fetcher {
	client := crawler.NewClient(cfg.CrawlTimeout, cfg.CrawlerRPS)
	return map[models.Source]ingest.Fetcher{
		models.SourceBoard: crawler.NewBoard(client, cfg.NaverURL),
		models.SourceNews:  crawler.NewNews(client, cfg.NaverURL),
		models.SourceForum: crawler.NewForum(client, cfg.ForumURL),
	}
}

// FromConfig builds a Pipeline backed by store, crawling through fetchers.
// A nil fetchers map uses Crawlers(cfg). A nil locker keeps runs serialised
// within this process only.
func FromConfig(cfg *config.Pipeline, store Store, fetchers map[models.Source]ingest.Fetcher, locker *cache.Locker, log *slog.Logger, m *metrics.Metrics) (*Pipeline, error) {
	weights, err := scoring.LoadTable(cfg.WeightsFile)
	if err != nil {
		return nil, err
	}

	stopwords, err := keywords.LoadStopwords(cfg.StopwordsFile)
	if err != nil {
		return nil, err
	}

	alphabet, err := regexp.Compile(cfg.Alphabet)
	if err != nil {
		return nil, fmt.Errorf("compile alphabet: %w", err)
	}

	keywordSources := make([]models.Source, 0, len(cfg.KeywordSources))
	for _, name := range cfg.KeywordSources {
		src, err := models.ParseSource(name)
		if err != nil {
			return nil, fmt.Errorf("keyword sources: %w", err)
		}
		keywordSources = append(keywordSources, src)
	}

	if fetchers == nil {
		fetchers = Crawlers(cfg)
	}

	client := classifier.NewClient(classifier.ClientConfig{
		URL:        cfg.ClassifierURL,
		KeyID:      cfg.ClassifierKeyID,
		Key:        cfg.ClassifierKey,
		Timeout:    cfg.ClassifierTimeout,
		MaxRetries: cfg.ClassifierRetries,
		Backoff:    cfg.ClassifierBackoff,
		RPS:        cfg.ClassifierRPS,
	}, log)

	ingestor := ingest.New(store, fetchers, ingest.Options{
		Windows: map[models.Source]time.Duration{
			models.SourceBoard: cfg.BoardWindow,
			models.SourceNews:  cfg.NewsWindow,
			models.SourceForum: cfg.ForumWindow,
		},
		MaxPages: cfg.MaxPages,
		Alphabet: alphabet,
	}, log, m)

	var shared Locker
	if locker != nil {
		shared = locker
	}

	return New(Deps{
		Store:      store,
		Ingestor:   ingestor,
		Filter:     filter.New(cfg.Blocklist),
		Classifier: classifier.New(client, cfg.BatchSize, cfg.ClassifierParallelism, log, m),
		Weights:    weights,
		Keywords:   keywords.New(stopwords),
		Locker:     shared,
		Log:        log,
		Metrics:    m,
	}, Options{
		Thresholds: scoring.Thresholds{
			Negative: cfg.ThresholdNegative,
			Neutral:  cfg.ThresholdNeutral,
		},
		TopKeywords:      cfg.TopKeywords,
		ClassKeywords:    cfg.ClassKeywords,
		KeywordSources:   keywordSources,
		ConcurrentIngest: cfg.ConcurrentIngest,
	}), nil
}
