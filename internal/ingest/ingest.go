package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/DeafMist/stock-sentiment/backend/internal/dedupe"
	"github.com/DeafMist/stock-sentiment/backend/internal/metrics"
	"github.com/DeafMist/stock-sentiment/backend/internal/models"
	"github.com/DeafMist/stock-sentiment/backend/internal/processing"
)

// ErrNoFetcher is recorded when a source has no fetcher configured.
var ErrNoFetcher = errors.New("no fetcher for source")

// DefaultWindows are the recency windows of each source.
var DefaultWindows = map[models.Source]time.Duration{
	models.SourceBoard: 3 * 24 * time.Hour,
	models.SourceNews:  5 * 24 * time.Hour,
	models.SourceForum: 10 * 24 * time.Hour,
}

// Fetcher returns one page of items for an instrument. An empty page ends the data.
type Fetcher interface {
	FetchPage(ctx context.Context, instrument string, page int) ([]models.RawItem, error)
}

// Store is the write side of the record store.
type Store interface {
	DeleteAll(ctx context.Context, instrument string, source models.Source) error
	InsertOne(ctx context.Context, rec models.StoredRecord) error
}

// Options tune the ingestor. Zero values fall back to defaults.
type Options struct {
	Windows  map[models.Source]time.Duration
	MaxPages int
	// Alphabet must match somewhere in a text for it to be kept.
	Alphabet *regexp.Regexp
	Now      func() time.Time
}

// Stats describes one source ingestion. Err is set when the run was cut short.
type Stats struct {
	Source    models.Source
	Pages     int
	Stored    int
	Stale     int
	Invalid   int
	Duplicate int
	Err       error
}

// Ingestor refreshes the stored records of one (instrument, source) pair.
type Ingestor struct {
	store    Store
	fetchers map[models.Source]Fetcher
	opts     Options
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// New builds an Ingestor.
func New(store Store, fetchers map[models.Source]Fetcher, opts Options, log *slog.Logger, m *metrics.Metrics) *Ingestor {
	if opts.Windows == nil {
		opts.Windows = DefaultWindows
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 50
	}
	if opts.Alphabet == nil {
		opts.Alphabet = regexp.MustCompile(`[가-힣]`)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ingestor{store: store, fetchers: fetchers, opts: opts, log: log, metrics: m}
}

// Ingest clears the partition and crawls fresh items into it. It never
// returns an error: failures abort this source only and end up in Stats.Err.
func (in *Ingestor) Ingest(ctx context.Context, instrument string, source models.Source) Stats {
	stats := Stats{Source: source}
	log := in.log.With(slog.String("instrument", instrument), slog.String("source", source.String()))

	defer func() {
		in.metrics.Ingested(source.String(), "stored", stats.Stored)
		in.metrics.Ingested(source.String(), "stale", stats.Stale)
		in.metrics.Ingested(source.String(), "invalid", stats.Invalid)
		in.metrics.Ingested(source.String(), "duplicate", stats.Duplicate)
	}()

	fetcher, ok := in.fetchers[source]
	if !ok {
		stats.Err = fmt.Errorf("%s: %w", source, ErrNoFetcher)
		log.Warn("skip ingestion", slog.Any("err", stats.Err))
		return stats
	}

	if err := in.store.DeleteAll(ctx, instrument, source); err != nil {
		stats.Err = fmt.Errorf("clear %s records: %w", source, err)
		log.Error("ingestion aborted", slog.Any("err", stats.Err))
		return stats
	}

	now := in.opts.Now()
	cutoff := now.Add(-in.window(source))
	seen := dedupe.NewSet()
	var seq int64

	for page := 1; page <= in.opts.MaxPages; page++ {
		items, err := fetcher.FetchPage(ctx, instrument, page)
		if err != nil {
			stats.Err = fmt.Errorf("fetch %s page %d: %w", source, page, err)
			log.Error("ingestion aborted", slog.Int("page", page), slog.Any("err", err))
			return stats
		}
		stats.Pages++
		if len(items) == 0 {
			break
		}

		stored := 0
		for _, item := range items {
			switch {
			case item.Timestamp.Before(cutoff):
				stats.Stale++
				continue
			case !in.opts.Alphabet.MatchString(item.Text):
				stats.Invalid++
				continue
			case seen.Has(item.Text):
				stats.Duplicate++
				continue
			}

			seq++
			rec := models.StoredRecord{
				ID:           processing.BuildRecordID(instrument, source.String(), item.Text),
				InstrumentID: instrument,
				Source:       source,
				Text:         item.Text,
				Timestamp:    item.Timestamp,
				Upvotes:      item.Upvotes,
				Downvotes:    item.Downvotes,
				Link:         item.Link,
				Seq:          seq,
				CrawledAt:    now,
			}
			if err := in.store.InsertOne(ctx, rec); err != nil {
				stats.Err = fmt.Errorf("store %s record: %w", source, err)
				log.Error("ingestion aborted", slog.Int("page", page), slog.Any("err", err))
				return stats
			}
			seen.Add(item.Text)
			stored++
		}

		stats.Stored += stored
		if stored == 0 {
			break
		}
	}

	log.Info("ingested",
		slog.Int("pages", stats.Pages),
		slog.Int("stored", stats.Stored),
		slog.Int("stale", stats.Stale),
		slog.Int("duplicate", stats.Duplicate),
	)
	return stats
}

func (in *Ingestor) window(source models.Source) time.Duration {
	if w, ok := in.opts.Windows[source]; ok && w > 0 {
		return w
	}
	return DefaultWindows[source]
}
