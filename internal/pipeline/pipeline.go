// Package pipeline runs one sentiment analysis of an instrument end to end.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/DeafMist/stock-sentiment/backend/internal/classifier"
	"github.com/DeafMist/stock-sentiment/backend/internal/filter"
	"github.com/DeafMist/stock-sentiment/backend/internal/ingest"
	"github.com/DeafMist/stock-sentiment/backend/internal/keywords"
	"github.com/DeafMist/stock-sentiment/backend/internal/metrics"
	"github.com/DeafMist/stock-sentiment/backend/internal/models"
	"github.com/DeafMist/stock-sentiment/backend/internal/scoring"
)

// Store is the record store seen by the pipeline.
type Store interface {
	ingest.Store
	FindAll(ctx context.Context, instrument string, source models.Source) ([]models.StoredRecord, error)
}

// Locker serialises runs for one instrument from the partition delete until
// the last filter read. Implementations shared by several processes make the
// guarantee hold across all of them.
type Locker interface {
	Lock(ctx context.Context, instrument string) (unlock func(), err error)
}

// Options tune scoring and keyword selection.
type Options struct {
	Thresholds       scoring.Thresholds
	TopKeywords      int
	ClassKeywords    int
	KeywordSources   []models.Source
	ConcurrentIngest bool
}

// DefaultOptions mirror the production deployment.
func DefaultOptions() Options {
	return Options{
		Thresholds:     scoring.DefaultThresholds,
		TopKeywords:    10,
		ClassKeywords:  5,
		KeywordSources: []models.Source{models.SourceNews, models.SourceForum},
	}
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Store      Store
	Ingestor   *ingest.Ingestor
	Filter     *filter.Filter
	Classifier *classifier.Classifier
	Weights    scoring.Table
	Keywords   *keywords.Extractor
	// Locker defaults to a lock local to this Pipeline.
	Locker     Locker
	Log        *slog.Logger
	Metrics    *metrics.Metrics
}

// Pipeline sequences ingestion, filtering, classification, scoring and
// keyword extraction for one instrument.
type Pipeline struct {
	deps  Deps
	opts  Options
	local *LocalLocker
}

// New wires a Pipeline.
func New(deps Deps, opts Options) *Pipeline {
	if deps.Weights == nil {
		deps.Weights = scoring.DefaultTable()
	}
	return &Pipeline{deps: deps, opts: opts, local: NewLocalLocker()}
}

// Report is an AggregateResult plus what went wrong while producing it.
type Report struct {
	RunID  string
	Result models.AggregateResult
	Ingest []ingest.Stats
	// Errors lists source-local failures. The result is still well formed
	// but may be under-populated when it is non-empty.
	Errors []error
}

// Degraded reports whether any source failed during the run.
func (r Report) Degraded() bool {
	return len(r.Errors) > 0
}

// Analyze runs the pipeline and returns only the result.
func (p *Pipeline) Analyze(ctx context.Context, instrument string) models.AggregateResult {
	return p.AnalyzeReport(ctx, instrument).Result
}

// AnalyzeReport runs the pipeline. Failures never escape: they are logged
// and listed in the report.
func (p *Pipeline) AnalyzeReport(ctx context.Context, instrument string) Report {
	start := time.Now()
	report := Report{RunID: uuid.NewString()}
	log := p.deps.Log.With(slog.String("run_id", report.RunID), slog.String("instrument", instrument))

	unlock, err := p.lock(ctx, instrument)
	if err != nil {
		log.Warn("shared instrument lock unavailable, using local lock", slog.Any("err", err))
		report.Errors = append(report.Errors, err)
	}
	report.Ingest = p.ingest(ctx, instrument)
	for _, st := range report.Ingest {
		if st.Err != nil {
			report.Errors = append(report.Errors, st.Err)
		}
	}

	results := make(scoring.Results, len(models.Sources))
	texts := make(map[models.Source][]string, len(models.Sources))
	for _, src := range models.Sources {
		records, err := p.deps.Store.FindAll(ctx, instrument, src)
		if err != nil {
			log.Error("read records", slog.String("source", src.String()), slog.Any("err", err))
			report.Errors = append(report.Errors, err)
			continue
		}
		texts[src] = p.deps.Filter.Apply(src, records)
		p.deps.Metrics.Filtered(src.String(), len(texts[src]))
	}
	unlock()

	for _, src := range models.Sources {
		results[src] = p.deps.Classifier.Classify(ctx, texts[src])
	}

	report.Result = p.assemble(results)

	took := time.Since(start)
	p.deps.Metrics.ObserveRun(report.Result.TotalScore, report.Degraded(), took)
	log.Info("analysis finished",
		slog.Int("score", report.Result.TotalScore),
		slog.String("sentiment", string(report.Result.TotalSentiment)),
		slog.Int("errors", len(report.Errors)),
		slog.Duration("took", took),
	)
	return report
}

func (p *Pipeline) lock(ctx context.Context, instrument string) (func(), error) {
	if p.deps.Locker == nil {
		return p.local.lock(instrument), nil
	}
	unlock, err := p.deps.Locker.Lock(ctx, instrument)
	if err != nil {
		return p.local.lock(instrument), err
	}
	return unlock, nil
}

func (p *Pipeline) ingest(ctx context.Context, instrument string) []ingest.Stats {
	stats := make([]ingest.Stats, len(models.Sources))
	if !p.opts.ConcurrentIngest {
		for i, src := range models.Sources {
			stats[i] = p.deps.Ingestor.Ingest(ctx, instrument, src)
		}
		return stats
	}

	// Each source owns a disjoint partition and a slot in stats.
	var g errgroup.Group
	for i, src := range models.Sources {
		i, src := i, src
		g.Go(func() error {
			stats[i] = p.deps.Ingestor.Ingest(ctx, instrument, src)
			return nil
		})
	}
	_ = g.Wait()
	return stats
}

func (p *Pipeline) assemble(results scoring.Results) models.AggregateResult {
	res := models.EmptyResult()
	res.TotalScore = p.deps.Weights.Score(results)
	res.TotalSentiment = p.opts.Thresholds.Label(res.TotalScore)
	res.SentimentCount = scoring.Tally(results)

	var corpus []models.ClassifiedPair
	for _, src := range p.opts.KeywordSources {
		corpus = append(corpus, results[src]...)
	}

	kw := p.deps.Keywords
	res.Keywords.Total = kw.Extract(keywords.Texts(corpus), p.opts.TopKeywords)
	res.Keywords.News = kw.Extract(keywords.Texts(results[models.SourceNews]), p.opts.TopKeywords)

	seen := [][]string{res.Keywords.Total, res.Keywords.News}
	res.Keywords.Positive = kw.ExtractFor(corpus, models.Positive, p.opts.ClassKeywords, seen...)
	res.Keywords.Neutral = kw.ExtractFor(corpus, models.Neutral, p.opts.ClassKeywords, seen...)
	res.Keywords.Negative = kw.ExtractFor(corpus, models.Negative, p.opts.ClassKeywords, seen...)
	return res
}

// LocalLocker serialises runs for the same instrument within one process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

// NewLocalLocker returns an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*refMutex)}
}

// Lock blocks until no other holder of l runs instrument. It never fails.
func (l *LocalLocker) Lock(_ context.Context, instrument string) (func(), error) {
	return l.lock(instrument), nil
}

func (l *LocalLocker) lock(instrument string) func() {
	l.mu.Lock()
	m, ok := l.locks[instrument]
	if !ok {
		m = &refMutex{}
		l.locks[instrument] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, instrument)
		}
		l.mu.Unlock()
	}
}
