package classifier

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/DeafMist/stock-sentiment/backend/internal/metrics"
	"github.com/DeafMist/stock-sentiment/backend/internal/models"
	"github.com/DeafMist/stock-sentiment/backend/internal/processing"
)

// DefaultBatchSize is the number of texts joined into one request.
const DefaultBatchSize = 25

// Analyzer classifies one joined payload.
type Analyzer interface {
	Analyze(ctx context.Context, content string) ([]models.ClassifiedPair, error)
}

// Classifier batches filtered texts and maps the service output to pairs.
type Classifier struct {
	analyzer    Analyzer
	batchSize   int
	parallelism int
	log         *slog.Logger
	metrics     *metrics.Metrics
}

// New builds a Classifier. parallelism > 1 submits that many batches at once.
func New(a Analyzer, batchSize, parallelism int, log *slog.Logger, m *metrics.Metrics) *Classifier {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Classifier{analyzer: a, batchSize: batchSize, parallelism: parallelism, log: log, metrics: m}
}

// Normalize strips bracketed asides and makes sure the text ends a sentence.
// It returns "" when nothing is left to classify.
func Normalize(text string) string {
	text = strings.TrimSpace(processing.StripBracketed(text))
	if text == "" {
		return ""
	}
	return processing.EnsureTerminator(text)
}

// Batches normalizes texts and groups them into batches of at most size.
// The last batch holds the remainder.
func Batches(texts []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var (
		out   [][]string
		batch = make([]string, 0, size)
	)
	for _, t := range texts {
		n := Normalize(t)
		if n == "" {
			continue
		}
		batch = append(batch, n)
		if len(batch) == size {
			out = append(out, batch)
			batch = make([]string, 0, size)
		}
	}
	if len(batch) > 0 {
		out = append(out, batch)
	}
	return out
}

// Classify returns the pairs of every successful batch in batch order.
// Failed batches contribute nothing.
func (c *Classifier) Classify(ctx context.Context, texts []string) []models.ClassifiedPair {
	batches := Batches(texts, c.batchSize)
	if len(batches) == 0 {
		return []models.ClassifiedPair{}
	}

	results := make([][]models.ClassifiedPair, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			results[i] = c.submit(gctx, i, batch)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.ClassifiedPair, 0, len(texts))
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func (c *Classifier) submit(ctx context.Context, index int, batch []string) []models.ClassifiedPair {
	pairs, err := c.analyzer.Analyze(ctx, strings.Join(batch, " "))
	if err != nil {
		c.metrics.Batch(false)
		c.log.Warn("classification batch dropped",
			slog.Int("batch", index),
			slog.Int("size", len(batch)),
			slog.Any("err", err),
		)
		return nil
	}
	c.metrics.Batch(true)
	for _, p := range pairs {
		c.metrics.Classified(string(p.Sentiment))
	}
	return pairs
}
