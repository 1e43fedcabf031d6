package scoring

import "github.com/DeafMist/stock-sentiment/backend/internal/models"

// Results holds the classified sentences of each source.
type Results map[models.Source][]models.ClassifiedPair

// Thresholds discretize a score: below Negative is negative, below Neutral is
// neutral, anything else positive.
type Thresholds struct {
	Negative int
	Neutral  int
}

// DefaultThresholds is the 20/50 split.
var DefaultThresholds = Thresholds{Negative: 20, Neutral: 50}

// Label maps a score to a class.
func (th Thresholds) Label(score int) models.Sentiment {
	switch {
	case score < th.Negative:
		return models.Negative
	case score < th.Neutral:
		return models.Neutral
	default:
		return models.Positive
	}
}

// Score normalizes the weighted sentence mix into [0, 100]. The bounds are
// what the same sentences would score if all took the lowest or highest class
// multiplier of their source. Without sentences the score is 0.
func (t Table) Score(results Results) int {
	var minScore, maxScore, raw float64

	for _, src := range models.Sources {
		pairs := results[src]
		w := t[src]
		n := float64(len(pairs))

		minScore += n * w.SourceWeight * w.minMultiplier()
		maxScore += n * w.SourceWeight * w.maxMultiplier()
		for _, p := range pairs {
			raw += w.SourceWeight * w.Multiplier(p.Sentiment)
		}
	}

	if maxScore == minScore {
		return 0
	}

	normalized := int(100 * (raw - minScore) / (maxScore - minScore))
	return max(0, min(100, normalized))
}

// Tally counts sentences per class and source.
func Tally(results Results) models.SentimentCount {
	var count models.SentimentCount
	for _, src := range models.Sources {
		for _, p := range results[src] {
			if c := count.For(p.Sentiment); c != nil {
				c.Add(src, 1)
			}
		}
	}
	return count
}
