package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DeafMist/stock-sentiment/backend/internal/models"
)

// Weights are the trust of one source and the multiplier of each class.
type Weights struct {
	SourceWeight float64 `yaml:"weight"`
	Positive     float64 `yaml:"positive"`
	Neutral      float64 `yaml:"neutral"`
	Negative     float64 `yaml:"negative"`
}

// Multiplier returns the multiplier of class s.
func (w Weights) Multiplier(s models.Sentiment) float64 {
	switch s {
	case models.Positive:
		return w.Positive
	case models.Neutral:
		return w.Neutral
	case models.Negative:
		return w.Negative
	}
	return 0
}

func (w Weights) minMultiplier() float64 {
	return min(w.Positive, w.Neutral, w.Negative)
}

func (w Weights) maxMultiplier() float64 {
	return max(w.Positive, w.Neutral, w.Negative)
}

// Table maps every source to its weights.
type Table map[models.Source]Weights

// DefaultTable is the weighting news > forum > board used in production.
func DefaultTable() Table {
	return Table{
		models.SourceBoard: {SourceWeight: 1, Positive: 1.2, Neutral: 1, Negative: 0.8},
		models.SourceNews:  {SourceWeight: 4, Positive: 1.3, Neutral: 1, Negative: 0.7},
		models.SourceForum: {SourceWeight: 2, Positive: 1.2, Neutral: 1, Negative: 0.7},
	}
}

// Validate checks that every source is present with positive weights, and that
// multipliers are ordered positive >= neutral >= negative. The score only moves
// in the direction of a new sentence's class when that order holds.
func (t Table) Validate() error {
	for _, src := range models.Sources {
		w, ok := t[src]
		if !ok {
			return fmt.Errorf("weights for %s missing", src)
		}
		if w.SourceWeight <= 0 || w.Positive <= 0 || w.Neutral <= 0 || w.Negative <= 0 {
			return fmt.Errorf("weights for %s must be positive", src)
		}
		if w.Positive < w.Neutral || w.Neutral < w.Negative {
			return fmt.Errorf("weights for %s must satisfy positive >= neutral >= negative", src)
		}
	}
	return nil
}

// LoadTable reads a YAML weights file keyed by source name. An empty path
// yields DefaultTable.
func LoadTable(path string) (Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes YAML weights and validates the result.
func ParseTable(data []byte) (Table, error) {
	var raw map[string]Weights
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode weights: %w", err)
	}

	table := make(Table, len(raw))
	for name, w := range raw {
		src, err := models.ParseSource(name)
		if err != nil {
			return nil, fmt.Errorf("decode weights: %w", err)
		}
		table[src] = w
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
