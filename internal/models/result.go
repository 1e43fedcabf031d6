package models

// SourceCounts holds the number of classified sentences per source for one class.
type SourceCounts struct {
	Comments  int `json:"comments"`
	News      int `json:"news"`
	Investing int `json:"investing"`
}

// Add increments the counter belonging to src.
func (c *SourceCounts) Add(src Source, n int) {
	switch src {
	case SourceBoard:
		c.Comments += n
	case SourceNews:
		c.News += n
	case SourceForum:
		c.Investing += n
	}
}

// SentimentCount groups per-source counts by class.
type SentimentCount struct {
	Positive SourceCounts `json:"positive"`
	Neutral  SourceCounts `json:"neutral"`
	Negative SourceCounts `json:"negative"`
}

// For returns the per-source counts of one class.
func (c *SentimentCount) For(s Sentiment) *SourceCounts {
	switch s {
	case Positive:
		return &c.Positive
	case Neutral:
		return &c.Neutral
	case Negative:
		return &c.Negative
	}
	return nil
}

// Keywords are the representative terms reported with a result.
type Keywords struct {
	Positive []string `json:"positive"`
	Neutral  []string `json:"neutral"`
	Negative []string `json:"negative"`
	Total    []string `json:"total"`
	News     []string `json:"news"`
}

// AggregateResult is the outcome of one pipeline run.
type AggregateResult struct {
	TotalSentiment Sentiment      `json:"total_sentiment"`
	SentimentCount SentimentCount `json:"sentiment_count"`
	TotalScore     int            `json:"total_score"`
	Keywords       Keywords       `json:"keywords"`
}

// EmptyResult has a zero score and empty, non-nil keyword lists.
func EmptyResult() AggregateResult {
	return AggregateResult{
		TotalSentiment: Negative,
		Keywords: Keywords{
			Positive: []string{},
			Neutral:  []string{},
			Negative: []string{},
			Total:    []string{},
			News:     []string{},
		},
	}
}
