package models

import "fmt"

// Sentiment is the class assigned to one sentence by the classification service.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Neutral  Sentiment = "neutral"
	Negative Sentiment = "negative"
)

// Sentiments lists the classes in reporting order.
var Sentiments = []Sentiment{Positive, Neutral, Negative}

// ParseSentiment rejects labels outside the three known classes.
func ParseSentiment(raw string) (Sentiment, error) {
	switch s := Sentiment(raw); s {
	case Positive, Neutral, Negative:
		return s, nil
	default:
		return "", fmt.Errorf("unknown sentiment %q", raw)
	}
}

// ClassifiedPair is one sentence returned by the classifier together with its class.
type ClassifiedPair struct {
	Text      string    `json:"text"`
	Sentiment Sentiment `json:"sentiment"`
}
