package models

import "time"

// RawItem is one unit of text produced by a fetcher.
// Upvotes and Downvotes are only populated for the message board.
type RawItem struct {
	InstrumentID string
	Source       Source
	Text         string
	Timestamp    time.Time
	Upvotes      int
	Downvotes    int
	Link         string
}

// StoredRecord is a RawItem persisted under (instrument, source).
type StoredRecord struct {
	ID           string    `json:"id"`
	InstrumentID string    `json:"instrument_id"`
	Source       Source    `json:"source"`
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
	Upvotes      int       `json:"upvotes"`
	Downvotes    int       `json:"downvotes"`
	Link         string    `json:"link,omitempty"`
	Seq          int64     `json:"seq"`
	CrawledAt    time.Time `json:"crawled_at"`
}
