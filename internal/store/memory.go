// Package store holds an in-process record store used by tests and by the
// CLI when Elasticsearch is not available.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DeafMist/stock-sentiment/backend/internal/models"
)

type key struct {
	instrument string
	source     models.Source
}

// Memory keeps records per (instrument, source) partition in insertion order.
type Memory struct {
	mu      sync.RWMutex
	records map[key][]models.StoredRecord
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{records: make(map[key][]models.StoredRecord)}
}

// DeleteAll drops the whole partition.
func (m *Memory) DeleteAll(_ context.Context, instrument string, source models.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key{instrument, source})
	return nil
}

// InsertOne appends rec to its partition. A record with an existing ID replaces the old one.
func (m *Memory) InsertOne(_ context.Context, rec models.StoredRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{rec.InstrumentID, rec.Source}
	for i, existing := range m.records[k] {
		if existing.ID == rec.ID {
			m.records[k][i] = rec
			return nil
		}
	}
	m.records[k] = append(m.records[k], rec)
	return nil
}

// FindAll returns a copy of the partition ordered by Seq.
func (m *Memory) FindAll(_ context.Context, instrument string, source models.Source) ([]models.StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := m.records[key{instrument, source}]
	out := make([]models.StoredRecord, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// DeleteOlderThan removes records crawled before now-maxAge and returns how many went away.
// The sweep runs under one lock, so batchSize is ignored.
func (m *Memory) DeleteOlderThan(_ context.Context, maxAge time.Duration, _ int) (int64, error) {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for k, recs := range m.records {
		kept := recs[:0]
		for _, r := range recs {
			if r.CrawledAt.Before(cutoff) {
				deleted++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(m.records, k)
		} else {
			m.records[k] = kept
		}
	}
	return deleted, nil
}
