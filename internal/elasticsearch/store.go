package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/DeafMist/stock-sentiment/backend/internal/models"
)

// maxPartition bounds how many records one (instrument, source) read returns.
const maxPartition = 10000

var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":            map[string]any{"type": "keyword"},
			"instrument_id": map[string]any{"type": "keyword"},
			"source":        map[string]any{"type": "keyword"},
			"text":          map[string]any{"type": "text"},
			"timestamp":     map[string]any{"type": "date"},
			"upvotes":       map[string]any{"type": "integer"},
			"downvotes":     map[string]any{"type": "integer"},
			"link":          map[string]any{"type": "keyword", "index": false},
			"seq":           map[string]any{"type": "long"},
			"crawled_at":    map[string]any{"type": "date"},
		},
	},
}

// Store keeps crawled records in one Elasticsearch index, partitioned by
// instrument_id and source.
type Store struct {
	es    *elasticsearch.Client
	index string
	log   *slog.Logger
}

// New instantiates the Elasticsearch client.
func New(addr, index string, logger *slog.Logger) (*Store, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{addr},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Store{es: es, index: index, log: logger}, nil
}

// Ping checks if Elasticsearch is available.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

// EnsureIndex creates the index with keyword mappings when it does not exist yet.
func (s *Store) EnsureIndex(ctx context.Context) error {
	res, err := s.es.Indices.Exists([]string{s.index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	payload, err := json.Marshal(indexMapping)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}

	res, err = s.es.Indices.Create(s.index,
		s.es.Indices.Create.WithContext(ctx),
		s.es.Indices.Create.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		if strings.Contains(string(body), "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("create index failed: %s", strings.TrimSpace(string(body)))
	}

	s.log.Info("created index", slog.String("index", s.index))
	return nil
}

// DeleteAll removes every record of one (instrument, source) partition and
// refreshes so later reads never see the old crawl.
func (s *Store) DeleteAll(ctx context.Context, instrument string, source models.Source) error {
	payload, err := json.Marshal(map[string]any{"query": partitionQuery(instrument, source)})
	if err != nil {
		return fmt.Errorf("marshal delete body: %w", err)
	}

	res, err := s.es.DeleteByQuery(
		[]string{s.index},
		bytes.NewReader(payload),
		s.es.DeleteByQuery.WithContext(ctx),
		s.es.DeleteByQuery.WithWaitForCompletion(true),
		s.es.DeleteByQuery.WithConflicts("proceed"),
		s.es.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("delete partition: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("delete partition failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode delete response: %w", err)
	}

	s.log.Debug("cleared partition",
		slog.String("instrument", instrument),
		slog.String("source", source.String()),
		slog.Int64("deleted", parsed.Deleted),
	)
	return nil
}

// InsertOne writes a record under its deterministic ID.
func (s *Store) InsertOne(ctx context.Context, rec models.StoredRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: rec.ID,
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, s.es)
	if err != nil {
		return fmt.Errorf("index record: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index record failed: %s", strings.TrimSpace(string(body)))
	}

	return nil
}

// FindAll returns the partition in insertion order. The index is refreshed
// first so records inserted by the current crawl are visible.
func (s *Store) FindAll(ctx context.Context, instrument string, source models.Source) ([]models.StoredRecord, error) {
	ref, err := s.es.Indices.Refresh(
		s.es.Indices.Refresh.WithContext(ctx),
		s.es.Indices.Refresh.WithIndex(s.index),
	)
	if err != nil {
		return nil, fmt.Errorf("refresh index: %w", err)
	}
	ref.Body.Close()

	body := map[string]any{
		"size":  maxPartition,
		"query": partitionQuery(instrument, source),
		"sort": []map[string]any{
			{"seq": map[string]any{"order": "asc"}},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.StoredRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	records := make([]models.StoredRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		records = append(records, hit.Source)
	}
	return records, nil
}

// DeleteOlderThan removes records crawled more than maxAge ago using batched
// delete-by-query. It loops until a batch deletes fewer than batchSize documents.
func (s *Store) DeleteOlderThan(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	cutoff := time.Now().Add(-maxAge).UTC().Format(time.RFC3339)
	totalDeleted := int64(0)

	for {
		body := map[string]any{
			"query": map[string]any{
				"range": map[string]any{
					"crawled_at": map[string]any{
						"lte": cutoff,
					},
				},
			},
		}

		payload, err := json.Marshal(body)
		if err != nil {
			return totalDeleted, fmt.Errorf("marshal delete body: %w", err)
		}

		res, err := s.es.DeleteByQuery(
			[]string{s.index},
			bytes.NewReader(payload),
			s.es.DeleteByQuery.WithContext(ctx),
			s.es.DeleteByQuery.WithWaitForCompletion(true),
			s.es.DeleteByQuery.WithConflicts("proceed"),
			s.es.DeleteByQuery.WithScrollSize(batchSize),
			s.es.DeleteByQuery.WithMaxDocs(batchSize),
		)
		if err != nil {
			return totalDeleted, fmt.Errorf("delete by query: %w", err)
		}

		if res.IsError() {
			data, _ := io.ReadAll(res.Body)
			res.Body.Close()
			return totalDeleted, fmt.Errorf("delete by query failed: %s", strings.TrimSpace(string(data)))
		}

		var parsed struct {
			Deleted int64 `json:"deleted"`
		}
		if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
			res.Body.Close()
			return totalDeleted, fmt.Errorf("decode delete response: %w", err)
		}
		res.Body.Close()

		totalDeleted += parsed.Deleted

		if parsed.Deleted < int64(batchSize) {
			break
		}
	}

	return totalDeleted, nil
}

// Health checks cluster health.
func (s *Store) Health(ctx context.Context) error {
	res, err := s.es.Cluster.Health(s.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}

func partitionQuery(instrument string, source models.Source) map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"filter": []map[string]any{
				{"term": map[string]any{"instrument_id": instrument}},
				{"term": map[string]any{"source": source.String()}},
			},
		},
	}
}
