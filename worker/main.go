package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/stock-sentiment/backend/internal/cache"
	"github.com/DeafMist/stock-sentiment/backend/internal/config"
	"github.com/DeafMist/stock-sentiment/backend/internal/dedupe"
	"github.com/DeafMist/stock-sentiment/backend/internal/elasticsearch"
	"github.com/DeafMist/stock-sentiment/backend/internal/logger"
	"github.com/DeafMist/stock-sentiment/backend/internal/models"
	"github.com/DeafMist/stock-sentiment/backend/internal/pipeline"
)

const dlqAttempts = 5

// dlqBackoff is the first delay between DLQ write attempts; it doubles.
var dlqBackoff = time.Second

type analyzer interface {
	AnalyzeReport(ctx context.Context, instrument string) pipeline.Report
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func main() {
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	store, err := elasticsearch.Dial(ctx, cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log, elasticsearch.DefaultDialOptions)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	shared, locker := cache.Open(cfg.RedisAddr, cfg.LockTTL)
	cached := cache.NewResults(shared, cfg.CacheTTL)

	p, err := pipeline.FromConfig(&cfg.Pipeline, store, nil, locker, log, nil)
	if err != nil {
		log.Error("init pipeline", slog.Any("err", err))
		os.Exit(1)
	}

	seen := dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)
	dlqTopic := cfg.RequestTopic + "_dlq"

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.RequestTopic,
		GroupID:        cfg.KafkaConsumer,
		QueueCapacity:  cfg.QueueCapacity,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // Disable auto-commit; manual commit only
	})
	defer reader.Close()

	resultWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.ResultTopic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	defer resultWriter.Close()

	dlqWriter := &kafka.Writer{
		Addr:        kafka.TCP(cfg.KafkaBrokers...),
		Topic:       dlqTopic,
		MaxAttempts: 3,
	}
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.RequestTopic),
		slog.String("result_topic", cfg.ResultTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", dlqTopic),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := processMessage(ctx, log, p, resultWriter, seen, cached, msg); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			// Only commit if the DLQ took the message; otherwise it is reprocessed on restart.
			if !sendToDLQ(ctx, log, dlqWriter, msg, err) {
				if ctx.Err() != nil {
					return
				}
				log.Error("DLQ write exhausted retries, message may be lost if later messages commit",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

// processMessage runs one requested analysis and publishes its result.
// Redelivered requests inside the dedupe window are acknowledged without a rerun.
// A clean result refreshes the shared result cache; a degraded one evicts it.
func processMessage(ctx context.Context, log *slog.Logger, p analyzer, results messageWriter, seen *dedupe.Cache, cached *cache.Results, msg kafka.Message) error {
	var req models.AnalysisRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	if seen.IsSeen(req.RequestID) {
		log.Debug("duplicate request", slog.String("request_id", req.RequestID))
		return nil
	}

	report := p.AnalyzeReport(ctx, req.InstrumentID)
	out := models.AnalysisResult{
		RequestID:    req.RequestID,
		InstrumentID: req.InstrumentID,
		RunID:        report.RunID,
		Result:       report.Result,
		Degraded:     report.Degraded(),
		FinishedAt:   time.Now().UTC(),
	}
	for _, e := range report.Errors {
		out.Errors = append(out.Errors, e.Error())
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := results.WriteMessages(ctx, kafka.Message{Key: []byte(req.InstrumentID), Value: data}); err != nil {
		return fmt.Errorf("publish result: %w", err)
	}

	seen.MarkSeen(req.RequestID)
	refreshCache(ctx, log, cached, req.InstrumentID, out)
	log.Info("published result",
		slog.String("request_id", req.RequestID),
		slog.String("instrument", req.InstrumentID),
		slog.Int("score", out.Result.TotalScore),
		slog.Bool("degraded", out.Degraded),
	)
	return nil
}

func refreshCache(ctx context.Context, log *slog.Logger, cached *cache.Results, instrument string, out models.AnalysisResult) {
	var err error
	if out.Degraded {
		err = cached.Invalidate(ctx, instrument)
	} else {
		err = cached.Put(ctx, instrument, out.Result)
	}
	if err != nil {
		log.Warn("update result cache", slog.String("instrument", instrument), slog.Any("err", err))
	}
}

// sendToDLQ forwards msg with error context, retrying with exponential backoff.
func sendToDLQ(ctx context.Context, log *slog.Logger, w messageWriter, msg kafka.Message, cause error) bool {
	dlqMsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		),
	}

	for attempt := 0; attempt < dlqAttempts; attempt++ {
		dlqErr := w.WriteMessages(ctx, dlqMsg)
		if dlqErr == nil {
			log.Info("message sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempt", attempt+1),
			)
			return true
		}

		backoff := time.Duration(1<<uint(attempt)) * dlqBackoff
		log.Warn("DLQ write failed, retrying",
			slog.Any("err", dlqErr),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			log.Info("context canceled during DLQ retry")
			return false
		}
	}
	return false
}
