package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/stock-sentiment/backend/internal/cache"
	"github.com/DeafMist/stock-sentiment/backend/internal/models"
	"github.com/DeafMist/stock-sentiment/backend/internal/pipeline"
)

var instrumentPattern = regexp.MustCompile(`^[0-9A-Za-z]{1,12}$`)

type analyzer interface {
	AnalyzeReport(ctx context.Context, instrument string) pipeline.Report
}

type healthChecker interface {
	Health(ctx context.Context) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type server struct {
	log        *slog.Logger
	runTimeout time.Duration
	pipeline   analyzer
	results    *cache.Results
	health     healthChecker
	// requests is nil when no Kafka brokers are configured.
	requests messageWriter
}

type errorResponse struct {
	Error string `json:"error"`
}

type enqueueResponse struct {
	RequestID    string `json:"request_id"`
	InstrumentID string `json:"instrument_id"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.health.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze runs the pipeline synchronously. Cached results are served
// unless ?refresh=true is given; degraded runs are never cached.
func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	code, ok := instrumentParam(w, r)
	if !ok {
		return
	}
	log := s.log.With(slog.String("instrument", code), slog.String("request_id", middleware.GetReqID(r.Context())))

	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	if !refresh {
		cached, hit, err := s.results.Get(r.Context(), code)
		if err != nil {
			log.Warn("read result cache", slog.Any("err", err))
		}
		if hit {
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.runTimeout)
	defer cancel()

	report := s.pipeline.AnalyzeReport(ctx, code)
	if !report.Degraded() {
		if err := s.results.Put(r.Context(), code, report.Result); err != nil {
			log.Warn("write result cache", slog.Any("err", err))
		}
	}

	w.Header().Set("X-Cache", "MISS")
	w.Header().Set("X-Run-ID", report.RunID)
	w.Header().Set("X-Sentiment-Degraded", strconv.FormatBool(report.Degraded()))
	writeJSON(w, http.StatusOK, report.Result)
}

// handleEnqueue publishes an analysis request for the worker.
func (s *server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	code, ok := instrumentParam(w, r)
	if !ok {
		return
	}
	if s.requests == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "asynchronous analysis is not configured"})
		return
	}

	req := models.AnalysisRequest{
		RequestID:    uuid.NewString(),
		InstrumentID: code,
		RequestedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.requests.WriteMessages(ctx, kafka.Message{Key: []byte(code), Value: data}); err != nil {
		s.log.Error("enqueue analysis", slog.String("instrument", code), slog.Any("err", err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "enqueue failed"})
		return
	}

	writeJSON(w, http.StatusAccepted, enqueueResponse{RequestID: req.RequestID, InstrumentID: code})
}

func instrumentParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := chi.URLParam(r, "code")
	if !instrumentPattern.MatchString(code) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "instrument code must be 1-12 letters or digits"})
		return "", false
	}
	return code, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
