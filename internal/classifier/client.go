package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/DeafMist/stock-sentiment/backend/internal/models"
)

const (
	headerKeyID = "X-NCP-APIGW-API-KEY-ID"
	headerKey   = "X-NCP-APIGW-API-KEY"
)

// ErrStatus marks a non-200 answer from the sentiment service.
var ErrStatus = errors.New("sentiment service returned non-success status")

// StatusError carries the rejected status code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrStatus, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// ClientConfig describes how to reach the sentiment service.
type ClientConfig struct {
	URL        string
	KeyID      string
	Key        string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	RPS        float64
	HTTPClient *http.Client
}

// Client calls the external sentiment service. Each attempt has its own
// timeout; transport errors, 429 and 5xx are retried with exponential backoff.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	log     *slog.Logger
}

type analyzeRequest struct {
	Content string `json:"content"`
}

type analyzeResponse struct {
	Sentences []struct {
		Content   string `json:"content"`
		Sentiment string `json:"sentiment"`
	} `json:"sentences"`
}

// NewClient builds a Client.
func NewClient(cfg ClientConfig, log *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}

	st := gobreaker.Settings{
		Name:     "sentiment-service",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		breaker: gobreaker.NewCircuitBreaker(st),
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
}

// Analyze submits content and returns the sentences the service classified.
func (c *Client) Analyze(ctx context.Context, content string) ([]models.ClassifiedPair, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.analyzeWithRetry(ctx, content)
	})
	if err != nil {
		return nil, err
	}
	return out.([]models.ClassifiedPair), nil
}

func (c *Client) analyzeWithRetry(ctx context.Context, content string) ([]models.ClassifiedPair, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.Backoff * time.Duration(1<<uint(attempt-1))
			c.log.Debug("retrying sentiment request",
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
				slog.Any("err", lastErr),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		pairs, err := c.analyzeOnce(ctx, content)
		if err == nil {
			return pairs, nil
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *Client) analyzeOnce(ctx context.Context, content string) ([]models.ClassifiedPair, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(analyzeRequest{Content: content})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(headerKeyID, c.cfg.KeyID)
	req.Header.Set(headerKey, c.cfg.Key)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post content: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	pairs := make([]models.ClassifiedPair, 0, len(parsed.Sentences))
	for _, s := range parsed.Sentences {
		sentiment, err := models.ParseSentiment(s.Sentiment)
		if err != nil {
			c.log.Debug("skip sentence", slog.Any("err", err))
			continue
		}
		pairs = append(pairs, models.ClassifiedPair{Text: strings.TrimSpace(s.Content), Sentiment: sentiment})
	}
	return pairs, nil
}
