package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultBlocklist holds the political and off-topic terms dropped from board posts.
const DefaultBlocklist = "국힘,정의당,민주당,석열,윤통,국민의힘,만진당,노무현,김건희,예수,문재인,찢재,재명,2찍,박정희"

// Common contains storage parameters shared by every service. RedisAddr is
// optional; when set it backs the result cache and the cross-process
// instrument lock.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
	RedisAddr          string
}

// Pipeline configures ingestion, filtering, classification, scoring and keywords.
type Pipeline struct {
	ClassifierURL         string
	ClassifierKeyID       string
	ClassifierKey         string
	BatchSize             int
	ClassifierTimeout     time.Duration
	ClassifierRetries     int
	ClassifierBackoff     time.Duration
	ClassifierRPS         float64
	ClassifierParallelism int

	BoardWindow  time.Duration
	NewsWindow   time.Duration
	ForumWindow  time.Duration
	MaxPages     int
	CrawlerRPS   float64
	CrawlTimeout time.Duration
	NaverURL     string
	ForumURL     string
	Alphabet     string

	Blocklist      []string
	StopwordsFile  string
	WeightsFile    string
	TopKeywords    int
	ClassKeywords  int
	KeywordSources []string

	ThresholdNegative int
	ThresholdNeutral  int

	ConcurrentIngest bool
	LockTTL          time.Duration
}

// Worker holds configuration for the Kafka request consumer.
type Worker struct {
	Common
	Pipeline
	KafkaBrokers   []string
	RequestTopic   string
	ResultTopic    string
	KafkaConsumer  string
	DedupeCapacity int
	DedupeTTL      time.Duration
	QueueCapacity  int
	CacheTTL       time.Duration
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	Pipeline
	BindAddr     string
	CacheTTL     time.Duration
	KafkaBrokers []string
	RequestTopic string
	RunTimeout   time.Duration
}

// CLI configures the one-shot analyze command.
type CLI struct {
	Common
	Pipeline
	RunTimeout time.Duration
}

// Retention configures the cleanup loop.
type Retention struct {
	Common
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

// LoadPipeline builds a Pipeline config from environment variables.
func LoadPipeline() (*Pipeline, error) {
	c := &Pipeline{
		ClassifierURL:         getEnv("CLASSIFIER_URL", "https://naveropenapi.apigw.ntruss.com/sentiment-analysis/v1/analyze"),
		ClassifierKeyID:       getEnv("CLASSIFIER_KEY_ID", ""),
		ClassifierKey:         getEnv("CLASSIFIER_KEY", ""),
		BatchSize:             getInt("CLASSIFIER_BATCH_SIZE", 25),
		ClassifierTimeout:     getDuration("CLASSIFIER_TIMEOUT", "10s"),
		ClassifierRetries:     getInt("CLASSIFIER_MAX_RETRIES", 2),
		ClassifierBackoff:     getDuration("CLASSIFIER_BACKOFF", "500ms"),
		ClassifierRPS:         getFloat("CLASSIFIER_RPS", 5),
		ClassifierParallelism: getInt("CLASSIFIER_PARALLELISM", 1),

		BoardWindow:  getDuration("INGEST_BOARD_WINDOW", "72h"),
		NewsWindow:   getDuration("INGEST_NEWS_WINDOW", "120h"),
		ForumWindow:  getDuration("INGEST_FORUM_WINDOW", "240h"),
		MaxPages:     getInt("INGEST_MAX_PAGES", 50),
		CrawlerRPS:   getFloat("CRAWLER_RPS", 2),
		CrawlTimeout: getDuration("CRAWLER_TIMEOUT", "15s"),
		NaverURL:     getEnv("CRAWLER_NAVER_URL", "https://finance.naver.com"),
		ForumURL:     getEnv("CRAWLER_FORUM_URL", "https://kr.investing.com"),
		Alphabet:     getEnv("INGEST_ALPHABET", "[가-힣]"),

		Blocklist:      splitAndTrim(getEnv("FILTER_BLOCKLIST", DefaultBlocklist)),
		StopwordsFile:  getEnv("SENTIMENT_STOPWORDS_FILE", ""),
		WeightsFile:    getEnv("SENTIMENT_WEIGHTS_FILE", ""),
		TopKeywords:    getInt("KEYWORDS_TOP", 10),
		ClassKeywords:  getInt("KEYWORDS_PER_CLASS", 5),
		KeywordSources: splitAndTrim(getEnv("KEYWORDS_SOURCES", "news,investing")),

		ThresholdNegative: getInt("SCORE_THRESHOLD_NEGATIVE", 20),
		ThresholdNeutral:  getInt("SCORE_THRESHOLD_NEUTRAL", 50),

		ConcurrentIngest: getBool("PIPELINE_CONCURRENT_INGEST", false),
		LockTTL:          getDuration("PIPELINE_LOCK_TTL", "10m"),
	}

	if c.ClassifierURL == "" {
		return nil, fmt.Errorf("CLASSIFIER_URL must be set")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("CLASSIFIER_BATCH_SIZE must be positive")
	}
	if c.ClassifierRetries < 0 {
		return nil, fmt.Errorf("CLASSIFIER_MAX_RETRIES cannot be negative")
	}
	if c.ClassifierParallelism <= 0 {
		return nil, fmt.Errorf("CLASSIFIER_PARALLELISM must be positive")
	}
	if c.BoardWindow <= 0 || c.NewsWindow <= 0 || c.ForumWindow <= 0 {
		return nil, fmt.Errorf("INGEST_*_WINDOW must be positive")
	}
	if c.MaxPages <= 0 {
		return nil, fmt.Errorf("INGEST_MAX_PAGES must be positive")
	}
	if _, err := regexp.Compile(c.Alphabet); err != nil {
		return nil, fmt.Errorf("INGEST_ALPHABET: %w", err)
	}
	if c.TopKeywords < 0 || c.ClassKeywords < 0 {
		return nil, fmt.Errorf("KEYWORDS_TOP and KEYWORDS_PER_CLASS cannot be negative")
	}
	if c.LockTTL <= 0 {
		return nil, fmt.Errorf("PIPELINE_LOCK_TTL must be positive")
	}
	if c.ThresholdNegative < 0 || c.ThresholdNeutral > 100 || c.ThresholdNegative > c.ThresholdNeutral {
		return nil, fmt.Errorf("score thresholds must satisfy 0 <= negative <= neutral <= 100")
	}

	return c, nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	p, err := LoadPipeline()
	if err != nil {
		return nil, err
	}

	c := &Worker{
		Common:         loadCommon(),
		Pipeline:       *p,
		KafkaBrokers:   splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		RequestTopic:   getEnv("KAFKA_REQUEST_TOPIC", "sentiment_requests"),
		ResultTopic:    getEnv("KAFKA_RESULT_TOPIC", "sentiment_results"),
		KafkaConsumer:  getEnv("KAFKA_CONSUMER_GROUP", "sentiment-worker"),
		DedupeCapacity: getInt("WORKER_DEDUPE_CAPACITY", 1000),
		DedupeTTL:      getDuration("WORKER_DEDUPE_TTL", "10m"),
		QueueCapacity:  getInt("WORKER_QUEUE_CAPACITY", 10),
		CacheTTL:       getDuration("API_CACHE_TTL", "0s"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}
	if c.QueueCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_QUEUE_CAPACITY must be positive")
	}
	if c.CacheTTL < 0 {
		return nil, fmt.Errorf("API_CACHE_TTL cannot be negative")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	p, err := LoadPipeline()
	if err != nil {
		return nil, err
	}

	c := &API{
		Common:       loadCommon(),
		Pipeline:     *p,
		BindAddr:     getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		CacheTTL:     getDuration("API_CACHE_TTL", "0s"),
		KafkaBrokers: splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		RequestTopic: getEnv("KAFKA_REQUEST_TOPIC", "sentiment_requests"),
		RunTimeout:   getDuration("API_RUN_TIMEOUT", "5m"),
	}

	if c.CacheTTL < 0 {
		return nil, fmt.Errorf("API_CACHE_TTL cannot be negative")
	}
	if c.RunTimeout <= 0 {
		return nil, fmt.Errorf("API_RUN_TIMEOUT must be positive")
	}

	return c, nil
}

// LoadCLI builds a CLI config from environment variables.
func LoadCLI() (*CLI, error) {
	p, err := LoadPipeline()
	if err != nil {
		return nil, err
	}

	c := &CLI{
		Common:     loadCommon(),
		Pipeline:   *p,
		RunTimeout: getDuration("ANALYZE_TIMEOUT", "10m"),
	}

	if c.RunTimeout <= 0 {
		return nil, fmt.Errorf("ANALYZE_TIMEOUT must be positive")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common:    loadCommon(),
		Interval:  getDuration("RETENTION_CRON", "24h"),
		MaxAge:    getDuration("RETENTION_MAX_AGE", "336h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}

	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_CRON must be positive")
	}

	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

// LoadCommon reads only the storage settings.
func LoadCommon() Common {
	return loadCommon()
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "stock_records"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
