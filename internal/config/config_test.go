package config_test

import (
	"testing"
	"time"

	"github.com/DeafMist/stock-sentiment/backend/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadPipelineDefaults(t *testing.T) {
	t.Setenv("CLASSIFIER_BATCH_SIZE", "")
	t.Setenv("FILTER_BLOCKLIST", "")
	t.Setenv("KEYWORDS_SOURCES", "")

	cfg, err := config.LoadPipeline()
	require.NoError(t, err)

	require.Equal(t, 25, cfg.BatchSize)
	require.Equal(t, 2, cfg.ClassifierRetries)
	require.Equal(t, 72*time.Hour, cfg.BoardWindow)
	require.Equal(t, 120*time.Hour, cfg.NewsWindow)
	require.Equal(t, 240*time.Hour, cfg.ForumWindow)
	require.Equal(t, 20, cfg.ThresholdNegative)
	require.Equal(t, 50, cfg.ThresholdNeutral)
	require.Contains(t, cfg.Blocklist, "정의당")
	require.Equal(t, []string{"news", "investing"}, cfg.KeywordSources)
	require.False(t, cfg.ConcurrentIngest)
}

func TestLoadPipelineRejectsInvertedThresholds(t *testing.T) {
	t.Setenv("SCORE_THRESHOLD_NEGATIVE", "60")
	t.Setenv("SCORE_THRESHOLD_NEUTRAL", "40")

	_, err := config.LoadPipeline()
	require.Error(t, err)
}

func TestLoadPipelineRejectsBadAlphabet(t *testing.T) {
	t.Setenv("INGEST_ALPHABET", "[a-")

	_, err := config.LoadPipeline()
	require.Error(t, err)
}

func TestLoadWorkerDefaults(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "")
	t.Setenv("ELASTICSEARCH_INDEX", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_REQUEST_TOPIC", "")
	t.Setenv("KAFKA_CONSUMER_GROUP", "")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, "http://elasticsearch:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "stock_records", cfg.ElasticsearchIndex)
	require.Len(t, cfg.KafkaBrokers, 1)
	require.Equal(t, "kafka:9092", cfg.KafkaBrokers[0])
	require.Equal(t, "sentiment_requests", cfg.RequestTopic)
	require.Equal(t, "sentiment_results", cfg.ResultTopic)
	require.Equal(t, "sentiment-worker", cfg.KafkaConsumer)
	require.Equal(t, 25, cfg.BatchSize)
}

func TestLoadWorkerOverrides(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "http://localhost:9999")
	t.Setenv("ELASTICSEARCH_INDEX", "custom")
	t.Setenv("KAFKA_BROKERS", "broker-a:29092,broker-b:29093")
	t.Setenv("KAFKA_REQUEST_TOPIC", "custom_topic")
	t.Setenv("KAFKA_CONSUMER_GROUP", "custom-group")
	t.Setenv("WORKER_DEDUPE_CAPACITY", "5")
	t.Setenv("WORKER_DEDUPE_TTL", "48h")
	t.Setenv("CLASSIFIER_BATCH_SIZE", "10")
	t.Setenv("CLASSIFIER_PARALLELISM", "4")
	t.Setenv("PIPELINE_CONCURRENT_INGEST", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("API_CACHE_TTL", "2m")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:9999", cfg.ElasticsearchAddr)
	require.Equal(t, "custom", cfg.ElasticsearchIndex)
	require.Len(t, cfg.KafkaBrokers, 2)
	require.Equal(t, "broker-a:29092", cfg.KafkaBrokers[0])
	require.Equal(t, "custom_topic", cfg.RequestTopic)
	require.Equal(t, "custom-group", cfg.KafkaConsumer)
	require.Equal(t, 5, cfg.DedupeCapacity)
	require.Equal(t, 48*time.Hour, cfg.DedupeTTL)
	require.Equal(t, 10, cfg.BatchSize)
	require.Equal(t, 4, cfg.ClassifierParallelism)
	require.True(t, cfg.ConcurrentIngest)
	require.Equal(t, "redis:6379", cfg.RedisAddr)
	require.Equal(t, 2*time.Minute, cfg.CacheTTL)
}

func TestLoadAPI(t *testing.T) {
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("API_CACHE_TTL", "5m")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("ELASTICSEARCH_ADDR", "http://api-es:9200")
	t.Setenv("ELASTICSEARCH_INDEX", "api-index")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, 5*time.Minute, cfg.CacheTTL)
	require.Equal(t, "redis:6379", cfg.RedisAddr)
	require.Equal(t, "http://api-es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "api-index", cfg.ElasticsearchIndex)
}

func TestLoadRetention(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "http://ret-es:9200")
	t.Setenv("ELASTICSEARCH_INDEX", "ret-index")
	t.Setenv("RETENTION_CRON", "12h")
	t.Setenv("RETENTION_MAX_AGE", "36h")
	t.Setenv("RETENTION_BATCH_SIZE", "123")

	cfg, err := config.LoadRetention()
	require.NoError(t, err)

	require.Equal(t, 12*time.Hour, cfg.Interval)
	require.Equal(t, 36*time.Hour, cfg.MaxAge)
	require.Equal(t, 123, cfg.BatchSize)
	require.Equal(t, "http://ret-es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "ret-index", cfg.ElasticsearchIndex)
}

func TestLoadCLI(t *testing.T) {
	t.Setenv("ANALYZE_TIMEOUT", "2m")
	t.Setenv("CRAWLER_NAVER_URL", "http://localhost:9000")

	cfg, err := config.LoadCLI()
	require.NoError(t, err)
	require.Equal(t, 2*time.Minute, cfg.RunTimeout)
	require.Equal(t, "http://localhost:9000", cfg.NaverURL)
	require.Equal(t, "https://kr.investing.com", cfg.ForumURL)
}
