package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Cache backends accepted by CACHE_BACKEND.
const (
	CacheFile          = "file"
	CacheMemory        = "memory"
	CacheRedis         = "redis"
	CacheElasticsearch = "elasticsearch"
	CacheSQLite        = "sqlite"
)

// Common contains Elasticsearch parameters shared by every service.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Provider configures the NewsAPI client.
type Provider struct {
	APIKey       string
	BaseURL      string
	PageSize     int
	Timeout      time.Duration
	RateInterval time.Duration
}

// Cache selects and configures the response cache backing.
type Cache struct {
	Backend        string
	TTL            time.Duration
	FilePath       string
	MemoryCapacity int
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SQLitePath     string
	ElasticIndex   string
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	Provider       Provider
	Cache          Cache
	BindAddr       string
	KafkaBrokers   []string
	KafkaTopic     string
	ArchiveEnabled bool
	DefaultPage    int
	MaxPage        int
}

// Worker holds configuration for the Kafka -> Elasticsearch archiver.
type Worker struct {
	Common
	KafkaBrokers     []string
	KafkaTopic       string
	KafkaConsumer    string
	KeywordLimit     int
	KeywordMinLength int
	BatchSize        int
}

// Retention configures the archive cleanup loop.
type Retention struct {
	Common
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

// LoadCommon reads the Elasticsearch settings shared by every binary.
func LoadCommon() Common {
	return Common{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "news_archive"),
	}
}

// LoadProvider reads NewsAPI settings. NEWS_API_KEY is mandatory.
func LoadProvider() (*Provider, error) {
	p := &Provider{
		APIKey:       strings.TrimSpace(os.Getenv("NEWS_API_KEY")),
		BaseURL:      getEnv("NEWS_API_BASE_URL", "https://newsapi.org/v2"),
		PageSize:     getInt("NEWS_API_PAGE_SIZE", 20),
		Timeout:      getDuration("NEWS_API_TIMEOUT", "8s"),
		RateInterval: getDuration("NEWS_API_RATE_INTERVAL", "0s"),
	}

	if p.APIKey == "" {
		return nil, fmt.Errorf("NEWS_API_KEY must be set")
	}
	if p.PageSize <= 0 {
		return nil, fmt.Errorf("NEWS_API_PAGE_SIZE must be positive")
	}
	if p.Timeout <= 0 {
		return nil, fmt.Errorf("NEWS_API_TIMEOUT must be positive")
	}
	if p.RateInterval < 0 {
		return nil, fmt.Errorf("NEWS_API_RATE_INTERVAL cannot be negative")
	}

	return p, nil
}

// LoadCache reads cache backing settings.
func LoadCache() (*Cache, error) {
	c := &Cache{
		Backend:        strings.ToLower(getEnv("CACHE_BACKEND", CacheFile)),
		TTL:            getDuration("CACHE_TTL", "200s"),
		FilePath:       getEnv("CACHE_FILE", "news_cache.json"),
		MemoryCapacity: getInt("CACHE_MEMORY_CAPACITY", 0),
		RedisAddr:      getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getInt("REDIS_DB", 0),
		SQLitePath:     getEnv("CACHE_SQLITE_PATH", "news_cache.db"),
		ElasticIndex:   getEnv("CACHE_ELASTICSEARCH_INDEX", "news_cache"),
	}

	switch c.Backend {
	case CacheFile, CacheMemory, CacheRedis, CacheElasticsearch, CacheSQLite:
	default:
		return nil, fmt.Errorf("CACHE_BACKEND %q is not supported", c.Backend)
	}
	if c.TTL <= 0 {
		return nil, fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.MemoryCapacity < 0 {
		return nil, fmt.Errorf("CACHE_MEMORY_CAPACITY cannot be negative")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	provider, err := LoadProvider()
	if err != nil {
		return nil, err
	}
	cache, err := LoadCache()
	if err != nil {
		return nil, err
	}

	c := &API{
		Common:         LoadCommon(),
		Provider:       *provider,
		Cache:          *cache,
		BindAddr:       getEnv("API_BIND_ADDR", "0.0.0.0:8000"),
		KafkaBrokers:   splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "news_fetched"),
		ArchiveEnabled: getBool("ARCHIVE_ENABLED", false),
		DefaultPage:    getInt("API_PAGE_SIZE", 20),
		MaxPage:        getInt("API_MAX_PAGE_SIZE", 100),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}

	return c, nil
}

// PublishEnabled reports whether fetch events should be sent to Kafka.
func (c *API) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	c := &Worker{
		Common:           LoadCommon(),
		KafkaBrokers:     splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "news_fetched"),
		KafkaConsumer:    getEnv("KAFKA_CONSUMER_GROUP", "news-archiver"),
		KeywordLimit:     getInt("WORKER_KEYWORD_LIMIT", 8),
		KeywordMinLength: getInt("WORKER_KEYWORD_MIN_LEN", 4),
		BatchSize:        getInt("WORKER_BATCH_SIZE", 10),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("WORKER_BATCH_SIZE must be positive")
	}
	if c.KeywordLimit <= 0 {
		return nil, fmt.Errorf("WORKER_KEYWORD_LIMIT must be positive")
	}
	if c.KeywordMinLength < 0 {
		return nil, fmt.Errorf("WORKER_KEYWORD_MIN_LEN cannot be negative")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common:    LoadCommon(),
		Interval:  getDuration("RETENTION_INTERVAL", "24h"),
		MaxAge:    getDuration("RETENTION_MAX_AGE", "720h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_INTERVAL must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
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

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
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
