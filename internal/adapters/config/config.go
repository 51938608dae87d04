package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	Server     ServerConfig     `envconfig:"SERVER"`
	Health     HealthConfig     `envconfig:"HEALTH"`
	Database   DatabaseConfig   `envconfig:"DATABASE"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	AI         AIConfig         `envconfig:"AI"`
	News       NewsConfig       `envconfig:"NEWS"`
	Synthesis  SynthesisConfig  `envconfig:"SYNTHESIS"`
	Scheduler  SchedulerConfig  `envconfig:"SCHEDULER"`
	Telegram   TelegramConfig   `envconfig:"TELEGRAM"`
	Kafka      KafkaConfig      `envconfig:"KAFKA"`
	ClickHouse ClickHouseConfig `envconfig:"CLICKHOUSE"`
	Logging    LoggingConfig    `envconfig:"LOGGING"`
}

// ServerConfig represents the public HTTP API
type ServerConfig struct {
	Addr            string        `envconfig:"HTTP_ADDR" default:":3000"`
	TriggerKey      string        `envconfig:"API_TRIGGER_KEY" required:"false"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
	GinMode         string        `envconfig:"GIN_MODE" default:"release"`
}

// HealthConfig represents the health probe server
type HealthConfig struct {
	Port int `envconfig:"HEALTH_PORT" default:"8080"`
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
	Name           string `envconfig:"DB_NAME" default:"spectrum"`
	User           string `envconfig:"DB_USER" default:"postgres"`
	Password       string `envconfig:"DB_PASSWORD" required:"false"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_PATH" default:"./migrations"`
	AutoMigrate    bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

// RedisConfig represents job locks and feed cache
type RedisConfig struct {
	Enabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Addrs    []string      `envconfig:"REDIS_ADDRS" default:"localhost:6379"`
	Password string        `envconfig:"REDIS_PASSWORD" required:"false"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	LockTTL  time.Duration `envconfig:"REDIS_LOCK_TTL" default:"5m"`
	CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"1m"`
}

// AIConfig represents AI provider configurations
type AIConfig struct {
	// Providers lists provider names in fallback order
	Providers []string         `envconfig:"AI_PROVIDERS" default:"gemini"`
	Gemini    AIProviderConfig `envconfig:"GEMINI"`
	OpenAI    AIProviderConfig `envconfig:"OPENAI"`
	DeepSeek  AIProviderConfig `envconfig:"DEEPSEEK"`
	Claude    AIProviderConfig `envconfig:"CLAUDE"`
	Timeout   time.Duration    `envconfig:"AI_TIMEOUT" default:"90s"`
}

// AIProviderConfig represents single AI provider configuration
type AIProviderConfig struct {
	APIKey  string `envconfig:"API_KEY" required:"false"`
	Model   string `envconfig:"MODEL" required:"false"`
	BaseURL string `envconfig:"BASE_URL" required:"false"`
}

// NewsConfig represents news ingestion configuration
type NewsConfig struct {
	Provider     string        `envconfig:"NEWS_PROVIDER" default:"newsapi"` // newsapi or rss
	APIKey       string        `envconfig:"NEWSAPI_KEY" required:"false"`
	BaseURL      string        `envconfig:"NEWSAPI_URL" default:"https://newsapi.org/v2/everything"`
	Query        string        `envconfig:"NEWS_QUERY" default:"governo"`
	Feeds        []string      `envconfig:"NEWS_RSS_FEEDS" required:"false"`
	Freshness    time.Duration `envconfig:"NEWS_FRESHNESS" default:"164h"`
	Lookback     time.Duration `envconfig:"NEWS_LOOKBACK" default:"168h"`
	FetchTimeout time.Duration `envconfig:"NEWS_FETCH_TIMEOUT" default:"30s"`
}

// SynthesisConfig represents post and comment generation
type SynthesisConfig struct {
	RequireEntities    bool    `envconfig:"SYNTHESIS_REQUIRE_ENTITIES" default:"true"`
	InlineComments     bool    `envconfig:"SYNTHESIS_INLINE_COMMENTS" default:"true"`
	PageText           bool    `envconfig:"SYNTHESIS_PAGE_TEXT" default:"false"`
	PostTemperature    float32 `envconfig:"SYNTHESIS_POST_TEMPERATURE" default:"0.2"`
	CommentTemperature float32 `envconfig:"SYNTHESIS_COMMENT_TEMPERATURE" default:"0.2"`
	InlineTemperature  float32 `envconfig:"SYNTHESIS_INLINE_TEMPERATURE" default:"0.7"`
}

// SchedulerConfig represents built-in periodic triggers
type SchedulerConfig struct {
	Enabled         bool          `envconfig:"SCHEDULER_ENABLED" default:"false"`
	IngestInterval  time.Duration `envconfig:"SCHEDULER_INGEST_INTERVAL" default:"1h"`
	PostInterval    time.Duration `envconfig:"SCHEDULER_POST_INTERVAL" default:"10m"`
	CommentInterval time.Duration `envconfig:"SCHEDULER_COMMENT_INTERVAL" default:"15m"`
	StopTimeout     time.Duration `envconfig:"SCHEDULER_STOP_TIMEOUT" default:"30s"`
}

// TelegramConfig represents the channel that announces new posts
type TelegramConfig struct {
	Enabled  bool   `envconfig:"TELEGRAM_ENABLED" default:"false"`
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"false"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID" required:"false"`
}

// KafkaConfig represents the pipeline event stream
type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"spectrum.feed"`
}

// ClickHouseConfig represents run and LLM call metrics storage
type ClickHouseConfig struct {
	Enabled       bool          `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	DSN           string        `envconfig:"CLICKHOUSE_DSN" default:"clickhouse://localhost:9000/default"`
	BatchSize     int           `envconfig:"CLICKHOUSE_BATCH_SIZE" default:"100"`
	FlushInterval time.Duration `envconfig:"CLICKHOUSE_FLUSH_INTERVAL" default:"10s"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" required:"false"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadDatabase reads only the database and logging sections, for tooling that
// must not depend on provider credentials
func LoadDatabase() (*DatabaseConfig, *LoggingConfig, error) {
	var db DatabaseConfig
	if err := envconfig.Process("", &db); err != nil {
		return nil, nil, fmt.Errorf("failed to process database config: %w", err)
	}

	var logging LoggingConfig
	if err := envconfig.Process("", &logging); err != nil {
		return nil, nil, fmt.Errorf("failed to process logging config: %w", err)
	}

	return &db, &logging, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if len(c.AI.EnabledProviders()) == 0 {
		return fmt.Errorf("at least one AI provider must be configured with an API key")
	}

	switch c.News.Provider {
	case "newsapi":
		if c.News.APIKey == "" {
			return fmt.Errorf("NEWSAPI_KEY is required for the newsapi provider")
		}
	case "rss":
		if len(c.News.Feeds) == 0 {
			return fmt.Errorf("NEWS_RSS_FEEDS is required for the rss provider")
		}
	default:
		return fmt.Errorf("unknown news provider %q", c.News.Provider)
	}

	if c.News.Freshness <= 0 || c.News.Lookback <= 0 {
		return fmt.Errorf("news freshness and lookback must be positive")
	}

	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		return fmt.Errorf("telegram bot token and chat_id are required when telegram is enabled")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}

	if c.Redis.Enabled && len(c.Redis.Addrs) == 0 {
		return fmt.Errorf("redis addrs are required when redis is enabled")
	}

	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetURL returns the PostgreSQL URL form used by migrate
func (c *DatabaseConfig) GetURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// EnabledProviders returns configured provider names in fallback order
func (c *AIConfig) EnabledProviders() []string {
	var providers []string
	for _, name := range c.Providers {
		if p, ok := c.Provider(name); ok && p.APIKey != "" {
			providers = append(providers, name)
		}
	}
	return providers
}

// Provider returns the settings of a named provider
func (c *AIConfig) Provider(name string) (AIProviderConfig, bool) {
	switch name {
	case "gemini":
		return c.Gemini, true
	case "openai":
		return c.OpenAI, true
	case "deepseek":
		return c.DeepSeek, true
	case "claude":
		return c.Claude, true
	default:
		return AIProviderConfig{}, false
	}
}
