// Package app assembles the adapters, stages and feed from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/internal/adapters/ai"
	"github.com/selivandex/spectrum-feed/internal/adapters/config"
	"github.com/selivandex/spectrum-feed/internal/adapters/database"
	"github.com/selivandex/spectrum-feed/internal/adapters/kafka"
	adaptermetrics "github.com/selivandex/spectrum-feed/internal/adapters/metrics"
	"github.com/selivandex/spectrum-feed/internal/adapters/news"
	redisAdapter "github.com/selivandex/spectrum-feed/internal/adapters/redis"
	"github.com/selivandex/spectrum-feed/internal/adapters/telegram"
	"github.com/selivandex/spectrum-feed/internal/events"
	"github.com/selivandex/spectrum-feed/internal/feed"
	"github.com/selivandex/spectrum-feed/internal/health"
	"github.com/selivandex/spectrum-feed/internal/ingest"
	"github.com/selivandex/spectrum-feed/internal/pipeline"
	"github.com/selivandex/spectrum-feed/internal/synthesis"
	"github.com/selivandex/spectrum-feed/pkg/logger"
	"github.com/selivandex/spectrum-feed/pkg/metrics"
	"github.com/selivandex/spectrum-feed/pkg/templates"
)

// maxPageChars bounds the article text handed to the post prompt
const maxPageChars = 8000

// App holds every long-lived component of a process
type App struct {
	Config   *config.Config
	DB       *database.DB
	Redis    *redisAdapter.Client
	Pipeline *pipeline.Pipeline
	Feed     *feed.Service
	Events   *events.Fanout

	clickhouse *sqlx.DB
	metrics    metrics.Buffer
	kafka      *kafka.Publisher
}

// Build connects the stores and wires the pipeline. Close must be called on success.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:  cfg,
		Events:  events.NewFanout(),
		metrics: metrics.Nop{},
	}

	if err := a.initInfrastructure(ctx); err != nil {
		a.Close(context.Background())
		return nil, err
	}

	provider, err := initAIProviders(ctx, cfg, a.metrics)
	if err != nil {
		a.Close(context.Background())
		return nil, err
	}

	newsProvider, err := initNewsProvider(cfg)
	if err != nil {
		a.Close(context.Background())
		return nil, err
	}

	if err := a.initPublishers(); err != nil {
		a.Close(context.Background())
		return nil, err
	}

	prompts, err := templates.NewManager()
	if err != nil {
		a.Close(context.Background())
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	// Repositories and stages
	newspapers := news.NewRepository(a.DB.DB())
	store := synthesis.NewRepository(a.DB.DB())

	var reader synthesis.PageReader
	if cfg.Synthesis.PageText {
		reader = news.NewReader(cfg.News.FetchTimeout, maxPageChars)
	}

	ingester := ingest.NewService(newspapers, newsProvider, a.Events, ingest.Config{
		Topic:     cfg.News.Query,
		Freshness: cfg.News.Freshness,
		Lookback:  cfg.News.Lookback,
	})

	posts := synthesis.NewPostSynthesizer(newspapers, store, provider, prompts, reader, a.Events, synthesis.Config{
		RequireEntities:   cfg.Synthesis.RequireEntities,
		InlineComments:    cfg.Synthesis.InlineComments,
		PageText:          cfg.Synthesis.PageText,
		PostTemperature:   cfg.Synthesis.PostTemperature,
		InlineTemperature: cfg.Synthesis.InlineTemperature,
	})

	comments := synthesis.NewCommentSynthesizer(store, provider, prompts, a.Events, cfg.Synthesis.CommentTemperature)

	var locks redisAdapter.LockFactory
	if a.Redis != nil {
		locks = a.Redis.GetLockFactory()
	}
	a.Pipeline = pipeline.New(pipeline.NewRunner(locks, a.metrics), ingester, posts, comments)

	logger.Info("✅ application wired",
		zap.String("ai_provider", provider.GetName()),
		zap.String("news_provider", newsProvider.GetName()),
		zap.Bool("redis", a.Redis != nil),
		zap.Bool("clickhouse", a.clickhouse != nil),
		zap.Bool("kafka", a.kafka != nil),
		zap.Bool("telegram", cfg.Telegram.Enabled),
	)

	return a, nil
}

// initInfrastructure connects Postgres, Redis and ClickHouse and builds the feed
func (a *App) initInfrastructure(ctx context.Context) error {
	cfg := a.Config

	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.DB = db

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB().DB, cfg.Database.MigrationsPath); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Redis is optional: without it locks are in-process and the feed is uncached
	var cache feed.Cache
	if cfg.Redis.Enabled {
		client, err := redisAdapter.New(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.Redis = client
		cache = redisAdapter.NewFeedCache(client.Cache(), cfg.Redis.CacheTTL)
	} else {
		logger.Info("⚠️ redis disabled, using in-process job locks and no feed cache")
	}

	if cfg.ClickHouse.Enabled {
		if err := a.initClickHouse(ctx); err != nil {
			// metrics are optional, the pipeline runs without them
			logger.Warn("clickhouse not available, metrics disabled", zap.Error(err))
		}
	}

	a.Feed = feed.NewService(feed.NewRepository(db.DB()), cache)
	a.Events.Add(a.Feed)

	return nil
}

func (a *App) initClickHouse(ctx context.Context) error {
	cfg := a.Config.ClickHouse

	conn, err := database.NewClickHouse(ctx, cfg.DSN)
	if err != nil {
		return err
	}
	if err := database.EnsureClickHouseSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return err
	}

	a.clickhouse = conn
	a.metrics = metrics.NewBufferedMetrics(metrics.BufferConfig{
		Writer:        adaptermetrics.NewWriter(adaptermetrics.NewClickHouseRepository(conn)),
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
	})

	logger.Info("📊 clickhouse metrics enabled", zap.Int("batch_size", cfg.BatchSize))
	return nil
}

// initPublishers attaches the optional outbound event sinks
func (a *App) initPublishers() error {
	cfg := a.Config

	if cfg.Kafka.Enabled {
		a.kafka = kafka.NewPublisher(cfg.Kafka)
		a.Events.Add(a.kafka)
		logger.Info("kafka publisher enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	if cfg.Telegram.Enabled {
		notifier, err := telegram.NewNotifier(cfg.Telegram)
		if err != nil {
			return fmt.Errorf("failed to create telegram notifier: %w", err)
		}
		a.Events.Add(notifier)
		logger.Info("telegram notifier enabled", zap.Int64("chat_id", cfg.Telegram.ChatID))
	}

	return nil
}

// initAIProviders builds the configured providers in fallback order
func initAIProviders(ctx context.Context, cfg *config.Config, buffer metrics.Buffer) (ai.Provider, error) {
	var providers []ai.Provider

	for _, name := range cfg.AI.EnabledProviders() {
		settings, _ := cfg.AI.Provider(name)

		var p ai.Provider
		switch name {
		case "gemini":
			gemini, err := ai.NewGeminiProvider(ctx, &settings, cfg.AI.Timeout)
			if err != nil {
				return nil, fmt.Errorf("failed to create gemini provider: %w", err)
			}
			p = gemini
		case "openai":
			p = ai.NewOpenAIProvider(&settings, cfg.AI.Timeout)
		case "deepseek":
			p = ai.NewDeepSeekProvider(&settings, cfg.AI.Timeout)
		case "claude":
			p = ai.NewClaudeProvider(&settings, cfg.AI.Timeout)
		default:
			continue
		}

		providers = append(providers, ai.NewInstrumented(p, buffer))
		logger.Info("AI provider enabled", zap.String("provider", name))
	}

	chain, err := ai.NewChain(providers...)
	if err != nil {
		return nil, err
	}
	return chain, nil
}

func initNewsProvider(cfg *config.Config) (news.Provider, error) {
	switch cfg.News.Provider {
	case "newsapi":
		return news.NewNewsAPIProvider(cfg.News.APIKey, cfg.News.BaseURL, cfg.News.FetchTimeout), nil
	case "rss":
		return news.NewRSSProvider(cfg.News.Feeds, cfg.News.FetchTimeout), nil
	default:
		return nil, fmt.Errorf("unknown news provider %q", cfg.News.Provider)
	}
}

// Checkers returns the dependencies probed by the readiness endpoint
func (a *App) Checkers() []health.Checker {
	checkers := []health.Checker{a.DB}
	if a.Redis != nil {
		checkers = append(checkers, a.Redis)
	}
	return checkers
}

// Close flushes metrics and releases connections
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if err := a.metrics.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("metrics flush: %w", err))
	}

	if a.kafka != nil {
		logger.Info("closing kafka publisher...")
		if err := a.kafka.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka close: %w", err))
		}
	}

	if a.clickhouse != nil {
		logger.Info("closing clickhouse connection...")
		if err := a.clickhouse.Close(); err != nil {
			errs = append(errs, fmt.Errorf("clickhouse close: %w", err))
		}
	}

	if a.Redis != nil {
		logger.Info("closing redis connection...")
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	if a.DB != nil {
		logger.Info("closing database connection...")
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(errs...)
}
