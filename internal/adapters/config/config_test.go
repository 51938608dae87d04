package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AI_GEMINI_API_KEY", "g-key")
	t.Setenv("NEWSAPI_KEY", "n-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.News.Freshness != 6*24*time.Hour+20*time.Hour {
		t.Errorf("Freshness = %v, want 6d20h", cfg.News.Freshness)
	}
	if cfg.News.Lookback != 7*24*time.Hour {
		t.Errorf("Lookback = %v, want 7d", cfg.News.Lookback)
	}
	if cfg.News.Query != "governo" {
		t.Errorf("Query = %q", cfg.News.Query)
	}
	if !cfg.Synthesis.RequireEntities || !cfg.Synthesis.InlineComments {
		t.Error("strict entity check and inline comments should default on")
	}
	if cfg.Synthesis.PostTemperature != 0.2 {
		t.Errorf("PostTemperature = %v", cfg.Synthesis.PostTemperature)
	}
	if got := cfg.AI.EnabledProviders(); len(got) != 1 || got[0] != "gemini" {
		t.Errorf("EnabledProviders() = %v", got)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			AI:   AIConfig{Providers: []string{"gemini"}, Gemini: AIProviderConfig{APIKey: "k"}},
			News: NewsConfig{Provider: "newsapi", APIKey: "k", Freshness: time.Hour, Lookback: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"no ai key", func(c *Config) { c.AI.Gemini.APIKey = "" }, true},
		{"unknown ai provider only", func(c *Config) { c.AI.Providers = []string{"bard"} }, true},
		{"newsapi without key", func(c *Config) { c.News.APIKey = "" }, true},
		{"rss without feeds", func(c *Config) { c.News.Provider = "rss" }, true},
		{"rss with feeds", func(c *Config) { c.News.Provider = "rss"; c.News.Feeds = []string{"https://x/rss"} }, false},
		{"unknown news provider", func(c *Config) { c.News.Provider = "gdelt" }, true},
		{"telegram without token", func(c *Config) { c.Telegram.Enabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDatabaseWithoutProviders(t *testing.T) {
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("LOG_LEVEL", "debug")

	db, logging, err := LoadDatabase()
	if err != nil {
		t.Fatalf("LoadDatabase() error = %v", err)
	}
	if db.Host != "pg.internal" || db.Name != "spectrum" {
		t.Errorf("database = %+v", db)
	}
	if logging.Level != "debug" {
		t.Errorf("Level = %q", logging.Level)
	}
}
