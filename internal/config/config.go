package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"MarketScreener/internal/strategy"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SCREENER_TELEGRAM_BOT_TOKEN.
const EnvPrefix = "SCREENER"

// Config holds all application configuration.
type Config struct {
	Log struct {
		Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=console json"`
	} `yaml:"log" envconfig:"LOG"`
	Server struct {
		Addr        string   `yaml:"addr" envconfig:"ADDR"`
		CORSOrigins []string `yaml:"cors_origins" envconfig:"CORS_ORIGINS"`
	} `yaml:"server" envconfig:"SERVER"`
	DataSource struct {
		Provider     string  `yaml:"provider" envconfig:"PROVIDER" validate:"oneof=yahoo alpaca rest mock"`
		BaseURL      string  `yaml:"base_url" envconfig:"BASE_URL" validate:"required_if=Provider rest"`
		APIKey       string  `yaml:"api_key" envconfig:"API_KEY" validate:"required_if=Provider alpaca"`
		APISecret    string  `yaml:"api_secret" envconfig:"API_SECRET" validate:"required_if=Provider alpaca"`
		Feed         string  `yaml:"feed" envconfig:"FEED"`
		RateLimit    float64 `yaml:"rate_limit" envconfig:"RATE_LIMIT" validate:"gte=0"`
		Burst        int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
		LookbackDays int     `yaml:"lookback_days" envconfig:"LOOKBACK_DAYS" validate:"gte=0"`
	} `yaml:"data_source" envconfig:"DATA_SOURCE"`
	Universe struct {
		Sources      []string `yaml:"sources" envconfig:"SOURCES" validate:"min=1,dive,oneof=static sp500 nasdaq alpaca"`
		Symbols      []string `yaml:"symbols" envconfig:"SYMBOLS"`
		ExcludeFunds bool     `yaml:"exclude_funds" envconfig:"EXCLUDE_FUNDS"`
		CacheTTL     string   `yaml:"cache_ttl" envconfig:"CACHE_TTL"`
	} `yaml:"universe" envconfig:"UNIVERSE"`
	Screener struct {
		Concurrency   int    `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"gte=1"`
		DefaultPreset string `yaml:"default_preset" envconfig:"DEFAULT_PRESET" validate:"required"`
		TopN          int    `yaml:"top_n" envconfig:"TOP_N" validate:"gte=1"`
	} `yaml:"screener" envconfig:"SCREENER"`
	Scoring struct {
		// Presets overrides or adds rule tables by name.
		Presets map[string][]strategy.Rule `yaml:"presets" ignored:"true"`
	} `yaml:"scoring" envconfig:"SCORING"`
	Schedule struct {
		DailyCron  string `yaml:"daily_cron" envconfig:"DAILY_CRON" validate:"required"`
		RunOnStart bool   `yaml:"run_on_start" envconfig:"RUN_ON_START"`
	} `yaml:"schedule" envconfig:"SCHEDULE"`
	Database struct {
		Driver string `yaml:"driver" envconfig:"DRIVER" validate:"oneof=sqlite postgres none"`
		DSN    string `yaml:"dsn" envconfig:"DSN"`
	} `yaml:"database" envconfig:"DATABASE"`
	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" envconfig:"CHAT_ID" validate:"required_with=BotToken"`
	} `yaml:"telegram" envconfig:"TELEGRAM"`
	Proxy string `yaml:"proxy" envconfig:"PROXY"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if cfg.Proxy == "" {
		cfg.Proxy = os.Getenv("HTTPS_PROXY")
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	c.DataSource.Provider = strings.ToLower(c.DataSource.Provider)
	if c.DataSource.Feed == "" {
		c.DataSource.Feed = "iex"
	}
	if c.DataSource.RateLimit == 0 {
		c.DataSource.RateLimit = 5
	}
	if c.DataSource.Burst == 0 {
		c.DataSource.Burst = 1
	}
	if c.DataSource.LookbackDays == 0 {
		c.DataSource.LookbackDays = 300
	}
	if len(c.Universe.Sources) == 0 {
		c.Universe.Sources = []string{"static"}
	}
	if c.Universe.CacheTTL == "" {
		c.Universe.CacheTTL = "24h"
	}
	if c.Screener.Concurrency == 0 {
		c.Screener.Concurrency = 8
	}
	if c.Screener.DefaultPreset == "" {
		c.Screener.DefaultPreset = "top_10_recommended"
	}
	if c.Screener.TopN == 0 {
		c.Screener.TopN = 10
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 0 22 * * 1-5"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "data/market_screener.db"
	}
}

// Validate checks field constraints and the scoring preset overrides.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for postgres")
	}
	for name, rules := range c.Scoring.Presets {
		for _, r := range rules {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("scoring preset %s: %w", name, err)
			}
		}
	}
	return nil
}
