package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"CryptoSentinel/internal/model"
)

// CoinConfig describes one tracked coin across the data sources.
type CoinConfig struct {
	ID      string   `yaml:"id"`      // CoinGecko identifier
	Symbol  string   `yaml:"symbol"`  // display symbol
	Ticker  string   `yaml:"ticker"`  // Yahoo Finance ticker
	Aliases []string `yaml:"aliases"` // extra words matched in analyst video titles
}

// ChannelConfig is one trusted analyst feed.
type ChannelConfig struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
}

// SourcesConfig holds the collector endpoints and limits.
type SourcesConfig struct {
	CoinGeckoURL    string        `yaml:"coingecko_url"`
	CoinGeckoAPIKey string        `yaml:"coingecko_api_key"`
	FearGreedURL    string        `yaml:"fear_greed_url"`
	YahooURL        string        `yaml:"yahoo_url"`
	YouTubeFeedURL  string        `yaml:"youtube_feed_url"`
	HistoryDays     int           `yaml:"history_days"`
	VideoWindowDays int           `yaml:"video_window_days"`
	MaxVideos       int           `yaml:"max_videos"`
	Timeout         time.Duration `yaml:"timeout"`
	Concurrency     int           `yaml:"concurrency"`
}

// Config holds all application configuration.
type Config struct {
	Engine   EngineConfig    `yaml:"engine"`
	Coins    []CoinConfig    `yaml:"coins"`
	Channels []ChannelConfig `yaml:"channels"`
	Sources  SourcesConfig   `yaml:"sources"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Output struct {
		DataFile     string `yaml:"data_file"`
		AnalysisFile string `yaml:"analysis_file"`
		SummaryFile  string `yaml:"summary_file"`
	} `yaml:"output"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Proxy string `yaml:"proxy"`
}

// Default returns a configuration with every option set to its documented default.
func Default() *Config {
	cfg := &Config{
		Engine: DefaultEngine(),
		Coins: []CoinConfig{
			{ID: "bitcoin", Symbol: "BTC", Ticker: "BTC-USD", Aliases: []string{"bitcoin"}},
			{ID: "ethereum", Symbol: "ETH", Ticker: "ETH-USD", Aliases: []string{"ethereum", "ether"}},
			{ID: "ripple", Symbol: "XRP", Ticker: "XRP-USD", Aliases: []string{"ripple"}},
			{ID: "cardano", Symbol: "ADA", Ticker: "ADA-USD", Aliases: []string{"cardano"}},
			{ID: "avalanche-2", Symbol: "AVAX", Ticker: "AVAX-USD", Aliases: []string{"avalanche"}},
			{ID: "vechain", Symbol: "VET", Ticker: "VET-USD", Aliases: []string{"vechain"}},
			{ID: "vethor-token", Symbol: "VTHO", Ticker: "VTHO-USD", Aliases: []string{"vethor"}},
			{ID: "terra-luna", Symbol: "LUNC", Ticker: "LUNC-USD", Aliases: []string{"terra", "luna"}},
		},
		Channels: []ChannelConfig{
			{Name: "Benjamin Cowen", ID: "UCRvqjQPSeaWn-uEx-w0XOIg"},
			{Name: "Jason Pizzino", ID: "UCIb34uXDsfTq4PJKW0eztkA"},
			{Name: "Crypto Capital Venture", ID: "UCnMku7J_UtwlcSfZlIuQ3Kw"},
		},
		Sources: SourcesConfig{
			CoinGeckoURL:    "https://api.coingecko.com/api/v3",
			FearGreedURL:    "https://api.alternative.me",
			YahooURL:        "https://query1.finance.yahoo.com",
			YouTubeFeedURL:  "https://www.youtube.com",
			HistoryDays:     365,
			VideoWindowDays: 30,
			MaxVideos:       50,
			Timeout:         30 * time.Second,
			Concurrency:     4,
		},
	}
	cfg.Schedule.DailyCron = "0 0 7 * * *"
	cfg.Database.SQLitePath = "data/crypto_sentinel.db"
	cfg.Output.DataFile = "data/data.json"
	cfg.Output.AnalysisFile = "data/analysis.json"
	cfg.Output.SummaryFile = "data/email_summary.html"
	cfg.Server.Addr = ":9102"
	return cfg
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides and validates the result.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.Sources.CoinGeckoAPIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	for i := range cfg.Engine.Thresholds {
		cfg.Engine.Thresholds[i].Label = model.ParseRecommendation(string(cfg.Engine.Thresholds[i].Label))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the engine parameters and the collection settings.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Coins))
	for i, coin := range c.Coins {
		if coin.ID == "" {
			return errors.Wrapf(model.ErrConfiguration, "coins[%d].id is required", i)
		}
		if seen[coin.ID] {
			return errors.Wrapf(model.ErrConfiguration, "coin %q listed twice", coin.ID)
		}
		seen[coin.ID] = true
	}
	if c.Sources.HistoryDays <= 0 {
		return errors.Wrap(model.ErrConfiguration, "sources.history_days must be positive")
	}
	if c.Sources.Concurrency <= 0 {
		return errors.Wrap(model.ErrConfiguration, "sources.concurrency must be positive")
	}
	if c.Schedule.DailyCron == "" {
		return errors.Wrap(model.ErrConfiguration, "schedule.daily_cron is required")
	}
	return nil
}

// TelegramEnabled reports whether both Telegram credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
