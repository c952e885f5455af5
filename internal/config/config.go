package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"GridSentinel/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Exchange struct {
		APIKey    string `yaml:"api_key"`
		SecretKey string `yaml:"secret_key"`
		BaseURL   string `yaml:"base_url" validate:"omitempty,url"`
		Testnet   bool   `yaml:"testnet"`
	} `yaml:"exchange"`
	DataSource struct {
		Provider string `yaml:"provider" validate:"oneof=binance yahoo mock"`
	} `yaml:"data_source"`
	Market struct {
		Symbol       string `yaml:"symbol" validate:"required"`
		Timeframe    string `yaml:"timeframe" validate:"required"`
		HistoryLimit int    `yaml:"history_limit" validate:"gt=1,lte=1000"`
		LatestLimit  int    `yaml:"latest_limit" validate:"gt=0,lte=1000"`
	} `yaml:"market"`
	Trading struct {
		Quantity float64 `yaml:"quantity" validate:"gt=0"`
		DryRun   bool    `yaml:"dry_run"`
	} `yaml:"trading"`
	Grid      strategy.Grid `yaml:"grid"`
	Optimizer struct {
		Workers int `yaml:"workers" validate:"gte=0"`
	} `yaml:"optimizer"`
	Schedule struct {
		Cycle      string        `yaml:"cycle" validate:"required"`
		DataRetry  time.Duration `yaml:"data_retry" validate:"gt=0"`
		OrderRetry time.Duration `yaml:"order_retry" validate:"gt=0"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`
	Log struct {
		Level    string `yaml:"level" validate:"oneof=debug info warn error"`
		Encoding string `yaml:"encoding" validate:"oneof=json console"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy" validate:"omitempty,url"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults fill whatever is unset.
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

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("BINANCE_SECRET_KEY"); v != "" {
		c.Exchange.SecretKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("GRIDBOT_SYMBOL"); v != "" {
		c.Market.Symbol = v
	}
	if v := os.Getenv("GRIDBOT_DRY_RUN"); v != "" {
		dry, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse GRIDBOT_DRY_RUN: %w", err)
		}
		c.Trading.DryRun = dry
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "binance"
	}
	if c.Market.Symbol == "" {
		c.Market.Symbol = "DOGEUSDT"
	}
	if c.Market.Timeframe == "" {
		c.Market.Timeframe = "1h"
	}
	if c.Market.HistoryLimit == 0 {
		c.Market.HistoryLimit = 1000
	}
	if c.Market.LatestLimit == 0 {
		c.Market.LatestLimit = 100
	}
	if c.Trading.Quantity == 0 {
		c.Trading.Quantity = 3
	}
	if c.Grid == (strategy.Grid{}) {
		c.Grid = strategy.DefaultGrid()
	}
	if c.Schedule.Cycle == "" {
		c.Schedule.Cycle = "@every 1h"
	}
	if c.Schedule.DataRetry == 0 {
		c.Schedule.DataRetry = 60 * time.Second
	}
	if c.Schedule.OrderRetry == 0 {
		c.Schedule.OrderRetry = 5 * time.Minute
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/gridsentinel.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = "json"
	}
}

// Validate checks field constraints and the rules that span sections.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !c.Trading.DryRun && (c.Exchange.APIKey == "" || c.Exchange.SecretKey == "") {
		return errors.New("exchange.api_key and exchange.secret_key are required unless trading.dry_run is set")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	if err := c.Grid.Check(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if c.Grid.Size() == 0 {
		return errors.New("grid: every range must contain at least one value")
	}
	if _, err := c.CycleSchedule(); err != nil {
		return err
	}
	return nil
}

// CycleSchedule parses schedule.cycle, e.g. "@every 1h" or "0 * * * *".
func (c *Config) CycleSchedule() (cron.Schedule, error) {
	sched, err := cron.ParseStandard(c.Schedule.Cycle)
	if err != nil {
		return nil, fmt.Errorf("schedule.cycle %q: %w", c.Schedule.Cycle, err)
	}
	return sched, nil
}
