package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GridSentinel/internal/strategy"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "binance", cfg.DataSource.Provider)
	assert.Equal(t, "DOGEUSDT", cfg.Market.Symbol)
	assert.Equal(t, "1h", cfg.Market.Timeframe)
	assert.Equal(t, 1000, cfg.Market.HistoryLimit)
	assert.Equal(t, 100, cfg.Market.LatestLimit)
	assert.Equal(t, 3.0, cfg.Trading.Quantity)
	assert.Equal(t, strategy.DefaultGrid(), cfg.Grid)
	assert.Equal(t, "@every 1h", cfg.Schedule.Cycle)
	assert.Equal(t, time.Minute, cfg.Schedule.DataRetry)
	assert.Equal(t, 5*time.Minute, cfg.Schedule.OrderRetry)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
market:
  symbol: BTCUSDT
  timeframe: 4h
trading:
  quantity: 0.5
grid:
  rsi_period: {start: 6, stop: 10, step: 2}
  ma_period: {start: 5, stop: 15, step: 5}
  rsi_oversold: {start: 25, stop: 35, step: 5}
  rsi_overbought: {start: 65, stop: 75, step: 5}
schedule:
  data_retry: 30s
`)
	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_SECRET_KEY", "secret")
	t.Setenv("GRIDBOT_SYMBOL", "ETHUSDT")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", cfg.Market.Symbol)
	assert.Equal(t, "4h", cfg.Market.Timeframe)
	assert.Equal(t, 0.5, cfg.Trading.Quantity)
	assert.Equal(t, 16, cfg.Grid.Size())
	assert.Equal(t, 30*time.Second, cfg.Schedule.DataRetry)
	assert.Equal(t, "key", cfg.Exchange.APIKey)
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "market: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_BadDryRunEnv(t *testing.T) {
	t.Setenv("GRIDBOT_DRY_RUN", "sometimes")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func validDryRun(t *testing.T) *Config {
	t.Helper()
	t.Setenv("GRIDBOT_DRY_RUN", "true")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"live trading without credentials", func(c *Config) { c.Trading.DryRun = false }},
		{"telegram token without chat", func(c *Config) { c.Telegram.BotToken = "t" }},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "okx" }},
		{"history limit too large", func(c *Config) { c.Market.HistoryLimit = 5000 }},
		{"negative quantity", func(c *Config) { c.Trading.Quantity = -1 }},
		{"bad cycle", func(c *Config) { c.Schedule.Cycle = "whenever" }},
		{"bad grid step", func(c *Config) { c.Grid.MAPeriod.Step = 0 }},
		{"empty grid", func(c *Config) { c.Grid.RSIOversold.Stop = c.Grid.RSIOversold.Start }},
		{"oversized grid", func(c *Config) { c.Grid.MAPeriod = strategy.Range{Start: 1, Stop: 1e12, Step: 1} }},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDryRun(t)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCycleSchedule(t *testing.T) {
	cfg := validDryRun(t)
	sched, err := cfg.CycleSchedule()
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(time.Hour), sched.Next(now))
}
