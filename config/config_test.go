package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tradebot.yaml")
	data := `
exchange:
  name: binance
  testnet: true
trading:
  symbol: ETHUSDT
  quote_asset: USDT
  timeframe: 4h
  lookback_bars: 200
risk:
  stop_loss_percent: 3
  take_profit_percent: 6
journal:
  db_path: ./test.db
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	// Explicit values applied over the defaults.
	assert.Equal(t, "binance", cfg.Exchange.Name)
	assert.Equal(t, "ETHUSDT", cfg.Trading.Symbol)
	assert.Equal(t, "4h", cfg.Trading.Timeframe)
	assert.Equal(t, 200, cfg.Trading.LookbackBars)
	assert.InDelta(t, 3.0, cfg.Risk.StopLossPercent, 1e-9)
	assert.Equal(t, "./test.db", cfg.Journal.DBPath)

	// Untouched sections keep their defaults.
	assert.Equal(t, 14, cfg.Indicators.RSIPeriod)
	assert.InDelta(t, 60.0, cfg.Signal.MinConfidence, 1e-9)
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tradebot.json")
	data := `{"trading": {"symbol": "SOLUSDT", "quote_asset": "USDT", "timeframe": "1h", "lookback_bars": 100}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SOLUSDT", cfg.Trading.Symbol)
}

func TestEnvOverridesCredentials(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "env-key")
	t.Setenv("BINANCE_SECRET_KEY", "env-secret")

	path := filepath.Join(t.TempDir(), "tradebot.yaml")
	require.NoError(t, Default().SaveToFile(path))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Exchange.APIKey)
	assert.Equal(t, "env-secret", cfg.Exchange.SecretKey)
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown exchange", func(c *Config) { c.Exchange.Name = "kraken" }, "exchange.name"},
		{"missing symbol", func(c *Config) { c.Trading.Symbol = "" }, "trading.symbol"},
		{"bad timeframe", func(c *Config) { c.Trading.Timeframe = "7m" }, "trading.timeframe"},
		{"short lookback", func(c *Config) { c.Trading.LookbackBars = 10 }, "lookback_bars"},
		{"zero stop loss", func(c *Config) { c.Risk.StopLossPercent = 0 }, "stop_loss_percent"},
		{"oversized position", func(c *Config) { c.Risk.PositionSizePercent = 150 }, "position_size_percent"},
		{"inverted rsi bands", func(c *Config) { c.Signal.RSIOversold = 80 }, "rsi_oversold"},
		{"inverted macd periods", func(c *Config) { c.Indicators.MACDFast = 30 }, "macd_fast"},
		{"zero balance", func(c *Config) { c.Backtest.InitialBalance = 0 }, "initial_balance"},
		{"missing db path", func(c *Config) { c.Journal.DBPath = "" }, "db_path"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		cfg := Default()
		cfg.Trading.Symbol = "ETHUSDT"
		require.NoError(t, cfg.SaveToFile(path))

		got, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "ETHUSDT", got.Trading.Symbol)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.json")
		require.NoError(t, Default().SaveToFile(path))

		got, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, Default().Trading.Symbol, got.Trading.Symbol)
	})
}
