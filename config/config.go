// Package config loads and validates the bot configuration from YAML or
// JSON files, with environment overrides for exchange credentials.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tradebot/indicators"
	"tradebot/market"
	"tradebot/risk"
	"tradebot/signal"
)

// Config represents the complete bot configuration.
type Config struct {
	Exchange   ExchangeConfig    `json:"exchange" yaml:"exchange"`
	Trading    TradingConfig     `json:"trading" yaml:"trading"`
	Risk       risk.Limits       `json:"risk" yaml:"risk"`
	Signal     signal.Thresholds `json:"signal" yaml:"signal"`
	Indicators IndicatorConfig   `json:"indicators" yaml:"indicators"`
	Backtest   BacktestConfig    `json:"backtest" yaml:"backtest"`
	State      StateConfig       `json:"state" yaml:"state"`
	Journal    JournalConfig     `json:"journal" yaml:"journal"`
	Logging    LoggingConfig     `json:"logging" yaml:"logging"`
}

// ExchangeConfig contains venue connection parameters. The API credentials
// are normally supplied through BINANCE_API_KEY / BINANCE_SECRET_KEY rather
// than the config file.
type ExchangeConfig struct {
	Name      string `json:"name" yaml:"name"` // "binance" or "paper"
	APIKey    string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`
	Testnet   bool   `json:"testnet" yaml:"testnet"`
}

// TradingConfig contains the live loop parameters.
type TradingConfig struct {
	Symbol       string `json:"symbol" yaml:"symbol"`
	QuoteAsset   string `json:"quote_asset" yaml:"quote_asset"`
	Timeframe    string `json:"timeframe" yaml:"timeframe"`
	LookbackBars int    `json:"lookback_bars" yaml:"lookback_bars"`
	Interval     string `json:"interval" yaml:"interval"` // poll cadence, e.g. "1m"
}

// IndicatorConfig mirrors the indicator periods.
type IndicatorConfig struct {
	RSIPeriod  int     `json:"rsi_period" yaml:"rsi_period"`
	MACDFast   int     `json:"macd_fast" yaml:"macd_fast"`
	MACDSlow   int     `json:"macd_slow" yaml:"macd_slow"`
	MACDSignal int     `json:"macd_signal" yaml:"macd_signal"`
	BBPeriod   int     `json:"bb_period" yaml:"bb_period"`
	BBStdDev   float64 `json:"bb_std_dev" yaml:"bb_std_dev"`
}

// BacktestConfig contains simulation parameters.
type BacktestConfig struct {
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
	DataFile       string  `json:"data_file,omitempty" yaml:"data_file,omitempty"`
	Bars           int     `json:"bars" yaml:"bars"`
}

// StateConfig locates the persisted runtime state.
type StateConfig struct {
	RiskFile    string `json:"risk_file" yaml:"risk_file"`
	HistoryFile string `json:"history_file" yaml:"history_file"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	DBPath       string `json:"db_path" yaml:"db_path"`
	TradeLogFile string `json:"trade_log_file,omitempty" yaml:"trade_log_file,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // trace..panic
	Pretty bool   `json:"pretty" yaml:"pretty"` // console writer vs JSON
}

// ToIndicators converts the file representation to indicator parameters.
func (ic IndicatorConfig) ToIndicators() indicators.Config {
	return indicators.Config{
		RSIPeriod:  ic.RSIPeriod,
		MACDFast:   ic.MACDFast,
		MACDSlow:   ic.MACDSlow,
		MACDSignal: ic.MACDSignal,
		BBPeriod:   ic.BBPeriod,
		BBStdDev:   ic.BBStdDev,
	}
}

// LoadFromFile loads configuration from a file (JSON or YAML based on
// content). Exchange credentials present in the environment override the
// file values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("BINANCE_SECRET_KEY"); v != "" {
		c.Exchange.SecretKey = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Exchange.Name != "binance" && c.Exchange.Name != "paper" {
		return fmt.Errorf("exchange.name must be 'binance' or 'paper'")
	}
	if c.Trading.Symbol == "" {
		return fmt.Errorf("trading.symbol is required")
	}
	if c.Trading.QuoteAsset == "" {
		return fmt.Errorf("trading.quote_asset is required")
	}
	if _, err := market.TimeframeDuration(c.Trading.Timeframe); err != nil {
		return fmt.Errorf("trading.timeframe: %w", err)
	}
	if c.Trading.LookbackBars < 50 {
		return fmt.Errorf("trading.lookback_bars must be at least 50")
	}
	if c.Risk.StopLossPercent <= 0 {
		return fmt.Errorf("risk.stop_loss_percent must be positive")
	}
	if c.Risk.TakeProfitPercent <= 0 {
		return fmt.Errorf("risk.take_profit_percent must be positive")
	}
	if c.Risk.PositionSizePercent <= 0 || c.Risk.PositionSizePercent > 100 {
		return fmt.Errorf("risk.position_size_percent must be in (0, 100]")
	}
	if c.Risk.MaxTradesPerDay <= 0 {
		return fmt.Errorf("risk.max_trades_per_day must be positive")
	}
	if c.Signal.MinConfidence < 0 || c.Signal.MinConfidence > 100 {
		return fmt.Errorf("signal.min_confidence must be in [0, 100]")
	}
	if c.Signal.RSIOversold >= c.Signal.RSIOverbought {
		return fmt.Errorf("signal.rsi_oversold must be below rsi_overbought")
	}
	if c.Indicators.MACDFast >= c.Indicators.MACDSlow {
		return fmt.Errorf("indicators.macd_fast must be below macd_slow")
	}
	if c.Indicators.RSIPeriod < 2 {
		return fmt.Errorf("indicators.rsi_period must be at least 2")
	}
	if c.Backtest.InitialBalance <= 0 {
		return fmt.Errorf("backtest.initial_balance must be positive")
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	ind := indicators.DefaultConfig()
	return &Config{
		Exchange: ExchangeConfig{
			Name:    "paper",
			Testnet: true,
		},
		Trading: TradingConfig{
			Symbol:       "BTCUSDT",
			QuoteAsset:   "USDT",
			Timeframe:    "1h",
			LookbackBars: 100,
			Interval:     "1m",
		},
		Risk:   risk.DefaultLimits(),
		Signal: signal.DefaultThresholds(),
		Indicators: IndicatorConfig{
			RSIPeriod:  ind.RSIPeriod,
			MACDFast:   ind.MACDFast,
			MACDSlow:   ind.MACDSlow,
			MACDSignal: ind.MACDSignal,
			BBPeriod:   ind.BBPeriod,
			BBStdDev:   ind.BBStdDev,
		},
		Backtest: BacktestConfig{
			InitialBalance: 10000,
			Bars:           500,
		},
		State: StateConfig{
			RiskFile:    "./risk_state.json",
			HistoryFile: "./trade_history.json",
		},
		Journal: JournalConfig{
			DBPath:       "./tradebot.db",
			TradeLogFile: "./trade_log.csv",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}
