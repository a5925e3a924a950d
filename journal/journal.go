// Package journal records executed trades, equity snapshots and backtest
// runs to durable storage. SQLite is the primary backend; a CSV writer
// covers flat-file trade logs.
package journal

import (
	"time"

	"tradebot/portfolio"
)

// TradeRecord is one closed trade as persisted.
type TradeRecord struct {
	TradeID    string
	RunID      string
	Symbol     string
	Side       string
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	PnL        float64
	PnLPercent float64
	EntryTime  time.Time
	ExitTime   time.Time
}

// EquitySnapshot is one sample of account value over time.
type EquitySnapshot struct {
	Time    time.Time
	RunID   string
	Balance float64
	Equity  float64
}

// BacktestRun is the stored summary of one simulation.
type BacktestRun struct {
	RunID          string
	Symbol         string
	Start          time.Time
	End            time.Time
	Bars           int
	InitialBalance float64
	FinalBalance   float64
	TotalTrades    int
	WinRate        float64
	MaxDrawdown    float64
	SharpeRatio    float64
	CreatedAt      time.Time
}

// Journal is the write side shared by the live loop and the backtester.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// FromTrade converts a portfolio trade into a persistable record.
func FromTrade(tradeID, runID string, t portfolio.Trade) TradeRecord {
	return TradeRecord{
		TradeID:    tradeID,
		RunID:      runID,
		Symbol:     t.Symbol,
		Side:       string(t.Side),
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		Quantity:   t.Quantity,
		PnL:        t.PnL,
		PnLPercent: t.PnLPercent,
		EntryTime:  t.EntryTime,
		ExitTime:   t.ExitTime,
	}
}
