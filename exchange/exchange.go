// Package exchange abstracts market data and order execution behind small
// interfaces so the bot can run against Binance or a paper simulator.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradebot/market"
)

// ErrDataUnavailable reports that the venue could not serve market data.
// Callers should treat it as transient and retry later.
var ErrDataUnavailable = errors.New("exchange: market data unavailable")

// ExecutionError wraps an order placement failure with the order intent.
type ExecutionError struct {
	Symbol string
	Side   string
	Qty    float64
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("exchange: %s %s qty=%v: %v", e.Side, e.Symbol, e.Qty, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Order is a filled market order.
type Order struct {
	ID       string
	Symbol   string
	Side     string
	Price    float64
	Quantity float64
	Time     time.Time
}

// MarketDataSource serves candles and the quote-asset balance.
type MarketDataSource interface {
	// FetchBars returns up to limit of the most recent closed candles for
	// symbol at the given timeframe, oldest first.
	FetchBars(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error)
	// FetchBalance returns the free quote-asset balance.
	FetchBalance(ctx context.Context, asset string) (float64, error)
}

// OrderExecutor places market orders.
type OrderExecutor interface {
	MarketBuy(ctx context.Context, symbol string, qty float64) (Order, error)
	MarketSell(ctx context.Context, symbol string, qty float64) (Order, error)
}
