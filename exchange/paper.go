package exchange

import (
	"context"
	"sync"
	"time"

	"tradebot/internal/id"
	"tradebot/market"
)

// Paper simulates execution against the most recent price seen for each
// symbol. It wraps a real MarketDataSource for data and fills orders
// instantly at the last close.
type Paper struct {
	data MarketDataSource

	mu      sync.Mutex
	last    map[string]float64
	balance float64
}

// NewPaper builds a paper trading venue funded with balance units of the
// quote asset.
func NewPaper(data MarketDataSource, balance float64) *Paper {
	return &Paper{
		data:    data,
		last:    make(map[string]float64),
		balance: balance,
	}
}

// FetchBars proxies to the underlying data source and remembers the last
// close per symbol for fills.
func (p *Paper) FetchBars(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error) {
	candles, err := p.data.FetchBars(ctx, symbol, timeframe, limit)
	if err != nil {
		return nil, err
	}
	if len(candles) > 0 {
		p.mu.Lock()
		p.last[symbol] = candles[len(candles)-1].Close
		p.mu.Unlock()
	}
	return candles, nil
}

// FetchBalance returns the simulated quote balance. The asset argument is
// ignored, the simulation tracks a single quote currency.
func (p *Paper) FetchBalance(ctx context.Context, asset string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance, nil
}

func (p *Paper) MarketBuy(ctx context.Context, symbol string, qty float64) (Order, error) {
	return p.fill(symbol, "BUY", qty)
}

func (p *Paper) MarketSell(ctx context.Context, symbol string, qty float64) (Order, error) {
	return p.fill(symbol, "SELL", qty)
}

func (p *Paper) fill(symbol, side string, qty float64) (Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	price, ok := p.last[symbol]
	if !ok {
		return Order{}, &ExecutionError{Symbol: symbol, Side: side, Qty: qty, Err: ErrDataUnavailable}
	}

	if side == "BUY" {
		p.balance -= price * qty
	} else {
		p.balance += price * qty
	}

	return Order{
		ID:       id.New(),
		Symbol:   symbol,
		Side:     side,
		Price:    price,
		Quantity: qty,
		Time:     time.Now().UTC(),
	}, nil
}
