// Package backtest replays a historical candle series through a signal
// evaluator and produces trade-by-trade results and summary metrics.
package backtest

import (
	"fmt"
	"time"

	"tradebot/indicators"
	"tradebot/market"
	"tradebot/portfolio"
	"tradebot/signal"
)

// warmupBars is how many leading candles are reserved for indicator
// warm-up before the first evaluation.
const warmupBars = 50

// Evaluator decides a trading action from a candle prefix and the matching
// indicator prefix. *signal.Engine satisfies it.
type Evaluator interface {
	Evaluate(bars []market.Candle, vec indicators.Vector) signal.Decision
}

// Config holds the simulation parameters.
type Config struct {
	Symbol         string
	InitialBalance float64
	Indicators     indicators.Config
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// Result is the outcome of a single backtest run.
type Result struct {
	Symbol         string
	Start          time.Time
	End            time.Time
	Bars           int
	InitialBalance float64
	FinalBalance   float64
	Trades         []portfolio.Trade
	Equity         []EquityPoint
	Metrics        Metrics
}

// Engine runs the replay loop.
type Engine struct {
	cfg  Config
	eval Evaluator
}

// NewEngine builds a backtest engine. The evaluator is consulted once per
// bar after warm-up.
func NewEngine(cfg Config, eval Evaluator) *Engine {
	return &Engine{cfg: cfg, eval: eval}
}

// Run replays candles in order. Sizing is all-in: a buy converts the whole
// cash balance into the asset, a sell converts it all back. At most one
// position is open at a time. A position still open after the last bar is
// force-closed at the final close price and recorded like any other trade.
func (e *Engine) Run(candles []market.Candle) (*Result, error) {
	if len(candles) < warmupBars {
		return nil, fmt.Errorf("backtest: need at least %d candles, got %d", warmupBars, len(candles))
	}
	if err := market.ValidateSeries(candles); err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	if e.cfg.InitialBalance <= 0 {
		return nil, fmt.Errorf("backtest: initial balance must be positive, got %v", e.cfg.InitialBalance)
	}

	vec := indicators.Compute(market.Closes(candles), e.cfg.Indicators)

	balance := e.cfg.InitialBalance
	var open *portfolio.Position
	var trades []portfolio.Trade
	equity := make([]EquityPoint, 0, len(candles)-warmupBars)

	for i := warmupBars; i < len(candles); i++ {
		bar := candles[i]
		d := e.eval.Evaluate(candles[:i+1], vec.Slice(i+1))

		switch {
		case d.Signal == signal.Buy && open == nil:
			qty := balance / bar.Close
			open = &portfolio.Position{
				Symbol:     e.cfg.Symbol,
				Side:       portfolio.Long,
				EntryPrice: bar.Close,
				Quantity:   qty,
				EntryTime:  bar.Time,
			}
			balance = 0

		case d.Signal == signal.Sell && open != nil:
			trades = append(trades, closeOut(*open, bar.Close, bar.Time))
			balance = open.Quantity * bar.Close
			open = nil
		}

		eq := balance
		if open != nil {
			eq = open.Quantity * bar.Close
		}
		equity = append(equity, EquityPoint{Time: bar.Time, Equity: eq})
	}

	if open != nil {
		last := candles[len(candles)-1]
		trades = append(trades, closeOut(*open, last.Close, last.Time))
		balance = open.Quantity * last.Close
		open = nil
	}

	res := &Result{
		Symbol:         e.cfg.Symbol,
		Start:          candles[0].Time,
		End:            candles[len(candles)-1].Time,
		Bars:           len(candles),
		InitialBalance: e.cfg.InitialBalance,
		FinalBalance:   balance,
		Trades:         trades,
		Equity:         equity,
	}
	res.Metrics = ComputeMetrics(e.cfg.InitialBalance, balance, trades, equity)
	return res, nil
}

func closeOut(p portfolio.Position, price float64, t time.Time) portfolio.Trade {
	pnl, pct := p.PnL(price)
	return portfolio.Trade{
		Symbol:     p.Symbol,
		Side:       p.Side,
		EntryPrice: p.EntryPrice,
		ExitPrice:  price,
		Quantity:   p.Quantity,
		PnL:        pnl,
		PnLPercent: pct,
		EntryTime:  p.EntryTime,
		ExitTime:   t,
	}
}
