// Package bot runs the live trading loop: fetch candles, evaluate the
// signal engine, apply risk checks and execute orders.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tradebot/exchange"
	"tradebot/indicators"
	"tradebot/internal/id"
	"tradebot/journal"
	"tradebot/market"
	"tradebot/portfolio"
	"tradebot/risk"
	"tradebot/signal"
)

// Evaluator decides a trading action from candles and indicators.
// *signal.Engine satisfies it.
type Evaluator interface {
	Evaluate(bars []market.Candle, vec indicators.Vector) signal.Decision
}

// Options wires the bot's collaborators and loop parameters.
type Options struct {
	Symbol       string
	QuoteAsset   string
	Timeframe    string
	LookbackBars int
	Interval     time.Duration

	Indicators indicators.Config

	Data     exchange.MarketDataSource
	Executor exchange.OrderExecutor
	Signals  Evaluator
	Risk     *risk.Manager
	Ledger   *portfolio.Ledger
	Journal  journal.Journal
	TradeLog *journal.CSVTradeLog
	Log      zerolog.Logger
}

// Bot polls the market on a fixed cadence and trades one symbol. A failed
// iteration is logged and retried after a backoff, the loop only exits on
// context cancellation.
type Bot struct {
	opt Options
}

const errBackoff = 30 * time.Second

func New(opt Options) *Bot {
	return &Bot{opt: opt}
}

// Run blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.opt.Log.Info().
		Str("symbol", b.opt.Symbol).
		Str("timeframe", b.opt.Timeframe).
		Dur("interval", b.opt.Interval).
		Msg("bot started")

	for {
		if err := b.iterate(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.opt.Log.Error().Err(err).Msg("iteration failed")
			if !sleep(ctx, errBackoff) {
				return ctx.Err()
			}
			continue
		}

		if !sleep(ctx, b.opt.Interval) {
			return ctx.Err()
		}
	}
}

// iterate runs one poll cycle.
func (b *Bot) iterate(ctx context.Context) error {
	bars, err := b.opt.Data.FetchBars(ctx, b.opt.Symbol, b.opt.Timeframe, b.opt.LookbackBars)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		return fmt.Errorf("no candles returned for %s", b.opt.Symbol)
	}
	price := bars[len(bars)-1].Close

	// Protective exits come before any new signal.
	if pos, ok := b.opt.Ledger.Book().Get(b.opt.Symbol); ok {
		if b.opt.Risk.CheckStopLoss(b.opt.Symbol, price) {
			return b.closePosition(ctx, pos, price, "stop loss")
		}
		if b.opt.Risk.CheckTakeProfit(b.opt.Symbol, price) {
			return b.closePosition(ctx, pos, price, "take profit")
		}
	}

	vec := indicators.Compute(market.Closes(bars), b.opt.Indicators)
	d := b.opt.Signals.Evaluate(bars, vec)

	b.opt.Log.Debug().
		Str("signal", string(d.Signal)).
		Float64("confidence", d.Confidence).
		Float64("price", price).
		Strs("reasons", d.Reasons).
		Msg("evaluated")

	switch d.Signal {
	case signal.Buy:
		if _, ok := b.opt.Ledger.Book().Get(b.opt.Symbol); ok {
			return nil // already long
		}
		return b.openPosition(ctx, price, d)

	case signal.Sell:
		pos, ok := b.opt.Ledger.Book().Get(b.opt.Symbol)
		if !ok {
			return nil // nothing to sell
		}
		return b.closePosition(ctx, pos, price, "sell signal")
	}
	return nil
}

func (b *Bot) openPosition(ctx context.Context, price float64, d signal.Decision) error {
	balance, err := b.opt.Data.FetchBalance(ctx, b.opt.QuoteAsset)
	if err != nil {
		return err
	}

	allowed, reason := b.opt.Risk.CanTrade(balance)
	if !allowed {
		b.opt.Log.Info().Str("reason", reason).Msg("trade blocked")
		return nil
	}

	qty := b.opt.Risk.PositionSize(balance, price)
	if qty <= 0 {
		return nil
	}

	order, err := b.opt.Executor.MarketBuy(ctx, b.opt.Symbol, qty)
	if err != nil {
		return err
	}

	if err := b.opt.Risk.OpenPosition(order.Symbol, portfolio.Long, order.Price, order.Quantity, order.Time); err != nil {
		return fmt.Errorf("order filled but position not tracked: %w", err)
	}

	b.opt.Log.Info().
		Str("order_id", order.ID).
		Float64("price", order.Price).
		Float64("qty", order.Quantity).
		Float64("confidence", d.Confidence).
		Msg("opened long position")

	b.logOrder(order, "FILLED", nil, balance-order.Price*order.Quantity)
	return nil
}

func (b *Bot) closePosition(ctx context.Context, pos portfolio.Position, price float64, why string) error {
	order, err := b.opt.Executor.MarketSell(ctx, pos.Symbol, pos.Quantity)
	if err != nil {
		return err
	}

	trade, err := b.opt.Ledger.ClosePosition(pos.Symbol, order.Price, order.Time)
	if err != nil {
		return fmt.Errorf("order filled but position not closed: %w", err)
	}
	// The shared book already dropped the position; recording the result
	// also persists the updated risk state.
	b.opt.Risk.RecordResult(trade.PnL)

	b.opt.Log.Info().
		Str("reason", why).
		Float64("exit_price", order.Price).
		Float64("pnl", trade.PnL).
		Float64("pnl_percent", trade.PnLPercent).
		Msg("closed position")

	if b.opt.Journal != nil {
		if err := b.opt.Journal.RecordTrade(journal.FromTrade(id.New(), "", trade)); err != nil {
			b.opt.Log.Warn().Err(err).Msg("could not journal trade")
		}
	}

	balance, berr := b.opt.Data.FetchBalance(ctx, b.opt.QuoteAsset)
	if berr != nil {
		balance = 0
	}
	pnl := trade.PnL
	b.logOrder(order, "FILLED", &pnl, balance)

	if b.opt.Journal != nil && berr == nil {
		if err := b.opt.Journal.RecordEquity(journal.EquitySnapshot{
			Time:    order.Time,
			Balance: balance,
			Equity:  balance,
		}); err != nil {
			b.opt.Log.Warn().Err(err).Msg("could not journal equity")
		}
	}
	return nil
}

func (b *Bot) logOrder(o exchange.Order, status string, pnl *float64, balance float64) {
	if b.opt.TradeLog == nil {
		return
	}
	err := b.opt.TradeLog.Record(journal.TradeLogEntry{
		Time:     o.Time,
		Symbol:   o.Symbol,
		Side:     o.Side,
		Price:    o.Price,
		Quantity: o.Quantity,
		Value:    o.Price * o.Quantity,
		Status:   status,
		OrderID:  o.ID,
		PnL:      pnl,
		Balance:  balance,
	})
	if err != nil {
		b.opt.Log.Warn().Err(err).Msg("could not write trade log")
	}
}

// sleep waits for d or until ctx is done, reporting false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
