package portfolio

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"tradebot/statefile"
)

// Trade is an immutable record of a closed position.
type Trade struct {
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Quantity   float64   `json:"quantity"`
	PnL        float64   `json:"pnl"`
	PnLPercent float64   `json:"pnl_percent"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
}

// PnL computes the side-dependent profit for a position marked at price.
func (p Position) PnL(price float64) (pnl, pnlPercent float64) {
	if p.Side == Short {
		pnl = (p.EntryPrice - price) * p.Quantity
		pnlPercent = (p.EntryPrice - price) / p.EntryPrice * 100
		return pnl, pnlPercent
	}
	pnl = (price - p.EntryPrice) * p.Quantity
	pnlPercent = (price - p.EntryPrice) / p.EntryPrice * 100
	return pnl, pnlPercent
}

// UnrealizedPnL is the mark-to-market state of one open position.
type UnrealizedPnL struct {
	PnL        float64 `json:"pnl"`
	PnLPercent float64 `json:"pnl_percent"`
	Price      float64 `json:"price"`
}

// RealizedPnL summarizes closed trades over a time range.
type RealizedPnL struct {
	TotalPnL float64 `json:"total_pnl"`
	Trades   int     `json:"trade_count"`
	Wins     int     `json:"winning_trades"`
	Losses   int     `json:"losing_trades"`
	WinRate  float64 `json:"win_rate"`
}

// Summary is a full portfolio snapshot.
type Summary struct {
	AvailableBalance float64 `json:"available_balance"`
	TotalBalance     float64 `json:"total_balance"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	RealizedPnL      float64 `json:"realized_pnl"`
	PortfolioValue   float64 `json:"portfolio_value"`
	OpenPositions    int     `json:"open_positions"`
	TotalTrades      int     `json:"total_trades"`
	WinRate          float64 `json:"win_rate"`
}

// Ledger tracks open positions (via the shared Book) and the trade history.
// History writes are best-effort: a persistence failure is logged and the
// trade still stands.
type Ledger struct {
	book        *Book
	history     []Trade
	historyPath string
	log         zerolog.Logger
}

// NewLedger builds a ledger over a shared position book. If historyPath is
// non-empty, existing trade history is loaded from it and every close is
// persisted back.
func NewLedger(book *Book, historyPath string, log zerolog.Logger) *Ledger {
	l := &Ledger{
		book:        book,
		historyPath: historyPath,
		log:         log,
	}
	if historyPath != "" && statefile.Exists(historyPath) {
		if err := statefile.Load(historyPath, &l.history); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", historyPath).Msg("could not load trade history")
		}
	}
	return l
}

// Book exposes the shared position registry.
func (l *Ledger) Book() *Book { return l.book }

// OpenPosition records a new open position for symbol.
func (l *Ledger) OpenPosition(symbol string, side Side, price, qty float64, t time.Time) error {
	return l.book.Open(Position{
		Symbol:     symbol,
		Side:       side,
		EntryPrice: price,
		Quantity:   qty,
		EntryTime:  t,
	})
}

// ClosePosition closes the open position for symbol at exitPrice, appends an
// immutable Trade to the history, and returns it. Closing a symbol with no
// open position returns ErrNoPosition: a recoverable no-op for the caller,
// never a second trade record.
func (l *Ledger) ClosePosition(symbol string, exitPrice float64, t time.Time) (Trade, error) {
	p, err := l.book.Close(symbol)
	if err != nil {
		return Trade{}, err
	}

	pnl, pnlPercent := p.PnL(exitPrice)
	trade := Trade{
		Symbol:     p.Symbol,
		Side:       p.Side,
		EntryPrice: p.EntryPrice,
		ExitPrice:  exitPrice,
		Quantity:   p.Quantity,
		PnL:        pnl,
		PnLPercent: pnlPercent,
		EntryTime:  p.EntryTime,
		ExitTime:   t,
	}
	l.history = append(l.history, trade)
	l.saveHistory()
	return trade, nil
}

// Unrealized computes mark-to-market P&L for all open positions. Symbols
// without a current price are silently skipped.
func (l *Ledger) Unrealized(currentPrices map[string]float64) map[string]UnrealizedPnL {
	out := make(map[string]UnrealizedPnL)
	for symbol, p := range l.book.Snapshot() {
		price, ok := currentPrices[symbol]
		if !ok {
			continue
		}
		pnl, pnlPercent := p.PnL(price)
		out[symbol] = UnrealizedPnL{PnL: pnl, PnLPercent: pnlPercent, Price: price}
	}
	return out
}

// Realized sums closed trades whose exit time falls within [from, to]
// (inclusive on both ends). Zero times disable the corresponding bound.
// Trades with exactly zero P&L count as neither win nor loss.
func (l *Ledger) Realized(from, to time.Time) RealizedPnL {
	var r RealizedPnL
	for _, t := range l.history {
		if !from.IsZero() && t.ExitTime.Before(from) {
			continue
		}
		if !to.IsZero() && t.ExitTime.After(to) {
			continue
		}
		r.TotalPnL += t.PnL
		r.Trades++
		if t.PnL > 0 {
			r.Wins++
		} else if t.PnL < 0 {
			r.Losses++
		}
	}
	if r.Trades > 0 {
		r.WinRate = float64(r.Wins) / float64(r.Trades) * 100
	}
	return r
}

// Summarize builds a full portfolio snapshot from exchange balances and
// current prices.
func (l *Ledger) Summarize(availableBalance, totalBalance float64, currentPrices map[string]float64) Summary {
	var unrealizedTotal float64
	for _, u := range l.Unrealized(currentPrices) {
		unrealizedTotal += u.PnL
	}
	realized := l.Realized(time.Time{}, time.Time{})

	return Summary{
		AvailableBalance: availableBalance,
		TotalBalance:     totalBalance,
		UnrealizedPnL:    unrealizedTotal,
		RealizedPnL:      realized.TotalPnL,
		PortfolioValue:   totalBalance + unrealizedTotal,
		OpenPositions:    l.book.Len(),
		TotalTrades:      realized.Trades,
		WinRate:          realized.WinRate,
	}
}

// History returns the trade history, most recent last. If limit > 0, only
// the most recent trades are returned.
func (l *Ledger) History(limit int) []Trade {
	if limit > 0 && limit < len(l.history) {
		return append([]Trade(nil), l.history[len(l.history)-limit:]...)
	}
	return append([]Trade(nil), l.history...)
}

func (l *Ledger) saveHistory() {
	if l.historyPath == "" {
		return
	}
	if err := statefile.Save(l.historyPath, l.history); err != nil {
		l.log.Warn().Err(err).Str("path", l.historyPath).Msg("could not save trade history")
	}
}

func (l *Ledger) String() string {
	return fmt.Sprintf("ledger: %d open, %d closed", l.book.Len(), len(l.history))
}
