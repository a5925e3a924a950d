package journal

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"tradebot/portfolio"
)

// TradeLogEntry is one executed order as it appears in the flat-file trade
// log. Pnl and OrderID may be absent (an entry order has no P&L yet).
type TradeLogEntry struct {
	Time     time.Time
	Symbol   string
	Side     string
	Price    float64
	Quantity float64
	Value    float64
	Status   string
	OrderID  string
	PnL      *float64
	Balance  float64
}

// CSVTradeLog appends executed orders to a CSV file, one row per order.
// The header is written only when the file is new, so restarts keep
// appending to the same log.
type CSVTradeLog struct {
	f *os.File
	w *csv.Writer
}

var tradeLogHeader = []string{
	"timestamp", "symbol", "side", "price", "quantity",
	"value", "status", "order_id", "pnl", "balance",
}

func NewCSVTradeLog(path string) (*CSVTradeLog, error) {
	info, err := os.Stat(path)
	fresh := os.IsNotExist(err) || (err == nil && info.Size() == 0)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(tradeLogHeader); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &CSVTradeLog{f: f, w: w}, nil
}

func (l *CSVTradeLog) Record(e TradeLogEntry) error {
	pnl := ""
	if e.PnL != nil {
		pnl = f(*e.PnL)
	}
	if err := l.w.Write([]string{
		e.Time.Format(time.RFC3339),
		e.Symbol,
		e.Side,
		f(e.Price),
		f(e.Quantity),
		f(e.Value),
		e.Status,
		e.OrderID,
		pnl,
		f(e.Balance),
	}); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *CSVTradeLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}

// WriteBacktestTrades writes a backtest's closed trades as CSV to w.
func WriteBacktestTrades(w io.Writer, trades []portfolio.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"symbol", "side", "entry_price", "exit_price", "quantity",
		"pnl", "pnl_percent", "entry_time", "exit_time",
	}); err != nil {
		return err
	}
	for _, t := range trades {
		if err := cw.Write([]string{
			t.Symbol,
			string(t.Side),
			f(t.EntryPrice),
			f(t.ExitPrice),
			f(t.Quantity),
			f(t.PnL),
			f(t.PnLPercent),
			t.EntryTime.Format(time.RFC3339),
			t.ExitTime.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
