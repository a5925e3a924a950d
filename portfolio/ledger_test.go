package portfolio

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trade_history.json")
	return NewLedger(NewBook(), path, zerolog.Nop())
}

func TestBookOpenClose(t *testing.T) {
	t.Parallel()

	b := NewBook()

	require.NoError(t, b.Open(Position{Symbol: "BTCUSDT", Side: Long, EntryPrice: 100, Quantity: 2, EntryTime: t0}))
	assert.Equal(t, 1, b.Len())

	t.Run("duplicate rejected", func(t *testing.T) {
		err := b.Open(Position{Symbol: "BTCUSDT", Side: Long, EntryPrice: 105, Quantity: 1, EntryTime: t0})
		assert.ErrorIs(t, err, ErrPositionExists)

		// Original untouched.
		p, ok := b.Get("BTCUSDT")
		require.True(t, ok)
		assert.InDelta(t, 100.0, p.EntryPrice, 1e-9)
	})

	t.Run("invalid fields rejected", func(t *testing.T) {
		assert.Error(t, b.Open(Position{Symbol: "X", EntryPrice: 0, Quantity: 1}))
		assert.Error(t, b.Open(Position{Symbol: "X", EntryPrice: 1, Quantity: -1}))
	})

	t.Run("close removes", func(t *testing.T) {
		p, err := b.Close("BTCUSDT")
		require.NoError(t, err)
		assert.InDelta(t, 100.0, p.EntryPrice, 1e-9)
		assert.Equal(t, 0, b.Len())

		_, err = b.Close("BTCUSDT")
		assert.ErrorIs(t, err, ErrNoPosition)
	})
}

func TestPositionPnL(t *testing.T) {
	t.Parallel()

	long := Position{Symbol: "BTCUSDT", Side: Long, EntryPrice: 100, Quantity: 2}
	pnl, pct := long.PnL(110)
	assert.InDelta(t, 20.0, pnl, 1e-9)
	assert.InDelta(t, 10.0, pct, 1e-9)

	short := Position{Symbol: "BTCUSDT", Side: Short, EntryPrice: 100, Quantity: 2}
	pnl, pct = short.PnL(110)
	assert.InDelta(t, -20.0, pnl, 1e-9)
	assert.InDelta(t, -10.0, pct, 1e-9)
}

func TestLedgerCloseRecordsTrade(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.OpenPosition("BTCUSDT", Long, 100, 2, t0))

	trade, err := l.ClosePosition("BTCUSDT", 110, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 20.0, trade.PnL, 1e-9)
	assert.InDelta(t, 10.0, trade.PnLPercent, 1e-9)
	assert.Equal(t, t0, trade.EntryTime)

	// Second close is an error, not a second record.
	_, err = l.ClosePosition("BTCUSDT", 120, t0.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrNoPosition)
	assert.Len(t, l.History(0), 1)
}

func TestUnrealizedSkipsMissingPrices(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.OpenPosition("BTCUSDT", Long, 100, 1, t0))
	require.NoError(t, l.OpenPosition("ETHUSDT", Long, 10, 5, t0))

	out := l.Unrealized(map[string]float64{"BTCUSDT": 105})
	require.Len(t, out, 1)
	assert.InDelta(t, 5.0, out["BTCUSDT"].PnL, 1e-9)
}

func TestRealizedBuckets(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	open := func(sym string, entry float64) {
		require.NoError(t, l.OpenPosition(sym, Long, entry, 1, t0))
	}

	open("A", 100)
	_, err := l.ClosePosition("A", 110, t0.Add(1*time.Hour)) // +10
	require.NoError(t, err)

	open("B", 100)
	_, err = l.ClosePosition("B", 95, t0.Add(2*time.Hour)) // -5
	require.NoError(t, err)

	open("C", 100)
	_, err = l.ClosePosition("C", 100, t0.Add(30*time.Hour)) // flat, next day
	require.NoError(t, err)

	t.Run("all time", func(t *testing.T) {
		r := l.Realized(time.Time{}, time.Time{})
		assert.Equal(t, 3, r.Trades)
		assert.Equal(t, 1, r.Wins)
		assert.Equal(t, 1, r.Losses)
		assert.InDelta(t, 5.0, r.TotalPnL, 1e-9)
		assert.InDelta(t, 100.0/3, r.WinRate, 1e-9)
	})

	t.Run("bounded window", func(t *testing.T) {
		r := l.Realized(t0, t0.Add(3*time.Hour))
		assert.Equal(t, 2, r.Trades)
		assert.InDelta(t, 5.0, r.TotalPnL, 1e-9)
		assert.InDelta(t, 50.0, r.WinRate, 1e-9)
	})
}

func TestHistoryPersistsAcrossRestart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trade_history.json")

	l := NewLedger(NewBook(), path, zerolog.Nop())
	require.NoError(t, l.OpenPosition("BTCUSDT", Long, 100, 1, t0))
	_, err := l.ClosePosition("BTCUSDT", 110, t0.Add(time.Hour))
	require.NoError(t, err)

	l2 := NewLedger(NewBook(), path, zerolog.Nop())
	history := l2.History(0)
	require.Len(t, history, 1)
	assert.InDelta(t, 10.0, history[0].PnL, 1e-9)
	assert.Equal(t, "BTCUSDT", history[0].Symbol)
}

func TestHistoryLimit(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	for i, sym := range []string{"A", "B", "C"} {
		require.NoError(t, l.OpenPosition(sym, Long, 100, 1, t0))
		_, err := l.ClosePosition(sym, 100+float64(i), t0.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}

	last := l.History(2)
	require.Len(t, last, 2)
	assert.Equal(t, "B", last[0].Symbol)
	assert.Equal(t, "C", last[1].Symbol)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t)
	require.NoError(t, l.OpenPosition("BTCUSDT", Long, 100, 1, t0))

	s := l.Summarize(500, 1000, map[string]float64{"BTCUSDT": 110})
	assert.InDelta(t, 10.0, s.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 1010.0, s.PortfolioValue, 1e-9)
	assert.Equal(t, 1, s.OpenPositions)
	assert.Equal(t, 0, s.TotalTrades)
}
