package risk

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebot/portfolio"
)

func newTestManager(t *testing.T, limits Limits) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "risk_state.json")
	return NewManager(limits, portfolio.NewBook(), path, zerolog.Nop())
}

func TestCanTrade(t *testing.T) {
	t.Parallel()

	t.Run("allowed by default", func(t *testing.T) {
		m := newTestManager(t, DefaultLimits())
		ok, reason := m.CanTrade(10000)
		assert.True(t, ok)
		assert.Equal(t, "Trading allowed", reason)
	})

	t.Run("emergency stop dominates", func(t *testing.T) {
		m := newTestManager(t, DefaultLimits())
		m.SetEmergencyStop(true)
		ok, reason := m.CanTrade(10000)
		assert.False(t, ok)
		assert.Equal(t, "Emergency stop is active", reason)

		m.SetEmergencyStop(false)
		ok, _ = m.CanTrade(10000)
		assert.True(t, ok)
	})

	t.Run("daily trade limit", func(t *testing.T) {
		limits := DefaultLimits()
		limits.MaxTradesPerDay = 1
		m := newTestManager(t, limits)

		require.NoError(t, m.OpenPosition("BTCUSDT", portfolio.Long, 100, 1, time.Now()))
		ok, reason := m.CanTrade(10000)
		assert.False(t, ok)
		assert.Equal(t, "Daily trade limit reached (1)", reason)
	})

	t.Run("daily loss limit", func(t *testing.T) {
		limits := DefaultLimits()
		limits.MaxDailyLossPercent = 5
		m := newTestManager(t, limits)

		// First call records the baseline.
		ok, _ := m.CanTrade(10000)
		require.True(t, ok)

		// Balance down 6% from the baseline.
		ok, reason := m.CanTrade(9400)
		assert.False(t, ok)
		assert.Equal(t, "Daily loss limit reached (6.00%)", reason)

		// Down only 4%: still allowed.
		ok, _ = m.CanTrade(9600)
		assert.True(t, ok)
	})

	t.Run("daily reset clears counters", func(t *testing.T) {
		limits := DefaultLimits()
		limits.MaxTradesPerDay = 1
		m := newTestManager(t, limits)

		day := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		m.now = func() time.Time { return day }
		m.lastResetDate = dateOnly(day)

		require.NoError(t, m.OpenPosition("BTCUSDT", portfolio.Long, 100, 1, day))
		ok, _ := m.CanTrade(10000)
		require.False(t, ok)

		m.now = func() time.Time { return day.AddDate(0, 0, 1) }
		ok, reason := m.CanTrade(10000)
		assert.True(t, ok)
		assert.Equal(t, "Trading allowed", reason)
	})
}

func TestPositionSize(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.PositionSizePercent = 10
	m := newTestManager(t, limits)

	// 10% of 10000 = 1000 quote units at price 50 = 20 units.
	assert.InDelta(t, 20.0, m.PositionSize(10000, 50), 1e-9)
}

func TestStopLossAndTakeProfit(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.StopLossPercent = 2
	limits.TakeProfitPercent = 5
	m := newTestManager(t, limits)

	require.NoError(t, m.OpenPosition("BTCUSDT", portfolio.Long, 100, 1, time.Now()))

	t.Run("stop loss", func(t *testing.T) {
		assert.True(t, m.CheckStopLoss("BTCUSDT", 97.9))   // -2.1%
		assert.True(t, m.CheckStopLoss("BTCUSDT", 98.0))   // exactly -2%
		assert.False(t, m.CheckStopLoss("BTCUSDT", 98.5))  // -1.5%
		assert.False(t, m.CheckStopLoss("BTCUSDT", 105.0)) // in profit
	})

	t.Run("take profit", func(t *testing.T) {
		assert.True(t, m.CheckTakeProfit("BTCUSDT", 105.0))
		assert.True(t, m.CheckTakeProfit("BTCUSDT", 106.0))
		assert.False(t, m.CheckTakeProfit("BTCUSDT", 104.0))
	})

	t.Run("unknown symbol", func(t *testing.T) {
		assert.False(t, m.CheckStopLoss("ETHUSDT", 1))
		assert.False(t, m.CheckTakeProfit("ETHUSDT", 1e9))
	})
}

func TestRecordResult(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, DefaultLimits())

	m.RecordResult(-100)
	m.RecordResult(250) // wins are not accumulated
	m.RecordResult(-50)

	assert.InDelta(t, -150.0, m.Summarize().DailyLoss, 1e-9)
}

func TestDuplicatePositionRejected(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, DefaultLimits())
	require.NoError(t, m.OpenPosition("BTCUSDT", portfolio.Long, 100, 1, time.Now()))

	err := m.OpenPosition("BTCUSDT", portfolio.Long, 101, 1, time.Now())
	assert.ErrorIs(t, err, portfolio.ErrPositionExists)
	assert.Equal(t, 1, m.Summarize().DailyTrades)
}

func TestClosePosition(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, DefaultLimits())
	require.NoError(t, m.OpenPosition("BTCUSDT", portfolio.Long, 100, 1, time.Now()))

	require.NoError(t, m.ClosePosition("BTCUSDT"))
	assert.Equal(t, 0, m.Summarize().OpenPositions)

	// Closing counts no extra trade and closing again is an error.
	assert.Equal(t, 1, m.Summarize().DailyTrades)
	assert.ErrorIs(t, m.ClosePosition("BTCUSDT"), portfolio.ErrNoPosition)
}

func TestStateRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "risk_state.json")
	limits := DefaultLimits()

	book := portfolio.NewBook()
	m := NewManager(limits, book, path, zerolog.Nop())
	m.SetEmergencyStop(true)
	require.NoError(t, m.OpenPosition("BTCUSDT", portfolio.Long, 100, 2, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
	m.RecordResult(-75)

	// A fresh manager over a fresh book restores everything from disk.
	book2 := portfolio.NewBook()
	m2 := NewManager(limits, book2, path, zerolog.Nop())

	s := m2.Summarize()
	assert.True(t, s.EmergencyStop)
	assert.Equal(t, 1, s.DailyTrades)
	assert.InDelta(t, -75.0, s.DailyLoss, 1e-9)
	assert.Equal(t, 1, s.OpenPositions)

	pos, ok := book2.Get("BTCUSDT")
	require.True(t, ok)
	assert.InDelta(t, 100.0, pos.EntryPrice, 1e-9)
	assert.InDelta(t, 2.0, pos.Quantity, 1e-9)
}
