// Package risk enforces stop-loss/take-profit rules, position sizing,
// daily trade and loss limits, and the emergency stop.
package risk

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"tradebot/portfolio"
	"tradebot/statefile"
)

// Limits are the configured risk parameters.
type Limits struct {
	StopLossPercent     float64 `json:"stop_loss_percent" yaml:"stop_loss_percent"`
	TakeProfitPercent   float64 `json:"take_profit_percent" yaml:"take_profit_percent"`
	PositionSizePercent float64 `json:"position_size_percent" yaml:"position_size_percent"`
	MaxDailyLossPercent float64 `json:"max_daily_loss_percent" yaml:"max_daily_loss_percent"`
	MaxTradesPerDay     int     `json:"max_trades_per_day" yaml:"max_trades_per_day"`
}

// DefaultLimits returns conservative default risk parameters.
func DefaultLimits() Limits {
	return Limits{
		StopLossPercent:     2.0,
		TakeProfitPercent:   5.0,
		PositionSizePercent: 10.0,
		MaxDailyLossPercent: 5.0,
		MaxTradesPerDay:     10,
	}
}

const dateLayout = "2006-01-02"

// State is the persisted risk manager state. It round-trips losslessly.
type State struct {
	EmergencyStop       bool                          `json:"emergency_stop"`
	DailyLoss           float64                       `json:"daily_loss"`
	DailyTrades         int                           `json:"daily_trades"`
	LastResetDate       string                        `json:"last_reset_date"`
	InitialDailyBalance *float64                      `json:"initial_daily_balance,omitempty"`
	OpenPositions       map[string]portfolio.Position `json:"open_positions"`
}

// Summary reports the current risk status.
type Summary struct {
	EmergencyStop       bool    `json:"emergency_stop"`
	DailyTrades         int     `json:"daily_trades"`
	MaxTradesPerDay     int     `json:"max_trades_per_day"`
	DailyLoss           float64 `json:"daily_loss"`
	MaxDailyLossPercent float64 `json:"max_daily_loss_percent"`
	OpenPositions       int     `json:"open_positions"`
	StopLossPercent     float64 `json:"stop_loss_percent"`
	TakeProfitPercent   float64 `json:"take_profit_percent"`
}

// Manager is the stateful gatekeeper for trade admission. It shares one
// position book with the portfolio ledger, so both always see the same
// open positions.
//
// Every mutation persists the state synchronously; a persistence failure
// is logged and swallowed. That is a deliberate availability-over-durability
// tradeoff: a bad disk must not veto a trading decision.
type Manager struct {
	limits    Limits
	book      *portfolio.Book
	statePath string
	log       zerolog.Logger
	now       func() time.Time

	emergencyStop       bool
	dailyLoss           float64 // <= 0, sum of losing P&L only
	dailyTrades         int
	lastResetDate       time.Time // date precision
	initialDailyBalance *float64
}

// NewManager builds a risk manager over a shared position book. If a state
// file exists at statePath it is loaded, restoring open positions into the
// book.
func NewManager(limits Limits, book *portfolio.Book, statePath string, log zerolog.Logger) *Manager {
	m := &Manager{
		limits:        limits,
		book:          book,
		statePath:     statePath,
		log:           log,
		now:           time.Now,
		lastResetDate: dateOnly(time.Now()),
	}
	m.loadState()
	return m
}

// CanTrade reports whether a new trade is allowed right now. It first rolls
// the daily window if the date advanced, then checks the emergency stop, the
// daily trade limit, and the daily loss limit against currentBalance. The
// first balance seen on a new day becomes that day's baseline.
func (m *Manager) CanTrade(currentBalance float64) (bool, string) {
	m.resetDailyLimits()

	if m.emergencyStop {
		return false, "Emergency stop is active"
	}
	if m.dailyTrades >= m.limits.MaxTradesPerDay {
		return false, fmt.Sprintf("Daily trade limit reached (%d)", m.limits.MaxTradesPerDay)
	}

	if currentBalance > 0 && m.initialDailyBalance != nil {
		lossPercent := (*m.initialDailyBalance - currentBalance) / *m.initialDailyBalance * 100
		if lossPercent >= m.limits.MaxDailyLossPercent {
			return false, fmt.Sprintf("Daily loss limit reached (%.2f%%)", lossPercent)
		}
	} else if currentBalance > 0 {
		balance := currentBalance
		m.initialDailyBalance = &balance
		m.saveState()
	}

	return true, "Trading allowed"
}

// PositionSize computes the quantity to trade for a balance and price.
// Pure, no side effects.
func (m *Manager) PositionSize(balance, price float64) float64 {
	return balance * (m.limits.PositionSizePercent / 100) / price
}

// OpenPosition records a new tracked position and counts it against the
// daily trade limit. The shared book rejects a symbol that is already open.
func (m *Manager) OpenPosition(symbol string, side portfolio.Side, price, qty float64, t time.Time) error {
	err := m.book.Open(portfolio.Position{
		Symbol:     symbol,
		Side:       side,
		EntryPrice: price,
		Quantity:   qty,
		EntryTime:  t,
	})
	if err != nil {
		return err
	}
	m.dailyTrades++
	m.saveState()
	return nil
}

// ClosePosition removes the tracked position for symbol. The realized P&L
// is reported separately via RecordResult.
func (m *Manager) ClosePosition(symbol string) error {
	if _, err := m.book.Close(symbol); err != nil {
		return err
	}
	m.saveState()
	return nil
}

// CheckStopLoss reports whether the position's loss at price has reached the
// stop-loss threshold. Long-only semantics.
func (m *Manager) CheckStopLoss(symbol string, price float64) bool {
	p, ok := m.book.Get(symbol)
	if !ok {
		return false
	}
	lossPercent := (p.EntryPrice - price) / p.EntryPrice * 100
	return lossPercent >= m.limits.StopLossPercent
}

// CheckTakeProfit reports whether the position's gain at price has reached
// the take-profit threshold.
func (m *Manager) CheckTakeProfit(symbol string, price float64) bool {
	p, ok := m.book.Get(symbol)
	if !ok {
		return false
	}
	profitPercent := (price - p.EntryPrice) / p.EntryPrice * 100
	return profitPercent >= m.limits.TakeProfitPercent
}

// RecordResult accumulates a closed trade's P&L into the daily loss
// tracker. Wins are not accumulated here.
func (m *Manager) RecordResult(pnl float64) {
	if pnl < 0 {
		m.dailyLoss += pnl
	}
	m.saveState()
}

// SetEmergencyStop toggles the global trading halt. Persisted immediately.
func (m *Manager) SetEmergencyStop(enabled bool) {
	m.emergencyStop = enabled
	m.saveState()
	if enabled {
		m.log.Warn().Msg("EMERGENCY STOP ACTIVATED - all trading halted")
	} else {
		m.log.Info().Msg("emergency stop deactivated - trading resumed")
	}
}

// EmergencyStopped reports whether the emergency stop is active.
func (m *Manager) EmergencyStopped() bool { return m.emergencyStop }

// Summarize returns the current risk status.
func (m *Manager) Summarize() Summary {
	return Summary{
		EmergencyStop:       m.emergencyStop,
		DailyTrades:         m.dailyTrades,
		MaxTradesPerDay:     m.limits.MaxTradesPerDay,
		DailyLoss:           m.dailyLoss,
		MaxDailyLossPercent: m.limits.MaxDailyLossPercent,
		OpenPositions:       m.book.Len(),
		StopLossPercent:     m.limits.StopLossPercent,
		TakeProfitPercent:   m.limits.TakeProfitPercent,
	}
}

// resetDailyLimits zeroes the daily window when the wall-clock date has
// advanced past the last reset date.
func (m *Manager) resetDailyLimits() {
	today := dateOnly(m.now())
	if !today.After(m.lastResetDate) {
		return
	}
	m.dailyLoss = 0
	m.dailyTrades = 0
	m.lastResetDate = today
	m.initialDailyBalance = nil
	m.saveState()
	m.log.Info().Str("date", today.Format(dateLayout)).Msg("daily limits reset")
}

func (m *Manager) state() State {
	return State{
		EmergencyStop:       m.emergencyStop,
		DailyLoss:           m.dailyLoss,
		DailyTrades:         m.dailyTrades,
		LastResetDate:       m.lastResetDate.Format(dateLayout),
		InitialDailyBalance: m.initialDailyBalance,
		OpenPositions:       m.book.Snapshot(),
	}
}

func (m *Manager) saveState() {
	if m.statePath == "" {
		return
	}
	if err := statefile.Save(m.statePath, m.state()); err != nil {
		m.log.Warn().Err(err).Str("path", m.statePath).Msg("could not save risk state")
	}
}

func (m *Manager) loadState() {
	if m.statePath == "" {
		return
	}
	var st State
	if err := statefile.Load(m.statePath, &st); err != nil {
		if !os.IsNotExist(err) {
			m.log.Warn().Err(err).Str("path", m.statePath).Msg("could not load risk state")
		}
		return
	}

	m.emergencyStop = st.EmergencyStop
	m.dailyLoss = st.DailyLoss
	m.dailyTrades = st.DailyTrades
	if st.LastResetDate != "" {
		if d, err := time.Parse(dateLayout, st.LastResetDate); err == nil {
			m.lastResetDate = d
		}
	}
	m.initialDailyBalance = st.InitialDailyBalance
	if len(st.OpenPositions) > 0 {
		m.book.Restore(st.OpenPositions)
	}
}

func dateOnly(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
