package backtest

import (
	"fmt"
	"io"
	"math"

	"tradebot/portfolio"
)

// Metrics summarizes a backtest run.
type Metrics struct {
	TotalReturn        float64
	TotalReturnPercent float64
	TotalTrades        int
	WinningTrades      int
	LosingTrades       int
	WinRate            float64 // percent
	AvgWin             float64
	AvgLoss            float64
	MaxDrawdownPercent float64
	SharpeRatio        float64
}

// ComputeMetrics derives summary statistics from the finished run. Win rate
// counts only strictly positive P&L as a win; a flat trade is neither. The
// drawdown is measured per bar against the running equity peak. The Sharpe
// ratio here is the per-trade mean return over its standard deviation, which
// is only comparable between runs with similar trade frequency.
func ComputeMetrics(initial, final float64, trades []portfolio.Trade, equity []EquityPoint) Metrics {
	m := Metrics{TotalTrades: len(trades), TotalReturn: final - initial}
	if initial > 0 {
		m.TotalReturnPercent = (final - initial) / initial * 100
	}

	var winSum, lossSum float64
	returns := make([]float64, 0, len(trades))
	for _, t := range trades {
		returns = append(returns, t.PnLPercent)
		switch {
		case t.PnL > 0:
			m.WinningTrades++
			winSum += t.PnL
		case t.PnL < 0:
			m.LosingTrades++
			lossSum += t.PnL
		}
	}
	if len(trades) > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(len(trades)) * 100
	}
	if m.WinningTrades > 0 {
		m.AvgWin = winSum / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = lossSum / float64(m.LosingTrades)
	}

	m.MaxDrawdownPercent = maxDrawdown(equity)
	m.SharpeRatio = sharpe(returns)
	return m
}

// maxDrawdown returns the largest peak-to-trough equity decline in percent.
func maxDrawdown(equity []EquityPoint) float64 {
	var peak, maxDD float64
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - p.Equity) / peak * 100
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// sharpe is mean(returns) / stdev(returns), 0 when fewer than two samples
// or when the returns are constant.
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sq float64
	for _, r := range returns {
		d := r - mean
		sq += d * d
	}
	stdev := math.Sqrt(sq / float64(len(returns)-1))
	if stdev == 0 {
		return 0
	}
	return mean / stdev
}

// PrintReport writes a human readable run summary to w.
func (r *Result) PrintReport(w io.Writer) {
	fmt.Fprintf(w, "\n=== Backtest: %s ===\n", r.Symbol)
	fmt.Fprintf(w, "Period:        %s to %s (%d bars)\n",
		r.Start.Format("2006-01-02 15:04"), r.End.Format("2006-01-02 15:04"), r.Bars)
	fmt.Fprintf(w, "Balance:       %.2f -> %.2f (%+.2f, %+.2f%%)\n",
		r.InitialBalance, r.FinalBalance, r.Metrics.TotalReturn, r.Metrics.TotalReturnPercent)
	fmt.Fprintf(w, "Trades:        %d (%d wins, %d losses, %.1f%% win rate)\n",
		r.Metrics.TotalTrades, r.Metrics.WinningTrades, r.Metrics.LosingTrades, r.Metrics.WinRate)
	fmt.Fprintf(w, "Avg win/loss:  %.2f / %.2f\n", r.Metrics.AvgWin, r.Metrics.AvgLoss)
	fmt.Fprintf(w, "Max drawdown:  %.2f%%\n", r.Metrics.MaxDrawdownPercent)
	fmt.Fprintf(w, "Sharpe ratio:  %.2f\n", r.Metrics.SharpeRatio)
}
