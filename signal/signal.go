// Package signal derives buy/sell/hold decisions from indicator snapshots
// using a weighted vote across independent checks.
package signal

import (
	"fmt"

	"tradebot/indicators"
	"tradebot/market"
)

type Signal string

const (
	Buy  Signal = "buy"
	Sell Signal = "sell"
	Hold Signal = "hold"
)

// maxChecks is the number of independent vote checks.
const maxChecks = 5

// maxReasons caps how many contributing explanations a decision carries.
const maxReasons = 3

// Thresholds are the tunable strategy parameters.
type Thresholds struct {
	RSIOversold   float64 `json:"rsi_oversold" yaml:"rsi_oversold"`
	RSIOverbought float64 `json:"rsi_overbought" yaml:"rsi_overbought"`
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
}

// DefaultThresholds returns the standard strategy parameters:
// RSI 30/70 and a 60% confidence floor (3 of 5 checks agreeing).
func DefaultThresholds() Thresholds {
	return Thresholds{
		RSIOversold:   30,
		RSIOverbought: 70,
		MinConfidence: 60,
	}
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Signal     Signal
	Confidence float64 // 0..100
	Reasons    []string
}

func hold(reason string) Decision {
	return Decision{Signal: Hold, Confidence: 0, Reasons: []string{reason}}
}

// Engine evaluates candle history against fixed thresholds.
type Engine struct {
	Thresholds Thresholds
}

func NewEngine(th Thresholds) *Engine {
	return &Engine{Thresholds: th}
}

func (e *Engine) Evaluate(bars []market.Candle, vec indicators.Vector) Decision {
	return Evaluate(bars, vec, e.Thresholds)
}

// Evaluate runs the weighted vote over the last two bars of the series.
// It needs at least two bars whose required indicator fields are all
// defined; otherwise it returns (hold, 0, "insufficient data").
//
// Five independent checks each cast at most one vote:
//  1. RSI oversold/overbought
//  2. MACD signal-line crossover
//  3. EMA(12) vs EMA(26) trend (always votes)
//  4. Close vs Bollinger bands
//  5. Bar-over-bar momentum beyond +/-1%
func Evaluate(bars []market.Candle, vec indicators.Vector, th Thresholds) Decision {
	n := len(bars)
	if n < 2 || vec.Len() < n {
		return hold("insufficient data")
	}

	cur := vec.At(n - 1)
	prev := vec.At(n - 2)
	if !required(cur) || !required(prev) {
		return hold("insufficient data")
	}

	curBar := bars[n-1]
	prevBar := bars[n-2]

	buyCount, sellCount := 0, 0
	var reasons []string
	vote := func(buy bool, reason string) {
		if buy {
			buyCount++
		} else {
			sellCount++
		}
		reasons = append(reasons, reason)
	}

	// 1. RSI
	if cur.RSI.F < th.RSIOversold {
		vote(true, fmt.Sprintf("RSI oversold (%.2f)", cur.RSI.F))
	} else if cur.RSI.F > th.RSIOverbought {
		vote(false, fmt.Sprintf("RSI overbought (%.2f)", cur.RSI.F))
	}

	// 2. MACD crossover between previous and current bar
	if cur.MACD.F > cur.MACDSignal.F && prev.MACD.F <= prev.MACDSignal.F {
		vote(true, "MACD bullish crossover")
	} else if cur.MACD.F < cur.MACDSignal.F && prev.MACD.F >= prev.MACDSignal.F {
		vote(false, "MACD bearish crossover")
	}

	// 3. EMA trend always casts a vote
	if cur.EMA12.F > cur.EMA26.F {
		vote(true, "short-term EMA above long-term (bullish trend)")
	} else {
		vote(false, "short-term EMA below long-term (bearish trend)")
	}

	// 4. Bollinger position
	if curBar.Close < cur.BBLower.F {
		vote(true, "price below lower Bollinger band (oversold)")
	} else if curBar.Close > cur.BBUpper.F {
		vote(false, "price above upper Bollinger band (overbought)")
	}

	// 5. Momentum
	priceChange := (curBar.Close - prevBar.Close) / prevBar.Close * 100
	if priceChange > 1 {
		vote(true, fmt.Sprintf("strong positive momentum (%.2f%%)", priceChange))
	} else if priceChange < -1 {
		vote(false, fmt.Sprintf("strong negative momentum (%.2f%%)", priceChange))
	}

	buyConfidence := float64(buyCount) / maxChecks * 100
	sellConfidence := float64(sellCount) / maxChecks * 100

	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}

	switch {
	case buyConfidence >= th.MinConfidence && buyConfidence > sellConfidence:
		return Decision{Signal: Buy, Confidence: buyConfidence, Reasons: reasons}
	case sellConfidence >= th.MinConfidence && sellConfidence > buyConfidence:
		return Decision{Signal: Sell, Confidence: sellConfidence, Reasons: reasons}
	default:
		return Decision{
			Signal:     Hold,
			Confidence: max(buyConfidence, sellConfidence),
			Reasons:    reasons,
		}
	}
}

// required reports whether every field the vote depends on is defined.
func required(s indicators.Snapshot) bool {
	return s.RSI.Valid &&
		s.MACD.Valid &&
		s.MACDSignal.Valid &&
		s.BBUpper.Valid &&
		s.BBLower.Valid &&
		s.EMA12.Valid &&
		s.EMA26.Valid
}
