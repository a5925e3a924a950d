package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebot/indicators"
	"tradebot/market"
)

func v(f float64) indicators.Value { return indicators.Value{F: f, Valid: true} }

// snapVec builds a two-bar vector from snapshots.
func snapVec(snaps ...indicators.Snapshot) indicators.Vector {
	var vec indicators.Vector
	for _, s := range snaps {
		vec.RSI = append(vec.RSI, s.RSI)
		vec.MACD = append(vec.MACD, s.MACD)
		vec.MACDSignal = append(vec.MACDSignal, s.MACDSignal)
		vec.MACDHistogram = append(vec.MACDHistogram, s.MACDHistogram)
		vec.BBUpper = append(vec.BBUpper, s.BBUpper)
		vec.BBMiddle = append(vec.BBMiddle, s.BBMiddle)
		vec.BBLower = append(vec.BBLower, s.BBLower)
		vec.EMA12 = append(vec.EMA12, s.EMA12)
		vec.EMA26 = append(vec.EMA26, s.EMA26)
		vec.EMA50 = append(vec.EMA50, s.EMA50)
		vec.SMA5 = append(vec.SMA5, s.SMA5)
		vec.SMA20 = append(vec.SMA20, s.SMA20)
	}
	return vec
}

// neutral is a snapshot that triggers no vote other than the EMA trend.
func neutral() indicators.Snapshot {
	return indicators.Snapshot{
		RSI:           v(50),
		MACD:          v(1),
		MACDSignal:    v(2), // below signal on both bars, no crossover
		MACDHistogram: v(-1),
		BBUpper:       v(110),
		BBMiddle:      v(100),
		BBLower:       v(90),
		EMA12:         v(99), // bearish trend vote
		EMA26:         v(100),
		EMA50:         v(100),
		SMA5:          v(100),
		SMA20:         v(100),
	}
}

func bars(closes ...float64) []market.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{Time: base.Add(time.Duration(i) * time.Hour), Close: c}
	}
	return out
}

func TestEvaluateInsufficientData(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()

	t.Run("fewer than two bars", func(t *testing.T) {
		d := Evaluate(bars(100), snapVec(neutral()), th)
		assert.Equal(t, Hold, d.Signal)
		assert.Equal(t, 0.0, d.Confidence)
		assert.Equal(t, []string{"insufficient data"}, d.Reasons)
	})

	t.Run("undefined required field", func(t *testing.T) {
		cur := neutral()
		cur.RSI = indicators.Value{} // warm-up gap
		d := Evaluate(bars(100, 100), snapVec(neutral(), cur), th)
		assert.Equal(t, Hold, d.Signal)
		assert.Equal(t, []string{"insufficient data"}, d.Reasons)
	})
}

func TestEvaluateBuyVotes(t *testing.T) {
	t.Parallel()

	// RSI oversold + bullish crossover + bullish EMA trend = 3/5 buy votes.
	prev := neutral()
	prev.MACD = v(1)
	prev.MACDSignal = v(2)

	cur := neutral()
	cur.RSI = v(25)
	cur.MACD = v(3)
	cur.MACDSignal = v(2)
	cur.EMA12 = v(101)
	cur.EMA26 = v(100)

	d := Evaluate(bars(100, 100), snapVec(prev, cur), DefaultThresholds())
	assert.Equal(t, Buy, d.Signal)
	assert.InDelta(t, 60.0, d.Confidence, 1e-9)
	assert.LessOrEqual(t, len(d.Reasons), 3)
}

func TestEvaluateSellVotes(t *testing.T) {
	t.Parallel()

	// RSI overbought + price above upper band + bearish trend + momentum down.
	cur := neutral()
	cur.RSI = v(80)
	cur.BBUpper = v(95)

	d := Evaluate(bars(100, 97), snapVec(neutral(), cur), DefaultThresholds())
	assert.Equal(t, Sell, d.Signal)
	assert.InDelta(t, 80.0, d.Confidence, 1e-9)
}

func TestEvaluateHoldBelowConfidence(t *testing.T) {
	t.Parallel()

	// Only the EMA trend votes: 1/5 = 20% confidence, held.
	d := Evaluate(bars(100, 100), snapVec(neutral(), neutral()), DefaultThresholds())
	assert.Equal(t, Hold, d.Signal)
	assert.InDelta(t, 20.0, d.Confidence, 1e-9)
}

func TestEvaluateConflictingVotesHold(t *testing.T) {
	t.Parallel()

	// 3 buy votes vs 2 sell votes: buy wins at exactly 60%.
	// Flip checks so buy and sell tie at 2 each: both below 60, hold.
	cur := neutral()
	cur.RSI = v(25)         // buy
	cur.EMA12 = v(101)      // buy trend
	cur.EMA26 = v(100)
	cur.BBUpper = v(95)     // sell, close above upper band

	d := Evaluate(bars(100, 97), snapVec(neutral(), cur), DefaultThresholds())
	assert.Equal(t, Hold, d.Signal)
	assert.InDelta(t, 40.0, d.Confidence, 1e-9)
}

func TestEvaluateConfidenceBounds(t *testing.T) {
	t.Parallel()

	// All five checks voting the same way caps at 100.
	prev := neutral()
	prev.MACD = v(1)
	prev.MACDSignal = v(2)

	cur := neutral()
	cur.RSI = v(20)
	cur.MACD = v(3)
	cur.MACDSignal = v(2)
	cur.EMA12 = v(102)
	cur.EMA26 = v(100)
	cur.BBLower = v(104)

	d := Evaluate(bars(100, 103), snapVec(prev, cur), DefaultThresholds())
	require.Equal(t, Buy, d.Signal)
	assert.InDelta(t, 100.0, d.Confidence, 1e-9)
	assert.Len(t, d.Reasons, 3)
}

func TestEngineUsesThresholds(t *testing.T) {
	t.Parallel()

	// With a 20% floor the lone EMA trend vote is enough to emit a signal.
	e := NewEngine(Thresholds{RSIOversold: 30, RSIOverbought: 70, MinConfidence: 20})
	d := e.Evaluate(bars(100, 100), snapVec(neutral(), neutral()))
	assert.Equal(t, Sell, d.Signal)
	assert.InDelta(t, 20.0, d.Confidence, 1e-9)
}
