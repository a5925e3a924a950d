// Package indicators provides technical analysis indicators for trading.
//
// All functions are pure and causal: the output at index i depends only on
// inputs at indices <= i. Outputs are optional values so that warm-up gaps
// propagate to "hold" decisions instead of garbage numbers.
package indicators

// Value is an optional indicator output. Valid is false during warm-up
// (or for RSI when the average loss is zero).
type Value struct {
	F     float64
	Valid bool
}

func valid(f float64) Value { return Value{F: f, Valid: true} }

// Config holds the indicator parameters consumed by Compute.
type Config struct {
	RSIPeriod  int     `json:"rsi_period" yaml:"rsi_period"`
	MACDFast   int     `json:"macd_fast" yaml:"macd_fast"`
	MACDSlow   int     `json:"macd_slow" yaml:"macd_slow"`
	MACDSignal int     `json:"macd_signal" yaml:"macd_signal"`
	BBPeriod   int     `json:"bb_period" yaml:"bb_period"`
	BBStdDev   float64 `json:"bb_std_dev" yaml:"bb_std_dev"`
}

// DefaultConfig returns the standard indicator parameters.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		BBPeriod:   20,
		BBStdDev:   2,
	}
}

// Snapshot holds all per-bar derived values for one index.
type Snapshot struct {
	RSI           Value
	MACD          Value
	MACDSignal    Value
	MACDHistogram Value
	BBUpper       Value
	BBMiddle      Value
	BBLower       Value
	EMA12         Value
	EMA26         Value
	EMA50         Value
	SMA5          Value
	SMA20         Value
}

// Vector holds aligned indicator series, one element per input bar.
type Vector struct {
	RSI           []Value
	MACD          []Value
	MACDSignal    []Value
	MACDHistogram []Value
	BBUpper       []Value
	BBMiddle      []Value
	BBLower       []Value
	EMA12         []Value
	EMA26         []Value
	EMA50         []Value
	SMA5          []Value
	SMA20         []Value
}

// Len returns the number of bars the vector covers.
func (v Vector) Len() int { return len(v.RSI) }

// At returns the snapshot for bar index i.
func (v Vector) At(i int) Snapshot {
	return Snapshot{
		RSI:           v.RSI[i],
		MACD:          v.MACD[i],
		MACDSignal:    v.MACDSignal[i],
		MACDHistogram: v.MACDHistogram[i],
		BBUpper:       v.BBUpper[i],
		BBMiddle:      v.BBMiddle[i],
		BBLower:       v.BBLower[i],
		EMA12:         v.EMA12[i],
		EMA26:         v.EMA26[i],
		EMA50:         v.EMA50[i],
		SMA5:          v.SMA5[i],
		SMA20:         v.SMA20[i],
	}
}

// Slice returns the vector truncated to the first n bars. Because every
// indicator is causal, Slice(n) equals Compute over the first n prices.
func (v Vector) Slice(n int) Vector {
	return Vector{
		RSI:           v.RSI[:n],
		MACD:          v.MACD[:n],
		MACDSignal:    v.MACDSignal[:n],
		MACDHistogram: v.MACDHistogram[:n],
		BBUpper:       v.BBUpper[:n],
		BBMiddle:      v.BBMiddle[:n],
		BBLower:       v.BBLower[:n],
		EMA12:         v.EMA12[:n],
		EMA26:         v.EMA26[:n],
		EMA50:         v.EMA50[:n],
		SMA5:          v.SMA5[:n],
		SMA20:         v.SMA20[:n],
	}
}

// Compute calculates the full indicator vector over a close price series.
func Compute(closes []float64, cfg Config) Vector {
	macd, macdSignal, macdHist := MACD(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	bbUpper, bbMiddle, bbLower := Bollinger(closes, cfg.BBPeriod, cfg.BBStdDev)

	return Vector{
		RSI:           RSI(closes, cfg.RSIPeriod),
		MACD:          macd,
		MACDSignal:    macdSignal,
		MACDHistogram: macdHist,
		BBUpper:       bbUpper,
		BBMiddle:      bbMiddle,
		BBLower:       bbLower,
		EMA12:         EMA(closes, 12),
		EMA26:         EMA(closes, 26),
		EMA50:         EMA(closes, 50),
		SMA5:          SMA(closes, 5),
		SMA20:         SMA(closes, 20),
	}
}
