package indicators

import "math"

// SMA calculates the Simple Moving Average over a trailing window.
// Output is undefined for the first period-1 indices.
func SMA(prices []float64, period int) []Value {
	out := make([]Value, len(prices))
	if period <= 0 || len(prices) < period {
		return out
	}

	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			out[i] = valid(sum / float64(period))
		}
	}
	return out
}

// EMA calculates the Exponential Moving Average with smoothing factor
// 2/(period+1), seeded by the first price. Defined from index 0: on warm
// starts the early values simply lean on the seed.
func EMA(prices []float64, period int) []Value {
	out := make([]Value, len(prices))
	if period <= 0 || len(prices) == 0 {
		return out
	}

	multiplier := 2.0 / float64(period+1)
	ema := prices[0]
	out[0] = valid(ema)
	for i := 1; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		out[i] = valid(ema)
	}
	return out
}

// emaValues runs the same recursion over an already-computed value series.
// Inputs must all be valid (MACD lines are defined from index 0).
func emaValues(vals []Value, period int) []Value {
	out := make([]Value, len(vals))
	if period <= 0 || len(vals) == 0 {
		return out
	}

	multiplier := 2.0 / float64(period+1)
	ema := vals[0].F
	out[0] = valid(ema)
	for i := 1; i < len(vals); i++ {
		ema = (vals[i].F-ema)*multiplier + ema
		out[i] = valid(ema)
	}
	return out
}

// MACD returns the MACD line, signal line, and histogram.
// macd = EMA(fast) - EMA(slow); signal = EMA(macd, signalPeriod);
// histogram = macd - signal. All defined from index 0.
func MACD(prices []float64, fast, slow, signalPeriod int) (line, signal, histogram []Value) {
	n := len(prices)
	line = make([]Value, n)
	if n == 0 {
		return line, make([]Value, 0), make([]Value, 0)
	}

	emaFast := EMA(prices, fast)
	emaSlow := EMA(prices, slow)
	for i := 0; i < n; i++ {
		line[i] = valid(emaFast[i].F - emaSlow[i].F)
	}

	signal = emaValues(line, signalPeriod)

	histogram = make([]Value, n)
	for i := 0; i < n; i++ {
		histogram[i] = valid(line[i].F - signal[i].F)
	}
	return line, signal, histogram
}

// Bollinger returns the upper, middle, and lower bands. The middle band is
// SMA(period); the outer bands are k sample standard deviations away.
// Undefined until the window is full.
func Bollinger(prices []float64, period int, k float64) (upper, middle, lower []Value) {
	n := len(prices)
	upper = make([]Value, n)
	lower = make([]Value, n)
	middle = SMA(prices, period)
	if period <= 1 || n < period {
		return upper, middle, lower
	}

	for i := period - 1; i < n; i++ {
		mean := middle[i].F
		sumSq := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := prices[j] - mean
			sumSq += d * d
		}
		// sample stddev (ddof=1), matching the rolling-window convention
		std := math.Sqrt(sumSq / float64(period-1))
		upper[i] = valid(mean + k*std)
		lower[i] = valid(mean - k*std)
	}
	return upper, middle, lower
}
