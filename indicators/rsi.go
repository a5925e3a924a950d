package indicators

// RSI calculates the Relative Strength Index using a simple rolling mean of
// gains and losses over the trailing period (not Wilder's smoothing).
//
// Deltas start at index 1, so the first defined output is at index period.
// When the average loss is zero the value is undefined: callers must treat
// it as "no signal".
func RSI(prices []float64, period int) []Value {
	out := make([]Value, len(prices))
	if period <= 0 || len(prices) <= period {
		return out
	}

	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < len(prices); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i < period {
			continue
		}

		avgLoss := lossSum / float64(period)
		if avgLoss == 0 {
			// RS is infinite; leave undefined rather than pinning to 100.
			continue
		}
		avgGain := gainSum / float64(period)
		rs := avgGain / avgLoss
		out[i] = valid(100 - 100/(1+rs))
	}
	return out
}
