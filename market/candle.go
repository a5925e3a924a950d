// Package market defines core market data types shared by the whole bot.
package market

import (
	"fmt"
	"time"
)

// Candle represents one OHLCV (Open, High, Low, Close, Volume) bar.
// A candle is immutable once produced.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Closes extracts the close prices from a candle series, preserving order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// ValidateSeries checks that a candle series is strictly ordered by time
// with no duplicate timestamps.
func ValidateSeries(candles []Candle) error {
	for i := 1; i < len(candles); i++ {
		if !candles[i].Time.After(candles[i-1].Time) {
			return fmt.Errorf("candle series not strictly increasing at index %d: %s then %s",
				i, candles[i-1].Time.Format(time.RFC3339), candles[i].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// TimeframeDuration maps a timeframe string like "1m", "5m", "1h", "1d"
// to its bar duration.
func TimeframeDuration(tf string) (time.Duration, error) {
	switch tf {
	case "1m":
		return time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	case "30m":
		return 30 * time.Minute, nil
	case "1h":
		return time.Hour, nil
	case "4h":
		return 4 * time.Hour, nil
	case "1d":
		return 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported timeframe %q", tf)
	}
}
