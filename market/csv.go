package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// ReadCSV loads a candle series from a CSV file with rows of
//
//	timestamp,open,high,low,close,volume
//
// where timestamp is RFC3339 or unix milliseconds. A header row
// ("timestamp,...") is allowed. Empty/short rows are skipped.
func ReadCSV(path string) ([]Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var (
		candles  []Candle
		sawFirst bool
	)

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "timestamp") {
				continue
			}
		}

		c, ok, err := parseCandleRow(row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		candles = append(candles, c)
	}

	if err := ValidateSeries(candles); err != nil {
		return nil, err
	}
	return candles, nil
}

// WriteCSV writes a candle series in the same format ReadCSV consumes.
func WriteCSV(w io.Writer, candles []Candle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, c := range candles {
		row := []string{
			c.Time.UTC().Format(time.RFC3339),
			fmtF(c.Open),
			fmtF(c.High),
			fmtF(c.Low),
			fmtF(c.Close),
			fmtF(c.Volume),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseCandleRow(row []string) (Candle, bool, error) {
	// Need at least: timestamp,open,high,low,close,volume
	if len(row) < 6 {
		return Candle{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return Candle{}, false, nil
	}

	t, err := parseTimestamp(ts)
	if err != nil {
		return Candle{}, false, err
	}

	vals := make([]float64, 5)
	for i := 1; i < 6; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			return Candle{}, false, fmt.Errorf("bad value %q in column %d: %w", row[i], i, err)
		}
		vals[i-1] = v
	}

	return Candle{
		Time:   t,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, true, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	// unix milliseconds (exchange kline convention)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q", s)
}

func fmtF(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
