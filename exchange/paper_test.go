package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebot/market"
)

type stubData struct {
	bars []market.Candle
	err  error
}

func (s *stubData) FetchBars(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error) {
	return s.bars, s.err
}

func (s *stubData) FetchBalance(ctx context.Context, asset string) (float64, error) {
	return 0, nil
}

func TestPaperFillsAtLastClose(t *testing.T) {
	t.Parallel()

	bars := []market.Candle{
		{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: 100},
		{Time: time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), Close: 105},
	}
	p := NewPaper(&stubData{bars: bars}, 10000)

	ctx := context.Background()
	_, err := p.FetchBars(ctx, "BTCUSDT", "1h", 2)
	require.NoError(t, err)

	buy, err := p.MarketBuy(ctx, "BTCUSDT", 10)
	require.NoError(t, err)
	assert.InDelta(t, 105.0, buy.Price, 1e-9)
	assert.NotEmpty(t, buy.ID)

	balance, err := p.FetchBalance(ctx, "USDT")
	require.NoError(t, err)
	assert.InDelta(t, 10000-1050, balance, 1e-9)

	sell, err := p.MarketSell(ctx, "BTCUSDT", 10)
	require.NoError(t, err)
	assert.InDelta(t, 105.0, sell.Price, 1e-9)
	assert.NotEqual(t, buy.ID, sell.ID)

	balance, err = p.FetchBalance(ctx, "USDT")
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, balance, 1e-9)
}

func TestPaperRejectsUnknownSymbol(t *testing.T) {
	t.Parallel()

	p := NewPaper(&stubData{}, 10000)
	_, err := p.MarketBuy(context.Background(), "ETHUSDT", 1)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "ETHUSDT", execErr.Symbol)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}
