package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"

	"tradebot/market"
)

// Binance adapts the spot REST API to MarketDataSource and OrderExecutor.
type Binance struct {
	client *binance.Client
}

// NewBinance builds a spot client. With testnet set, requests go to the
// Binance spot testnet instead of production.
func NewBinance(apiKey, secretKey string, testnet bool) *Binance {
	binance.UseTestnet = testnet
	return &Binance{client: binance.NewClient(apiKey, secretKey)}
}

func (b *Binance) FetchBars(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error) {
	klines, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(timeframe).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: klines %s %s: %v", ErrDataUnavailable, symbol, timeframe, err)
	}

	candles := make([]market.Candle, 0, len(klines))
	for _, k := range klines {
		c := market.Candle{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   parseFloat(k.Open),
			High:   parseFloat(k.High),
			Low:    parseFloat(k.Low),
			Close:  parseFloat(k.Close),
			Volume: parseFloat(k.Volume),
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func (b *Binance) FetchBalance(ctx context.Context, asset string) (float64, error) {
	acct, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: account: %v", ErrDataUnavailable, err)
	}
	for _, bal := range acct.Balances {
		if bal.Asset == asset {
			return parseFloat(bal.Free), nil
		}
	}
	return 0, nil
}

func (b *Binance) MarketBuy(ctx context.Context, symbol string, qty float64) (Order, error) {
	return b.placeMarket(ctx, symbol, binance.SideTypeBuy, qty)
}

func (b *Binance) MarketSell(ctx context.Context, symbol string, qty float64) (Order, error) {
	return b.placeMarket(ctx, symbol, binance.SideTypeSell, qty)
}

func (b *Binance) placeMarket(ctx context.Context, symbol string, side binance.SideType, qty float64) (Order, error) {
	resp, err := b.client.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(binance.OrderTypeMarket).
		Quantity(strconv.FormatFloat(qty, 'f', 8, 64)).
		Do(ctx)
	if err != nil {
		return Order{}, &ExecutionError{Symbol: symbol, Side: string(side), Qty: qty, Err: err}
	}

	return Order{
		ID:       strconv.FormatInt(resp.OrderID, 10),
		Symbol:   resp.Symbol,
		Side:     string(resp.Side),
		Price:    fillPrice(resp),
		Quantity: parseFloat(resp.ExecutedQuantity),
		Time:     time.UnixMilli(resp.TransactTime).UTC(),
	}, nil
}

// fillPrice averages the order's fills weighted by quantity. Market orders
// report price=0 at the top level, the real prices live in the fills.
func fillPrice(resp *binance.CreateOrderResponse) float64 {
	var notional, qty float64
	for _, f := range resp.Fills {
		p := parseFloat(f.Price)
		q := parseFloat(f.Quantity)
		notional += p * q
		qty += q
	}
	if qty == 0 {
		return 0
	}
	return notional / qty
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
