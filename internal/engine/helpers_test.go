package engine

import (
	"time"

	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/shopspring/decimal"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// mockCandles builds one 15 minute candle per close price.
func mockCandles(closes ...string) []types.Candle {
	candles := make([]types.Candle, len(closes))
	for i, c := range closes {
		price := decimal.RequireFromString(c)
		candles[i] = types.Candle{
			ProductId:   "BTC-USD",
			Open:        price,
			High:        price,
			Low:         price,
			Close:       price,
			Volume:      decimal.NewFromInt(1),
			Granularity: types.FifteenMinutes,
			Timestamp:   testStart.Add(time.Duration(i) * 15 * time.Minute),
		}
	}
	return candles
}

func mustConfig(shortWindow, longWindow int, capital, fee string) StrategyConfig {
	return StrategyConfig{
		ShortWindow:    shortWindow,
		LongWindow:     longWindow,
		InitialCapital: decimal.RequireFromString(capital),
		FeeRate:        decimal.RequireFromString(fee),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
