package engine

import (
	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/shopspring/decimal"
)

// SignalSeries holds the derived columns, parallel-indexed to the input candles.
type SignalSeries struct {
	EmaShort []decimal.Decimal
	EmaLong  []decimal.Decimal
	Signals  []types.Signal
}

// ComputeSignals derives both EMAs over the close prices and the crossover signal
// for every bar. signal[i] depends on the EMAs at index i only.
func ComputeSignals(candles []types.Candle, shortWindow, longWindow int) (SignalSeries, error) {
	if err := validateWindows(shortWindow, longWindow); err != nil {
		return SignalSeries{}, err
	}
	if err := types.ValidateSeries(candles); err != nil {
		return SignalSeries{}, err
	}

	closes := make([]decimal.Decimal, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	series := SignalSeries{
		EmaShort: ema(closes, shortWindow),
		EmaLong:  ema(closes, longWindow),
		Signals:  make([]types.Signal, len(candles)),
	}
	for i := range candles {
		series.Signals[i] = crossover(series.EmaShort[i], series.EmaLong[i])
	}
	return series, nil
}

func crossover(short, long decimal.Decimal) types.Signal {
	switch short.Cmp(long) {
	case 1:
		return types.Buy
	case -1:
		return types.Sell
	default:
		return types.Neutral
	}
}
