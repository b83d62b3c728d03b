package engine

import (
	"context"

	"github.com/helymenezes/bot-trade-coinbase/types"
)

// CandleLoader is satisfied by every candle source: the public and authenticated
// Coinbase clients and the Postgres repository. Returned candles are ascending
// by timestamp with no duplicates.
type CandleLoader interface {
	LoadCandles(ctx context.Context, productId string, granularity types.Granularity, daysBack int) ([]types.Candle, error)
}

// SignalHook receives the latest-bar signal of a live check. Implementations
// must not assume an order was placed.
type SignalHook interface {
	OnSignal(ctx context.Context, signal LiveSignal) error
}
