package engine

import (
	"fmt"

	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BacktestResult is produced by one Simulate call and not retained by the engine.
//
// Curve is mark-to-market: when the walk ends long, its last point is
// shares * last close with no exit fee. ROI and FinalCash are realized: an open
// position is liquidated at the last close, fee included, after the curve is
// recorded. FinalValue is the last curve point.
type BacktestResult struct {
	Curve      []types.CurvePoint `json:"curve"`
	Positions  []types.Position   `json:"positions"`
	Markers    []types.Marker     `json:"markers"`
	Trades     []types.Trade      `json:"trades"`
	FinalValue decimal.Decimal    `json:"finalValue"`
	FinalCash  decimal.Decimal    `json:"finalCash"`
	TotalFees  decimal.Decimal    `json:"totalFees"`
	ROI        decimal.Decimal    `json:"roi"`
}

// Simulate walks the signals bar by bar in a single pass, producing both the
// position/cash ledger and the valuation curve. Index 0 never transitions.
func Simulate(candles []types.Candle, signals []types.Signal, cfg StrategyConfig) (*BacktestResult, error) {
	if err := cfg.validateAccounting(); err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("empty series: %w", types.ErrInvalidInput)
	}
	if len(signals) != len(candles) {
		return nil, fmt.Errorf("%d signals for %d candles: %w", len(signals), len(candles), types.ErrInvalidInput)
	}
	if err := types.ValidateSeries(candles); err != nil {
		return nil, err
	}

	l := newLedger(cfg.InitialCapital, cfg.FeeRate)
	result := &BacktestResult{
		Curve:     make([]types.CurvePoint, len(candles)),
		Positions: make([]types.Position, len(candles)),
	}

	for i, c := range candles {
		if i > 0 {
			marker, err := step(l, c, signals[i])
			if err != nil {
				return nil, err
			}
			if marker != nil {
				marker.Index = i
				result.Markers = append(result.Markers, *marker)
			}
		}
		result.Positions[i] = l.position
		result.Curve[i] = types.CurvePoint{Timestamp: c.Timestamp, Value: l.markToMarket(c.Close)}
	}
	result.FinalValue = result.Curve[len(candles)-1].Value

	// Reconciliation: realize the open position for the ROI figure only.
	if err := l.sell(candles[len(candles)-1], true); err != nil {
		return nil, err
	}
	result.FinalCash = l.cash
	result.Trades = l.trades
	result.TotalFees = l.totalFees
	result.ROI = l.cash.Sub(cfg.InitialCapital).Div(cfg.InitialCapital).Mul(hundred)
	return result, nil
}

// step applies at most one transition for the bar and reports it.
func step(l *ledger, c types.Candle, sig types.Signal) (*types.Marker, error) {
	switch {
	case sig == types.Buy && l.position == types.PositionFlat:
		if err := l.buy(c); err != nil {
			return nil, err
		}
		return &types.Marker{Timestamp: c.Timestamp, Side: types.SideTypeBuy, Price: c.Close}, nil
	case sig == types.Sell && l.position == types.PositionLong:
		if err := l.sell(c, false); err != nil {
			return nil, err
		}
		return &types.Marker{Timestamp: c.Timestamp, Side: types.SideTypeSell, Price: c.Close}, nil
	}
	return nil, nil
}
