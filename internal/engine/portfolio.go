package engine

import (
	"fmt"

	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/shopspring/decimal"
)

// shareScale is the number of fractional digits kept when a cash amount is
// divided by a price.
const shareScale = 32

// ledger is the simulator's position state machine. Flat holds only cash,
// Long holds only shares. While Long, basis is the cash committed after the
// entry fee, so a position is valued as basis*price/entryPrice and an exit at
// the entry price returns basis exactly.
type ledger struct {
	position   types.Position
	cash       decimal.Decimal
	basis      decimal.Decimal
	entryPrice decimal.Decimal
	feeRate    decimal.Decimal
	totalFees  decimal.Decimal
	open       *types.Trade
	trades     []types.Trade
}

func newLedger(initialCash, feeRate decimal.Decimal) *ledger {
	return &ledger{
		position: types.PositionFlat,
		cash:     initialCash,
		feeRate:  feeRate,
	}
}

// buy converts all cash, less the entry fee, into shares at the candle close.
func (l *ledger) buy(c types.Candle) error {
	if l.position != types.PositionFlat {
		return nil
	}
	if !c.Close.IsPositive() {
		return fmt.Errorf("buy at %s with close %s: %w", c.Timestamp, c.Close, types.ErrInvalidInput)
	}
	fee := l.cash.Mul(l.feeRate)
	basis := l.cash.Sub(fee)
	shares := basis.DivRound(c.Close, shareScale)

	l.open = &types.Trade{
		EntryTime:  c.Timestamp,
		EntryPrice: c.Close,
		EntryFee:   fee,
		Cost:       l.cash,
		Shares:     shares,
	}
	l.totalFees = l.totalFees.Add(fee)
	l.basis = basis
	l.entryPrice = c.Close
	l.cash = decimal.Zero
	l.position = types.PositionLong
	return nil
}

// sell liquidates every share at the candle close, less the exit fee.
func (l *ledger) sell(c types.Candle, forced bool) error {
	if l.position != types.PositionLong {
		return nil
	}
	if !c.Close.IsPositive() {
		return fmt.Errorf("sell at %s with close %s: %w", c.Timestamp, c.Close, types.ErrInvalidInput)
	}
	saleValue := l.valueAt(c.Close)
	fee := saleValue.Mul(l.feeRate)

	tr := *l.open
	tr.ExitTime = c.Timestamp
	tr.ExitPrice = c.Close
	tr.ExitFee = fee
	tr.Proceeds = saleValue.Sub(fee)
	tr.Forced = forced
	l.trades = append(l.trades, tr)
	l.open = nil

	l.totalFees = l.totalFees.Add(fee)
	l.cash = saleValue.Sub(fee)
	l.basis = decimal.Zero
	l.entryPrice = decimal.Zero
	l.position = types.PositionFlat
	return nil
}

// markToMarket values the ledger at price without charging any fee.
func (l *ledger) markToMarket(price decimal.Decimal) decimal.Decimal {
	if l.position == types.PositionLong {
		return l.valueAt(price)
	}
	return l.cash
}

func (l *ledger) valueAt(price decimal.Decimal) decimal.Decimal {
	if price.Equal(l.entryPrice) {
		return l.basis
	}
	return l.basis.Mul(price).DivRound(l.entryPrice, shareScale)
}
