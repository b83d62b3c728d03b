package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Trade struct {
	EntryTime  time.Time       `json:"entryTime"`
	EntryPrice decimal.Decimal `json:"entryPrice"`
	EntryFee   decimal.Decimal `json:"entryFee"`
	// Cost is the cash committed at entry, fee included.
	Cost      decimal.Decimal `json:"cost"`
	Shares    decimal.Decimal `json:"shares"`
	ExitTime  time.Time       `json:"exitTime"`
	ExitPrice decimal.Decimal `json:"exitPrice"`
	ExitFee   decimal.Decimal `json:"exitFee"`
	Proceeds  decimal.Decimal `json:"proceeds"`
	// Forced marks the liquidation applied after the last bar.
	Forced bool `json:"forced"`
}

// NetProfit is the cash gained or lost by the round trip after both fees.
func (t Trade) NetProfit() decimal.Decimal {
	return t.Proceeds.Sub(t.Cost)
}

func (t Trade) Fees() decimal.Decimal {
	return t.EntryFee.Add(t.ExitFee)
}
