package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Candle struct {
	ProductId   string          `json:"productId"`
	Open        decimal.Decimal `json:"open"`
	Close       decimal.Decimal `json:"close"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Volume      decimal.Decimal `json:"volume"`
	Granularity Granularity     `json:"granularity"`
	Timestamp   time.Time       `json:"timestamp"`
}
