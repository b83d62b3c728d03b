package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurvePoint is one mark-to-market valuation of the simulated portfolio.
type CurvePoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Value     decimal.Decimal `json:"value"`
}

// Marker flags a bar where the simulator opened or closed the position.
type Marker struct {
	Index     int             `json:"index"`
	Timestamp time.Time       `json:"timestamp"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
}
