package types

type Position string

const (
	PositionFlat Position = "FLAT"
	PositionLong Position = "LONG"
)

type Side string

const (
	SideTypeBuy  Side = "BUY"
	SideTypeSell Side = "SELL"
)
