package types

import "encoding/json"

// Signal is the per-bar position bias derived from the EMA pair.
type Signal int

const (
	Sell    Signal = -1
	Neutral Signal = 0
	Buy     Signal = 1
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "NEUTRAL"
	}
}

// MarshalJSON keeps the numeric code the chart overlays expect.
func (s Signal) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(s))
}
