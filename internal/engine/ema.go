package engine

import (
	"github.com/shopspring/decimal"
)

// emaScale bounds the fractional digits carried by each EMA value so repeated
// exact multiplications do not grow without limit.
const emaScale = 16

var two = decimal.NewFromInt(2)

// emaAlpha returns the smoothing factor 2/(window+1).
func emaAlpha(window int) decimal.Decimal {
	return two.DivRound(decimal.NewFromInt(int64(window+1)), emaScale)
}

// ema is the recursive EMA seeded with the first value:
// out[0] = x[0], out[i] = a*x[i] + (1-a)*out[i-1].
func ema(x []decimal.Decimal, window int) []decimal.Decimal {
	out := make([]decimal.Decimal, len(x))
	if len(x) == 0 {
		return out
	}
	alpha := emaAlpha(window)
	keep := decimal.NewFromInt(1).Sub(alpha)

	out[0] = x[0]
	for i := 1; i < len(x); i++ {
		out[i] = alpha.Mul(x[i]).Add(keep.Mul(out[i-1])).Round(emaScale)
	}
	return out
}
