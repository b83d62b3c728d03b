package types

import (
	"fmt"
	"sort"
)

// ValidateSeries checks the ordering and sign assumptions the engine relies on.
func ValidateSeries(candles []Candle) error {
	for i, c := range candles {
		if c.Open.IsNegative() || c.High.IsNegative() || c.Low.IsNegative() ||
			c.Close.IsNegative() || c.Volume.IsNegative() {
			return fmt.Errorf("candle %d at %s has negative values: %w", i, c.Timestamp, ErrInvalidInput)
		}
		if i > 0 && !c.Timestamp.After(candles[i-1].Timestamp) {
			return fmt.Errorf("candle %d at %s is not after %s: %w", i, c.Timestamp, candles[i-1].Timestamp, ErrInvalidInput)
		}
	}
	return nil
}

// NormalizeSeries sorts candles ascending by timestamp and drops duplicates,
// keeping the first candle seen for each timestamp.
func NormalizeSeries(candles []Candle) []Candle {
	out := make([]Candle, len(candles))
	copy(out, candles)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })

	deduped := out[:0]
	for i, c := range out {
		if i > 0 && c.Timestamp.Equal(deduped[len(deduped)-1].Timestamp) {
			continue
		}
		deduped = append(deduped, c)
	}
	return deduped
}
