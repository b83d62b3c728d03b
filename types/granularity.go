package types

import (
	"fmt"
	"time"
)

type Granularity string

const (
	OneMinute      Granularity = "1m"
	FiveMinutes    Granularity = "5m"
	FifteenMinutes Granularity = "15m"
	ThirtyMinutes  Granularity = "30m"
	Hour           Granularity = "1h"
	SixHours       Granularity = "6h"
	Day            Granularity = "1d"
)

var GranularityToTime = map[Granularity]time.Duration{
	OneMinute:      time.Minute,
	FiveMinutes:    time.Minute * 5,
	FifteenMinutes: time.Minute * 15,
	ThirtyMinutes:  time.Minute * 30,
	Hour:           time.Hour,
	SixHours:       time.Hour * 6,
	Day:            time.Hour * 24,
}

// GranularityToAdvanced maps to the Advanced Trade API enum names.
var GranularityToAdvanced = map[Granularity]string{
	OneMinute:      "ONE_MINUTE",
	FiveMinutes:    "FIVE_MINUTE",
	FifteenMinutes: "FIFTEEN_MINUTE",
	ThirtyMinutes:  "THIRTY_MINUTE",
	Hour:           "ONE_HOUR",
	SixHours:       "SIX_HOUR",
	Day:            "ONE_DAY",
}

var ConvertGranularity = map[string]Granularity{
	"1m":    OneMinute,
	"60":    OneMinute,
	"5m":    FiveMinutes,
	"300":   FiveMinutes,
	"15m":   FifteenMinutes,
	"900":   FifteenMinutes,
	"30m":   ThirtyMinutes,
	"1800":  ThirtyMinutes,
	"1h":    Hour,
	"3600":  Hour,
	"6h":    SixHours,
	"21600": SixHours,
	"1d":    Day,
	"86400": Day,
}

// ParseGranularity accepts either the short name ("15m") or the width in seconds ("900").
func ParseGranularity(s string) (Granularity, error) {
	g, ok := ConvertGranularity[s]
	if !ok {
		return "", fmt.Errorf("granularity %q: %w", s, ErrInvalidParameter)
	}
	return g, nil
}

// Seconds returns the candle width in seconds, or 0 for an unknown granularity.
func (g Granularity) Seconds() int64 {
	return int64(GranularityToTime[g] / time.Second)
}
