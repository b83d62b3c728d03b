package coinbase

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/shopspring/decimal"
)

func numToDecimal(n json.Number) (decimal.Decimal, bool) {
	if n == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

func numToUnix(n json.Number) (time.Time, bool) {
	secs, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}

// rawCandle holds one candle before conversion, in either API's field order.
type rawCandle struct {
	start  json.Number
	open   json.Number
	high   json.Number
	low    json.Number
	close  json.Number
	volume json.Number
}

func (r rawCandle) toCandle(productId string, granularity types.Granularity) (types.Candle, bool) {
	ts, ok := numToUnix(r.start)
	if !ok {
		return types.Candle{}, false
	}
	values := make([]decimal.Decimal, 5)
	for i, n := range []json.Number{r.open, r.high, r.low, r.close, r.volume} {
		d, ok := numToDecimal(n)
		if !ok {
			return types.Candle{}, false
		}
		values[i] = d
	}
	return types.Candle{
		ProductId:   productId,
		Open:        values[0],
		High:        values[1],
		Low:         values[2],
		Close:       values[3],
		Volume:      values[4],
		Granularity: granularity,
		Timestamp:   ts,
	}, true
}

// toSeries drops rows that fail to parse and returns the rest ascending and deduplicated.
func toSeries(rows []rawCandle, productId string, granularity types.Granularity) ([]types.Candle, int) {
	candles := make([]types.Candle, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		c, ok := r.toCandle(productId, granularity)
		if !ok {
			dropped++
			continue
		}
		candles = append(candles, c)
	}
	return types.NormalizeSeries(candles), dropped
}
