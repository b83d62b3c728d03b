package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/helymenezes/bot-trade-coinbase/types"
	"go.uber.org/zap"
)

// PublicLoader reads candles from the unauthenticated Exchange API.
type PublicLoader struct {
	client *client
	now    func() time.Time
}

func NewPublicLoader(opts Options) *PublicLoader {
	return &PublicLoader{
		client: newClient("public", DefaultExchangeURL, opts),
		now:    time.Now,
	}
}

// LoadCandles fetches the last daysBack days in one request. Rows come back as
// [time, low, high, open, close, volume], newest first.
func (l *PublicLoader) LoadCandles(ctx context.Context, productId string, granularity types.Granularity, daysBack int) ([]types.Candle, error) {
	if err := validateMarket(productId, granularity, daysBack); err != nil {
		return nil, err
	}
	start, end := window(l.now(), daysBack)
	params := url.Values{}
	params.Set("start", start.Format(time.RFC3339))
	params.Set("end", end.Format(time.RFC3339))
	params.Set("granularity", strconv.FormatInt(granularity.Seconds(), 10))

	fullURL, err := l.client.buildURL("/products/"+url.PathEscape(productId)+"/candles", params)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	var rows []json.RawMessage
	if err := l.client.fetchJSON(ctx, req, &rows); err != nil {
		return nil, err
	}

	raw := make([]rawCandle, 0, len(rows))
	for _, msg := range rows {
		var row []json.Number
		if err := json.Unmarshal(msg, &row); err != nil || len(row) < 6 {
			raw = append(raw, rawCandle{})
			continue
		}
		raw = append(raw, rawCandle{
			start:  row[0],
			low:    row[1],
			high:   row[2],
			open:   row[3],
			close:  row[4],
			volume: row[5],
		})
	}
	candles, dropped := toSeries(raw, productId, granularity)
	l.client.logger.Debug("candles fetched",
		zap.String("product", productId),
		zap.Int("count", len(candles)),
		zap.Int("dropped", dropped),
	)
	return candles, nil
}
