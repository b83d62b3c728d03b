package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/helymenezes/bot-trade-coinbase/internal/metrics"
	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const source = "postgres"

// LoadCandles reads the last daysBack days of candles that were ingested for productId.
func (db *Database) LoadCandles(ctx context.Context, productId string, granularity types.Granularity, daysBack int) ([]types.Candle, error) {
	end := db.now().UTC()
	start := end.Add(-time.Duration(daysBack) * 24 * time.Hour)

	began := time.Now()
	candles, err := db.GetCandles(ctx, productId, granularity, start, end)
	metrics.LoaderRequestDuration.WithLabelValues(source).Observe(time.Since(began).Seconds())
	metrics.LoaderRequestsTotal.WithLabelValues(source, metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	db.logger.Debug("candles read from database",
		zap.String("product", productId),
		zap.String("granularity", string(granularity)),
		zap.Int("count", len(candles)),
	)
	return candles, nil
}

func (db *Database) GetCandles(ctx context.Context, productId string, granularity types.Granularity, start, end time.Time) ([]types.Candle, error) {
	seconds := granularity.Seconds()
	if seconds == 0 {
		return nil, fmt.Errorf("%q: %w: %w", granularity, ErrGranularityNotSupported, types.ErrInvalidParameter)
	}
	args := getCandlesParams{
		ProductID:   productId,
		Granularity: seconds,
		Start:       start,
		End:         end,
	}
	rows, err := db.candles.GetCandles(ctx, args)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: %w", productId, ErrNoCandles, types.ErrInvalidInput)
		}
		return nil, fmt.Errorf("query candles: %w: %w", types.ErrUpstreamUnavailable, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w: %w", productId, ErrNoCandles, types.ErrInvalidInput)
	}
	return convertCandles(rows, granularity, productId), nil
}

func convertCandles(rows []candleRow, granularity types.Granularity, productId string) []types.Candle {
	candles := make([]types.Candle, 0, len(rows))
	for _, row := range rows {
		candles = append(candles, types.Candle{
			ProductId:   productId,
			Open:        row.Open,
			Close:       row.Close,
			High:        row.High,
			Low:         row.Low,
			Volume:      row.Volume,
			Granularity: granularity,
			Timestamp:   row.Ts.UTC(),
		})
	}
	return types.NormalizeSeries(candles)
}
