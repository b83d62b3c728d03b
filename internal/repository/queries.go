package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const getCandles = `SELECT ts, open, high, low, close, volume
FROM candles
WHERE product_id = $1 AND granularity = $2 AND ts >= $3 AND ts <= $4
ORDER BY ts`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type getCandlesParams struct {
	ProductID   string
	Granularity int64
	Start       time.Time
	End         time.Time
}

type candleRow struct {
	Ts     time.Time       `db:"ts"`
	Open   decimal.Decimal `db:"open"`
	High   decimal.Decimal `db:"high"`
	Low    decimal.Decimal `db:"low"`
	Close  decimal.Decimal `db:"close"`
	Volume decimal.Decimal `db:"volume"`
}

type queries struct {
	db querier
}

func newQueries(db querier) *queries {
	return &queries{db: db}
}

func (q *queries) GetCandles(ctx context.Context, arg getCandlesParams) ([]candleRow, error) {
	rows, err := q.db.Query(ctx, getCandles, arg.ProductID, arg.Granularity, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[candleRow])
}
