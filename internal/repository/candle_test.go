package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var testGranularity = types.OneMinute
var startTime = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
var endTime = startTime.Add(time.Minute * 5)

type mockCandlesRepository struct {
	sqlError error
	empty    bool
	lastArg  *getCandlesParams
}

func TestDatabase_GetCandles(t *testing.T) {
	type args struct {
		productId   string
		granularity types.Granularity
		start       time.Time
		end         time.Time
	}
	tests := []struct {
		name    string
		args    args
		want    []types.Candle
		empty   bool
		sqlErr  error
		wantErr []error
	}{
		{"should throw ErrNoCandles on empty result", args{"BTC-USD", testGranularity, startTime, endTime}, nil, true, nil, []error{ErrNoCandles, types.ErrInvalidInput}},
		{"should throw ErrNoCandles on no rows", args{"BTC-USD", testGranularity, startTime, endTime}, nil, false, pgx.ErrNoRows, []error{ErrNoCandles, types.ErrInvalidInput}},
		{"should throw ErrGranularityNotSupported", args{"BTC-USD", types.Granularity("1w"), startTime, endTime}, nil, false, nil, []error{ErrGranularityNotSupported, types.ErrInvalidParameter}},
		{"should map query failures", args{"BTC-USD", testGranularity, startTime, endTime}, nil, false, errors.New("connection reset"), []error{types.ErrUpstreamUnavailable}},
		{"should return candles", args{"ETH-USD", testGranularity, startTime, endTime}, mockCandles("ETH-USD", startTime, endTime), false, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &Database{
				candles: &mockCandlesRepository{sqlError: tt.sqlErr, empty: tt.empty},
				logger:  zap.NewNop(),
				now:     time.Now,
			}
			got, err := db.GetCandles(context.Background(), tt.args.productId, tt.args.granularity, tt.args.start, tt.args.end)

			if tt.wantErr != nil {
				for _, want := range tt.wantErr {
					if !errors.Is(err, want) {
						t.Errorf("GetCandles() error = %v, wantErr %v", err, want)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("GetCandles() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("GetCandles() got %d candles, want %d", len(got), len(tt.want))
			}
			for i := 0; i < len(tt.want); i++ {
				if got[i].ProductId != tt.args.productId {
					t.Errorf("GetCandles() %s product got = %v, want %v", got[i].Timestamp, got[i].ProductId, tt.want[i].ProductId)
					break
				}
				if got[i].Granularity != tt.args.granularity {
					t.Errorf("GetCandles() %s granularity got = %v, want %v", got[i].Timestamp, got[i].Granularity, tt.want[i].Granularity)
					break
				}
				if !got[i].High.Equal(tt.want[i].High) || !got[i].Timestamp.Equal(tt.want[i].Timestamp) {
					t.Errorf("GetCandles() %s high got = %v, want %v", got[i].Timestamp, got[i].High, tt.want[i].High)
					break
				}
			}
		})
	}
}

func TestDatabase_LoadCandles(t *testing.T) {
	now := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	repo := &mockCandlesRepository{}
	db := &Database{
		candles: repo,
		logger:  zap.NewNop(),
		now:     func() time.Time { return now },
	}
	if _, err := db.LoadCandles(context.Background(), "BTC-USD", types.FifteenMinutes, 7); err != nil {
		t.Fatalf("LoadCandles() unexpected error: %v", err)
	}
	if repo.lastArg == nil {
		t.Fatal("LoadCandles() did not query the repository")
	}
	if repo.lastArg.Granularity != 900 {
		t.Errorf("granularity arg = %d, want 900", repo.lastArg.Granularity)
	}
	if !repo.lastArg.End.Equal(now) || !repo.lastArg.Start.Equal(now.Add(-7*24*time.Hour)) {
		t.Errorf("window = [%s, %s], want 7 days ending %s", repo.lastArg.Start, repo.lastArg.End, now)
	}
}

func TestConvertCandlesNormalizes(t *testing.T) {
	rows := []candleRow{
		{Ts: startTime.Add(time.Minute), Close: decimal.NewFromInt(2)},
		{Ts: startTime, Close: decimal.NewFromInt(1)},
		{Ts: startTime.Add(time.Minute), Close: decimal.NewFromInt(3)},
	}
	got := convertCandles(rows, testGranularity, "BTC-USD")
	if len(got) != 2 {
		t.Fatalf("convertCandles() got %d candles, want 2", len(got))
	}
	if !got[0].Timestamp.Equal(startTime) || !got[1].Close.Equal(decimal.NewFromInt(2)) {
		t.Errorf("convertCandles() = %+v", got)
	}
}

func (m *mockCandlesRepository) GetCandles(_ context.Context, arg getCandlesParams) ([]candleRow, error) {
	m.lastArg = &arg
	if m.sqlError != nil {
		return nil, m.sqlError
	}
	if m.empty {
		return []candleRow{}, nil
	}
	var rows []candleRow
	step := time.Duration(arg.Granularity) * time.Second
	for i := arg.Start; i.Before(arg.End); i = i.Add(step) {
		rows = append(rows, candleRow{
			Ts:     i,
			Open:   decimal.NewFromInt(i.UnixMilli()),
			High:   decimal.NewFromInt(i.UnixMilli()),
			Low:    decimal.NewFromInt(i.UnixMilli()),
			Close:  decimal.NewFromInt(i.UnixMilli()),
			Volume: decimal.NewFromInt(i.UnixMilli()),
		})
	}
	return rows, nil
}

func mockCandles(productId string, start, end time.Time) []types.Candle {
	var candles []types.Candle
	i := start
	for i.Before(end) {
		candles = append(candles, types.Candle{
			Timestamp:   i,
			Granularity: testGranularity,
			ProductId:   productId,
			Open:        decimal.NewFromInt(i.UnixMilli()),
			High:        decimal.NewFromInt(i.UnixMilli()),
			Low:         decimal.NewFromInt(i.UnixMilli()),
			Close:       decimal.NewFromInt(i.UnixMilli()),
			Volume:      decimal.NewFromInt(i.UnixMilli()),
		})
		i = i.Add(types.GranularityToTime[testGranularity])
	}
	return candles
}
