package engine

import (
	"context"
	"time"

	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LiveSignal is the signal on the most recent closed bar.
type LiveSignal struct {
	ProductId string          `json:"productId"`
	Timestamp time.Time       `json:"timestamp"`
	Signal    types.Signal    `json:"signal"`
	Price     decimal.Decimal `json:"price"`
	EmaShort  decimal.Decimal `json:"emaShort"`
	EmaLong   decimal.Decimal `json:"emaLong"`
}

// LogHook only reports the detected signal. There is no execution path behind it.
type LogHook struct {
	logger *zap.Logger
}

func NewLogHook(logger *zap.Logger) *LogHook {
	return &LogHook{logger: logger}
}

func (h *LogHook) OnSignal(_ context.Context, s LiveSignal) error {
	fields := []zap.Field{
		zap.String("product", s.ProductId),
		zap.String("price", s.Price.StringFixed(2)),
		zap.Time("bar", s.Timestamp),
	}
	switch s.Signal {
	case types.Buy:
		h.logger.Info("buy signal detected", fields...)
	case types.Sell:
		h.logger.Info("sell signal detected", fields...)
	default:
		h.logger.Info("no trading signal detected", fields...)
	}
	return nil
}
