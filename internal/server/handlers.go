package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/helymenezes/bot-trade-coinbase/internal/engine"
	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Server) handleBacktest(c *gin.Context) {
	market, err := s.marketFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	strategy, err := s.strategyFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	result, err := s.runner.Run(c.Request.Context(), engine.RunRequest{MarketRequest: market, Strategy: strategy})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSweep(c *gin.Context) {
	market, err := s.marketFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	strategy, err := s.strategyFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	shorts, err := intList(c, "shorts", s.defaults.ShortWindows)
	if err != nil {
		s.writeError(c, err)
		return
	}
	longs, err := intList(c, "longs", s.defaults.LongWindows)
	if err != nil {
		s.writeError(c, err)
		return
	}
	result, err := s.runner.Sweep(c.Request.Context(), engine.SweepRequest{
		MarketRequest:  market,
		ShortWindows:   shorts,
		LongWindows:    longs,
		InitialCapital: strategy.InitialCapital,
		FeeRate:        strategy.FeeRate,
		RiskFreeRate:   strategy.RiskFreeRate,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSignal(c *gin.Context) {
	market, err := s.marketFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	strategy, err := s.strategyFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	live, err := s.runner.CheckSignal(c.Request.Context(), engine.SignalRequest{
		ProductId:   market.ProductId,
		Granularity: market.Granularity,
		ShortWindow: strategy.ShortWindow,
		LongWindow:  strategy.LongWindow,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"productId": live.ProductId,
		"timestamp": live.Timestamp,
		"signal":    live.Signal.String(),
		"price":     live.Price,
		"emaShort":  live.EmaShort,
		"emaLong":   live.EmaLong,
	})
}

func (s *Server) marketFromQuery(c *gin.Context) (engine.MarketRequest, error) {
	market := engine.MarketRequest{
		ProductId:   c.DefaultQuery("product", s.defaults.ProductId),
		Granularity: s.defaults.Granularity,
		DaysBack:    s.defaults.DaysBack,
	}
	if v := c.Query("granularity"); v != "" {
		g, err := types.ParseGranularity(v)
		if err != nil {
			return market, err
		}
		market.Granularity = g
	}
	days, err := intParam(c, "days", s.defaults.DaysBack)
	if err != nil {
		return market, err
	}
	market.DaysBack = days
	return market, nil
}

func (s *Server) strategyFromQuery(c *gin.Context) (engine.StrategyConfig, error) {
	cfg := s.defaults.Strategy
	var err error
	if cfg.ShortWindow, err = intParam(c, "short", cfg.ShortWindow); err != nil {
		return cfg, err
	}
	if cfg.LongWindow, err = intParam(c, "long", cfg.LongWindow); err != nil {
		return cfg, err
	}
	if cfg.InitialCapital, err = decimalParam(c, "capital", cfg.InitialCapital); err != nil {
		return cfg, err
	}
	if cfg.FeeRate, err = decimalParam(c, "fee", cfg.FeeRate); err != nil {
		return cfg, err
	}
	if cfg.RiskFreeRate, err = decimalParam(c, "rf", cfg.RiskFreeRate); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func intParam(c *gin.Context, key string, fallback int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", key, v, types.ErrInvalidParameter)
	}
	return n, nil
}

func decimalParam(c *gin.Context, key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	v := c.Query(key)
	if v == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s=%q: %w", key, v, types.ErrInvalidParameter)
	}
	return d, nil
}

// intList parses a comma separated list such as "5,9,12".
func intList(c *gin.Context, key string, fallback []int) ([]int, error) {
	v := c.Query(key)
	if v == "" {
		return fallback, nil
	}
	parts := strings.Split(v, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%s=%q: %w", key, v, types.ErrInvalidParameter)
		}
		out = append(out, n)
	}
	return out, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidParameter), errors.Is(err, types.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
