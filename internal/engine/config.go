package engine

import (
	"fmt"

	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/shopspring/decimal"
)

// StrategyConfig is the option set consumed by the signal engine and the simulator.
type StrategyConfig struct {
	ShortWindow    int             `json:"shortWindow" yaml:"short_window"`
	LongWindow     int             `json:"longWindow" yaml:"long_window"`
	InitialCapital decimal.Decimal `json:"initialCapital" yaml:"initial_capital"`
	FeeRate        decimal.Decimal `json:"feeRate" yaml:"fee_rate"`
	// RiskFreeRate is the annual rate the Sharpe ratio is measured against.
	RiskFreeRate decimal.Decimal `json:"riskFreeRate" yaml:"risk_free_rate"`
}

func NewStrategyConfig(shortWindow, longWindow int, initialCapital, feeRate decimal.Decimal) (StrategyConfig, error) {
	cfg := StrategyConfig{
		ShortWindow:    shortWindow,
		LongWindow:     longWindow,
		InitialCapital: initialCapital,
		FeeRate:        feeRate,
	}
	if err := cfg.Validate(); err != nil {
		return StrategyConfig{}, err
	}
	return cfg, nil
}

// DefaultStrategyConfig mirrors the dashboard defaults: EMA 9/21, 1000 capital, 0.1% fee.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		ShortWindow:    9,
		LongWindow:     21,
		InitialCapital: decimal.NewFromInt(1000),
		FeeRate:        decimal.RequireFromString("0.001"),
	}
}

func (c StrategyConfig) Validate() error {
	if err := validateWindows(c.ShortWindow, c.LongWindow); err != nil {
		return err
	}
	return c.validateAccounting()
}

func (c StrategyConfig) validateAccounting() error {
	if !c.InitialCapital.IsPositive() {
		return fmt.Errorf("initial capital %s must be positive: %w", c.InitialCapital, types.ErrInvalidParameter)
	}
	if c.FeeRate.IsNegative() || c.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("fee rate %s must be in [0,1): %w", c.FeeRate, types.ErrInvalidParameter)
	}
	if c.RiskFreeRate.LessThanOrEqual(decimal.NewFromInt(-1)) {
		return fmt.Errorf("risk free rate %s must be above -1: %w", c.RiskFreeRate, types.ErrInvalidParameter)
	}
	return nil
}

// shortWindow >= longWindow is allowed; the signal is degenerate but well defined.
func validateWindows(shortWindow, longWindow int) error {
	if shortWindow <= 0 {
		return fmt.Errorf("short window %d must be positive: %w", shortWindow, types.ErrInvalidParameter)
	}
	if longWindow <= 0 {
		return fmt.Errorf("long window %d must be positive: %w", longWindow, types.ErrInvalidParameter)
	}
	return nil
}
