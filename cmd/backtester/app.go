package main

import (
	"fmt"

	"github.com/helymenezes/bot-trade-coinbase/internal/coinbase"
	"github.com/helymenezes/bot-trade-coinbase/internal/config"
	"github.com/helymenezes/bot-trade-coinbase/internal/engine"
	"github.com/helymenezes/bot-trade-coinbase/internal/logging"
	"github.com/helymenezes/bot-trade-coinbase/internal/repository"
	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app groups what every subcommand needs: validated config, a logger and the candle source.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	loader engine.CandleLoader
	closer func()
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.App.LogLevel, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, closer: func() {}}
	if err := a.buildLoader(cmd); err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return a, nil
}

// applyFlags lets explicitly set flags win over file and environment values.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("product") {
		cfg.Market.ProductID = product
	}
	if flags.Changed("granularity") {
		cfg.Market.Granularity = granularity
	}
	if flags.Changed("days") {
		cfg.Market.DaysBack = daysBack
	}
	if flags.Changed("source") {
		cfg.Market.Source = source
	}
	if flags.Changed("short") {
		cfg.Strategy.ShortWindow = shortWindow
	}
	if flags.Changed("long") {
		cfg.Strategy.LongWindow = longWindow
	}
	return cfg.Validate()
}

func (a *app) buildLoader(cmd *cobra.Command) error {
	limiter := coinbase.NewLimiter(a.cfg.Coinbase.RequestsPerSecond, a.cfg.Coinbase.Burst)
	switch a.cfg.Market.Source {
	case config.SourceAdvanced:
		loader, err := coinbase.NewAdvancedLoader(coinbase.CredentialsFromEnv(), coinbase.Options{
			BaseURL: a.cfg.Coinbase.AdvancedURL,
			Timeout: a.cfg.Coinbase.Timeout,
			Limiter: limiter,
			Logger:  a.logger,
		})
		if err != nil {
			return err
		}
		a.loader = loader
	case config.SourcePostgres:
		db, err := repository.NewDatabase(cmd.Context(), a.cfg.Database.URL, a.logger)
		if err != nil {
			return fmt.Errorf("connect database: %w: %w", types.ErrUpstreamUnavailable, err)
		}
		a.loader = db
		a.closer = db.Close
	default:
		a.loader = coinbase.NewPublicLoader(coinbase.Options{
			BaseURL: a.cfg.Coinbase.ExchangeURL,
			Timeout: a.cfg.Coinbase.Timeout,
			Limiter: limiter,
			Logger:  a.logger,
		})
	}
	a.logger.Debug("candle source ready", zap.String("source", a.cfg.Market.Source))
	return nil
}

func (a *app) engine(opts ...engine.Option) *engine.Engine {
	return engine.NewEngine(a.loader, a.logger, opts...)
}

func (a *app) market() engine.MarketRequest {
	return engine.MarketRequest{
		ProductId:   a.cfg.Market.ProductID,
		Granularity: a.cfg.GranularityValue(),
		DaysBack:    a.cfg.Market.DaysBack,
	}
}

func (a *app) close() {
	a.closer()
	_ = a.logger.Sync()
}
