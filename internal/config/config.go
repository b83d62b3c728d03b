// Package config exposes strongly typed application configuration loaded from YAML
// and overridden from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/helymenezes/bot-trade-coinbase/internal/engine"
	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Candle sources selectable with market.source.
const (
	SourcePublic   = "public"
	SourceAdvanced = "advanced"
	SourcePostgres = "postgres"
)

// App captures process-wide runtime settings.
type App struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	HTTPAddr string `yaml:"http_addr"`
}

// Market selects the series to backtest and where it comes from.
type Market struct {
	ProductID   string `yaml:"product_id"`
	Granularity string `yaml:"granularity"`
	DaysBack    int    `yaml:"days_back"`
	Source      string `yaml:"source"`
}

// Strategy holds the EMA windows and the accounting parameters. Money values are
// kept as strings so that YAML floats never touch them.
type Strategy struct {
	ShortWindow    int    `yaml:"short_window"`
	LongWindow     int    `yaml:"long_window"`
	InitialCapital string `yaml:"initial_capital"`
	FeeRate        string `yaml:"fee_rate"`
	RiskFreeRate   string `yaml:"risk_free_rate"`
}

// Coinbase configures both candle APIs and the request budget they share.
type Coinbase struct {
	ExchangeURL       string        `yaml:"exchange_url"`
	AdvancedURL       string        `yaml:"advanced_url"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	Timeout           time.Duration `yaml:"timeout"`
}

type Database struct {
	URL string `yaml:"url"`
}

// Sweep lists the window grid evaluated by the sweep command.
type Sweep struct {
	ShortWindows []int `yaml:"short_windows"`
	LongWindows  []int `yaml:"long_windows"`
	Workers      int   `yaml:"workers"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Market   Market   `yaml:"market"`
	Strategy Strategy `yaml:"strategy"`
	Coinbase Coinbase `yaml:"coinbase"`
	Database Database `yaml:"database"`
	Sweep    Sweep    `yaml:"sweep"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		App: App{
			Name:     "bot-trade-coinbase",
			Env:      "prod",
			LogLevel: "info",
			HTTPAddr: ":8080",
		},
		Market: Market{
			ProductID:   "BTC-USD",
			Granularity: string(types.FifteenMinutes),
			DaysBack:    7,
			Source:      SourcePublic,
		},
		Strategy: Strategy{
			ShortWindow:    9,
			LongWindow:     21,
			InitialCapital: "1000",
			FeeRate:        "0.001",
			RiskFreeRate:   "0",
		},
		Coinbase: Coinbase{
			ExchangeURL:       "https://api.exchange.coinbase.com",
			AdvancedURL:       "https://api.coinbase.com",
			RequestsPerSecond: 3,
			Burst:             1,
			Timeout:           10 * time.Second,
		},
		Sweep: Sweep{
			ShortWindows: []int{5, 9, 12},
			LongWindows:  []int{21, 26, 50},
		},
	}
}

// Load starts from Default, decodes the YAML file at path over it when path is
// set, loads .env files best-effort, applies environment overrides and validates.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}

	_ = godotenv.Load(envFiles...) // best-effort
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("BACKTESTER_PRODUCT"); v != "" {
		c.Market.ProductID = v
	}
	if v := os.Getenv("BACKTESTER_GRANULARITY"); v != "" {
		c.Market.Granularity = v
	}
	if v := os.Getenv("BACKTESTER_DAYS_BACK"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BACKTESTER_DAYS_BACK %q: %w", v, types.ErrInvalidParameter)
		}
		c.Market.DaysBack = days
	}
	if v := os.Getenv("BACKTESTER_SOURCE"); v != "" {
		c.Market.Source = v
	}
	if v := os.Getenv("BACKTESTER_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("BACKTESTER_HTTP_ADDR"); v != "" {
		c.App.HTTPAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := types.ParseGranularity(c.Market.Granularity); err != nil {
		return err
	}
	if c.Market.ProductID == "" {
		return fmt.Errorf("market.product_id required: %w", types.ErrInvalidParameter)
	}
	if c.Market.DaysBack <= 0 {
		return fmt.Errorf("market.days_back %d must be positive: %w", c.Market.DaysBack, types.ErrInvalidParameter)
	}
	switch c.Market.Source {
	case SourcePublic, SourceAdvanced:
	case SourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url required for the postgres source: %w", types.ErrInvalidParameter)
		}
	default:
		return fmt.Errorf("market.source %q: %w", c.Market.Source, types.ErrInvalidParameter)
	}
	if _, err := c.StrategyConfig(); err != nil {
		return err
	}
	return nil
}

// GranularityValue returns the parsed market granularity.
func (c *Config) GranularityValue() types.Granularity {
	g, _ := types.ParseGranularity(c.Market.Granularity)
	return g
}

// StrategyConfig converts the strategy section into a validated engine config.
func (c *Config) StrategyConfig() (engine.StrategyConfig, error) {
	capital, err := decimal.NewFromString(c.Strategy.InitialCapital)
	if err != nil {
		return engine.StrategyConfig{}, fmt.Errorf("strategy.initial_capital %q: %w", c.Strategy.InitialCapital, types.ErrInvalidParameter)
	}
	fee, err := decimal.NewFromString(c.Strategy.FeeRate)
	if err != nil {
		return engine.StrategyConfig{}, fmt.Errorf("strategy.fee_rate %q: %w", c.Strategy.FeeRate, types.ErrInvalidParameter)
	}
	rf := decimal.Zero
	if c.Strategy.RiskFreeRate != "" {
		if rf, err = decimal.NewFromString(c.Strategy.RiskFreeRate); err != nil {
			return engine.StrategyConfig{}, fmt.Errorf("strategy.risk_free_rate %q: %w", c.Strategy.RiskFreeRate, types.ErrInvalidParameter)
		}
	}
	cfg, err := engine.NewStrategyConfig(c.Strategy.ShortWindow, c.Strategy.LongWindow, capital, fee)
	if err != nil {
		return engine.StrategyConfig{}, err
	}
	cfg.RiskFreeRate = rf
	if err := cfg.Validate(); err != nil {
		return engine.StrategyConfig{}, err
	}
	return cfg, nil
}
