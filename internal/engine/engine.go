package engine

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/helymenezes/bot-trade-coinbase/internal/metrics"
	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// liveLookbackDays is the window fetched for a live signal check.
const liveLookbackDays = 1

// Bar is one candle with every derived column the chart overlays need.
type Bar struct {
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	EmaShort  decimal.Decimal `json:"emaShort"`
	EmaLong   decimal.Decimal `json:"emaLong"`
	Signal    types.Signal    `json:"signal"`
	Position  types.Position  `json:"position"`
	Value     decimal.Decimal `json:"value"`
}

// Evaluation is the signal engine and simulator output for one series and one config.
type Evaluation struct {
	Strategy   StrategyConfig  `json:"strategy"`
	Bars       []Bar           `json:"bars"`
	Markers    []types.Marker  `json:"markers"`
	Trades     []types.Trade   `json:"trades"`
	ROI        decimal.Decimal `json:"roi"`
	FinalValue decimal.Decimal `json:"finalValue"`
	FinalCash  decimal.Decimal `json:"finalCash"`
	Report     *Report         `json:"report"`
}

// Evaluate runs the signal engine and the simulator over candles. It does no I/O.
func Evaluate(candles []types.Candle, cfg StrategyConfig) (*Evaluation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	signals, err := ComputeSignals(candles, cfg.ShortWindow, cfg.LongWindow)
	if err != nil {
		return nil, err
	}
	result, err := Simulate(candles, signals.Signals, cfg)
	if err != nil {
		return nil, err
	}

	bars := make([]Bar, len(candles))
	for i, c := range candles {
		bars[i] = Bar{
			Timestamp: c.Timestamp,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
			EmaShort:  signals.EmaShort[i],
			EmaLong:   signals.EmaLong[i],
			Signal:    signals.Signals[i],
			Position:  result.Positions[i],
			Value:     result.Curve[i].Value,
		}
	}
	return &Evaluation{
		Strategy:   cfg,
		Bars:       bars,
		Markers:    result.Markers,
		Trades:     result.Trades,
		ROI:        result.ROI,
		FinalValue: result.FinalValue,
		FinalCash:  result.FinalCash,
		Report:     generateReport(result, cfg.RiskFreeRate),
	}, nil
}

type Engine struct {
	loader   CandleLoader
	hook     SignalHook
	logger   *zap.Logger
	workers  int
	progress io.Writer
}

type Option func(*Engine)

func WithSignalHook(hook SignalHook) Option {
	return func(e *Engine) {
		if hook != nil {
			e.hook = hook
		}
	}
}

// WithWorkers bounds the number of window pairs a sweep evaluates at once.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithProgressWriter renders a sweep progress bar on w.
func WithProgressWriter(w io.Writer) Option {
	return func(e *Engine) {
		e.progress = w
	}
}

func NewEngine(loader CandleLoader, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		loader:  loader,
		logger:  logger,
		workers: runtime.NumCPU(),
	}
	e.hook = NewLogHook(logger)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type MarketRequest struct {
	ProductId   string            `json:"productId"`
	Granularity types.Granularity `json:"granularity"`
	DaysBack    int               `json:"daysBack"`
}

func (r MarketRequest) validate() error {
	if r.ProductId == "" {
		return fmt.Errorf("product id required: %w", types.ErrInvalidParameter)
	}
	if _, ok := types.GranularityToTime[r.Granularity]; !ok {
		return fmt.Errorf("granularity %q: %w", r.Granularity, types.ErrInvalidParameter)
	}
	if r.DaysBack <= 0 {
		return fmt.Errorf("days back %d must be positive: %w", r.DaysBack, types.ErrInvalidParameter)
	}
	return nil
}

type RunRequest struct {
	MarketRequest
	Strategy StrategyConfig
}

type RunResult struct {
	ID          uuid.UUID         `json:"id"`
	ProductId   string            `json:"productId"`
	Granularity types.Granularity `json:"granularity"`
	DaysBack    int               `json:"daysBack"`
	Evaluation
}

// Run loads the series and evaluates the strategy over it. Parameters are
// validated before anything is fetched.
func (e *Engine) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := req.Strategy.Validate(); err != nil {
		return nil, err
	}

	result, err := e.run(ctx, req)
	metrics.BacktestRunsTotal.WithLabelValues(req.ProductId, metrics.Outcome(err)).Inc()
	if err != nil {
		e.logger.Error("backtest failed", zap.String("product", req.ProductId), zap.Error(err))
		return nil, err
	}
	e.logger.Info("backtest finished",
		zap.String("run_id", result.ID.String()),
		zap.String("product", req.ProductId),
		zap.String("granularity", string(req.Granularity)),
		zap.Int("bars", len(result.Bars)),
		zap.Int("trades", len(result.Trades)),
		zap.String("roi", result.ROI.StringFixed(4)),
	)
	return result, nil
}

func (e *Engine) run(ctx context.Context, req RunRequest) (*RunResult, error) {
	candles, err := e.load(ctx, req.MarketRequest)
	if err != nil {
		return nil, err
	}
	eval, err := Evaluate(candles, req.Strategy)
	if err != nil {
		return nil, err
	}
	return &RunResult{
		ID:          uuid.New(),
		ProductId:   req.ProductId,
		Granularity: req.Granularity,
		DaysBack:    req.DaysBack,
		Evaluation:  *eval,
	}, nil
}

func (e *Engine) load(ctx context.Context, req MarketRequest) ([]types.Candle, error) {
	candles, err := e.loader.LoadCandles(ctx, req.ProductId, req.Granularity, req.DaysBack)
	if err != nil {
		return nil, fmt.Errorf("load %s candles: %w", req.ProductId, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles for %s: %w", req.ProductId, types.ErrInvalidInput)
	}
	e.logger.Debug("candles loaded", zap.String("product", req.ProductId), zap.Int("count", len(candles)))
	return candles, nil
}

type SweepRequest struct {
	MarketRequest
	ShortWindows   []int
	LongWindows    []int
	InitialCapital decimal.Decimal
	FeeRate        decimal.Decimal
	RiskFreeRate   decimal.Decimal
}

// SweepEntry is one window pair of a sweep. Err is set when that pair was rejected.
type SweepEntry struct {
	ShortWindow        int             `json:"shortWindow"`
	LongWindow         int             `json:"longWindow"`
	ROI                decimal.Decimal `json:"roi"`
	FinalValue         decimal.Decimal `json:"finalValue"`
	TotalTrades        int             `json:"totalTrades"`
	MaxDrawdownPercent decimal.Decimal `json:"maxDrawdownPercent"`
	Err                string          `json:"error,omitempty"`
}

type SweepResult struct {
	ID          uuid.UUID         `json:"id"`
	ProductId   string            `json:"productId"`
	Granularity types.Granularity `json:"granularity"`
	Bars        int               `json:"bars"`
	Entries     []SweepEntry      `json:"entries"`
}

// Sweep loads the series once and evaluates every (short, long) pair on it
// concurrently. Entries are ranked by ROI, rejected pairs last.
func (e *Engine) Sweep(ctx context.Context, req SweepRequest) (*SweepResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if len(req.ShortWindows) == 0 || len(req.LongWindows) == 0 {
		return nil, fmt.Errorf("sweep needs short and long windows: %w", types.ErrInvalidParameter)
	}
	accounting := StrategyConfig{InitialCapital: req.InitialCapital, FeeRate: req.FeeRate, RiskFreeRate: req.RiskFreeRate}
	if err := accounting.validateAccounting(); err != nil {
		return nil, err
	}

	candles, err := e.load(ctx, req.MarketRequest)
	if err != nil {
		return nil, err
	}

	var configs []StrategyConfig
	for _, s := range req.ShortWindows {
		for _, l := range req.LongWindows {
			configs = append(configs, StrategyConfig{
				ShortWindow:    s,
				LongWindow:     l,
				InitialCapital: req.InitialCapital,
				FeeRate:        req.FeeRate,
				RiskFreeRate:   req.RiskFreeRate,
			})
		}
	}

	bar := e.initProgressBar(len(configs))
	entries := make([]SweepEntry, len(configs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, cfg := range configs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entries[i] = sweepEntry(candles, cfg)
			metrics.SweepPairsTotal.Inc()
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	_ = bar.Finish()

	sort.SliceStable(entries, func(i, j int) bool {
		if (entries[i].Err == "") != (entries[j].Err == "") {
			return entries[i].Err == ""
		}
		return entries[i].ROI.GreaterThan(entries[j].ROI)
	})

	result := &SweepResult{
		ID:          uuid.New(),
		ProductId:   req.ProductId,
		Granularity: req.Granularity,
		Bars:        len(candles),
		Entries:     entries,
	}
	e.logger.Info("sweep finished",
		zap.String("run_id", result.ID.String()),
		zap.String("product", req.ProductId),
		zap.Int("pairs", len(entries)),
	)
	return result, nil
}

func sweepEntry(candles []types.Candle, cfg StrategyConfig) SweepEntry {
	entry := SweepEntry{ShortWindow: cfg.ShortWindow, LongWindow: cfg.LongWindow}
	eval, err := Evaluate(candles, cfg)
	if err != nil {
		entry.Err = err.Error()
		return entry
	}
	entry.ROI = eval.ROI
	entry.FinalValue = eval.FinalValue
	entry.TotalTrades = eval.Report.TotalTrades
	entry.MaxDrawdownPercent = eval.Report.MaxDrawdownPercent
	return entry
}

func (e *Engine) initProgressBar(maxTicks int) *progressbar.ProgressBar {
	if e.progress == nil {
		return progressbar.DefaultSilent(int64(maxTicks))
	}
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionSetWriter(e.progress),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Sweeping EMA windows..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

type SignalRequest struct {
	ProductId   string
	Granularity types.Granularity
	ShortWindow int
	LongWindow  int
}

// CheckSignal computes the signal on the most recent bar of the last day and
// hands it to the signal hook.
func (e *Engine) CheckSignal(ctx context.Context, req SignalRequest) (*LiveSignal, error) {
	market := MarketRequest{ProductId: req.ProductId, Granularity: req.Granularity, DaysBack: liveLookbackDays}
	if err := market.validate(); err != nil {
		return nil, err
	}
	if err := validateWindows(req.ShortWindow, req.LongWindow); err != nil {
		return nil, err
	}

	candles, err := e.load(ctx, market)
	if err != nil {
		return nil, err
	}
	signals, err := ComputeSignals(candles, req.ShortWindow, req.LongWindow)
	if err != nil {
		return nil, err
	}

	last := len(candles) - 1
	live := &LiveSignal{
		ProductId: req.ProductId,
		Timestamp: candles[last].Timestamp,
		Signal:    signals.Signals[last],
		Price:     candles[last].Close,
		EmaShort:  signals.EmaShort[last],
		EmaLong:   signals.EmaLong[last],
	}
	metrics.SignalsDetectedTotal.WithLabelValues(req.ProductId, live.Signal.String()).Inc()
	if err := e.hook.OnSignal(ctx, *live); err != nil {
		return nil, fmt.Errorf("signal hook: %w", err)
	}
	return live, nil
}
