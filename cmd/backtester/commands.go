package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/gin-gonic/gin"
	"github.com/helymenezes/bot-trade-coinbase/internal/engine"
	"github.com/helymenezes/bot-trade-coinbase/internal/server"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath  string
	envFile     string
	product     string
	granularity string
	daysBack    int
	source      string
	shortWindow int
	longWindow  int
	barsCSV     string
	tradesCSV   string
	asJSON      bool
	noProgress  bool

	rootCmd = &cobra.Command{
		Use:          "backtester",
		Short:        "EMA crossover backtests over Coinbase candles",
		SilenceUsage: true,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Backtest the EMA crossover strategy on one product",
		RunE:  runBacktest,
	}

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Evaluate every short/long window pair from the sweep config",
		RunE:  runSweep,
	}

	signalCmd = &cobra.Command{
		Use:   "signal",
		Short: "Report the signal on the latest bar of the last day",
		RunE:  runSignal,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the backtester over HTTP",
		RunE:  runServe,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file with credentials and overrides")
	flags.StringVarP(&product, "product", "p", "", "product id, e.g. BTC-USD")
	flags.StringVarP(&granularity, "granularity", "g", "", "candle width: 1m, 5m, 15m, 30m, 1h, 6h, 1d or seconds")
	flags.IntVarP(&daysBack, "days", "d", 0, "days of history to load")
	flags.StringVar(&source, "source", "", "candle source: public, advanced or postgres")
	flags.IntVar(&shortWindow, "short", 0, "short EMA window")
	flags.IntVar(&longWindow, "long", 0, "long EMA window")
	flags.BoolVar(&asJSON, "json", false, "print the result as JSON")

	runCmd.Flags().StringVar(&barsCSV, "bars-csv", "", "write per-bar rows to this CSV file")
	runCmd.Flags().StringVar(&tradesCSV, "trades-csv", "", "write the trade ledger to this CSV file")
	sweepCmd.Flags().BoolVar(&noProgress, "no-progress", false, "hide the sweep progress bar")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(signalCmd)
	rootCmd.AddCommand(serveCmd)
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	strategy, err := a.cfg.StrategyConfig()
	if err != nil {
		return err
	}
	result, err := a.engine().Run(cmd.Context(), engine.RunRequest{
		MarketRequest: a.market(),
		Strategy:      strategy,
	})
	if err != nil {
		return err
	}

	if barsCSV != "" {
		if err := engine.WriteBarsCSVFile(barsCSV, result.Bars); err != nil {
			return err
		}
		a.logger.Info("bars exported", zap.String("path", barsCSV))
	}
	if tradesCSV != "" {
		if err := engine.WriteTradesCSVFile(tradesCSV, result.Trades); err != nil {
			return err
		}
		a.logger.Info("trades exported", zap.String("path", tradesCSV))
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return json.NewEncoder(out).Encode(result)
	}
	fmt.Fprintf(out, "Run %s  %s %s  EMA %d/%d\n", result.ID, result.ProductId, result.Granularity, strategy.ShortWindow, strategy.LongWindow)
	engine.PrintReport(out, result.Report)
	return nil
}

func runSweep(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	strategy, err := a.cfg.StrategyConfig()
	if err != nil {
		return err
	}
	opts := []engine.Option{engine.WithWorkers(a.cfg.Sweep.Workers)}
	if !noProgress && !asJSON {
		opts = append(opts, engine.WithProgressWriter(cmd.ErrOrStderr()))
	}
	result, err := a.engine(opts...).Sweep(cmd.Context(), engine.SweepRequest{
		MarketRequest:  a.market(),
		ShortWindows:   a.cfg.Sweep.ShortWindows,
		LongWindows:    a.cfg.Sweep.LongWindows,
		InitialCapital: strategy.InitialCapital,
		FeeRate:        strategy.FeeRate,
		RiskFreeRate:   strategy.RiskFreeRate,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return json.NewEncoder(out).Encode(result)
	}
	fmt.Fprintf(out, "\nSweep %s  %s %s  %d bars\n", result.ID, result.ProductId, result.Granularity, result.Bars)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SHORT\tLONG\tROI %\tFINAL VALUE\tTRADES\tMAX DD %\t")
	for _, e := range result.Entries {
		if e.Err != "" {
			fmt.Fprintf(tw, "%d\t%d\t%s\t\t\t\t\n", e.ShortWindow, e.LongWindow, e.Err)
			continue
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\t%s\t\n",
			e.ShortWindow, e.LongWindow,
			e.ROI.StringFixed(2), e.FinalValue.StringFixed(2), e.TotalTrades,
			e.MaxDrawdownPercent.Mul(decimal.NewFromInt(100)).StringFixed(2))
	}
	return tw.Flush()
}

func runSignal(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	live, err := a.engine().CheckSignal(cmd.Context(), engine.SignalRequest{
		ProductId:   a.cfg.Market.ProductID,
		Granularity: a.cfg.GranularityValue(),
		ShortWindow: a.cfg.Strategy.ShortWindow,
		LongWindow:  a.cfg.Strategy.LongWindow,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		return json.NewEncoder(out).Encode(live)
	}
	fmt.Fprintf(out, "%s %s at %s (%s)\n", live.ProductId, live.Signal, live.Price.StringFixed(2), live.Timestamp.Format("2006-01-02 15:04"))
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	strategy, err := a.cfg.StrategyConfig()
	if err != nil {
		return err
	}
	if a.cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(a.engine(engine.WithWorkers(a.cfg.Sweep.Workers)), server.Defaults{
		ProductId:    a.cfg.Market.ProductID,
		Granularity:  a.cfg.GranularityValue(),
		DaysBack:     a.cfg.Market.DaysBack,
		Strategy:     strategy,
		ShortWindows: a.cfg.Sweep.ShortWindows,
		LongWindows:  a.cfg.Sweep.LongWindows,
	}, a.logger)
	return srv.ListenAndServe(cmd.Context(), a.cfg.App.HTTPAddr)
}
