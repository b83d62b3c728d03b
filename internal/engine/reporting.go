package engine

import (
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/shopspring/decimal"
)

type Report struct {
	// Meta / period info
	StartDate   time.Time     `json:"startDate"`
	TotalPeriod time.Duration `json:"totalPeriod"`
	TotalTrades int           `json:"totalTrades"`

	// Absolute performance
	ROI                  decimal.Decimal `json:"roi"`
	NetProfit            decimal.Decimal `json:"netProfit"`
	NetAvgProfitPerTrade decimal.Decimal `json:"netAvgProfitPerTrade"`
	FinalValue           decimal.Decimal `json:"finalValue"`
	FinalCash            decimal.Decimal `json:"finalCash"`
	CAGR                 decimal.Decimal `json:"cagr"`

	// Risk-adjusted performance
	SharpeRatio decimal.Decimal `json:"sharpeRatio"`

	// Trade-level distribution metrics
	WinningTrades int             `json:"winningTrades"`
	LosingTrades  int             `json:"losingTrades"`
	AvgWin        decimal.Decimal `json:"avgWin"`
	AvgLoss       decimal.Decimal `json:"avgLoss"`

	// Drawdown & loss streak metrics
	MaxDrawdown          decimal.Decimal `json:"maxDrawdown"`
	MaxDrawdownPercent   decimal.Decimal `json:"maxDrawdownPercent"`
	MaxDrawdownDuration  time.Duration   `json:"maxDrawdownDuration"`
	MaxConsecutiveLosses int             `json:"maxConsecutiveLosses"`

	// Costs
	TotalFees decimal.Decimal `json:"totalFees"`
}

func PrintReport(w io.Writer, report *Report) {
	fmt.Fprintln(w, "===== Backtest Report =====")
	fmt.Fprintf(w, "Start Date:            %s\n", report.StartDate.Format(time.RFC3339))
	fmt.Fprintf(w, "Total Period:          %s\n", report.TotalPeriod)
	fmt.Fprintf(w, "Total Trades:          %d\n", report.TotalTrades)

	fmt.Fprintln(w, "\n-- Absolute Performance --")
	fmt.Fprintf(w, "ROI %%:                 %s\n", report.ROI.StringFixed(2))
	fmt.Fprintf(w, "Net Profit:            %s\n", report.NetProfit.StringFixed(2))
	fmt.Fprintf(w, "Avg Profit/Trade:      %s\n", report.NetAvgProfitPerTrade.StringFixed(2))
	fmt.Fprintf(w, "Final Value:           %s\n", report.FinalValue.StringFixed(2))
	fmt.Fprintf(w, "Final Cash:            %s\n", report.FinalCash.StringFixed(2))
	fmt.Fprintf(w, "CAGR %%:                %s\n", report.CAGR.Mul(hundred).StringFixed(2))

	fmt.Fprintln(w, "\n-- Risk-Adjusted Metrics --")
	fmt.Fprintf(w, "Sharpe Ratio:          %s\n", report.SharpeRatio.StringFixed(2))

	fmt.Fprintln(w, "\n-- Trade-Level Metrics --")
	fmt.Fprintf(w, "Winning/Losing:        %d/%d\n", report.WinningTrades, report.LosingTrades)
	fmt.Fprintf(w, "Avg Win:               %s\n", report.AvgWin.StringFixed(2))
	fmt.Fprintf(w, "Avg Loss:              %s\n", report.AvgLoss.StringFixed(2))

	fmt.Fprintln(w, "\n-- Drawdown Metrics --")
	fmt.Fprintf(w, "Max Drawdown:          %s\n", report.MaxDrawdown.StringFixed(2))
	fmt.Fprintf(w, "Max Drawdown %%:        %s\n", report.MaxDrawdownPercent.Mul(hundred).StringFixed(2))
	fmt.Fprintf(w, "Max Drawdown Duration: %s\n", report.MaxDrawdownDuration)
	fmt.Fprintf(w, "Max Consecutive Losses:%d\n", report.MaxConsecutiveLosses)

	fmt.Fprintln(w, "\n-- Costs --")
	fmt.Fprintf(w, "Total Fees:            %s\n", report.TotalFees.StringFixed(2))

	fmt.Fprintln(w, "===========================")
}

func generateReport(result *BacktestResult, annualRiskFree decimal.Decimal) *Report {
	report := &Report{
		TotalTrades: len(result.Trades),
		ROI:         result.ROI,
		FinalValue:  result.FinalValue,
		FinalCash:   result.FinalCash,
		TotalFees:   result.TotalFees,
	}
	if len(result.Curve) > 0 {
		report.StartDate = result.Curve[0].Timestamp
		report.TotalPeriod = result.Curve[len(result.Curve)-1].Timestamp.Sub(report.StartDate)
	}

	// Each goroutine writes a disjoint set of fields; Done must follow the write.
	var wg sync.WaitGroup
	wg.Add(6)
	go func() {
		defer wg.Done()
		report.NetProfit, report.NetAvgProfitPerTrade = calcNetProfit(result.Trades)
	}()
	go func() {
		defer wg.Done()
		report.WinningTrades, report.LosingTrades, report.AvgWin, report.AvgLoss = calcAvgWinLossPerTrade(result.Trades)
	}()
	go func() {
		defer wg.Done()
		report.MaxDrawdown, report.MaxDrawdownPercent, report.MaxDrawdownDuration = calcDrawdownMetrics(result.Curve)
	}()
	go func() {
		defer wg.Done()
		report.MaxConsecutiveLosses = calcMaxConsecutiveLosses(result.Trades)
	}()
	go func() {
		defer wg.Done()
		report.CAGR = calcCAGR(result.Curve)
	}()
	go func() {
		defer wg.Done()
		report.SharpeRatio = calcSharpeRatio(result.Curve, annualRiskFree)
	}()
	wg.Wait()

	return report
}

func calcNetProfit(trades []types.Trade) (decimal.Decimal, decimal.Decimal) {
	net := decimal.Zero
	for _, tr := range trades {
		net = net.Add(tr.NetProfit())
	}
	if len(trades) == 0 {
		return net, decimal.Zero
	}
	return net, net.Div(decimal.NewFromInt(int64(len(trades))))
}

func calcAvgWinLossPerTrade(trades []types.Trade) (int, int, decimal.Decimal, decimal.Decimal) {
	sumWins := decimal.Zero
	sumLosses := decimal.Zero // store absolute loss amounts
	winCount := 0
	lossCount := 0

	for _, tr := range trades {
		net := tr.NetProfit()
		switch {
		case net.IsPositive():
			sumWins = sumWins.Add(net)
			winCount++
		case net.IsNegative():
			sumLosses = sumLosses.Add(net.Abs())
			lossCount++
		}
	}

	avgWin := decimal.Zero
	avgLoss := decimal.Zero
	if winCount > 0 {
		avgWin = sumWins.Div(decimal.NewFromInt(int64(winCount)))
	}
	if lossCount > 0 {
		avgLoss = sumLosses.Div(decimal.NewFromInt(int64(lossCount)))
	}
	return winCount, lossCount, avgWin, avgLoss
}

// calcDrawdownMetrics expects the curve in chronological order.
func calcDrawdownMetrics(curve []types.CurvePoint) (decimal.Decimal, decimal.Decimal, time.Duration) {
	if len(curve) == 0 {
		return decimal.Zero, decimal.Zero, 0
	}

	peak := curve[0].Value
	peakTime := curve[0].Timestamp

	maxDD := decimal.Zero
	maxDDPct := decimal.Zero
	var maxDDDuration time.Duration

	for _, point := range curve {
		if point.Value.GreaterThan(peak) {
			peak = point.Value
			peakTime = point.Timestamp
		}
		if !peak.IsPositive() {
			continue
		}
		dd := peak.Sub(point.Value)
		if dd.GreaterThan(maxDD) {
			maxDD = dd
			maxDDPct = dd.Div(peak)
			maxDDDuration = point.Timestamp.Sub(peakTime)
		}
	}
	return maxDD, maxDDPct, maxDDDuration
}

func calcMaxConsecutiveLosses(trades []types.Trade) int {
	sorted := append([]types.Trade(nil), trades...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ExitTime.Before(sorted[j].ExitTime)
	})

	maxLossStreak := 0
	currentStreak := 0
	for _, tr := range sorted {
		if tr.NetProfit().IsNegative() {
			currentStreak++
			if currentStreak > maxLossStreak {
				maxLossStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxLossStreak
}

// calcCAGR annualizes the growth from the first to the last curve point using
// 365.25-day years.
func calcCAGR(curve []types.CurvePoint) decimal.Decimal {
	if len(curve) < 2 {
		return decimal.Zero
	}
	start, end := curve[0], curve[len(curve)-1]
	if !start.Value.IsPositive() {
		return decimal.Zero
	}
	duration := end.Timestamp.Sub(start.Timestamp)
	if duration <= 0 {
		return decimal.Zero
	}
	years := duration.Hours() / (24.0 * 365.25)

	ratio := end.Value.Div(start.Value)
	if !ratio.IsPositive() {
		return decimal.Zero
	}
	cagr := math.Pow(ratio.InexactFloat64(), 1.0/years) - 1.0
	// short windows annualize past the float64 range
	if math.IsInf(cagr, 0) || math.IsNaN(cagr) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(cagr)
}

// calcSharpeRatio measures bar-to-bar curve returns against annualRiskFree and
// annualizes by the square root of bars per year. The bar length is the mean
// spacing of the curve.
func calcSharpeRatio(curve []types.CurvePoint, annualRiskFree decimal.Decimal) decimal.Decimal {
	if len(curve) < 3 {
		return decimal.Zero
	}
	span := curve[len(curve)-1].Timestamp.Sub(curve[0].Timestamp)
	if span <= 0 {
		return decimal.Zero
	}
	barsPerYear := (24.0 * 365.25) / (span.Hours() / float64(len(curve)-1))

	// rf_bar = (1 + rf_annual)^(1/barsPerYear) - 1
	rfBar := math.Pow(1.0+annualRiskFree.InexactFloat64(), 1.0/barsPerYear) - 1.0

	excess := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Value
		if !prev.IsPositive() {
			continue
		}
		r := curve[i].Value.InexactFloat64()/prev.InexactFloat64() - 1.0
		excess = append(excess, r-rfBar)
	}
	if len(excess) < 2 {
		return decimal.Zero
	}

	var sum float64
	for _, x := range excess {
		sum += x
	}
	mean := sum / float64(len(excess))

	var varianceSum float64
	for _, x := range excess {
		diff := x - mean
		varianceSum += diff * diff
	}
	std := math.Sqrt(varianceSum / float64(len(excess)-1))
	if std == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(mean / std * math.Sqrt(barsPerYear))
}
