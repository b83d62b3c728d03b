// Package metrics exposes Prometheus collectors for candle loading and backtest runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LoaderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "candle_loader_requests_total", Help: "Candle fetches by source and outcome"},
		[]string{"source", "outcome"},
	)
	LoaderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "candle_loader_request_duration_seconds",
			Help:    "Latency of candle fetches",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
	BacktestRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "backtest_runs_total", Help: "Backtest pipeline runs by outcome"},
		[]string{"product", "outcome"},
	)
	SweepPairsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "backtest_sweep_pairs_total", Help: "Window pairs evaluated by sweeps"},
	)
	SignalsDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "live_signals_total", Help: "Latest-bar signals handed to the signal hook"},
		[]string{"product", "signal"},
	)
)

func init() {
	prometheus.MustRegister(
		LoaderRequestsTotal,
		LoaderRequestDuration,
		BacktestRunsTotal,
		SweepPairsTotal,
		SignalsDetectedTotal,
	)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Outcome labels a request result for the counters above.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
