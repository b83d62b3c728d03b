package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBacktestRunsCounter(t *testing.T) {
	before := testutil.ToFloat64(BacktestRunsTotal.WithLabelValues("BTC-USD", "ok"))
	BacktestRunsTotal.WithLabelValues("BTC-USD", Outcome(nil)).Inc()
	after := testutil.ToFloat64(BacktestRunsTotal.WithLabelValues("BTC-USD", "ok"))
	if after != before+1 {
		t.Fatalf("expected counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestOutcome(t *testing.T) {
	if Outcome(errors.New("boom")) != "error" {
		t.Fatal("expected error outcome")
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	SweepPairsTotal.Inc()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "backtest_sweep_pairs_total") {
		t.Fatal("sweep counter missing from metrics output")
	}
}
