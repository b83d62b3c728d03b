package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCoinbaseStub serves closes newest first in the public candles format.
func newCoinbaseStub(t *testing.T, closes ...int) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rows := make([]string, 0, len(closes))
		for i := len(closes) - 1; i >= 0; i-- {
			c := closes[i]
			rows = append(rows, fmt.Sprintf("[%d, %d, %d, %d, %d, 1]", 1700000000+i*900, c, c, c, c))
		}
		_, _ = w.Write([]byte("[" + strings.Join(rows, ",") + "]"))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	url := newCoinbaseStub(t, 10, 20, 10)
	path := writeConfig(t, fmt.Sprintf("app:\n  log_level: error\ncoinbase:\n  exchange_url: %s\nstrategy:\n  fee_rate: \"0\"\n", url))
	trades := filepath.Join(t.TempDir(), "trades.csv")

	out, err := execute(t, "run", "--config", path, "--short", "1", "--long", "2", "--json=false", "--trades-csv", trades)
	require.NoError(t, err)
	assert.Contains(t, out, "===== Backtest Report =====")
	assert.Contains(t, out, "-50.00")
	assert.FileExists(t, trades)
}

func TestSweepCommandJSON(t *testing.T) {
	url := newCoinbaseStub(t, 10, 12, 15, 14, 11, 9, 12, 16)
	path := writeConfig(t, fmt.Sprintf("app:\n  log_level: error\ncoinbase:\n  exchange_url: %s\nsweep:\n  short_windows: [2, 3]\n  long_windows: [4, 6]\n  workers: 2\n", url))

	out, err := execute(t, "sweep", "--config", path, "--json", "--short", "9", "--long", "21")
	require.NoError(t, err)

	var result struct {
		Bars    int `json:"bars"`
		Entries []struct {
			ShortWindow int    `json:"shortWindow"`
			Err         string `json:"error"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 8, result.Bars)
	assert.Len(t, result.Entries, 4)
}

func TestSignalCommand(t *testing.T) {
	url := newCoinbaseStub(t, 10, 10, 20)
	path := writeConfig(t, fmt.Sprintf("app:\n  log_level: error\ncoinbase:\n  exchange_url: %s\n", url))

	out, err := execute(t, "signal", "--config", path, "--json=false", "--short", "1", "--long", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "BTC-USD BUY at 20.00")
}

func TestAdvancedSourceNeedsCredentials(t *testing.T) {
	t.Setenv("COINBASE_API_KEY", "")
	t.Setenv("COINBASE_API_SECRET", "")
	require.NoError(t, os.Unsetenv("COINBASE_API_KEY"))
	require.NoError(t, os.Unsetenv("COINBASE_API_SECRET"))

	_, err := execute(t, "run", "--config=", "--source", "advanced", "--json=false", "--short", "9", "--long", "21")
	require.ErrorIs(t, err, types.ErrMissingCredential)
}

func TestInvalidFlags(t *testing.T) {
	_, err := execute(t, "run", "--config=", "--source", "public", "--granularity", "2h", "--short", "9", "--long", "21")
	require.ErrorIs(t, err, types.ErrInvalidParameter)
	granularity = "15m"
}

func TestServeCommandStopsOnCancel(t *testing.T) {
	path := writeConfig(t, "app:\n  env: dev\n  log_level: error\n  http_addr: \"127.0.0.1:0\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := executeContext(t, ctx, "serve", "--config", path, "--source", "public")
		done <- err
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
