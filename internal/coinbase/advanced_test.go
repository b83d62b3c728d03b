package coinbase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/helymenezes/bot-trade-coinbase/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = Credentials{APIKey: "key", APISecret: "secret"}

func TestNewAdvancedLoader_MissingCredentials(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
	}{
		{"missing key", Credentials{APISecret: "secret"}},
		{"missing secret", Credentials{APIKey: "key"}},
		{"both missing", Credentials{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAdvancedLoader(tt.creds, Options{})
			require.ErrorIs(t, err, types.ErrMissingCredential)
		})
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "my-key")
	t.Setenv(EnvAPISecret, "my-secret")
	creds := CredentialsFromEnv()
	require.NoError(t, creds.Validate())
	assert.Equal(t, "my-key", creds.APIKey)
	assert.NotContains(t, creds.String(), "my-secret")
}

func TestAdvancedLoader_LoadCandles(t *testing.T) {
	path := "/api/v3/brokerage/products/ETH-USD/candles"
	ts := strconv.FormatInt(fixedNow.Unix(), 10)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, path, r.URL.Path)
		assert.Equal(t, "ONE_HOUR", r.URL.Query().Get("granularity"))
		assert.Equal(t, strconv.FormatInt(fixedNow.Add(-48*time.Hour).Unix(), 10), r.URL.Query().Get("start"))
		assert.Equal(t, ts, r.URL.Query().Get("end"))
		assert.Equal(t, "key", r.Header.Get("CB-ACCESS-KEY"))
		assert.Equal(t, ts, r.Header.Get("CB-ACCESS-TIMESTAMP"))
		assert.Equal(t, sign("secret", ts, http.MethodGet, path, ""), r.Header.Get("CB-ACCESS-SIGN"))
		_, _ = w.Write([]byte(`{"candles":[
			{"start":"1715335200","low":"3000","high":"3100","open":"3010","close":"3090","volume":"42.1"},
			{"start":"1715331600","low":"2990","high":"3020","open":"3000","close":"3010","volume":"30"},
			{"start":"oops","low":"1","high":"1","open":"1","close":"1","volume":"1"},
			{"start":"1715328000","low":"-1","high":"1","open":"1","close":"1","volume":"1"}
		]}`))
	}))
	t.Cleanup(srv.Close)

	l, err := NewAdvancedLoader(testCreds, Options{BaseURL: srv.URL})
	require.NoError(t, err)
	l.now = func() time.Time { return fixedNow }

	candles, err := l.LoadCandles(context.Background(), "ETH-USD", types.Hour, 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, time.Unix(1715331600, 0).UTC(), candles[0].Timestamp)
	assert.True(t, candles[1].Close.Equal(decimal.NewFromInt(3090)))
	assert.True(t, candles[1].Volume.Equal(decimal.RequireFromString("42.1")))
}

func TestAdvancedLoader_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"UNAUTHORIZED","message":"invalid signature"}`))
	}))
	t.Cleanup(srv.Close)

	l, err := NewAdvancedLoader(testCreds, Options{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = l.LoadCandles(context.Background(), "ETH-USD", types.Hour, 1)
	require.ErrorIs(t, err, types.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "invalid signature")
}

func TestSign(t *testing.T) {
	// echo -n "1700000000GET/path" | openssl dgst -sha256 -hmac secret
	got := sign("secret", "1700000000", "GET", "/path", "")
	assert.Equal(t, "2f8c4568501b77a123b8bc60887696a8c13a06a98fe3ce448c00cbdb5e3e2e33", got)
	assert.NotEqual(t, got, sign("other", "1700000000", "GET", "/path", ""))
}
