// Package coinbase loads historical candles from the Coinbase public Exchange
// API and the authenticated Advanced Trade API.
package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/helymenezes/bot-trade-coinbase/internal/metrics"
	"github.com/helymenezes/bot-trade-coinbase/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultExchangeURL = "https://api.exchange.coinbase.com"
	DefaultAdvancedURL = "https://api.coinbase.com"
	userAgent          = "Coinbase Bot"
)

// Options configures the HTTP side shared by both loaders.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Limiter is shared between loaders so that they draw from one request budget.
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

// NewLimiter returns a token bucket allowing rps requests per second with the given burst.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

type client struct {
	source  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func newClient(source, defaultURL string, opts Options) *client {
	base := opts.BaseURL
	if base == "" {
		base = defaultURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewLimiter(0, 0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &client{
		source:  source,
		baseURL: base,
		limiter: limiter,
		logger:  logger.With(zap.String("source", source)),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 15 * time.Second}).DialContext,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

func (c *client) buildURL(path string, params url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.baseURL, types.ErrInvalidParameter)
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}

type apiError struct {
	Message string `json:"message"`
}

// fetchJSON waits for the limiter, performs req and decodes a 200 body into target.
// Every failure is reported as ErrUpstreamUnavailable; nothing is retried.
func (c *client) fetchJSON(ctx context.Context, req *http.Request, target any) (err error) {
	began := time.Now()
	defer func() {
		metrics.LoaderRequestDuration.WithLabelValues(c.source).Observe(time.Since(began).Seconds())
		metrics.LoaderRequestsTotal.WithLabelValues(c.source, metrics.Outcome(err)).Inc()
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w: %w", types.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("http %s failed: %w: %w", req.Method, types.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		message := "unknown error"
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			message = apiErr.Message
		}
		c.logger.Warn("candle request rejected", zap.Int("status", resp.StatusCode), zap.String("message", message))
		return fmt.Errorf("coinbase status %d: %s: %w", resp.StatusCode, message, types.ErrUpstreamUnavailable)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("decode candles: %w: %w", types.ErrUpstreamUnavailable, err)
	}
	return nil
}

// window returns the [start, end] range covering the last daysBack days.
func window(now time.Time, daysBack int) (time.Time, time.Time) {
	end := now.UTC()
	return end.Add(-time.Duration(daysBack) * 24 * time.Hour), end
}

func validateMarket(productId string, granularity types.Granularity, daysBack int) error {
	if productId == "" {
		return fmt.Errorf("product id required: %w", types.ErrInvalidParameter)
	}
	if granularity.Seconds() == 0 {
		return fmt.Errorf("granularity %q: %w", granularity, types.ErrInvalidParameter)
	}
	if daysBack <= 0 {
		return fmt.Errorf("days back %d must be positive: %w", daysBack, types.ErrInvalidParameter)
	}
	return nil
}
