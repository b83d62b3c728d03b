// Package server exposes the backtester over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/helymenezes/bot-trade-coinbase/internal/engine"
	"github.com/helymenezes/bot-trade-coinbase/internal/metrics"
	"github.com/helymenezes/bot-trade-coinbase/types"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type runner interface {
	Run(ctx context.Context, req engine.RunRequest) (*engine.RunResult, error)
	Sweep(ctx context.Context, req engine.SweepRequest) (*engine.SweepResult, error)
	CheckSignal(ctx context.Context, req engine.SignalRequest) (*engine.LiveSignal, error)
}

// Defaults fill in every query parameter a request leaves out.
type Defaults struct {
	ProductId    string
	Granularity  types.Granularity
	DaysBack     int
	Strategy     engine.StrategyConfig
	ShortWindows []int
	LongWindows  []int
}

type Server struct {
	runner   runner
	defaults Defaults
	logger   *zap.Logger
	router   *gin.Engine
}

func New(r runner, defaults Defaults, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{runner: r, defaults: defaults, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	{
		api.GET("/backtest", s.handleBacktest)
		api.GET("/sweep", s.handleSweep)
		api.GET("/signal", s.handleSignal)
	}
	return router
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		began := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(began)),
		)
	}
}
