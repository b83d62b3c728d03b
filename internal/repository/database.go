package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Global error declarations.
var (
	ErrGranularityNotSupported = errors.New("granularity not supported")
	ErrNoCandles               = errors.New("no candles found in datasource")
)

type candlesRepository interface {
	GetCandles(ctx context.Context, arg getCandlesParams) ([]candleRow, error)
}

// Database struct that holds the database connection and queries.
type Database struct {
	candles candlesRepository
	conn    *pgxpool.Pool
	logger  *zap.Logger
	now     func() time.Time
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(ctx context.Context, dbURL string, logger *zap.Logger) (*Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Database{
		candles: newQueries(conn),
		conn:    conn,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}
