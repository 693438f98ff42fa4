// Package lambda holds the pieces shared by the Lambda entry point: a pool
// that survives warm invocations and an adapter from API Gateway events to
// net/http handlers.
package lambda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Pool sizing for a single Lambda container. RDS Proxy multiplexes the
// real connections, so each container keeps very few.
const (
	lambdaMaxConns          = 2
	lambdaMinConns          = 1
	lambdaHealthCheckPeriod = 30 * time.Second
	poolPingTimeout         = 5 * time.Second
)

var (
	poolOnce sync.Once
	pool     *pgxpool.Pool
	poolErr  error
)

// GetConnectionPool returns the process-wide pool, creating it on first
// use. Later calls return the first result, including a failed one.
func GetConnectionPool(databaseURL string, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolOnce.Do(func() {
		pool, poolErr = newPool(databaseURL)
		if poolErr == nil && logger != nil {
			logger.Info("Lambda connection pool initialized",
				zap.Int32("max_connections", lambdaMaxConns),
				zap.Int32("min_connections", lambdaMinConns),
			)
		}
	})

	return pool, poolErr
}

func newPool(databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	cfg.MaxConns = lambdaMaxConns
	cfg.MinConns = lambdaMinConns
	cfg.MaxConnIdleTime = 0
	cfg.MaxConnLifetime = 0
	// pgx panics on a zero health check period.
	cfg.HealthCheckPeriod = lambdaHealthCheckPeriod

	p, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), poolPingTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return p, nil
}

// CloseConnectionPool closes the pool and allows the next
// GetConnectionPool call to build a new one. It is not safe to call
// concurrently with GetConnectionPool.
func CloseConnectionPool() {
	if pool != nil {
		pool.Close()
	}
	pool = nil
	poolErr = nil
	poolOnce = sync.Once{}
}
