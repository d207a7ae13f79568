// Package db creates the connections to the two stores the engine reads
// from: the portal's own PostgreSQL primary store and the logistics vendor's
// read-only MySQL operational store.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPrimary creates the connection pool for the primary store. The engine
// writes only new payout records and audit entries there; franchise
// assignments and tickets are read-only.
func NewPrimary(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse primary config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new primary pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("platform/db: ping primary: %w", err)
	}

	return pool, nil
}
