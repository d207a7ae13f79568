package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// NewOperational opens the read-only connection to the logistics vendor's
// MySQL store. The vendor owns the schema; this engine never writes to it.
func NewOperational(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: open operational: %w", err)
	}

	// Reporting traffic is bursty fan-out; keep the pool small but warm.
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("platform/db: ping operational: %w", err)
	}

	return conn, nil
}
