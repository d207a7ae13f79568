// Package shared holds small cross-module helpers: the audit sink and the
// month/window parsing used by every reporting endpoint.
package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry represents a record stored in audit_logs.
type AuditEntry struct {
	ActorID   int64
	ActorType string
	Action    string
	Entity    string
	EntityID  string
	Details   map[string]any
}

// AuditLogger writes records into audit_logs on the primary store. Recording
// is fire-and-forget: callers invoke Record through RecordAsync or discard
// the error themselves, and a failed write never affects the operation it
// annotates.
type AuditLogger struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool, logger *slog.Logger) *AuditLogger {
	return &AuditLogger{pool: pool, logger: logger}
}

// Record persists the entry.
func (l *AuditLogger) Record(ctx context.Context, e AuditEntry) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	if e.Action == "" || e.Entity == "" {
		return errors.New("audit entry requires action and entity")
	}
	details, err := json.Marshal(e.Details)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, actor_id, actor_type, action, entity, entity_id, details, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.NewString(), e.ActorID, e.ActorType, e.Action, e.Entity, e.EntityID, details, time.Now().UTC())
	return err
}

// RecordAsync records the entry without blocking the caller; failures are
// logged and swallowed.
func (l *AuditLogger) RecordAsync(e AuditEntry) {
	if l == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.Record(ctx, e); err != nil && l.logger != nil {
			l.logger.Warn("audit record", slog.String("action", e.Action), slog.Any("error", err))
		}
	}()
}
