package shared

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printdesk/printdesk/internal/platform/db"
)

// AuditLog represents one recorded state change.
type AuditLog struct {
	Actor    string         `json:"actor"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}

// AuditTrail records and replays audit entries.
type AuditTrail interface {
	Record(ctx context.Context, log AuditLog) error
	List(ctx context.Context, entity, entityID string) ([]AuditLog, error)
}

func validateAudit(log AuditLog) error {
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	return nil
}

// auditDB is the slice of *pgxpool.Pool the audit logger needs.
type auditDB interface {
	db.Beginner
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AuditLogger writes records into the audit_logs table.
type AuditLogger struct {
	pool auditDB
}

// NewAuditLogger returns a Postgres backed AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	if pool == nil {
		return &AuditLogger{}
	}
	return &AuditLogger{pool: pool}
}

var auditSchema = []string{
	`CREATE TABLE IF NOT EXISTS audit_logs (
	id BIGSERIAL PRIMARY KEY,
	actor TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	entity TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	meta JSONB,
	occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS audit_logs_entity_idx ON audit_logs (entity, entity_id, occurred_at)`,
}

// EnsureSchema creates the audit_logs table when missing.
func (l *AuditLogger) EnsureSchema(ctx context.Context) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	return db.WithTx(ctx, l.pool, func(tx pgx.Tx) error {
		for _, stmt := range auditSchema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

// Record persists the log entry in its own transaction.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	if err := validateAudit(log); err != nil {
		return err
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	return db.WithTx(ctx, l.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertAuditSQL, log.Actor, log.Action, log.Entity, log.EntityID, metaJSON, at)
		return err
	})
}

const insertAuditSQL = `INSERT INTO audit_logs (actor, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`

// List returns the entries for one entity, oldest first.
func (l *AuditLogger) List(ctx context.Context, entity, entityID string) ([]AuditLog, error) {
	if l == nil || l.pool == nil {
		return nil, errors.New("audit logger not initialised")
	}
	rows, err := l.pool.Query(ctx, `SELECT actor, action, entity, entity_id, meta, occurred_at FROM audit_logs WHERE entity = $1 AND entity_id = $2 ORDER BY occurred_at, id`, entity, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditLog
	for rows.Next() {
		var entry AuditLog
		var meta []byte
		if err := rows.Scan(&entry.Actor, &entry.Action, &entry.Entity, &entry.EntityID, &meta, &entry.At); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &entry.Meta); err != nil {
				return nil, err
			}
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// MemoryAuditTrail keeps audit entries in process memory.
type MemoryAuditTrail struct {
	mu      sync.RWMutex
	entries []AuditLog
	now     func() time.Time
}

// NewMemoryAuditTrail constructs an empty in-memory trail.
func NewMemoryAuditTrail() *MemoryAuditTrail {
	return &MemoryAuditTrail{now: time.Now}
}

// Record appends the entry.
func (m *MemoryAuditTrail) Record(_ context.Context, log AuditLog) error {
	if err := validateAudit(log); err != nil {
		return err
	}
	if log.At.IsZero() {
		log.At = m.now()
	}
	m.mu.Lock()
	m.entries = append(m.entries, log)
	m.mu.Unlock()
	return nil
}

// List returns the entries for one entity, oldest first.
func (m *MemoryAuditTrail) List(_ context.Context, entity, entityID string) ([]AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]AuditLog, 0)
	for _, e := range m.entries {
		if e.Entity == entity && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}
