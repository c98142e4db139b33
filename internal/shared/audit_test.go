package shared

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedExec struct {
	sql  string
	args []any
}

type auditTx struct {
	pgx.Tx
	execs      []recordedExec
	execErr    error
	committed  bool
	rolledBack bool
}

func (tx *auditTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx.execs = append(tx.execs, recordedExec{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), tx.execErr
}

func (tx *auditTx) Commit(context.Context) error {
	tx.committed = true
	return nil
}

func (tx *auditTx) Rollback(context.Context) error {
	if tx.committed {
		return pgx.ErrTxClosed
	}
	tx.rolledBack = true
	return nil
}

type auditPool struct {
	tx   *auditTx
	opts pgx.TxOptions
}

func (p *auditPool) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	p.opts = opts
	return p.tx, nil
}

func (p *auditPool) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func TestAuditLoggerRecordsInTransaction(t *testing.T) {
	pool := &auditPool{tx: &auditTx{}}
	logger := &AuditLogger{pool: pool}
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	err := logger.Record(context.Background(), AuditLog{
		Actor: "u-print", Action: "phase.end", Entity: "job", EntityID: "job-1",
		Meta: map[string]any{"phase": "PRINT"}, At: at,
	})
	require.NoError(t, err)
	assert.Equal(t, pgx.ReadCommitted, pool.opts.IsoLevel)
	assert.True(t, pool.tx.committed)
	require.Len(t, pool.tx.execs, 1)

	exec := pool.tx.execs[0]
	assert.Contains(t, exec.sql, "INSERT INTO audit_logs")
	require.Len(t, exec.args, 6)
	assert.Equal(t, "phase.end", exec.args[1])
	assert.JSONEq(t, `{"phase":"PRINT"}`, string(exec.args[4].([]byte)))
	assert.Equal(t, &at, exec.args[5])
}

func TestAuditLoggerRollsBackFailedInsert(t *testing.T) {
	pool := &auditPool{tx: &auditTx{execErr: errors.New("disk full")}}
	logger := &AuditLogger{pool: pool}

	err := logger.Record(context.Background(), AuditLog{Action: "job.create", Entity: "job", EntityID: "job-1"})
	require.Error(t, err)
	assert.True(t, pool.tx.rolledBack)
	assert.False(t, pool.tx.committed)

	assert.Error(t, logger.Record(context.Background(), AuditLog{Action: "job.create"}))
	assert.Error(t, NewAuditLogger(nil).Record(context.Background(), AuditLog{Action: "a", Entity: "b", EntityID: "c"}))
}

func TestMemoryAuditTrail(t *testing.T) {
	trail := NewMemoryAuditTrail()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, trail.Record(ctx, AuditLog{Actor: "u-1", Action: "order.update", Entity: "order", EntityID: "o-1", At: base.Add(time.Minute)}))
	require.NoError(t, trail.Record(ctx, AuditLog{Actor: "u-1", Action: "order.create", Entity: "order", EntityID: "o-1", At: base}))
	require.NoError(t, trail.Record(ctx, AuditLog{Actor: "u-2", Action: "job.create", Entity: "job", EntityID: "o-1", At: base}))

	entries, err := trail.List(ctx, "order", "o-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "order.create", entries[0].Action)
	assert.Equal(t, "order.update", entries[1].Action)

	assert.Error(t, trail.Record(ctx, AuditLog{Action: "x", Entity: "order"}))

	empty, err := trail.List(ctx, "order", "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestValidateStructFieldErrors(t *testing.T) {
	type line struct {
		Quantity int `json:"quantity" validate:"gt=0"`
	}
	type form struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"omitempty,email"`
		Lines []line `json:"lines" validate:"dive"`
	}

	err := ValidateStruct(form{Email: "nope", Lines: []line{{Quantity: 1}, {Quantity: 0}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, FieldErrors{
		"name":              "is required",
		"email":             "must be a valid email",
		"lines[1].quantity": "must be greater than 0",
	}, fields)

	assert.NoError(t, ValidateStruct(form{Name: "ok"}))
}

func TestPaginationBounds(t *testing.T) {
	p := NewPagination(2, 10, 25)
	assert.Equal(t, 3, p.TotalPages)
	start, end := p.Bounds()
	assert.Equal(t, 10, start)
	assert.Equal(t, 20, end)

	start, end = NewPagination(4, 10, 25).Bounds()
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)

	d := NewPagination(0, 0, 5)
	assert.Equal(t, 1, d.Page)
	assert.Equal(t, 20, d.PerPage)
}
