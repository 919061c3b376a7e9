package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres
	"github.com/xela07ax/superai/internal/audit"
	"github.com/xela07ax/superai/internal/domain"
)

// Schema: таблица журнала. Применяется через EnsureSchema при старте.
const Schema = `
CREATE TABLE IF NOT EXISTS proxy_audit_logs (
	id          UUID PRIMARY KEY,
	trace_id    TEXT NOT NULL,
	component   TEXT NOT NULL,
	operation   TEXT NOT NULL,
	agent_id    TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	error_kind  TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	duration_ms BIGINT NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS proxy_audit_logs_ts_idx ON proxy_audit_logs (timestamp);`

// Количество колонок в таблице proxy_audit_logs
const auditFields = 10

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(connString string, maxConns int) (*AuditRepo, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	return NewAuditRepoFromDB(db), nil
}

// NewAuditRepoFromDB позволяет подставить готовый *sql.DB (тесты, общий пул).
func NewAuditRepoFromDB(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Ping проверяет доступность базы при старте
func (r *AuditRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *AuditRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

func (r *AuditRepo) Close() error {
	return r.db.Close()
}

// Postgres принимает не больше 65535 параметров в одном запросе
const maxBatchRows = 65535 / auditFields

// WriteBatch вставляет пачку событий, по maxBatchRows строк на запрос.
func (r *AuditRepo) WriteBatch(ctx context.Context, events []audit.Event) error {
	for len(events) > 0 {
		n := min(len(events), maxBatchRows)

		query, vals := buildInsert(events[:n])
		if _, err := r.db.ExecContext(ctx, query, vals...); err != nil {
			return fmt.Errorf("postgres: write audit batch: %w", err)
		}
		events = events[n:]
	}
	return nil
}

// buildInsert динамически строит запрос для пакетной вставки
func buildInsert(events []audit.Event) (string, []interface{}) {
	var placeholders strings.Builder
	vals := make([]interface{}, 0, len(events)*auditFields)

	for i, e := range events {
		if i > 0 {
			placeholders.WriteString(",")
		}
		p := i * auditFields
		fmt.Fprintf(&placeholders, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8, p+9, p+10)

		vals = append(vals,
			e.ID, e.TraceID, e.Component, e.Operation, e.AgentID,
			e.Status, e.ErrorKind, e.Error, e.DurationMs, e.Timestamp,
		)
	}

	query := "INSERT INTO proxy_audit_logs (id, trace_id, component, operation, agent_id, status, error_kind, error, duration_ms, timestamp) VALUES " +
		placeholders.String()
	return query, vals
}

// GetActivityStats собирает сводку по журналу за последние 60 минут.
func (r *AuditRepo) GetActivityStats(ctx context.Context) (*domain.ActivityStats, error) {
	s := &domain.ActivityStats{
		ByOperation:    map[string]int64{},
		ErrorsByKind:   map[string]int64{},
		HourlyActivity: []domain.ActivityPoint{},
	}

	// 1. Итоги и P95 (PERCENTILE_CONT для честного перцентиля)
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'FAILED'),
			COALESCE(PERCENTILE_CONT(0.95) WITHIN GROUP (ORDER BY duration_ms), 0)
		FROM proxy_audit_logs
		WHERE timestamp > NOW() - INTERVAL '60 minutes'`).Scan(
		&s.TotalRequests,
		&s.FailedRequests,
		&s.P95LatencyMs,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: totals: %w", err)
	}
	if s.TotalRequests > 0 {
		s.FailureRatio = float64(s.FailedRequests) / float64(s.TotalRequests)
	}

	// 2. Разбивка по операциям
	if err := r.scanCounts(ctx, s.ByOperation, `
		SELECT component || ':' || operation, COUNT(*)
		FROM proxy_audit_logs
		WHERE timestamp > NOW() - INTERVAL '60 minutes'
		GROUP BY 1`); err != nil {
		return nil, fmt.Errorf("postgres: by operation: %w", err)
	}

	// 3. Отказы по видам
	if err := r.scanCounts(ctx, s.ErrorsByKind, `
		SELECT error_kind, COUNT(*)
		FROM proxy_audit_logs
		WHERE timestamp > NOW() - INTERVAL '60 minutes' AND status = 'FAILED'
		GROUP BY 1`); err != nil {
		return nil, fmt.Errorf("postgres: errors by kind: %w", err)
	}

	// 4. Активность по 5-минутным окнам
	rows, err := r.db.QueryContext(ctx, `
		SELECT to_timestamp(floor(extract(epoch FROM timestamp) / 300) * 300) AS bucket, COUNT(*)
		FROM proxy_audit_logs
		WHERE timestamp > NOW() - INTERVAL '60 minutes'
		GROUP BY bucket
		ORDER BY bucket`)
	if err != nil {
		return nil, fmt.Errorf("postgres: activity: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bucket time.Time
			count  int64
		)
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, fmt.Errorf("postgres: activity scan: %w", err)
		}
		s.HourlyActivity = append(s.HourlyActivity, domain.ActivityPoint{
			Bucket: bucket.UTC().Format(time.RFC3339),
			Count:  count,
		})
	}
	return s, rows.Err()
}

func (r *AuditRepo) scanCounts(ctx context.Context, dst map[string]int64, query string) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int64
		)
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dst[key] = count
	}
	return rows.Err()
}

const (
	defaultFetchLimit = 100
	maxFetchLimit     = 1000
)

// FetchLogs возвращает последние события журнала, новые первыми.
// Пустой фильтр не ограничивает выборку; limit сверх maxFetchLimit урезается до него.
func (r *AuditRepo) FetchLogs(ctx context.Context, agentID, operation string, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = defaultFetchLimit
	}
	limit = min(limit, maxFetchLimit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, trace_id, component, operation, agent_id, status, error_kind, error, duration_ms, timestamp
		FROM proxy_audit_logs
		WHERE ($1 = '' OR agent_id = $1) AND ($2 = '' OR operation = $2)
		ORDER BY timestamp DESC
		LIMIT $3`, agentID, operation, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch logs: %w", err)
	}
	defer rows.Close()

	logs := make([]audit.Event, 0, limit)
	for rows.Next() {
		var e audit.Event
		if err := rows.Scan(
			&e.ID, &e.TraceID, &e.Component, &e.Operation, &e.AgentID,
			&e.Status, &e.ErrorKind, &e.Error, &e.DurationMs, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("postgres: fetch logs scan: %w", err)
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}
