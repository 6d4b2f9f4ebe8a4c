package ops

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"time"

	"mealbuddy/internal/apperr"
)

// Store persists and reports operational data: the error journal and
// the per-request API log.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store on an existing database connection.
func NewStore(d *sql.DB) *Store {
	return &Store{db: d}
}

// RecordError appends to the error journal. Severity defaults to low.
func (s *Store) RecordError(ctx context.Context, errType, message, severity string) error {
	if errType == "" || message == "" {
		return apperr.Validation("error type and message are required")
	}
	if severity == "" {
		severity = "low"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO error_logs (error_type, error_message, severity, timestamp)
		VALUES (?, ?, ?, ?)`,
		errType, message, severity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record error log: %w", err)
	}
	return nil
}

// ErrorLogs retrieves journal rows newest first.
func (s *Store) ErrorLogs(ctx context.Context, filter ErrorFilter) ([]ErrorLog, error) {
	query := `
		SELECT error_id, error_type, error_message, severity, timestamp, is_resolved
		FROM error_logs
		WHERE 1=1`
	var args []any
	if filter.Resolved != nil {
		query += ` AND is_resolved = ?`
		args = append(args, *filter.Resolved)
	}
	if filter.Severity != "" {
		query += ` AND severity = ?`
		args = append(args, filter.Severity)
	}
	query += ` ORDER BY timestamp DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query error logs: %w", err)
	}
	defer rows.Close()

	var logs []ErrorLog
	for rows.Next() {
		var l ErrorLog
		if err := rows.Scan(&l.ID, &l.Type, &l.Message, &l.Severity, &l.Timestamp, &l.Resolved); err != nil {
			return nil, fmt.Errorf("failed to scan error log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate error logs: %w", err)
	}
	return logs, nil
}

// WriteErrorLogsCSV streams logs as CSV with a header row.
func WriteErrorLogsCSV(w io.Writer, logs []ErrorLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"error_id", "error_type", "error_message", "severity", "timestamp", "is_resolved"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, l := range logs {
		record := []string{
			strconv.FormatInt(l.ID, 10),
			l.Type,
			l.Message,
			l.Severity,
			l.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatBool(l.Resolved),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// ResolveError sets a journal row's resolved flag.
func (s *Store) ResolveError(ctx context.Context, errorID int64, resolved bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE error_logs SET is_resolved = ? WHERE error_id = ?`, resolved, errorID)
	if err != nil {
		return fmt.Errorf("failed to update error log %d: %w", errorID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("error log %d not found", errorID)
	}
	return nil
}

// RecordAPICall persists one request's timing for the performance
// report. Called from middleware after the response is written.
func (s *Store) RecordAPICall(ctx context.Context, call APICall) error {
	ts := call.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_logs (api_service, endpoint, status_code, response_time_ms, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		call.Service, call.Endpoint, call.StatusCode, call.ResponseTime.Milliseconds(), ts)
	if err != nil {
		return fmt.Errorf("failed to record api call: %w", err)
	}
	return nil
}

// ServiceMetrics aggregates the API log per service over one of the
// supported windows, slowest services first. The cutoff is computed here
// and bound as a parameter; the range never reaches the SQL as text.
func (s *Store) ServiceMetrics(ctx context.Context, timeRange TimeRange) ([]ServiceMetric, error) {
	cutoff, ok := timeRange.Cutoff(time.Now().UTC())
	if !ok {
		return nil, apperr.Validation("invalid time range %q, expected 24h, 7d or 30d", timeRange)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT api_service,
		       COUNT(*) AS request_count,
		       AVG(response_time_ms) AS avg_response_time_ms,
		       MIN(response_time_ms) AS min_response_time_ms,
		       MAX(response_time_ms) AS max_response_time_ms,
		       SUM(CASE WHEN status_code >= 400 THEN 1 ELSE 0 END) AS error_count
		FROM api_logs
		WHERE timestamp >= ?
		GROUP BY api_service
		ORDER BY avg_response_time_ms DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate api logs: %w", err)
	}
	defer rows.Close()

	var metrics []ServiceMetric
	for rows.Next() {
		var m ServiceMetric
		if err := rows.Scan(&m.Service, &m.RequestCount, &m.AvgResponseMS,
			&m.MinResponseMS, &m.MaxResponseMS, &m.ErrorCount); err != nil {
			return nil, fmt.Errorf("failed to scan service metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate service metrics: %w", err)
	}
	return metrics, nil
}

// SystemHealth rolls up the dashboard summary. More than 10 unresolved
// errors or 5 failed plans is critical; more than 5 unresolved errors or
// 20 unmatched ingredients is warning; otherwise healthy.
func (s *Store) SystemHealth(ctx context.Context) (*Health, error) {
	h := &Health{Timestamp: time.Now().UTC()}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM error_logs WHERE is_resolved = FALSE`).Scan(&h.UnresolvedErrors)
	if err != nil {
		return nil, fmt.Errorf("failed to count unresolved errors: %w", err)
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ingredients WHERE standardized_name IS NULL OR standardized_name = ''`).
		Scan(&h.UnmatchedIngredients)
	if err != nil {
		return nil, fmt.Errorf("failed to count unmatched ingredients: %w", err)
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meal_plans WHERE status IN ('failed', 'corrupted')`).Scan(&h.FailedMealPlans)
	if err != nil {
		return nil, fmt.Errorf("failed to count failed plans: %w", err)
	}

	switch {
	case h.UnresolvedErrors > 10 || h.FailedMealPlans > 5:
		h.Status = "critical"
	case h.UnresolvedErrors > 5 || h.UnmatchedIngredients > 20:
		h.Status = "warning"
	default:
		h.Status = "healthy"
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	h.Runtime = Runtime{
		AllocMB:    m.Alloc / 1024 / 1024,
		SysMB:      m.Sys / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
	return h, nil
}
