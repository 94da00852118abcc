// Package sqlite provides the SQLite-backed consultation history.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eomgitae/care-console/internal/history"
	"github.com/eomgitae/care-console/internal/history/sqlite/migrations"
	"github.com/eomgitae/care-console/internal/models"
	_ "modernc.org/sqlite"
)

// Store persists consultations in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ history.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

// Open opens the history database at path, creating parent directories,
// and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	dsn := "file:" + cleanPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveConsultation inserts the consultation and its fact checks in one
// transaction and returns the assigned number.
func (s *Store) SaveConsultation(ctx context.Context, c history.Consultation) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := history.Validate(c); err != nil {
		return 0, fmt.Errorf("save consultation: %w", err)
	}

	customerJSON, err := json.Marshal(c.Customer)
	if err != nil {
		return 0, fmt.Errorf("encode customer: %w", err)
	}
	transcript, err := json.Marshal(nonNil(c.Messages))
	if err != nil {
		return 0, fmt.Errorf("encode transcript: %w", err)
	}
	b := models.ComputeBreakdown(c.Outcome().Feedback)

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO consultations (
		   session_id, script_name,
		   agent_id, agent_name, agent_branch,
		   customer_name, customer_phone, customer_json,
		   transcript,
		   high_count, medium_count, low_count, total_count,
		   started_at, ended_at, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.SessionID, c.ScriptName,
		c.Agent.ID, c.Agent.Name, c.Agent.Branch,
		c.Customer.Name, c.Customer.Phone, string(customerJSON),
		string(transcript),
		b.High, b.Medium, b.Low, b.Total,
		toMillis(c.StartedAt), toMillis(c.EndedAt), toMillis(s.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("insert consultation: %w", err)
	}
	no, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("consultation id: %w", err)
	}

	for _, fc := range c.FactChecks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fact_checks (
			   consultation_no, feedback_id, message_id, severity, category,
			   detected_statement, description, suggestion, regulation, created_at
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			no, fc.FeedbackID, fc.MessageID, labelOf(fc.Severity), fc.Category,
			fc.DetectedStatement, fc.Description, fc.Suggestion, fc.Regulation, toMillis(fc.CreatedAt),
		); err != nil {
			return 0, fmt.Errorf("insert fact check: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save: %w", err)
	}
	return no, nil
}

const consultationColumns = `no, session_id, script_name, agent_id, agent_name, agent_branch,
	customer_json, transcript, high_count, medium_count, low_count, total_count,
	started_at, ended_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConsultation(row rowScanner, withTranscript bool) (history.Consultation, error) {
	var (
		c                             history.Consultation
		customerJSON, transcript      string
		startedAt, endedAt, createdAt int64
	)
	if err := row.Scan(
		&c.No, &c.SessionID, &c.ScriptName, &c.Agent.ID, &c.Agent.Name, &c.Agent.Branch,
		&customerJSON, &transcript,
		&c.Breakdown.High, &c.Breakdown.Medium, &c.Breakdown.Low, &c.Breakdown.Total,
		&startedAt, &endedAt, &createdAt,
	); err != nil {
		return history.Consultation{}, err
	}
	if err := json.Unmarshal([]byte(customerJSON), &c.Customer); err != nil {
		return history.Consultation{}, fmt.Errorf("decode customer: %w", err)
	}
	if withTranscript {
		if err := json.Unmarshal([]byte(transcript), &c.Messages); err != nil {
			return history.Consultation{}, fmt.Errorf("decode transcript: %w", err)
		}
	}
	c.StartedAt = fromMillis(startedAt)
	c.EndedAt = fromMillis(endedAt)
	c.CreatedAt = fromMillis(createdAt)
	return c, nil
}

// GetConsultation returns one consultation with its transcript and fact
// checks.
func (s *Store) GetConsultation(ctx context.Context, no int64) (history.Consultation, error) {
	if err := ctx.Err(); err != nil {
		return history.Consultation{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+consultationColumns+` FROM consultations WHERE no = ?`, no)
	c, err := scanConsultation(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Consultation{}, fmt.Errorf("consultation %d: %w", no, history.ErrNotFound)
	}
	if err != nil {
		return history.Consultation{}, fmt.Errorf("get consultation %d: %w", no, err)
	}
	checks, err := s.factChecks(ctx, no)
	if err != nil {
		return history.Consultation{}, err
	}
	c.FactChecks = checks
	return c, nil
}

// ListConsultations returns consultation summaries, newest first.
func (s *Store) ListConsultations(ctx context.Context, f history.Filter) ([]history.Consultation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := `SELECT ` + consultationColumns + ` FROM consultations`
	var args []any
	if name := strings.TrimSpace(f.CustomerName); name != "" {
		query += ` WHERE instr(customer_name, ?) > 0`
		args = append(args, name)
	}
	query += ` ORDER BY no DESC`
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, max(f.Offset, 0))

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []history.Consultation
	for rows.Next() {
		c, err := scanConsultation(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan consultation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	return out, nil
}

// ListFactChecks returns the findings of one consultation in creation
// order. A consultation without findings yields an empty list.
func (s *Store) ListFactChecks(ctx context.Context, consultationNo int64) ([]history.FactCheck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var exists int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM consultations WHERE no = ?`, consultationNo).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("consultation %d: %w", consultationNo, history.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get consultation %d: %w", consultationNo, err)
	}
	return s.factChecks(ctx, consultationNo)
}

func (s *Store) factChecks(ctx context.Context, no int64) ([]history.FactCheck, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, consultation_no, feedback_id, message_id, severity, category,
		        detected_statement, description, suggestion, regulation, created_at
		   FROM fact_checks WHERE consultation_no = ? ORDER BY id`, no)
	if err != nil {
		return nil, fmt.Errorf("list fact checks: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []history.FactCheck
	for rows.Next() {
		var (
			fc        history.FactCheck
			createdAt int64
		)
		if err := rows.Scan(&fc.ID, &fc.ConsultationNo, &fc.FeedbackID, &fc.MessageID, &fc.Severity, &fc.Category,
			&fc.DetectedStatement, &fc.Description, &fc.Suggestion, &fc.Regulation, &createdAt); err != nil {
			return nil, fmt.Errorf("scan fact check: %w", err)
		}
		fc.CreatedAt = fromMillis(createdAt)
		out = append(out, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fact checks: %w", err)
	}
	return out, nil
}

// DeleteConsultation removes a consultation and its fact checks.
func (s *Store) DeleteConsultation(ctx context.Context, no int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM fact_checks WHERE consultation_no = ?`, no); err != nil {
		return fmt.Errorf("delete fact checks: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM consultations WHERE no = ?`, no)
	if err != nil {
		return fmt.Errorf("delete consultation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete consultation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("consultation %d: %w", no, history.ErrNotFound)
	}
	return tx.Commit()
}

// labelOf stores severities by their display label.
func labelOf(severity string) string {
	sev, err := models.ParseSeverity(severity)
	if err != nil {
		return severity
	}
	return sev.Label()
}

func nonNil(msgs []models.Message) []models.Message {
	if msgs == nil {
		return []models.Message{}
	}
	return msgs
}
