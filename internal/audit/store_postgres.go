package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"medvault/internal/domain"
	txcontext "medvault/pkg/platform/tx"
)

// PostgresStore persists the audit trail in the logs table. Inserts join a
// transaction travelling in the context, falling back to the bare pool.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Insert(ctx context.Context, entry domain.LogEntry) error {
	query := `
		INSERT INTO logs (user_id, role, action, details, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.UserID,
		entry.Role,
		entry.Action.String(),
		entry.Details,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]domain.LogEntry, error) {
	query := `
		SELECT log_id, user_id, role, action, details, timestamp
		FROM logs
		ORDER BY timestamp DESC, log_id DESC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var (
			entry  domain.LogEntry
			action string
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Role, &action, &entry.Details, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entry.Action = domain.Action(action)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM logs WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old log entries: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted log entries: %w", err)
	}
	return deleted, nil
}
