package records

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"medvault/internal/domain"
	txcontext "medvault/pkg/platform/tx"
)

// PostgresStore persists patient rows in the patients table. Mutations join a
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
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Insert(ctx context.Context, patient domain.Patient) (int64, error) {
	query := `
		INSERT INTO patients (name, contact, anonymized_name, anonymized_contact, diagnosis, date_added)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING patient_id
	`
	var id int64
	err := s.execer(ctx).QueryRowContext(ctx, query,
		patient.Name,
		patient.Contact,
		patient.AnonymizedName,
		patient.AnonymizedContact,
		patient.Diagnosis,
		patient.DateAdded,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert patient: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]domain.Patient, error) {
	query := `
		SELECT patient_id, name, contact, anonymized_name, anonymized_contact, diagnosis, date_added
		FROM patients
		ORDER BY patient_id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var patients []domain.Patient
	for rows.Next() {
		var p domain.Patient
		err := rows.Scan(&p.ID, &p.Name, &p.Contact, &p.AnonymizedName, &p.AnonymizedContact, &p.Diagnosis, &p.DateAdded)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return patients, nil
}

func (s *PostgresStore) UpdateByPseudonym(ctx context.Context, anonymizedName string, upd FieldUpdate) (int64, error) {
	var (
		sets []string
		args []any
	)
	if upd.Name != nil {
		args = append(args, upd.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if upd.Contact != nil {
		args = append(args, upd.Contact)
		sets = append(sets, fmt.Sprintf("contact = $%d", len(args)))
	}
	if upd.Diagnosis != nil {
		args = append(args, *upd.Diagnosis)
		sets = append(sets, fmt.Sprintf("diagnosis = $%d", len(args)))
	}
	if len(sets) == 0 {
		return 0, fmt.Errorf("no fields to update")
	}
	args = append(args, anonymizedName)

	query := fmt.Sprintf("UPDATE patients SET %s WHERE anonymized_name = $%d",
		strings.Join(sets, ", "), len(args))
	result, err := s.execer(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update patient: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count updated patients: %w", err)
	}
	return affected, nil
}

func (s *PostgresStore) UpdatePseudonyms(ctx context.Context, patientID int64, anonymizedName, anonymizedContact string) error {
	query := `
		UPDATE patients
		SET anonymized_name = $1, anonymized_contact = $2
		WHERE patient_id = $3
	`
	_, err := s.execer(ctx).ExecContext(ctx, query, anonymizedName, anonymizedContact, patientID)
	if err != nil {
		return fmt.Errorf("update pseudonyms of patient %d: %w", patientID, err)
	}
	return nil
}

func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM patients WHERE date_added < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old patients: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted patients: %w", err)
	}
	return deleted, nil
}
