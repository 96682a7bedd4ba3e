// Package records owns the patient row lifecycle: create, update, role-based
// projection, and the pseudonym columns written by anonymization runs. PII
// columns pass through the field cipher before they reach a store.
package records

import (
	"context"
	"time"

	"medvault/internal/domain"
)

// FieldUpdate carries the column values of a partial patient update. A nil
// field leaves the stored value untouched. Name and Contact arrive already
// encrypted; the store never sees plaintext PII.
type FieldUpdate struct {
	Name      []byte
	Contact   []byte
	Diagnosis *string
}

// Store persists patient rows. Implementations must honor a transaction
// travelling in the context so mutations can share a scope with their audit
// entry.
type Store interface {
	Insert(ctx context.Context, patient domain.Patient) (int64, error)
	// List returns all rows in patient_id order.
	List(ctx context.Context) ([]domain.Patient, error)
	// UpdateByPseudonym applies the non-nil fields of upd to the row whose
	// current anonymized_name equals the given value, returning the number of
	// rows affected.
	UpdateByPseudonym(ctx context.Context, anonymizedName string, upd FieldUpdate) (int64, error)
	// UpdatePseudonyms overwrites both display pseudonyms of one row.
	UpdatePseudonyms(ctx context.Context, patientID int64, anonymizedName, anonymizedContact string) error
	// DeleteOlderThan removes rows with date_added strictly before the cutoff
	// and returns the number deleted. Used by the retention purge only.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
