package records

import (
	"context"
	"time"

	"medvault/internal/domain"
	"medvault/internal/storage"
)

// MemoryStore keeps patient rows in the shared in-memory database.
type MemoryStore struct {
	db *storage.MemoryDB
}

func NewMemoryStore(db *storage.MemoryDB) *MemoryStore {
	return &MemoryStore{db: db}
}

func (s *MemoryStore) Insert(ctx context.Context, patient domain.Patient) (int64, error) {
	return s.db.InsertPatient(ctx, patient), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]domain.Patient, error) {
	return s.db.Patients(ctx), nil
}

func (s *MemoryStore) UpdateByPseudonym(ctx context.Context, anonymizedName string, upd FieldUpdate) (int64, error) {
	var affected int64
	err := s.db.MutatePatients(ctx, func(p *domain.Patient) error {
		if p.AnonymizedName == nil || *p.AnonymizedName != anonymizedName {
			return nil
		}
		if upd.Name != nil {
			p.Name = append([]byte(nil), upd.Name...)
		}
		if upd.Contact != nil {
			p.Contact = append([]byte(nil), upd.Contact...)
		}
		if upd.Diagnosis != nil {
			p.Diagnosis = *upd.Diagnosis
		}
		affected++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (s *MemoryStore) UpdatePseudonyms(ctx context.Context, patientID int64, anonymizedName, anonymizedContact string) error {
	return s.db.MutatePatients(ctx, func(p *domain.Patient) error {
		if p.ID != patientID {
			return nil
		}
		name, contact := anonymizedName, anonymizedContact
		p.AnonymizedName = &name
		p.AnonymizedContact = &contact
		return nil
	})
}

func (s *MemoryStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.db.DeletePatients(ctx, func(p domain.Patient) bool {
		return p.DateAdded.Before(cutoff)
	}), nil
}
