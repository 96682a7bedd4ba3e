package records

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"medvault/internal/audit"
	"medvault/internal/crypto"
	"medvault/internal/domain"
	"medvault/internal/platform/metrics"
	"medvault/internal/storage"
	"medvault/pkg/requestcontext"
)

const (
	minNameLen    = 3
	minContactLen = 7
)

// NewPatient is the caller input for AddPatient.
type NewPatient struct {
	Name      string
	Contact   string
	Diagnosis string
}

// PatientUpdate is the caller input for UpdatePatient. An empty field leaves
// the stored value untouched.
type PatientUpdate struct {
	Name      string
	Contact   string
	Diagnosis string
}

// Service implements the record operations over an encrypted patient store.
// Storage and crypto failures are contained here and degraded to the boolean
// return contract; only validation and policy errors surface to the caller.
type Service struct {
	store   Store
	auditor *audit.Recorder
	cipher  *crypto.FieldCipher
	tx      storage.TxRunner
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewService(store Store, auditor *audit.Recorder, cipher *crypto.FieldCipher, tx storage.TxRunner, log *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		auditor: auditor,
		cipher:  cipher,
		tx:      tx,
		log:     log,
		metrics: m,
	}
}

// AddPatient validates, encrypts, and inserts a new patient row together with
// its Add audit entry in one transaction. The pseudonym columns start null;
// they are populated by the first anonymization run.
func (s *Service) AddPatient(ctx context.Context, actor requestcontext.Actor, in NewPatient) (bool, error) {
	if err := in.validate(); err != nil {
		return false, err
	}

	encName, err := s.cipher.Encrypt(in.Name)
	if err != nil {
		s.log.ErrorContext(ctx, "add patient aborted", "error", err)
		return false, nil
	}
	encContact, err := s.cipher.Encrypt(in.Contact)
	if err != nil {
		s.log.ErrorContext(ctx, "add patient aborted", "error", err)
		return false, nil
	}

	now := requestcontext.Now(ctx)
	patient := domain.Patient{
		Name:      encName,
		Contact:   encContact,
		Diagnosis: strings.TrimSpace(in.Diagnosis),
		DateAdded: now,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.Insert(ctx, patient); err != nil {
			return err
		}
		entry := audit.Entry(&actor.UserID, actor.Role.String(), domain.ActionAdd, "")
		entry.Timestamp = now
		return s.auditor.RecordInTx(ctx, entry)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "add patient rolled back", "error", err)
		return false, nil
	}

	s.metrics.PatientsCreated.Inc()
	return true, nil
}

func (in NewPatient) validate() error {
	if len(in.Name) < minNameLen {
		return fmt.Errorf("name must be at least %d characters: %w", minNameLen, domain.ErrValidation)
	}
	if len(in.Contact) < minContactLen {
		return fmt.Errorf("contact must be at least %d characters: %w", minContactLen, domain.ErrValidation)
	}
	if strings.TrimSpace(in.Diagnosis) == "" {
		return fmt.Errorf("diagnosis cannot be empty: %w", domain.ErrValidation)
	}
	return nil
}

// UpdatePatient applies the populated fields of in to the row whose current
// anonymized_name matches. A patient that has never been through an
// anonymization run has a null pseudonym and cannot be targeted here; the
// update then affects no rows but still succeeds, matching the write contract.
func (s *Service) UpdatePatient(ctx context.Context, actor requestcontext.Actor, anonymizedName string, in PatientUpdate) (bool, error) {
	changed := 0
	var upd FieldUpdate

	if in.Name != "" {
		enc, err := s.cipher.Encrypt(in.Name)
		if err != nil {
			s.log.ErrorContext(ctx, "update patient aborted", "error", err)
			return false, nil
		}
		upd.Name = enc
		changed++
	}
	if in.Contact != "" {
		enc, err := s.cipher.Encrypt(in.Contact)
		if err != nil {
			s.log.ErrorContext(ctx, "update patient aborted", "error", err)
			return false, nil
		}
		upd.Contact = enc
		changed++
	}
	if in.Diagnosis != "" {
		diagnosis := in.Diagnosis
		upd.Diagnosis = &diagnosis
		changed++
	}

	if changed == 0 {
		return false, fmt.Errorf("update must change at least one field: %w", domain.ErrValidation)
	}

	now := requestcontext.Now(ctx)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.UpdateByPseudonym(ctx, anonymizedName, upd); err != nil {
			return err
		}
		entry := audit.Entry(&actor.UserID, actor.Role.String(), domain.ActionUpdate,
			fmt.Sprintf("updated %d fields", changed))
		entry.Timestamp = now
		return s.auditor.RecordInTx(ctx, entry)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "update patient rolled back", "error", err)
		return false, nil
	}

	s.metrics.PatientsUpdated.Inc()
	return true, nil
}

// GetPatients returns the role-dependent projection of every patient row.
// The projection contract is fixed: admin sees all columns with PII decrypted;
// doctor and receptionist see pseudonyms, id, diagnosis, and date added; any
// role outside the closed set is a policy violation, never a default view.
func (s *Service) GetPatients(ctx context.Context, role domain.Role) ([]PatientView, error) {
	switch role {
	case domain.RoleAdmin, domain.RoleDoctor, domain.RoleReceptionist:
	default:
		return nil, fmt.Errorf("no projection for role %q: %w", role, domain.ErrPolicy)
	}

	patients, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list patients: %v", domain.ErrStorage, err)
	}

	views := make([]PatientView, 0, len(patients))
	for _, p := range patients {
		view := PatientView{
			PatientID:         p.ID,
			AnonymizedName:    p.AnonymizedName,
			AnonymizedContact: p.AnonymizedContact,
			Diagnosis:         p.Diagnosis,
			DateAdded:         p.DateAdded,
		}
		if role == domain.RoleAdmin {
			name, err := s.cipher.Decrypt(p.Name)
			if err != nil {
				return nil, fmt.Errorf("decrypt name of patient %d: %w", p.ID, err)
			}
			contact, err := s.cipher.Decrypt(p.Contact)
			if err != nil {
				return nil, fmt.Errorf("decrypt contact of patient %d: %w", p.ID, err)
			}
			view.Name = &name
			view.Contact = &contact
		}
		views = append(views, view)
	}
	return views, nil
}

// GetLogs returns the audit trail, newest first. Restricting it to admin
// callers is the transport's job.
func (s *Service) GetLogs(ctx context.Context) ([]domain.LogEntry, error) {
	return s.auditor.List(ctx)
}
