package anonymize

import (
	"context"
	"fmt"
	"log/slog"

	"medvault/internal/audit"
	"medvault/internal/crypto"
	"medvault/internal/domain"
	"medvault/internal/platform/metrics"
	"medvault/internal/records"
	"medvault/internal/storage"
	"medvault/pkg/requestcontext"
)

// Service runs full anonymization passes over the patient table.
type Service struct {
	store   records.Store
	auditor *audit.Recorder
	cipher  *crypto.FieldCipher
	tx      storage.TxRunner
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewService(store records.Store, auditor *audit.Recorder, cipher *crypto.FieldCipher, tx storage.TxRunner, log *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		auditor: auditor,
		cipher:  cipher,
		tx:      tx,
		log:     log,
		metrics: m,
	}
}

// Run overwrites the pseudonym pair of every patient row, including rows
// anonymized by earlier runs, and writes one Anonymize audit entry, all in a
// single transaction. Any failure rolls the whole run back; no row keeps a
// half-applied pseudonym pair.
func (s *Service) Run(ctx context.Context, actorID int64) (bool, error) {
	multiplier, err := drawMultiplier()
	if err != nil {
		s.log.ErrorContext(ctx, "anonymization aborted", "error", err)
		return false, nil
	}

	now := requestcontext.Now(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		patients, err := s.store.List(ctx)
		if err != nil {
			return err
		}
		for _, p := range patients {
			contact, err := s.cipher.Decrypt(p.Contact)
			if err != nil {
				return fmt.Errorf("patient %d: %w", p.ID, err)
			}
			err = s.store.UpdatePseudonyms(ctx, p.ID, MaskName(p.ID, multiplier), MaskContact(contact))
			if err != nil {
				return err
			}
		}
		entry := audit.Entry(&actorID, domain.RoleAdmin.String(), domain.ActionAnonymize, "")
		entry.Timestamp = now
		return s.auditor.RecordInTx(ctx, entry)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "anonymization rolled back", "error", err)
		return false, nil
	}

	s.metrics.AnonymizationRuns.Inc()
	return true, nil
}
