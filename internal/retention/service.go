// Package retention deletes patient and audit rows past the retention window.
package retention

import (
	"context"
	"log/slog"
	"time"

	"medvault/internal/platform/metrics"
	"medvault/internal/storage"
	"medvault/pkg/requestcontext"
)

// FailureSentinel is returned by PurgeOlderThan when the purge failed and was
// rolled back, out-of-band from the non-negative count domain.
const FailureSentinel = -1

// DefaultRetentionDays is the purge window applied when the caller does not
// choose one.
const DefaultRetentionDays = 365

// RowPurger deletes rows older than a cutoff and reports how many went away.
// Both the patient store and the audit store satisfy it.
type RowPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service purges data past the retention cutoff.
type Service struct {
	patients RowPurger
	logs     RowPurger
	tx       storage.TxRunner
	log      *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(patients, logs RowPurger, tx storage.TxRunner, log *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		patients: patients,
		logs:     logs,
		tx:       tx,
		log:      log,
		metrics:  m,
	}
}

// PurgeOlderThan deletes patient rows with date_added strictly before the
// cutoff, then log rows with a timestamp strictly before it, in one
// transaction. It returns the total rows deleted, or the failure sentinel
// after a rollback; partial deletion is never observable.
func (s *Service) PurgeOlderThan(ctx context.Context, days int) int {
	cutoff := requestcontext.Now(ctx).AddDate(0, 0, -days)

	var total int64
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		deleted, err := s.patients.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return err
		}
		total += deleted

		deleted, err = s.logs.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return err
		}
		total += deleted
		return nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "retention purge rolled back", "days", days, "error", err)
		return FailureSentinel
	}

	s.metrics.RowsPurged.Add(float64(total))
	s.log.InfoContext(ctx, "retention purge complete", "days", days, "rows_deleted", total)
	return int(total)
}
