package audit

import (
	"context"
	"fmt"
	"log/slog"

	"medvault/internal/domain"
	"medvault/pkg/requestcontext"
)

// Recorder is the write side of the audit trail.
type Recorder struct {
	store Store
	log   *slog.Logger
}

func NewRecorder(store Store, log *slog.Logger) *Recorder {
	return &Recorder{store: store, log: log}
}

// Record appends an entry in the store's own scope, best-effort: a storage
// failure is rolled back by the store, reported to the log, and swallowed so
// it can never fail the caller's primary operation.
func (r *Recorder) Record(ctx context.Context, entry domain.LogEntry) {
	if err := r.store.Insert(ctx, r.stamp(ctx, entry)); err != nil {
		r.log.WarnContext(ctx, "audit entry dropped",
			"action", entry.Action.String(),
			"role", entry.Role,
			"error", err,
		)
	}
}

// RecordInTx appends an entry inside the caller's open transaction scope.
// The insert is atomic with the triggering mutation: a failure propagates so
// the caller rolls back both.
func (r *Recorder) RecordInTx(ctx context.Context, entry domain.LogEntry) error {
	if err := r.store.Insert(ctx, r.stamp(ctx, entry)); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// List returns the full trail, newest first. Role gating is the transport's
// responsibility.
func (r *Recorder) List(ctx context.Context) ([]domain.LogEntry, error) {
	entries, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list audit entries: %v", domain.ErrStorage, err)
	}
	return entries, nil
}

// stamp fixes the entry timestamp once per invocation from the request-scoped
// clock; it is never re-read mid-operation.
func (r *Recorder) stamp(ctx context.Context, entry domain.LogEntry) domain.LogEntry {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	return entry
}

// Entry builds a log entry for an acting user. A nil userID marks a
// system-triggered event without an actor.
func Entry(userID *int64, role string, action domain.Action, details string) domain.LogEntry {
	e := domain.LogEntry{UserID: userID, Role: role, Action: action}
	if details != "" {
		e.Details = &details
	}
	return e
}
