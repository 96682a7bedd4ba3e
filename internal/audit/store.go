// Package audit records every privileged action in an append-only trail.
// Entries written alongside a mutation share the mutation's transaction;
// standalone entries are best-effort and never fail the primary operation.
package audit

import (
	"context"
	"time"

	"medvault/internal/domain"
)

// Store persists log entries. Implementations must honor a transaction
// travelling in the context so inserts can join a caller's scope.
type Store interface {
	Insert(ctx context.Context, entry domain.LogEntry) error
	// List returns all entries, newest timestamp first.
	List(ctx context.Context) ([]domain.LogEntry, error)
	// DeleteOlderThan removes entries with a timestamp strictly before the
	// cutoff and returns the number deleted. Used by the retention purge only.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
