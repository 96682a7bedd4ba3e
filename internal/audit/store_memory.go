package audit

import (
	"context"
	"sort"
	"time"

	"medvault/internal/domain"
	"medvault/internal/storage"
)

// MemoryStore keeps the audit trail in the shared in-memory database.
type MemoryStore struct {
	db *storage.MemoryDB
}

func NewMemoryStore(db *storage.MemoryDB) *MemoryStore {
	return &MemoryStore{db: db}
}

func (s *MemoryStore) Insert(ctx context.Context, entry domain.LogEntry) error {
	s.db.InsertLog(ctx, entry)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]domain.LogEntry, error) {
	entries := s.db.Logs(ctx)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func (s *MemoryStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.db.DeleteLogs(ctx, func(e domain.LogEntry) bool {
		return e.Timestamp.Before(cutoff)
	}), nil
}
