package auth

import (
	"context"

	"medvault/internal/domain"
	"medvault/internal/storage"
)

// MemoryStore reads user rows from the shared in-memory database.
type MemoryStore struct {
	db *storage.MemoryDB
}

func NewMemoryStore(db *storage.MemoryDB) *MemoryStore {
	return &MemoryStore{db: db}
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (domain.User, bool, error) {
	user, found := s.db.FindUserByUsername(ctx, username)
	return user, found, nil
}
