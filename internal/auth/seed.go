package auth

import (
	"context"
	"fmt"

	"medvault/internal/credentials"
	"medvault/internal/domain"
	"medvault/internal/storage"
)

// SeedUser describes an account to provision into the in-memory database for
// local development and tests. Production accounts are provisioned outside
// the core.
type SeedUser struct {
	Username string
	Password string
	Role     domain.Role
}

// SeedMemory hashes each password and inserts the accounts.
func SeedMemory(ctx context.Context, db *storage.MemoryDB, users []SeedUser) error {
	for _, u := range users {
		hash, err := credentials.Hash(u.Password)
		if err != nil {
			return fmt.Errorf("seed user %q: %w", u.Username, err)
		}
		db.InsertUser(ctx, domain.User{
			Username:     u.Username,
			Role:         u.Role.String(),
			PasswordHash: hash,
		})
	}
	return nil
}
