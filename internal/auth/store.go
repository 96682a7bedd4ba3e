// Package auth authenticates pre-provisioned users against the read-only
// users table and hands back the actor identity the rest of the core requires
// on every call.
package auth

import (
	"context"

	"medvault/internal/domain"
)

// UserStore reads user rows. The core never writes them; provisioning happens
// outside its scope.
type UserStore interface {
	// FindByUsername returns the user row and whether one exists.
	FindByUsername(ctx context.Context, username string) (domain.User, bool, error)
}
