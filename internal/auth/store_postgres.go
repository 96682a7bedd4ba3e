package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"medvault/internal/domain"
)

// PostgresStore reads user rows from the users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (domain.User, bool, error) {
	query := `
		SELECT user_id, username, role, password_hash
		FROM users
		WHERE username = $1
	`
	var user domain.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.Role, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("find user by username: %w", err)
	}
	return user, true, nil
}
