package auth

import (
	"context"
	"fmt"
	"log/slog"

	"medvault/internal/audit"
	"medvault/internal/credentials"
	"medvault/internal/domain"
	"medvault/internal/platform/metrics"
)

// Identity is the authenticated caller handed back to the UI collaborator.
type Identity struct {
	UserID int64
	Role   domain.Role
}

// Service implements login over the read-only user store.
type Service struct {
	users   UserStore
	auditor *audit.Recorder
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewService(users UserStore, auditor *audit.Recorder, log *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{users: users, auditor: auditor, log: log, metrics: m}
}

// Login verifies a username/password pair. Unknown users and bad passwords
// return (nil, nil) and leave no trace in the audit trail; a successful login
// appends exactly one Login entry, best-effort. A user row carrying a role
// outside the closed set fails loudly instead of defaulting.
func (s *Service) Login(ctx context.Context, username, password string) (*Identity, error) {
	user, found, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		s.log.ErrorContext(ctx, "login lookup failed", "error", err)
		s.metrics.LoginFailures.Inc()
		return nil, nil
	}
	if !found {
		s.metrics.LoginFailures.Inc()
		return nil, nil
	}

	if !credentials.Verify(password, user.PasswordHash) {
		s.metrics.LoginFailures.Inc()
		return nil, nil
	}

	role, err := domain.ParseRole(user.Role)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", user.ID, err)
	}

	s.auditor.Record(ctx, audit.Entry(&user.ID, role.String(), domain.ActionLogin, ""))
	return &Identity{UserID: user.ID, Role: role}, nil
}
