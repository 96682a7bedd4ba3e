//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"medvault/internal/audit"
	"medvault/internal/domain"
	"medvault/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *audit.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = audit.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "logs")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestInsertAndListNewestFirst() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)
	userID := int64(7)
	details := "updated 2 fields"

	entries := []domain.LogEntry{
		{UserID: &userID, Role: "admin", Action: domain.ActionLogin, Timestamp: base},
		{UserID: &userID, Role: "admin", Action: domain.ActionAdd, Timestamp: base.Add(time.Minute)},
		{Role: "doctor", Action: domain.ActionUpdate, Details: &details, Timestamp: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		s.Require().NoError(s.store.Insert(ctx, e))
	}

	listed, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 3)

	s.Equal(domain.ActionUpdate, listed[0].Action)
	s.Require().NotNil(listed[0].Details)
	s.Equal(details, *listed[0].Details)
	s.Nil(listed[0].UserID)

	s.Equal(domain.ActionAdd, listed[1].Action)
	s.Equal(domain.ActionLogin, listed[2].Action)
	s.Require().NotNil(listed[2].UserID)
	s.Equal(userID, *listed[2].UserID)
}

func (s *PostgresStoreSuite) TestListBreaksTimestampTiesByID() {
	ctx := context.Background()
	at := time.Now().UTC().Truncate(time.Microsecond)

	for _, action := range []domain.Action{domain.ActionAdd, domain.ActionUpdate, domain.ActionAnonymize} {
		s.Require().NoError(s.store.Insert(ctx, domain.LogEntry{
			Role:      "admin",
			Action:    action,
			Timestamp: at,
		}))
	}

	listed, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 3)
	s.Equal(domain.ActionAnonymize, listed[0].Action, "later inserts win timestamp ties")
	s.Equal(domain.ActionAdd, listed[2].Action)
}

func (s *PostgresStoreSuite) TestDeleteOlderThanIsStrict() {
	ctx := context.Background()
	cutoff := time.Now().UTC().Truncate(time.Microsecond)

	for _, offset := range []time.Duration{-time.Hour, -time.Minute, 0, time.Hour} {
		s.Require().NoError(s.store.Insert(ctx, domain.LogEntry{
			Role:      "admin",
			Action:    domain.ActionAdd,
			Timestamp: cutoff.Add(offset),
		}))
	}

	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	s.Require().NoError(err)
	s.Equal(int64(2), deleted)

	remaining, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(remaining, 2)
}
