//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "crest/pkg/domain"
	audit "crest/pkg/platform/audit"
	"crest/pkg/platform/audit/store/postgres"
	"crest/pkg/testutil/containers"
)

type PostgresAuditSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *postgres.Store
}

func TestPostgresAuditSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuditSuite))
}

func (s *PostgresAuditSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(s.pg.ApplySchema(context.Background(), postgres.Schema))
	s.store = postgres.New(s.pg.DB)
}

func (s *PostgresAuditSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "badge_audit_events"))
}

func (s *PostgresAuditSuite) event(action audit.Action, badgeID id.BadgeID) audit.Event {
	return audit.Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
		Action:    action,
		BadgeID:   badgeID,
		Actor:     "alice",
		Height:    50,
	}
}

func (s *PostgresAuditSuite) TestAppendAndListByBadge() {
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	minted := s.event(audit.ActionBadgeMinted, 1)
	minted.Timestamp = base
	burned := s.event(audit.ActionBadgeBurned, 1)
	burned.Timestamp = base.Add(time.Millisecond)
	other := s.event(audit.ActionBadgeMinted, 2)
	other.Timestamp = base.Add(2 * time.Millisecond)

	for _, e := range []audit.Event{minted, burned, other} {
		s.Require().NoError(s.store.Append(ctx, e))
	}

	events, err := s.store.ListByBadge(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(minted.ID, events[0].ID, "insert order is preserved")
	s.Equal(burned.ID, events[1].ID)
	s.Equal(audit.ActionBadgeMinted, events[0].Action)
	s.Equal(uint64(50), events[0].Height)
}

func (s *PostgresAuditSuite) TestListRecent() {
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 1; i <= 5; i++ {
		e := s.event(audit.ActionBadgeMinted, id.BadgeID(i))
		e.Timestamp = base.Add(time.Duration(i) * time.Millisecond)
		s.Require().NoError(s.store.Append(ctx, e))
	}

	events, err := s.store.ListRecent(ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal(id.BadgeID(5), events[0].BadgeID, "most recent first")
}
