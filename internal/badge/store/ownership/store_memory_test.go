package ownership

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	id "crest/pkg/domain"
	"crest/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *InMemoryStoreSuite) TestCreate() {
	ctx := context.Background()

	s.Run("grants ownership of a fresh id", func() {
		s.NoError(s.store.Create(ctx, 1, "alice"))
		owner, err := s.store.OwnerOf(ctx, 1)
		s.NoError(err)
		s.Equal(id.Principal("alice"), owner)
	})

	s.Run("rejects a second grant for the same id", func() {
		err := s.store.Create(ctx, 1, "bob")
		s.ErrorIs(err, sentinel.ErrConflict)

		owner, err := s.store.OwnerOf(ctx, 1)
		s.NoError(err)
		s.Equal(id.Principal("alice"), owner, "existing owner unchanged")
	})
}

func (s *InMemoryStoreSuite) TestOwnerOf() {
	ctx := context.Background()

	s.Run("unknown id returns not found", func() {
		_, err := s.store.OwnerOf(ctx, 42)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestTransfer() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, 1, "alice"))

	s.Run("moves ownership when from holds the badge", func() {
		s.NoError(s.store.Transfer(ctx, 1, "alice", "bob"))
		owner, err := s.store.OwnerOf(ctx, 1)
		s.NoError(err)
		s.Equal(id.Principal("bob"), owner)
	})

	s.Run("rejects a stale holder", func() {
		err := s.store.Transfer(ctx, 1, "alice", "carol")
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unknown id returns not found", func() {
		err := s.store.Transfer(ctx, 9, "alice", "bob")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestRevoke() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, 1, "alice"))

	s.Run("rejects a non-holder", func() {
		err := s.store.Revoke(ctx, 1, "bob")
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("removes the mapping for the holder", func() {
		s.NoError(s.store.Revoke(ctx, 1, "alice"))
		_, err := s.store.OwnerOf(ctx, 1)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("revoked id stays unowned", func() {
		err := s.store.Revoke(ctx, 1, "alice")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}
