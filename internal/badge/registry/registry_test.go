package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"crest/internal/badge/models"
	"crest/internal/badge/store/lifecycle"
	"crest/internal/badge/store/ownership"
	"crest/internal/chain"
	id "crest/pkg/domain"
)

const (
	alice = id.Principal("alice")
	bob   = id.Principal("bob")
)

type RegistrySuite struct {
	suite.Suite
	owners    *ownership.InMemoryStore
	lifecycle *lifecycle.InMemoryStore
	clock     *chain.ManualClock
	registry  *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.owners = ownership.NewInMemory()
	s.lifecycle = lifecycle.NewInMemory()
	s.clock = chain.NewManual(50)

	var err error
	s.registry, err = New(context.Background(), s.owners, s.lifecycle, s.clock)
	s.Require().NoError(err)
}

func (s *RegistrySuite) TestNew() {
	ctx := context.Background()

	s.Run("nil stores are rejected", func() {
		_, err := New(ctx, nil, s.lifecycle, s.clock)
		s.Error(err)
		_, err = New(ctx, s.owners, nil, s.clock)
		s.Error(err)
		_, err = New(ctx, s.owners, s.lifecycle, nil)
		s.Error(err)
	})

	s.Run("durable state is loaded on construction", func() {
		_, err := s.registry.Mint(ctx, alice, "ipfs://a")
		s.Require().NoError(err)

		reopened, err := New(ctx, s.owners, s.lifecycle, s.clock)
		s.Require().NoError(err)
		s.Equal(id.BadgeID(1), reopened.LastID())
		s.Equal(uint64(1), reopened.Stats().TotalMints)
	})
}

// Ids are assigned sequentially from 1 and lastID tracks every issue.
func (s *RegistrySuite) TestMint_IDMonotonicity() {
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		before := s.registry.LastID()
		minted, err := s.registry.Mint(ctx, alice, "ipfs://badge")
		s.Require().NoError(err)
		s.Equal(before+1, minted)
		s.Equal(minted, s.registry.LastID())
	}
}

func (s *RegistrySuite) TestMint_RoundTrip() {
	ctx := context.Background()

	minted, err := s.registry.Mint(ctx, alice, "ipfs://badge/1")
	s.Require().NoError(err)

	uri, ok, err := s.registry.URI(ctx, minted)
	s.NoError(err)
	s.True(ok)
	s.Equal("ipfs://badge/1", uri)

	owner, ok, err := s.registry.OwnerOf(ctx, minted)
	s.NoError(err)
	s.True(ok)
	s.Equal(alice, owner)
}

// URI validation boundary: empty fails, 256 bytes passes, 257 fails.
func (s *RegistrySuite) TestMint_URIValidation() {
	ctx := context.Background()

	_, err := s.registry.Mint(ctx, alice, "")
	s.ErrorIs(err, models.ErrInvalidURI)
	s.Equal(id.BadgeID(0), s.registry.LastID(), "failed mint issues nothing")

	_, err = s.registry.Mint(ctx, alice, strings.Repeat("u", 256))
	s.NoError(err)

	_, err = s.registry.Mint(ctx, alice, strings.Repeat("u", 257))
	s.ErrorIs(err, models.ErrInvalidURI)
	s.Equal(id.BadgeID(1), s.registry.LastID())
}

func (s *RegistrySuite) TestBatchMint() {
	ctx := context.Background()

	s.Run("over 100 URIs fails upfront and mints nothing", func() {
		uris := make([]string, 101)
		for i := range uris {
			uris[i] = "ipfs://x"
		}
		_, err := s.registry.BatchMint(ctx, alice, uris)
		s.ErrorIs(err, models.ErrBatchTooLarge)
		s.Equal(id.BadgeID(0), s.registry.LastID())
	})

	s.Run("invalid elements are skipped, valid ones mint in order", func() {
		minted, err := s.registry.BatchMint(ctx, alice, []string{"ipfs://a", "", "ipfs://b"})
		s.Require().NoError(err)
		s.Equal([]id.BadgeID{1, 2}, minted, "two successes, in input order")
		s.Equal(id.BadgeID(2), s.registry.LastID(), "lastID advances by successes only")
	})

	s.Run("exactly 100 URIs is accepted", func() {
		uris := make([]string, 100)
		for i := range uris {
			uris[i] = "ipfs://y"
		}
		minted, err := s.registry.BatchMint(ctx, alice, uris)
		s.Require().NoError(err)
		s.Len(minted, 100)
	})
}

// Exclusive ownership: after a transfer the old owner loses all rights.
func (s *RegistrySuite) TestTransfer() {
	ctx := context.Background()
	minted, err := s.registry.Mint(ctx, alice, "ipfs://a")
	s.Require().NoError(err)

	s.Run("owner transfers to recipient", func() {
		s.NoError(s.registry.Transfer(ctx, alice, minted, bob))
		owner, ok, err := s.registry.OwnerOf(ctx, minted)
		s.NoError(err)
		s.True(ok)
		s.Equal(bob, owner)
	})

	s.Run("stale owner cannot transfer again", func() {
		err := s.registry.Transfer(ctx, alice, minted, alice)
		s.ErrorIs(err, models.ErrNotOwner)
	})

	s.Run("self-transfer is allowed", func() {
		s.NoError(s.registry.Transfer(ctx, bob, minted, bob))
		owner, _, err := s.registry.OwnerOf(ctx, minted)
		s.NoError(err)
		s.Equal(bob, owner)
	})

	s.Run("unknown badge reports not found", func() {
		err := s.registry.Transfer(ctx, alice, 999, bob)
		s.ErrorIs(err, models.ErrBadgeNotFound)
	})
}

func (s *RegistrySuite) TestUpdateURI() {
	ctx := context.Background()
	minted, err := s.registry.Mint(ctx, alice, "ipfs://old")
	s.Require().NoError(err)

	s.Run("owner updates the URI", func() {
		s.NoError(s.registry.UpdateURI(ctx, alice, minted, "ipfs://new"))
		uri, _, err := s.registry.URI(ctx, minted)
		s.NoError(err)
		s.Equal("ipfs://new", uri)
	})

	s.Run("non-owner update leaves the URI unchanged", func() {
		err := s.registry.UpdateURI(ctx, bob, minted, "ipfs://evil")
		s.ErrorIs(err, models.ErrNotOwner)

		uri, _, err := s.registry.URI(ctx, minted)
		s.NoError(err)
		s.Equal("ipfs://new", uri)
	})

	s.Run("invalid URI is rejected", func() {
		err := s.registry.UpdateURI(ctx, alice, minted, "")
		s.ErrorIs(err, models.ErrInvalidURI)
	})
}

// Burn terminality: once burned, every later mutation fails and ownership is
// gone for good.
func (s *RegistrySuite) TestBurn_Terminality() {
	ctx := context.Background()
	minted, err := s.registry.Mint(ctx, alice, "ipfs://a")
	s.Require().NoError(err)
	s.Require().NoError(s.registry.Burn(ctx, alice, minted))

	burned, err := s.registry.IsBurned(ctx, minted)
	s.NoError(err)
	s.True(burned)

	_, ok, err := s.registry.OwnerOf(ctx, minted)
	s.NoError(err)
	s.False(ok, "burned badge has no owner")

	s.Run("transfer after burn fails terminally", func() {
		err := s.registry.Transfer(ctx, alice, minted, bob)
		s.ErrorIs(err, models.ErrAlreadyBurned)
	})

	s.Run("update after burn fails via the missing owner", func() {
		err := s.registry.UpdateURI(ctx, alice, minted, "ipfs://z")
		s.ErrorIs(err, models.ErrBadgeNotFound)
	})

	s.Run("second burn fails", func() {
		err := s.registry.Burn(ctx, alice, minted)
		s.ErrorIs(err, models.ErrBadgeNotFound, "owner is gone after the first burn")
	})
}

func (s *RegistrySuite) TestBurn_Authorization() {
	ctx := context.Background()
	minted, err := s.registry.Mint(ctx, alice, "ipfs://a")
	s.Require().NoError(err)

	err = s.registry.Burn(ctx, bob, minted)
	s.ErrorIs(err, models.ErrNotOwner)

	err = s.registry.Burn(ctx, alice, 999)
	s.ErrorIs(err, models.ErrBadgeNotFound)
}

// Expiry gating: mint at block 50 with expiry 100; expiry-burn opens at 100.
func (s *RegistrySuite) TestExpiry() {
	ctx := context.Background()

	s.Run("expiry must be strictly in the future", func() {
		_, err := s.registry.MintTimeLimited(ctx, alice, "ipfs://t", 50)
		s.ErrorIs(err, models.ErrInvalidExpiry)
		_, err = s.registry.MintTimeLimited(ctx, alice, "ipfs://t", 49)
		s.ErrorIs(err, models.ErrInvalidExpiry)
	})

	minted, err := s.registry.MintTimeLimited(ctx, alice, "ipfs://t", 100)
	s.Require().NoError(err)

	s.Run("expiry is durably recorded at mint", func() {
		expired, err := s.registry.IsExpired(ctx, minted)
		s.NoError(err)
		s.False(expired)
	})

	s.Run("burn_expired fails before the expiry height", func() {
		s.clock.SetAtLeast(99)
		err := s.registry.BurnExpired(ctx, minted)
		s.ErrorIs(err, models.ErrNotYetExpired)
	})

	s.Run("badge expires exactly at the expiry height", func() {
		s.clock.SetAtLeast(100)
		expired, err := s.registry.IsExpired(ctx, minted)
		s.NoError(err)
		s.True(expired)
	})

	s.Run("anyone can burn an expired badge", func() {
		s.NoError(s.registry.BurnExpired(ctx, minted))
		burned, err := s.registry.IsBurned(ctx, minted)
		s.NoError(err)
		s.True(burned)
	})

	s.Run("badges without an expiry are never expiry-burnable", func() {
		plain, err := s.registry.Mint(ctx, alice, "ipfs://p")
		s.Require().NoError(err)

		expired, err := s.registry.IsExpired(ctx, plain)
		s.NoError(err)
		s.False(expired, "no expiry means not expired, not an error")

		err = s.registry.BurnExpired(ctx, plain)
		s.ErrorIs(err, models.ErrNotTimeLimited)
	})
}

func (s *RegistrySuite) TestMetadata() {
	ctx := context.Background()
	minted, err := s.registry.Mint(ctx, alice, "ipfs://a")
	s.Require().NoError(err)

	s.Run("issued id returns the full record", func() {
		badge, err := s.registry.Metadata(ctx, minted)
		s.Require().NoError(err)
		s.Equal(alice, badge.Owner)
		s.Equal("ipfs://a", badge.URI)
		s.False(badge.Burned)
	})

	s.Run("id zero is invalid", func() {
		_, err := s.registry.Metadata(ctx, 0)
		s.ErrorIs(err, models.ErrInvalidID)
	})

	s.Run("id beyond lastID is out of range", func() {
		_, err := s.registry.Metadata(ctx, minted+1)
		s.ErrorIs(err, models.ErrIDOutOfRange)
	})

	s.Run("burned badge still reports uri and burned flag", func() {
		s.Require().NoError(s.registry.Burn(ctx, alice, minted))
		badge, err := s.registry.Metadata(ctx, minted)
		s.Require().NoError(err)
		s.True(badge.Burned)
		s.True(badge.Owner.IsZero())
		s.Equal("ipfs://a", badge.URI)
	})
}

func (s *RegistrySuite) TestVerify_NeverFails() {
	ctx := context.Background()

	s.Run("unissued id reports absence as data", func() {
		v, err := s.registry.Verify(ctx, 42)
		s.Require().NoError(err)
		s.False(v.Exists)
		s.False(v.HasURI)
		s.False(v.Burned)
	})

	s.Run("issued id reports the snapshot", func() {
		minted, err := s.registry.Mint(ctx, alice, "ipfs://a")
		s.Require().NoError(err)

		v, err := s.registry.Verify(ctx, minted)
		s.Require().NoError(err)
		s.True(v.Exists)
		s.Equal(alice, v.Owner)
		s.True(v.HasURI)
		s.False(v.Burned)
	})
}

func (s *RegistrySuite) TestStats_CountLifetimeEvents() {
	ctx := context.Background()

	first, err := s.registry.Mint(ctx, alice, "ipfs://a")
	s.Require().NoError(err)
	second, err := s.registry.Mint(ctx, alice, "ipfs://b")
	s.Require().NoError(err)
	s.Require().NoError(s.registry.Transfer(ctx, alice, first, bob))
	s.Require().NoError(s.registry.Burn(ctx, bob, first))

	stats := s.registry.Stats()
	s.Equal(uint64(2), stats.TotalMints)
	s.Equal(uint64(1), stats.TotalBurns)
	s.Equal(uint64(1), stats.TotalTransfers)
	s.Equal(uint64(1), stats.ActiveBadges)

	s.Run("failed operations do not move the counters", func() {
		s.Error(s.registry.Burn(ctx, alice, second))
		s.Equal(stats, s.registry.Stats())
	})
}

// The lifecycle scenario from the acceptance checklist: mint, transfer,
// burn by the recipient, then verify terminal state.
func (s *RegistrySuite) TestScenario_MintTransferBurn() {
	ctx := context.Background()

	minted, err := s.registry.Mint(ctx, alice, "a")
	s.Require().NoError(err)
	s.Equal(id.BadgeID(1), minted)

	s.Require().NoError(s.registry.Transfer(ctx, alice, minted, bob))
	s.Require().NoError(s.registry.Burn(ctx, bob, minted))

	_, ok, err := s.registry.OwnerOf(ctx, minted)
	s.NoError(err)
	s.False(ok)

	burned, err := s.registry.IsBurned(ctx, minted)
	s.NoError(err)
	s.True(burned)

	err = s.registry.Burn(ctx, bob, minted)
	s.Error(err, "second burn must fail")
}
