package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "crest/pkg/domain"
)

func TestValidateURI_Boundaries(t *testing.T) {
	t.Run("rejects empty URI", func(t *testing.T) {
		assert.ErrorIs(t, ValidateURI(""), ErrInvalidURI)
	})

	t.Run("accepts single byte", func(t *testing.T) {
		assert.NoError(t, ValidateURI("a"))
	})

	t.Run("accepts exactly 256 bytes", func(t *testing.T) {
		assert.NoError(t, ValidateURI(strings.Repeat("u", MaxURILen)))
	})

	t.Run("rejects 257 bytes", func(t *testing.T) {
		assert.ErrorIs(t, ValidateURI(strings.Repeat("u", MaxURILen+1)), ErrInvalidURI)
	})
}

func TestBadge_Transfer(t *testing.T) {
	owner := id.Principal("alice")
	other := id.Principal("bob")

	t.Run("owner may transfer", func(t *testing.T) {
		b := &Badge{ID: 1, Owner: owner, URI: "u"}
		require.NoError(t, b.CanTransfer(owner))
		b.ApplyTransfer(other)
		assert.Equal(t, other, b.Owner)
	})

	t.Run("self-transfer is allowed", func(t *testing.T) {
		b := &Badge{ID: 1, Owner: owner, URI: "u"}
		require.NoError(t, b.CanTransfer(owner))
		b.ApplyTransfer(owner)
		assert.Equal(t, owner, b.Owner)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		b := &Badge{ID: 1, Owner: owner, URI: "u"}
		assert.ErrorIs(t, b.CanTransfer(other), ErrNotOwner)
	})

	t.Run("burned badge is terminal", func(t *testing.T) {
		b := &Badge{ID: 1, Burned: true}
		assert.ErrorIs(t, b.CanTransfer(owner), ErrAlreadyBurned)
	})

	t.Run("unknown badge is not found", func(t *testing.T) {
		b := &Badge{ID: 9}
		assert.ErrorIs(t, b.CanTransfer(owner), ErrBadgeNotFound)
	})
}

func TestBadge_UpdateURI(t *testing.T) {
	owner := id.Principal("alice")

	t.Run("owner may update with a valid URI", func(t *testing.T) {
		b := &Badge{ID: 1, Owner: owner, URI: "old"}
		require.NoError(t, b.CanUpdateURI(owner, "new"))
		b.ApplyURIUpdate("new")
		assert.Equal(t, "new", b.URI)
	})

	t.Run("invalid URI is rejected before mutation", func(t *testing.T) {
		b := &Badge{ID: 1, Owner: owner, URI: "old"}
		assert.ErrorIs(t, b.CanUpdateURI(owner, ""), ErrInvalidURI)
		assert.Equal(t, "old", b.URI)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		b := &Badge{ID: 1, Owner: owner, URI: "old"}
		assert.ErrorIs(t, b.CanUpdateURI(id.Principal("mallory"), "new"), ErrNotOwner)
	})

	t.Run("burned badge has no owner so update reports not found", func(t *testing.T) {
		b := &Badge{ID: 1, Burned: true, URI: "old"}
		assert.ErrorIs(t, b.CanUpdateURI(owner, "new"), ErrBadgeNotFound)
	})
}

func TestBadge_Burn(t *testing.T) {
	owner := id.Principal("alice")

	t.Run("owner may burn once", func(t *testing.T) {
		b := &Badge{ID: 1, Owner: owner, URI: "u"}
		require.NoError(t, b.CanBurn(owner))
		b.ApplyBurn()
		assert.True(t, b.Burned)
		assert.True(t, b.Owner.IsZero(), "burn revokes ownership")
	})

	t.Run("second burn reports not found because the owner is gone", func(t *testing.T) {
		b := &Badge{ID: 1, Owner: owner, URI: "u"}
		b.ApplyBurn()
		assert.ErrorIs(t, b.CanBurn(owner), ErrBadgeNotFound)
	})
}

func TestBadge_Expiry(t *testing.T) {
	t.Run("no expiry means never expired", func(t *testing.T) {
		b := &Badge{ID: 1, Owner: "alice", URI: "u"}
		assert.False(t, b.ExpiredAt(1 << 40))
		assert.ErrorIs(t, b.CanExpiryBurn(1<<40), ErrNotTimeLimited)
	})

	t.Run("expiry gates on block height", func(t *testing.T) {
		b := &Badge{ID: 1, Owner: "alice", URI: "u", Expiry: 100}
		assert.False(t, b.ExpiredAt(99))
		assert.ErrorIs(t, b.CanExpiryBurn(99), ErrNotYetExpired)

		assert.True(t, b.ExpiredAt(100))
		assert.NoError(t, b.CanExpiryBurn(100))
	})
}
