package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "crest/pkg/domain-errors"
)

// TestParseBadgeID_Invariants validates the parsing invariant:
// "badge IDs are positive integers; zero is never issued".
func TestParseBadgeID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseBadgeID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-numeric input", func(t *testing.T) {
		_, err := ParseBadgeID("not-a-number")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects zero", func(t *testing.T) {
		_, err := ParseBadgeID("0")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects negative numbers", func(t *testing.T) {
		_, err := ParseBadgeID("-3")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts positive integers", func(t *testing.T) {
		id, err := ParseBadgeID("42")
		require.NoError(t, err)
		assert.Equal(t, BadgeID(42), id)
	})

	t.Run("round-trips through String", func(t *testing.T) {
		id, err := ParseBadgeID(BadgeID(7).String())
		require.NoError(t, err)
		assert.Equal(t, BadgeID(7), id)
	})
}

// TestParsePrincipal_Invariants validates trust-boundary parsing of caller
// identities.
func TestParsePrincipal_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParsePrincipal("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects oversized identifiers", func(t *testing.T) {
		_, err := ParsePrincipal(strings.Repeat("x", MaxPrincipalLen+1))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts identifiers at the length boundary", func(t *testing.T) {
		p, err := ParsePrincipal(strings.Repeat("x", MaxPrincipalLen))
		require.NoError(t, err)
		assert.False(t, p.IsZero())
	})
}

func FuzzParseBadgeID(f *testing.F) {
	f.Add("")
	f.Add("1")
	f.Add("0")
	f.Add("18446744073709551615")
	f.Add("18446744073709551616")
	f.Add("'; DROP TABLE badges;--")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseBadgeID(input)
		if err != nil {
			return
		}
		if id.IsZero() {
			t.Error("parsed badge ID is zero without an error")
		}
		roundTrip, err2 := ParseBadgeID(id.String())
		if err2 != nil {
			t.Errorf("valid badge ID failed round-trip: %v", err2)
		}
		if roundTrip != id {
			t.Error("round-trip changed the badge ID value")
		}
	})
}
