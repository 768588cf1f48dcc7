package domain

import (
	"strconv"

	dErrors "crest/pkg/domain-errors"
)

// BadgeID identifies a badge in the registry.
// Invariant: valid IDs are dense integers in [1, lastID]; zero is never issued.
type BadgeID uint64

// ParseBadgeID constructs a BadgeID from external input (path params, JSON).
//
// Usage: call from handlers/adapters when parsing requests; direct casting
// bypasses validation.
//
// Errors: returns CodeInvalidInput when the value is empty, non-numeric, or
// zero; no other errors are expected.
func ParseBadgeID(s string) (BadgeID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "badge id cannot be empty")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "badge id must be a positive integer")
	}
	if n == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "badge id must be at least 1")
	}
	return BadgeID(n), nil
}

func (b BadgeID) String() string {
	return strconv.FormatUint(uint64(b), 10)
}

// IsZero reports whether the ID is the unissued zero value.
func (b BadgeID) IsZero() bool {
	return b == 0
}

// Principal is an external identity capable of owning badges and acting as a
// caller. The value is opaque to the registry; it arrives from the auth layer
// (JWT subject) and is only compared for equality.
type Principal string

// MaxPrincipalLen bounds principal identifiers so store keys stay sane.
const MaxPrincipalLen = 128

// ParsePrincipal constructs a Principal from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or oversized.
func ParsePrincipal(s string) (Principal, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "principal cannot be empty")
	}
	if len(s) > MaxPrincipalLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "principal exceeds maximum length")
	}
	return Principal(s), nil
}

func (p Principal) String() string {
	return string(p)
}

// IsZero reports whether the principal is unset.
func (p Principal) IsZero() bool {
	return p == ""
}
