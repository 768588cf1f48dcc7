package models

import (
	id "crest/pkg/domain"
)

// MaxURILen bounds badge metadata URIs, in bytes.
const MaxURILen = 256

// MaxBatchSize caps one batch mint request. Bounds the work a single
// operation can perform.
const MaxBatchSize = 100

// ValidateURI enforces the URI length invariant: 1–MaxURILen bytes.
// Pure, no side effects.
func ValidateURI(uri string) error {
	if len(uri) < 1 || len(uri) > MaxURILen {
		return ErrInvalidURI
	}
	return nil
}

// Badge is a point-in-time snapshot of one badge, assembled from the
// ownership and lifecycle stores.
//
// Invariants:
//   - ID is in [1, lastID]; ids are dense and never reused
//   - exactly one owner while active, none once burned
//   - URI length stays in [1, MaxURILen] across creation and updates
//   - Burned is monotonic: once true, never false again
//   - Expiry is zero for badges without a time limit
type Badge struct {
	ID     id.BadgeID   `json:"id"`
	Owner  id.Principal `json:"owner,omitempty"`
	URI    string       `json:"uri"`
	Burned bool         `json:"burned"`
	Expiry uint64       `json:"expiry,omitempty"`
}

// TimeLimited reports whether the badge carries an expiry height.
func (b *Badge) TimeLimited() bool {
	return b.Expiry > 0
}

// ExpiredAt reports whether the badge's expiry has been reached at the given
// block height. Always false for badges without a time limit.
func (b *Badge) ExpiredAt(height uint64) bool {
	return b.TimeLimited() && height >= b.Expiry
}

// CanTransfer checks whether caller may move the badge.
// Burned is checked before ownership so a prior owner of a burned badge gets
// the terminal-state answer, not a stale not-found.
func (b *Badge) CanTransfer(caller id.Principal) error {
	if b.Burned {
		return ErrAlreadyBurned
	}
	if b.Owner.IsZero() {
		return ErrBadgeNotFound
	}
	if b.Owner != caller {
		return ErrNotOwner
	}
	return nil
}

// ApplyTransfer moves ownership to recipient. Call CanTransfer first.
// Self-transfers are allowed; the recipient needs no validation beyond being
// a principal.
func (b *Badge) ApplyTransfer(recipient id.Principal) {
	b.Owner = recipient
}

// CanUpdateURI checks whether caller may rewrite the badge's metadata.
// The burned flag is not independently rechecked: a burned badge has no
// owner, so the ownership check transitively blocks updates.
func (b *Badge) CanUpdateURI(caller id.Principal, newURI string) error {
	if b.Owner.IsZero() {
		return ErrBadgeNotFound
	}
	if b.Owner != caller {
		return ErrNotOwner
	}
	return ValidateURI(newURI)
}

// ApplyURIUpdate overwrites the metadata URI. Call CanUpdateURI first.
func (b *Badge) ApplyURIUpdate(newURI string) {
	b.URI = newURI
}

// CanBurn checks whether caller may terminally revoke the badge.
func (b *Badge) CanBurn(caller id.Principal) error {
	if b.Owner.IsZero() {
		return ErrBadgeNotFound
	}
	if b.Owner != caller {
		return ErrNotOwner
	}
	if b.Burned {
		return ErrAlreadyBurned
	}
	return nil
}

// ApplyBurn revokes ownership and sets the terminal burned flag.
// Call CanBurn first. This transition is irreversible.
func (b *Badge) ApplyBurn() {
	b.Owner = ""
	b.Burned = true
}

// CanExpiryBurn checks whether the badge is eligible for the permissionless
// expiry burn at the given height. Ownership is deliberately not checked;
// anyone may trigger the burn once the expiry has passed.
func (b *Badge) CanExpiryBurn(height uint64) error {
	if !b.TimeLimited() {
		return ErrNotTimeLimited
	}
	if height < b.Expiry {
		return ErrNotYetExpired
	}
	return nil
}

// Verification is a non-failing diagnostic snapshot of one badge id.
// Absence is reported through the fields, never as an error.
type Verification struct {
	ID     id.BadgeID   `json:"id"`
	Exists bool         `json:"exists"`
	Owner  id.Principal `json:"owner,omitempty"`
	HasURI bool         `json:"has_uri"`
	Burned bool         `json:"burned"`
}

// Stats reports lifetime event totals. ActiveBadges is derived:
// TotalMints - TotalBurns.
type Stats struct {
	TotalMints     uint64 `json:"total_mints"`
	TotalBurns     uint64 `json:"total_burns"`
	TotalTransfers uint64 `json:"total_transfers"`
	ActiveBadges   uint64 `json:"active_badges"`
}
