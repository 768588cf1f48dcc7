// Package ownership implements the exclusive single-owner identity primitive
// the registry consumes. It answers exactly one question — who owns a badge
// id — and enforces exclusivity on every write.
package ownership

import (
	"context"

	id "crest/pkg/domain"
)

// Store is the ownership-lookup capability.
//
// Error contract (sentinel errors, optionally wrapped):
//   - Create returns ErrConflict when the id is already owned
//   - OwnerOf returns ErrNotFound when the id has no owner
//   - Transfer and Revoke return ErrNotFound when the id has no owner and
//     ErrInvalidState when `from`/`owner` does not hold the badge
type Store interface {
	Create(ctx context.Context, badgeID id.BadgeID, owner id.Principal) error
	OwnerOf(ctx context.Context, badgeID id.BadgeID) (id.Principal, error)
	Transfer(ctx context.Context, badgeID id.BadgeID, from, to id.Principal) error
	Revoke(ctx context.Context, badgeID id.BadgeID, owner id.Principal) error
}
