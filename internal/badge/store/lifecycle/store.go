// Package lifecycle persists per-badge metadata (URI), terminal state
// (burned flag), optional expiry heights, and the registry's durable state:
// the last issued id and the lifetime event counters.
package lifecycle

import (
	"context"

	id "crest/pkg/domain"
)

// State is the registry's durable scalar state. lastID only increases;
// counters count lifetime events, not current population.
type State struct {
	LastID         id.BadgeID
	TotalMints     uint64
	TotalBurns     uint64
	TotalTransfers uint64
}

// Store is the lifecycle persistence contract.
//
// Absence has defined defaults rather than errors: URI returns ok=false for
// unissued ids, IsBurned defaults to false, Expiry returns ok=false when no
// expiry is recorded. Mutations are upserts; the registry validates before
// writing.
type Store interface {
	SetURI(ctx context.Context, badgeID id.BadgeID, uri string) error
	URI(ctx context.Context, badgeID id.BadgeID) (string, bool, error)

	MarkBurned(ctx context.Context, badgeID id.BadgeID) error
	IsBurned(ctx context.Context, badgeID id.BadgeID) (bool, error)

	SetExpiry(ctx context.Context, badgeID id.BadgeID, height uint64) error
	Expiry(ctx context.Context, badgeID id.BadgeID) (uint64, bool, error)

	LoadState(ctx context.Context) (State, error)
	SaveState(ctx context.Context, state State) error
}
