// Package audit captures the badge registry's immutable event trail. Every
// successful mutation emits one event; the trail is the system of record for
// provenance questions ("who held badge 7 before it was burned?").
package audit

import (
	"context"
	"time"

	id "crest/pkg/domain"
)

// Action identifies the registry mutation an event records.
type Action string

const (
	ActionBadgeMinted       Action = "badge_minted"
	ActionBadgeTransferred  Action = "badge_transferred"
	ActionBadgeURIUpdated   Action = "badge_uri_updated"
	ActionBadgeBurned       Action = "badge_burned"
	ActionBadgeExpiredBurn  Action = "badge_expired_burn"
	ActionBatchMintFinished Action = "batch_mint_finished"
)

// Event is emitted from registry logic to capture one mutation. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string       // assigned by the publisher (uuid)
	Timestamp time.Time    // when the mutation committed
	Action    Action       // what happened
	BadgeID   id.BadgeID   // badge affected; zero for batch summaries
	Actor     id.Principal // principal that performed the mutation
	Recipient id.Principal // transfer target / mint owner, empty otherwise
	Height    uint64       // block height observed by the operation
	Detail    string       // free-form context (new URI, batch counts)
	RequestID string       // correlation ID from the HTTP request context
}

// Store persists audit events. Implementations must tolerate concurrent
// Append calls; ordering within a single badge follows commit order because
// the registry serializes mutations.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByBadge(ctx context.Context, badgeID id.BadgeID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
