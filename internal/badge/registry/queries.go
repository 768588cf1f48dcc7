package registry

import (
	"context"
	"errors"
	"fmt"

	"crest/internal/badge/models"
	id "crest/pkg/domain"
	"crest/pkg/platform/sentinel"
)

// URI returns the badge's metadata URI; ok is false for ids with no URI
// recorded.
func (r *Registry) URI(ctx context.Context, badgeID id.BadgeID) (string, bool, error) {
	return r.lifecycle.URI(ctx, badgeID)
}

// OwnerOf returns the badge's current owner; ok is false when the id has no
// owner (never minted or burned).
func (r *Registry) OwnerOf(ctx context.Context, badgeID id.BadgeID) (id.Principal, bool, error) {
	owner, err := r.owners.OwnerOf(ctx, badgeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return owner, true, nil
}

// LastID returns the highest badge id ever issued.
func (r *Registry) LastID() id.BadgeID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.LastID
}

// IsBurned reports the badge's burned flag; absence defaults to false.
func (r *Registry) IsBurned(ctx context.Context, badgeID id.BadgeID) (bool, error) {
	return r.lifecycle.IsBurned(ctx, badgeID)
}

// IsExpired reports whether an expiry is recorded for the badge and the
// current block height has reached it. Ids with no expiry are simply not
// expired; that is not an error.
func (r *Registry) IsExpired(ctx context.Context, badgeID id.BadgeID) (bool, error) {
	expiry, ok, err := r.lifecycle.Expiry(ctx, badgeID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	height, err := r.height(ctx)
	if err != nil {
		return false, fmt.Errorf("read block height: %w", err)
	}
	return height >= expiry, nil
}

// Metadata returns the badge's uri, owner, and burned flag, failing loudly
// on ids outside [1, lastID] and on internal-consistency violations (an
// issued id missing its URI, or unburned with no owner) instead of silently
// defaulting.
func (r *Registry) Metadata(ctx context.Context, badgeID id.BadgeID) (*models.Badge, error) {
	if badgeID < 1 {
		return nil, models.ErrInvalidID
	}
	if badgeID > r.LastID() {
		return nil, models.ErrIDOutOfRange
	}

	badge, err := r.load(ctx, badgeID)
	if err != nil {
		return nil, err
	}
	if badge.URI == "" {
		return nil, models.ErrURIMissing
	}
	if badge.Owner.IsZero() && !badge.Burned {
		return nil, models.ErrOwnerMissing
	}
	return badge, nil
}

// Verify is a non-failing diagnostic snapshot: absence is reported through
// the fields, never as an error. The error return carries infrastructure
// failures only.
func (r *Registry) Verify(ctx context.Context, badgeID id.BadgeID) (*models.Verification, error) {
	v := &models.Verification{ID: badgeID}
	if badgeID < 1 || badgeID > r.LastID() {
		return v, nil
	}
	v.Exists = true

	badge, err := r.load(ctx, badgeID)
	if err != nil {
		return nil, err
	}
	v.Owner = badge.Owner
	v.HasURI = badge.URI != ""
	v.Burned = badge.Burned
	return v, nil
}

// Stats reports the lifetime event totals and the derived active count.
func (r *Registry) Stats() models.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.Stats{
		TotalMints:     r.state.TotalMints,
		TotalBurns:     r.state.TotalBurns,
		TotalTransfers: r.state.TotalTransfers,
		ActiveBadges:   r.state.TotalMints - r.state.TotalBurns,
	}
}
