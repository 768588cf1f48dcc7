// Package service orchestrates badge operations: it drives the registry,
// emits audit events for every committed mutation, keeps the metadata cache
// coherent, and translates domain failures into coded errors for transport.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"crest/internal/badge/cache"
	"crest/internal/badge/metrics"
	"crest/internal/badge/models"
	"crest/internal/badge/registry"
	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
	audit "crest/pkg/platform/audit"
	"crest/pkg/requestcontext"
)

// Auditor records committed mutations. Satisfied by *publisher.Publisher.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
	List(ctx context.Context, badgeID id.BadgeID) ([]audit.Event, error)
}

// Service wraps the registry with auditing, caching, and metrics. The cache
// and metrics may be nil; auditing is mandatory since the trail is the
// system of record.
type Service struct {
	registry *registry.Registry
	auditor  Auditor
	cache    *cache.MetadataCache
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(reg *registry.Registry, auditor Auditor, c *cache.MetadataCache, m *metrics.Metrics, logger *slog.Logger) (*Service, error) {
	if reg == nil {
		return nil, errors.New("service: registry is required")
	}
	if auditor == nil {
		return nil, errors.New("service: auditor is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: reg,
		auditor:  auditor,
		cache:    c,
		metrics:  m,
		logger:   logger,
	}, nil
}

// Mint issues one badge to owner.
func (s *Service) Mint(ctx context.Context, owner id.Principal, uri string) (id.BadgeID, error) {
	minted, err := s.registry.Mint(ctx, owner, uri)
	if err != nil {
		s.metrics.IncrementOutcome("mint", "error")
		return 0, translate(err)
	}
	s.metrics.IncrementOutcome("mint", "ok")
	s.afterMutation(ctx, audit.Event{
		Action:    audit.ActionBadgeMinted,
		BadgeID:   minted,
		Actor:     owner,
		Recipient: owner,
		Detail:    uri,
	})
	return minted, nil
}

// MintTimeLimited issues one badge that becomes publicly burnable at the
// expiry block height.
func (s *Service) MintTimeLimited(ctx context.Context, owner id.Principal, uri string, expiry uint64) (id.BadgeID, error) {
	minted, err := s.registry.MintTimeLimited(ctx, owner, uri, expiry)
	if err != nil {
		s.metrics.IncrementOutcome("mint", "error")
		return 0, translate(err)
	}
	s.metrics.IncrementOutcome("mint", "ok")
	s.afterMutation(ctx, audit.Event{
		Action:    audit.ActionBadgeMinted,
		BadgeID:   minted,
		Actor:     owner,
		Recipient: owner,
		Detail:    fmt.Sprintf("expiry=%d %s", expiry, uri),
	})
	return minted, nil
}

// BatchMint issues up to models.MaxBatchSize badges to owner, skipping
// invalid URIs. The returned ids correspond to the successful mints in input
// order; callers cannot map them back to input positions when some were
// skipped.
func (s *Service) BatchMint(ctx context.Context, owner id.Principal, uris []string) ([]id.BadgeID, error) {
	minted, err := s.registry.BatchMint(ctx, owner, uris)
	if err != nil {
		s.metrics.IncrementOutcome("batch_mint", "error")
		return nil, translate(err)
	}
	s.metrics.IncrementOutcome("batch_mint", "ok")
	s.metrics.ObserveBatchSize(len(minted))
	s.afterMutation(ctx, audit.Event{
		Action:    audit.ActionBatchMintFinished,
		Actor:     owner,
		Recipient: owner,
		Detail:    fmt.Sprintf("requested=%d minted=%d", len(uris), len(minted)),
	})
	return minted, nil
}

// Transfer moves a badge from its current owner to recipient.
func (s *Service) Transfer(ctx context.Context, caller id.Principal, badgeID id.BadgeID, recipient id.Principal) error {
	if err := s.registry.Transfer(ctx, caller, badgeID, recipient); err != nil {
		s.metrics.IncrementOutcome("transfer", "error")
		return translate(err)
	}
	s.metrics.IncrementOutcome("transfer", "ok")
	s.cache.Invalidate(ctx, badgeID)
	s.afterMutation(ctx, audit.Event{
		Action:    audit.ActionBadgeTransferred,
		BadgeID:   badgeID,
		Actor:     caller,
		Recipient: recipient,
	})
	return nil
}

// UpdateURI rewrites the badge's metadata URI. Owner only.
func (s *Service) UpdateURI(ctx context.Context, caller id.Principal, badgeID id.BadgeID, newURI string) error {
	if err := s.registry.UpdateURI(ctx, caller, badgeID, newURI); err != nil {
		s.metrics.IncrementOutcome("update_uri", "error")
		return translate(err)
	}
	s.metrics.IncrementOutcome("update_uri", "ok")
	s.cache.Invalidate(ctx, badgeID)
	s.afterMutation(ctx, audit.Event{
		Action:  audit.ActionBadgeURIUpdated,
		BadgeID: badgeID,
		Actor:   caller,
		Detail:  newURI,
	})
	return nil
}

// Burn permanently destroys a badge. Owner only; irreversible.
func (s *Service) Burn(ctx context.Context, caller id.Principal, badgeID id.BadgeID) error {
	if err := s.registry.Burn(ctx, caller, badgeID); err != nil {
		s.metrics.IncrementOutcome("burn", "error")
		return translate(err)
	}
	s.metrics.IncrementOutcome("burn", "ok")
	s.cache.Invalidate(ctx, badgeID)
	s.afterMutation(ctx, audit.Event{
		Action:  audit.ActionBadgeBurned,
		BadgeID: badgeID,
		Actor:   caller,
	})
	return nil
}

// BurnExpired destroys a time-limited badge whose expiry height has been
// reached. Callable by anyone, including non-owners.
func (s *Service) BurnExpired(ctx context.Context, caller id.Principal, badgeID id.BadgeID) error {
	if err := s.registry.BurnExpired(ctx, badgeID); err != nil {
		s.metrics.IncrementOutcome("burn_expired", "error")
		return translate(err)
	}
	s.metrics.IncrementOutcome("burn_expired", "ok")
	s.cache.Invalidate(ctx, badgeID)
	s.afterMutation(ctx, audit.Event{
		Action:  audit.ActionBadgeExpiredBurn,
		BadgeID: badgeID,
		Actor:   caller,
	})
	return nil
}

// Metadata returns the full record for one issued badge, read through the
// cache when one is configured.
func (s *Service) Metadata(ctx context.Context, badgeID id.BadgeID) (*models.Badge, error) {
	if badge, ok := s.cache.Get(ctx, badgeID); ok {
		s.metrics.IncrementCacheLookup("hit")
		return badge, nil
	}
	s.metrics.IncrementCacheLookup("miss")

	badge, err := s.registry.Metadata(ctx, badgeID)
	if err != nil {
		return nil, translate(err)
	}
	s.cache.Set(ctx, badge)
	return badge, nil
}

// Verify reports a badge's state without ever failing on absence: a
// never-issued id comes back with Exists=false.
func (s *Service) Verify(ctx context.Context, badgeID id.BadgeID) (*models.Verification, error) {
	v, err := s.registry.Verify(ctx, badgeID)
	if err != nil {
		return nil, translate(err)
	}
	return v, nil
}

// OwnerOf returns the current owner of a badge, ok=false when unowned.
func (s *Service) OwnerOf(ctx context.Context, badgeID id.BadgeID) (id.Principal, bool, error) {
	owner, ok, err := s.registry.OwnerOf(ctx, badgeID)
	if err != nil {
		return "", false, translate(err)
	}
	return owner, ok, nil
}

// Stats returns the registry's lifetime counters and refreshes the active
// badge gauge as a side effect.
func (s *Service) Stats(ctx context.Context) models.Stats {
	stats := s.registry.Stats()
	s.metrics.SetActiveBadges(stats.ActiveBadges)
	return stats
}

// History returns the audit trail for one badge, oldest first.
func (s *Service) History(ctx context.Context, badgeID id.BadgeID) ([]audit.Event, error) {
	events, err := s.auditor.List(ctx, badgeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load badge history")
	}
	return events, nil
}

// afterMutation emits the audit event for a committed mutation, stamping it
// with request-scoped correlation data. Audit failures are logged, not
// returned: the mutation already committed.
func (s *Service) afterMutation(ctx context.Context, event audit.Event) {
	if h, ok := requestcontext.BlockHeight(ctx); ok {
		event.Height = h
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.Timestamp = requestcontext.Now(ctx)

	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", string(event.Action),
			"badge_id", event.BadgeID.String(),
			"error", err,
		)
	}
}

// translate maps categorical registry errors to coded domain errors the HTTP
// layer understands. Unknown errors become internal.
func translate(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, models.ErrInvalidURI),
		errors.Is(err, models.ErrInvalidExpiry),
		errors.Is(err, models.ErrBatchTooLarge),
		errors.Is(err, models.ErrInvalidID):
		return dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	case errors.Is(err, models.ErrNotOwner):
		return dErrors.Wrap(err, dErrors.CodeForbidden, err.Error())
	case errors.Is(err, models.ErrBadgeNotFound),
		errors.Is(err, models.ErrIDOutOfRange),
		errors.Is(err, models.ErrOwnerMissing),
		errors.Is(err, models.ErrURIMissing):
		return dErrors.Wrap(err, dErrors.CodeNotFound, err.Error())
	case errors.Is(err, models.ErrAlreadyBurned),
		errors.Is(err, models.ErrNotTimeLimited),
		errors.Is(err, models.ErrNotYetExpired),
		errors.Is(err, models.ErrMintFailed):
		return dErrors.Wrap(err, dErrors.CodeConflict, err.Error())
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "badge operation failed")
	}
}
