// Package cache provides a Redis-backed read-through cache for badge
// metadata. The cache is best-effort: lookup and store failures degrade to
// the underlying registry rather than failing the request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"crest/internal/badge/models"
	id "crest/pkg/domain"
)

const (
	// Redis key prefix for cached badge metadata
	badgeKeyPrefix = "badge:meta:"

	defaultTTL = 5 * time.Minute
)

// MetadataCache caches badge metadata snapshots in Redis. A nil
// MetadataCache is valid and disables caching.
type MetadataCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a MetadataCache instance.
type Option func(*MetadataCache)

// WithTTL overrides the default entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *MetadataCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for degraded-mode warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *MetadataCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a metadata cache over the given Redis client.
// Returns nil if the client is nil (caching disabled).
func New(client *redis.Client, opts ...Option) *MetadataCache {
	if client == nil {
		return nil
	}
	c := &MetadataCache{
		client: client,
		ttl:    defaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the cached metadata for a badge, or ok=false on a miss.
// Redis errors are logged and reported as misses.
func (c *MetadataCache) Get(ctx context.Context, badgeID id.BadgeID) (*models.Badge, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, badgeKey(badgeID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "badge cache lookup failed", "badge_id", badgeID, "error", err)
		return nil, false
	}

	var badge models.Badge
	if err := json.Unmarshal(raw, &badge); err != nil {
		// A corrupt entry is dropped so the next write can repair it.
		c.logger.WarnContext(ctx, "badge cache entry corrupt", "badge_id", badgeID, "error", err)
		c.Invalidate(ctx, badgeID)
		return nil, false
	}
	return &badge, true
}

// Set stores a metadata snapshot with the configured TTL.
func (c *MetadataCache) Set(ctx context.Context, badge *models.Badge) {
	if c == nil || badge == nil {
		return
	}

	raw, err := json.Marshal(badge)
	if err != nil {
		c.logger.WarnContext(ctx, "badge cache encode failed", "badge_id", badge.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, badgeKey(badge.ID), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "badge cache store failed", "badge_id", badge.ID, "error", err)
	}
}

// Invalidate drops the cached entry for a badge. Called after any mutation
// so readers never see a stale owner, URI, or burned flag past the TTL.
func (c *MetadataCache) Invalidate(ctx context.Context, badgeID id.BadgeID) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, badgeKey(badgeID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "badge cache invalidation failed", "badge_id", badgeID, "error", err)
	}
}

func badgeKey(badgeID id.BadgeID) string {
	return badgeKeyPrefix + badgeID.String()
}
