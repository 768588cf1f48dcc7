package postgres

import (
	"context"
	"database/sql"
	"fmt"

	id "crest/pkg/domain"
	audit "crest/pkg/platform/audit"
	txcontext "crest/pkg/platform/tx"
)

// Schema is the DDL for the audit trail table. Integration tests and
// deployment tooling apply it verbatim.
const Schema = `
CREATE TABLE IF NOT EXISTS badge_audit_events (
	event_id     UUID PRIMARY KEY,
	occurred_at  TIMESTAMPTZ NOT NULL,
	action       TEXT NOT NULL,
	badge_id     BIGINT NOT NULL DEFAULT 0,
	actor        TEXT NOT NULL DEFAULT '',
	recipient    TEXT NOT NULL DEFAULT '',
	block_height BIGINT NOT NULL DEFAULT 0,
	detail       TEXT NOT NULL DEFAULT '',
	request_id   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_badge_audit_events_badge_id
	ON badge_audit_events (badge_id, occurred_at);
`

// Store persists audit events in PostgreSQL. Appends join the operation's
// transaction when one is carried in context, so the trail commits or rolls
// back together with the registry mutation it records.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	q := txcontext.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO badge_audit_events
			(event_id, occurred_at, action, badge_id, actor, recipient, block_height, detail, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID,
		event.Timestamp,
		string(event.Action),
		int64(event.BadgeID),
		event.Actor.String(),
		event.Recipient.String(),
		int64(event.Height),
		event.Detail,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByBadge(ctx context.Context, badgeID id.BadgeID) ([]audit.Event, error) {
	q := txcontext.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT event_id, occurred_at, action, badge_id, actor, recipient, block_height, detail, request_id
		FROM badge_audit_events
		WHERE badge_id = $1
		ORDER BY occurred_at`,
		int64(badgeID),
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events by badge: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	q := txcontext.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT event_id, occurred_at, action, badge_id, actor, recipient, block_height, detail, request_id
		FROM badge_audit_events
		ORDER BY occurred_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	// Present oldest-first like the in-memory store.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			e         audit.Event
			action    string
			badgeID   int64
			actor     string
			recipient string
			height    int64
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &action, &badgeID, &actor, &recipient, &height, &e.Detail, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = audit.Action(action)
		e.BadgeID = id.BadgeID(badgeID)
		e.Actor = id.Principal(actor)
		e.Recipient = id.Principal(recipient)
		e.Height = uint64(height)
		events = append(events, e)
	}
	return events, rows.Err()
}
