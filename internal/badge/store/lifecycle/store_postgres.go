package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "crest/pkg/domain"
	txcontext "crest/pkg/platform/tx"
)

// Schema is the DDL for the lifecycle tables. The registry state row is a
// singleton keyed by a constant id.
const Schema = `
CREATE TABLE IF NOT EXISTS badge_lifecycle (
	badge_id  BIGINT PRIMARY KEY,
	uri       TEXT,
	burned    BOOLEAN NOT NULL DEFAULT FALSE,
	expiry    BIGINT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS registry_state (
	singleton       SMALLINT PRIMARY KEY DEFAULT 1 CHECK (singleton = 1),
	last_id         BIGINT NOT NULL DEFAULT 0,
	total_mints     BIGINT NOT NULL DEFAULT 0,
	total_burns     BIGINT NOT NULL DEFAULT 0,
	total_transfers BIGINT NOT NULL DEFAULT 0
);
INSERT INTO registry_state (singleton) VALUES (1) ON CONFLICT DO NOTHING;
`

// PostgresStore persists lifecycle state in PostgreSQL. Writes join the
// operation's transaction when one is carried in context, so each registry
// operation commits its ownership, lifecycle, and state writes together.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed lifecycle store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SetURI(ctx context.Context, badgeID id.BadgeID, uri string) error {
	q := txcontext.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO badge_lifecycle (badge_id, uri) VALUES ($1, $2)
		ON CONFLICT (badge_id) DO UPDATE SET uri = EXCLUDED.uri`,
		int64(badgeID), uri,
	)
	if err != nil {
		return fmt.Errorf("set badge uri: %w", err)
	}
	return nil
}

func (s *PostgresStore) URI(ctx context.Context, badgeID id.BadgeID) (string, bool, error) {
	q := txcontext.Resolve(ctx, s.db)
	var uri sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT uri FROM badge_lifecycle WHERE badge_id = $1`,
		int64(badgeID),
	).Scan(&uri)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query badge uri: %w", err)
	}
	if !uri.Valid {
		return "", false, nil
	}
	return uri.String, true, nil
}

func (s *PostgresStore) MarkBurned(ctx context.Context, badgeID id.BadgeID) error {
	q := txcontext.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO badge_lifecycle (badge_id, burned) VALUES ($1, TRUE)
		ON CONFLICT (badge_id) DO UPDATE SET burned = TRUE`,
		int64(badgeID),
	)
	if err != nil {
		return fmt.Errorf("mark badge burned: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsBurned(ctx context.Context, badgeID id.BadgeID) (bool, error) {
	q := txcontext.Resolve(ctx, s.db)
	var burned bool
	err := q.QueryRowContext(ctx,
		`SELECT burned FROM badge_lifecycle WHERE badge_id = $1`,
		int64(badgeID),
	).Scan(&burned)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query badge burned flag: %w", err)
	}
	return burned, nil
}

func (s *PostgresStore) SetExpiry(ctx context.Context, badgeID id.BadgeID, height uint64) error {
	q := txcontext.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO badge_lifecycle (badge_id, expiry) VALUES ($1, $2)
		ON CONFLICT (badge_id) DO UPDATE SET expiry = EXCLUDED.expiry`,
		int64(badgeID), int64(height),
	)
	if err != nil {
		return fmt.Errorf("set badge expiry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Expiry(ctx context.Context, badgeID id.BadgeID) (uint64, bool, error) {
	q := txcontext.Resolve(ctx, s.db)
	var expiry int64
	err := q.QueryRowContext(ctx,
		`SELECT expiry FROM badge_lifecycle WHERE badge_id = $1`,
		int64(badgeID),
	).Scan(&expiry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("query badge expiry: %w", err)
	}
	if expiry == 0 {
		return 0, false, nil
	}
	return uint64(expiry), true, nil
}

func (s *PostgresStore) LoadState(ctx context.Context) (State, error) {
	q := txcontext.Resolve(ctx, s.db)
	var state State
	var lastID int64
	err := q.QueryRowContext(ctx, `
		SELECT last_id, total_mints, total_burns, total_transfers
		FROM registry_state WHERE singleton = 1`,
	).Scan(&lastID, &state.TotalMints, &state.TotalBurns, &state.TotalTransfers)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("load registry state: %w", err)
	}
	state.LastID = id.BadgeID(lastID)
	return state, nil
}

func (s *PostgresStore) SaveState(ctx context.Context, state State) error {
	q := txcontext.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO registry_state (singleton, last_id, total_mints, total_burns, total_transfers)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (singleton) DO UPDATE SET
			last_id = EXCLUDED.last_id,
			total_mints = EXCLUDED.total_mints,
			total_burns = EXCLUDED.total_burns,
			total_transfers = EXCLUDED.total_transfers`,
		int64(state.LastID), state.TotalMints, state.TotalBurns, state.TotalTransfers,
	)
	if err != nil {
		return fmt.Errorf("save registry state: %w", err)
	}
	return nil
}
