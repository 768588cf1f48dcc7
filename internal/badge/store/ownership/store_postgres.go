package ownership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	id "crest/pkg/domain"
	"crest/pkg/platform/sentinel"
	txcontext "crest/pkg/platform/tx"
)

// Schema is the DDL for the ownership table.
const Schema = `
CREATE TABLE IF NOT EXISTS badge_owners (
	badge_id BIGINT PRIMARY KEY,
	owner    TEXT NOT NULL
);
`

const pqUniqueViolation = "23505"

// PostgresStore persists badge ownership in PostgreSQL. Writes join the
// operation's transaction when one is carried in context.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ownership store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, badgeID id.BadgeID, owner id.Principal) error {
	q := txcontext.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO badge_owners (badge_id, owner) VALUES ($1, $2)`,
		int64(badgeID), owner.String(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("badge %s already owned: %w", badgeID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create badge owner: %w", err)
	}
	return nil
}

func (s *PostgresStore) OwnerOf(ctx context.Context, badgeID id.BadgeID) (id.Principal, error) {
	q := txcontext.Resolve(ctx, s.db)
	var owner string
	err := q.QueryRowContext(ctx,
		`SELECT owner FROM badge_owners WHERE badge_id = $1`,
		int64(badgeID),
	).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("badge %s has no owner: %w", badgeID, sentinel.ErrNotFound)
		}
		return "", fmt.Errorf("query badge owner: %w", err)
	}
	return id.Principal(owner), nil
}

func (s *PostgresStore) Transfer(ctx context.Context, badgeID id.BadgeID, from, to id.Principal) error {
	q := txcontext.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx,
		`UPDATE badge_owners SET owner = $1 WHERE badge_id = $2 AND owner = $3`,
		to.String(), int64(badgeID), from.String(),
	)
	if err != nil {
		return fmt.Errorf("transfer badge owner: %w", err)
	}
	return s.requireHeld(ctx, res, badgeID, from)
}

func (s *PostgresStore) Revoke(ctx context.Context, badgeID id.BadgeID, owner id.Principal) error {
	q := txcontext.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx,
		`DELETE FROM badge_owners WHERE badge_id = $1 AND owner = $2`,
		int64(badgeID), owner.String(),
	)
	if err != nil {
		return fmt.Errorf("revoke badge owner: %w", err)
	}
	return s.requireHeld(ctx, res, badgeID, owner)
}

// requireHeld distinguishes "no such badge" from "held by someone else" when
// a guarded write matched zero rows.
func (s *PostgresStore) requireHeld(ctx context.Context, res sql.Result, badgeID id.BadgeID, holder id.Principal) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	if _, err := s.OwnerOf(ctx, badgeID); err != nil {
		return err
	}
	return fmt.Errorf("badge %s not held by %s: %w", badgeID, holder, sentinel.ErrInvalidState)
}
