// Package registry implements the badge registry state machine: the rules
// governing how a badge moves between existence, ownership, metadata, and
// terminal burned state, plus the batch-issuance and expiry extensions.
//
// Every mutating operation validates inputs and caller authorization, then
// performs an atomic update across the ownership and lifecycle stores, then
// updates the lifetime counters. Operations execute to completion or fail
// entirely; partial writes are never observable. A single mutex serializes
// mutations, and a transaction runner makes the store writes of one
// operation commit together when the stores are SQL-backed.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"crest/internal/badge/models"
	"crest/internal/badge/store/lifecycle"
	"crest/internal/badge/store/ownership"
	"crest/internal/chain"
	id "crest/pkg/domain"
	"crest/pkg/platform/sentinel"
	"crest/pkg/requestcontext"
)

// TxRunner executes fn atomically: every store write inside fn commits
// together or not at all. Memory-backed deployments use the passthrough
// runner; validation-before-mutation keeps memory stores consistent without
// rollback support.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Registry is the process-wide badge registry. One instance lives for the
// lifetime of the deployed system; lastID and the lifetime counters are
// fields here, not free-floating globals, so the id-monotonicity invariant
// is enforced in exactly one place.
type Registry struct {
	mu        sync.Mutex
	owners    ownership.Store
	lifecycle lifecycle.Store
	clock     chain.Clock
	tx        TxRunner

	// Durable scalar state, guarded by mu. Mirrors the registry_state row
	// for SQL-backed deployments.
	state lifecycle.State
}

// Option configures a Registry.
type Option func(*Registry)

// WithTxRunner wraps every mutating operation in the given transaction
// runner. Required for SQL-backed stores.
func WithTxRunner(tx TxRunner) Option {
	return func(r *Registry) {
		r.tx = tx
	}
}

// New constructs a registry over the given stores and loads the durable
// state (last issued id, lifetime counters).
func New(ctx context.Context, owners ownership.Store, lc lifecycle.Store, clock chain.Clock, opts ...Option) (*Registry, error) {
	if owners == nil {
		return nil, errors.New("ownership store is required")
	}
	if lc == nil {
		return nil, errors.New("lifecycle store is required")
	}
	if clock == nil {
		return nil, errors.New("chain clock is required")
	}

	r := &Registry{
		owners:    owners,
		lifecycle: lc,
		clock:     clock,
		tx:        passthroughTx{},
	}
	for _, opt := range opts {
		opt(r)
	}

	state, err := lc.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registry state: %w", err)
	}
	r.state = state
	return r, nil
}

// height resolves the block height for this operation: the request-scoped
// value when middleware pinned one, else a fresh clock read.
func (r *Registry) height(ctx context.Context) (uint64, error) {
	if h, ok := requestcontext.BlockHeight(ctx); ok {
		return h, nil
	}
	return r.clock.Height(ctx)
}

// mutate serializes the operation and runs fn atomically. fn works on a copy
// of the durable state; the copy replaces the live state only after fn (and
// the surrounding transaction) succeed, so failed operations leave the
// in-memory state untouched as well.
func (r *Registry) mutate(ctx context.Context, fn func(ctx context.Context, state *lifecycle.State) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.state
	err := r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return fn(txCtx, &next)
	})
	if err != nil {
		return err
	}
	r.state = next
	return nil
}

// mintLocked issues one badge id to caller. Shared by Mint, MintTimeLimited,
// and BatchMint; this is the sole path that creates badge ids.
func (r *Registry) mintLocked(ctx context.Context, state *lifecycle.State, caller id.Principal, uri string) (id.BadgeID, error) {
	if err := models.ValidateURI(uri); err != nil {
		return 0, err
	}

	newID := state.LastID + 1
	if err := r.owners.Create(ctx, newID, caller); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return 0, fmt.Errorf("%w: %v", models.ErrMintFailed, err)
		}
		return 0, fmt.Errorf("grant ownership: %w", err)
	}
	if err := r.lifecycle.SetURI(ctx, newID, uri); err != nil {
		return 0, fmt.Errorf("record uri: %w", err)
	}

	state.LastID = newID
	state.TotalMints++
	return newID, nil
}

// Mint issues a new badge with the given metadata URI to caller and returns
// the assigned id, exactly lastID+1.
func (r *Registry) Mint(ctx context.Context, caller id.Principal, uri string) (id.BadgeID, error) {
	var newID id.BadgeID
	err := r.mutate(ctx, func(txCtx context.Context, state *lifecycle.State) error {
		issued, err := r.mintLocked(txCtx, state, caller, uri)
		if err != nil {
			return err
		}
		newID = issued
		return r.lifecycle.SaveState(txCtx, *state)
	})
	if err != nil {
		return 0, err
	}
	return newID, nil
}

// MintTimeLimited issues a badge whose expiry height is durably recorded in
// the same atomic operation. The expiry must be strictly in the future.
func (r *Registry) MintTimeLimited(ctx context.Context, caller id.Principal, uri string, expiry uint64) (id.BadgeID, error) {
	height, err := r.height(ctx)
	if err != nil {
		return 0, fmt.Errorf("read block height: %w", err)
	}
	if expiry <= height {
		return 0, models.ErrInvalidExpiry
	}

	var newID id.BadgeID
	err = r.mutate(ctx, func(txCtx context.Context, state *lifecycle.State) error {
		issued, err := r.mintLocked(txCtx, state, caller, uri)
		if err != nil {
			return err
		}
		if err := r.lifecycle.SetExpiry(txCtx, issued, expiry); err != nil {
			return fmt.Errorf("record expiry: %w", err)
		}
		newID = issued
		return r.lifecycle.SaveState(txCtx, *state)
	})
	if err != nil {
		return 0, err
	}
	return newID, nil
}

// BatchMint attempts one mint per URI, left to right, inside a single atomic
// operation. An element that fails URI validation is skipped, no error is
// raised for it, and the fold continues; the result holds one id per
// successful mint in mint order. Callers trade positional correspondence for
// partial-success throughput. Batches over models.MaxBatchSize fail upfront
// with ErrBatchTooLarge and mint nothing.
func (r *Registry) BatchMint(ctx context.Context, caller id.Principal, uris []string) ([]id.BadgeID, error) {
	if len(uris) > models.MaxBatchSize {
		return nil, models.ErrBatchTooLarge
	}

	var minted []id.BadgeID
	err := r.mutate(ctx, func(txCtx context.Context, state *lifecycle.State) error {
		for _, uri := range uris {
			issued, err := r.mintLocked(txCtx, state, caller, uri)
			if err != nil {
				if errors.Is(err, models.ErrInvalidURI) {
					continue
				}
				// Infrastructure failures abort the whole batch.
				return err
			}
			minted = append(minted, issued)
		}
		return r.lifecycle.SaveState(txCtx, *state)
	})
	if err != nil {
		return nil, err
	}
	return minted, nil
}

// Transfer moves a non-burned badge from caller to recipient. Self-transfer
// is allowed; the recipient needs no validation beyond being a principal.
func (r *Registry) Transfer(ctx context.Context, caller id.Principal, badgeID id.BadgeID, recipient id.Principal) error {
	return r.mutate(ctx, func(txCtx context.Context, state *lifecycle.State) error {
		badge, err := r.load(txCtx, badgeID)
		if err != nil {
			return err
		}
		if err := badge.CanTransfer(caller); err != nil {
			return err
		}
		if err := r.owners.Transfer(txCtx, badgeID, caller, recipient); err != nil {
			return fmt.Errorf("move ownership: %w", err)
		}
		state.TotalTransfers++
		return r.lifecycle.SaveState(txCtx, *state)
	})
}

// UpdateURI overwrites the badge's metadata URI. Only the current owner may
// update; burned badges are unreachable because they have no owner.
func (r *Registry) UpdateURI(ctx context.Context, caller id.Principal, badgeID id.BadgeID, newURI string) error {
	return r.mutate(ctx, func(txCtx context.Context, state *lifecycle.State) error {
		badge, err := r.load(txCtx, badgeID)
		if err != nil {
			return err
		}
		if err := badge.CanUpdateURI(caller, newURI); err != nil {
			return err
		}
		if err := r.lifecycle.SetURI(txCtx, badgeID, newURI); err != nil {
			return fmt.Errorf("record uri: %w", err)
		}
		return nil
	})
}

// Burn terminally revokes a badge held by caller: ownership is removed and
// the burned flag set, atomically. The transition is irreversible.
func (r *Registry) Burn(ctx context.Context, caller id.Principal, badgeID id.BadgeID) error {
	return r.mutate(ctx, func(txCtx context.Context, state *lifecycle.State) error {
		return r.burnLocked(txCtx, state, caller, badgeID)
	})
}

func (r *Registry) burnLocked(ctx context.Context, state *lifecycle.State, caller id.Principal, badgeID id.BadgeID) error {
	badge, err := r.load(ctx, badgeID)
	if err != nil {
		return err
	}
	if err := badge.CanBurn(caller); err != nil {
		return err
	}
	if err := r.owners.Revoke(ctx, badgeID, caller); err != nil {
		return fmt.Errorf("revoke ownership: %w", err)
	}
	if err := r.lifecycle.MarkBurned(ctx, badgeID); err != nil {
		return fmt.Errorf("mark burned: %w", err)
	}
	state.TotalBurns++
	return r.lifecycle.SaveState(ctx, *state)
}

// BurnExpired burns a time-limited badge whose expiry height has been
// reached. Callable by anyone; the burn executes on behalf of the badge's
// current owner, and any error the burn itself would raise is surfaced.
func (r *Registry) BurnExpired(ctx context.Context, badgeID id.BadgeID) error {
	height, err := r.height(ctx)
	if err != nil {
		return fmt.Errorf("read block height: %w", err)
	}

	return r.mutate(ctx, func(txCtx context.Context, state *lifecycle.State) error {
		badge, err := r.load(txCtx, badgeID)
		if err != nil {
			return err
		}
		if err := badge.CanExpiryBurn(height); err != nil {
			return err
		}
		return r.burnLocked(txCtx, state, badge.Owner, badgeID)
	})
}

// load assembles a point-in-time snapshot of one badge from the stores.
// Absence is represented in the snapshot (empty owner, ok=false URI), not as
// an error; the model's Can* methods decide what absence means per operation.
func (r *Registry) load(ctx context.Context, badgeID id.BadgeID) (*models.Badge, error) {
	badge := &models.Badge{ID: badgeID}

	owner, err := r.owners.OwnerOf(ctx, badgeID)
	switch {
	case err == nil:
		badge.Owner = owner
	case errors.Is(err, sentinel.ErrNotFound):
		// no owner: never minted or burned
	default:
		return nil, fmt.Errorf("look up owner: %w", err)
	}

	uri, ok, err := r.lifecycle.URI(ctx, badgeID)
	if err != nil {
		return nil, fmt.Errorf("look up uri: %w", err)
	}
	if ok {
		badge.URI = uri
	}

	burned, err := r.lifecycle.IsBurned(ctx, badgeID)
	if err != nil {
		return nil, fmt.Errorf("look up burned flag: %w", err)
	}
	badge.Burned = burned

	expiry, ok, err := r.lifecycle.Expiry(ctx, badgeID)
	if err != nil {
		return nil, fmt.Errorf("look up expiry: %w", err)
	}
	if ok {
		badge.Expiry = expiry
	}
	return badge, nil
}
