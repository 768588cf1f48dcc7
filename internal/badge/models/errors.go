package models

import "errors"

// Categorical failure reasons for registry operations. Every mutating or
// validating operation returns a success value or exactly one of these;
// a failed operation leaves all state unchanged.
//
// Services translate these into coded domain errors at the transport
// boundary; inside the badge packages they are matched with errors.Is.
var (
	// ErrInvalidURI: URI length outside [1, MaxURILen].
	ErrInvalidURI = errors.New("invalid badge URI")

	// ErrNotOwner: caller is not the current owner of the target badge.
	ErrNotOwner = errors.New("caller is not the badge owner")

	// ErrBadgeNotFound: no owner exists for the referenced id (never minted,
	// or already burned).
	ErrBadgeNotFound = errors.New("badge not found")

	// ErrAlreadyBurned: the badge's burned flag is already set.
	ErrAlreadyBurned = errors.New("badge already burned")

	// ErrBatchTooLarge: batch mint request exceeds MaxBatchSize.
	ErrBatchTooLarge = errors.New("batch mint too large")

	// ErrInvalidExpiry: time-limited mint with an expiry not strictly in the
	// future.
	ErrInvalidExpiry = errors.New("expiry must be in the future")

	// ErrNotTimeLimited: expiry-burn requested on a badge with no recorded
	// expiry.
	ErrNotTimeLimited = errors.New("badge is not time-limited")

	// ErrNotYetExpired: expiry-burn requested before the recorded expiry
	// height is reached.
	ErrNotYetExpired = errors.New("badge has not expired yet")

	// ErrInvalidID: metadata query with id < 1.
	ErrInvalidID = errors.New("badge id must be at least 1")

	// ErrIDOutOfRange: metadata query with id beyond the last issued id.
	ErrIDOutOfRange = errors.New("badge id beyond last issued id")

	// ErrURIMissing: an id inside the issued range has no URI recorded.
	// Internal-consistency violation; surfaced, never silently defaulted.
	ErrURIMissing = errors.New("badge URI missing for issued id")

	// ErrOwnerMissing: an id inside the issued range is unburned but has no
	// owner. Internal-consistency violation like ErrURIMissing.
	ErrOwnerMissing = errors.New("badge owner missing for issued id")

	// ErrMintFailed: the ownership primitive rejected the grant. Unreachable
	// while id assignment stays monotonic, but surfaced rather than assumed.
	ErrMintFailed = errors.New("ownership grant rejected")
)
