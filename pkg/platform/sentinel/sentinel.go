package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and platform layers return
// these (optionally wrapped) so services can translate them into coded domain
// errors without inspecting store internals.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in the store
// - ErrConflict: write collides with existing state (e.g. duplicate badge id)
// - ErrInvalidState: entity in the wrong state for the requested operation
// - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
