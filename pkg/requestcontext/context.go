// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services and the registry consume them. The
// package stays free of net/http so domain code never imports transport
// concerns.
//
// Usage in services (read values):
//
//	caller := requestcontext.Caller(ctx)
//	height := requestcontext.BlockHeight(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithCaller(ctx, principal)
//	ctx = requestcontext.WithBlockHeight(ctx, height)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithBlockHeight(ctx, 100)
package requestcontext

import (
	"context"
	"time"

	id "crest/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	callerKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	blockHeightKey struct{}
)

// Caller retrieves the authenticated caller principal from the context.
// Returns the zero value if not set.
func Caller(ctx context.Context) id.Principal {
	if p, ok := ctx.Value(callerKey{}).(id.Principal); ok {
		return p
	}
	return ""
}

// WithCaller injects the caller principal into the context.
func WithCaller(ctx context.Context, caller id.Principal) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests and for workers that need consistent time within a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// BlockHeight retrieves the chain block height observed when the request
// entered the system. Returns 0 and false when no height was injected.
func BlockHeight(ctx context.Context) (uint64, bool) {
	h, ok := ctx.Value(blockHeightKey{}).(uint64)
	return h, ok
}

// WithBlockHeight injects a block height into the context. Middleware reads
// the chain clock once per request so every expiry decision inside one
// operation sees the same height.
func WithBlockHeight(ctx context.Context, height uint64) context.Context {
	return context.WithValue(ctx, blockHeightKey{}, height)
}
