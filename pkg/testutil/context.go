package testutil

import (
	"net/http"

	id "crest/pkg/domain"
	"crest/pkg/requestcontext"
)

// WithCaller adds a caller principal to the request context, simulating what
// the auth middleware does for authenticated requests.
func WithCaller(req *http.Request, caller string) *http.Request {
	p, err := id.ParsePrincipal(caller)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithCaller(req.Context(), p))
}

// WithBlockHeight pins the chain height seen by the request, simulating the
// block-height middleware.
func WithBlockHeight(req *http.Request, height uint64) *http.Request {
	return req.WithContext(requestcontext.WithBlockHeight(req.Context(), height))
}
