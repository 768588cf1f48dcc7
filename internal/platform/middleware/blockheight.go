package middleware

import (
	"log/slog"
	"net/http"

	"crest/internal/chain"
	"crest/pkg/requestcontext"
)

// BlockHeight reads the chain clock once per request and pins the observed
// height in the context. Every expiry decision inside one operation then
// sees the same height, even if the clock ticks mid-request.
func BlockHeight(clock chain.Clock, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			height, err := clock.Height(ctx)
			if err != nil {
				// Height-dependent operations fall back to reading the
				// clock themselves and fail there if it is still down.
				logger.WarnContext(ctx, "block height unavailable",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithBlockHeight(ctx, height)))
		})
	}
}
