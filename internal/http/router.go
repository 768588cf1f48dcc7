// Package httpapi composes the public HTTP surface: badge routes, health,
// and metrics, behind the shared middleware chain. Transport concerns stay
// here so domain packages never import net/http.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	badgehandler "crest/internal/badge/handler"
	"crest/internal/chain"
	"crest/internal/platform/middleware"
	"crest/pkg/platform/httputil"
)

const healthTimeout = 2 * time.Second

// HealthChecker reports whether one backing component is reachable.
// Satisfied by *redis.Client and the database ping adapter in main.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router needs from main.
type Deps struct {
	Logger *slog.Logger
	Badges *badgehandler.Handler
	Clock  chain.Clock

	// Named health checkers probed by /healthz; nil values are skipped.
	Health map[string]HealthChecker
}

// NewRouter wires all public endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.BlockHeight(deps.Clock, deps.Logger))

	deps.Badges.Register(r)

	r.Get("/healthz", handleHealth(deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// handleHealth probes all registered components in parallel and reports
// per-component status. Any failure turns the overall status unhealthy.
func handleHealth(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		var mu sync.Mutex
		results := make(map[string]string, len(checkers))
		g, ctx := errgroup.WithContext(ctx)
		for name, checker := range checkers {
			if checker == nil {
				continue
			}
			g.Go(func() error {
				state := "ok"
				if err := checker.Health(ctx); err != nil {
					state = err.Error()
				}
				mu.Lock()
				results[name] = state
				mu.Unlock()
				return nil
			})
		}
		// Errors are reported per component, so Wait never fails.
		_ = g.Wait()

		status := http.StatusOK
		overall := "ok"
		for _, state := range results {
			if state != "ok" {
				status = http.StatusServiceUnavailable
				overall = "degraded"
				break
			}
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status":     overall,
			"components": results,
		})
	}
}
