// Package api serves the contents manager over the Jupyter Server contents
// REST API.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/marmos91/nbcontents/internal/ratelimiter"
	"github.com/marmos91/nbcontents/pkg/contents"
	"github.com/marmos91/nbcontents/pkg/metrics"
)

// Options configures the router.
type Options struct {
	// AuthToken protects /api when set.
	AuthToken string

	// RequestsPerSecond and Burst configure per-client rate limiting. Zero
	// RequestsPerSecond disables it. Ignored when Limiter is set.
	RequestsPerSecond uint
	Burst             uint

	// Limiter, when set, is used instead of one built from
	// RequestsPerSecond and Burst, so the caller can reconfigure it.
	Limiter *ratelimiter.KeyedLimiter

	// Metrics records requests. Nil means no metrics.
	Metrics metrics.HTTPMetrics

	// MetricsHandler, when set, is mounted at /metrics outside auth.
	MetricsHandler http.Handler

	// Version is reported by /api/status.
	Version string
}

// LimiterTTL is how long an idle client's bucket is kept.
const LimiterTTL = 10 * time.Minute

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(mgr *contents.Manager, opts Options) chi.Router {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoopHTTPMetrics()
	}

	limiter := opts.Limiter
	if limiter == nil && opts.RequestsPerSecond > 0 {
		limiter = ratelimiter.NewKeyed(opts.RequestsPerSecond, opts.Burst, LimiterTTL)
	}

	h := &Handler{mgr: mgr, version: opts.Version, started: time.Now().UTC(), limiter: limiter}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(Instrument(opts.Metrics))

	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(Auth(opts.AuthToken))
		r.Use(RateLimit(limiter, opts.Metrics))

		r.Get("/status", h.Status)

		// Checkpoint routes share the prefix with entry paths, so one
		// handler splits them.
		r.HandleFunc("/contents", h.Contents)
		r.HandleFunc("/contents/*", h.Contents)
	})

	return r
}
