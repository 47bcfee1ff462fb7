package api

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/marmos91/nbcontents/internal/logger"
	"github.com/marmos91/nbcontents/internal/ratelimiter"
	"github.com/marmos91/nbcontents/pkg/metrics"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDFromContext returns the ID assigned by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestID reuses a client-supplied X-Request-Id or assigns a random UUID,
// and echoes it in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// Instrument logs every request and records it in m under its route
// pattern.
func Instrument(m metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			m.RecordRequest(r.Method, route, status, elapsed)

			logger.Debug("%s %s -> %d (%s, %d bytes, id=%s)",
				r.Method, r.URL.Path, status, elapsed, ww.BytesWritten(), RequestIDFromContext(r.Context()))
		})
	}
}

// Auth requires "Authorization: token <t>", "Bearer <t>" or a ?token=
// query parameter when token is non-empty. An empty token disables the
// check.
func Auth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok := validToken(r.Header.Get("Authorization"), token)
			if !ok {
				if q := r.URL.Query().Get("token"); q != "" {
					ok = subtle.ConstantTimeCompare([]byte(q), []byte(token)) == 1
				}
			}
			if !ok {
				writeJSON(w, http.StatusForbidden, errResponse{Message: "invalid or missing token", Reason: "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validToken(header, token string) bool {
	scheme, value, ok := strings.Cut(header, " ")
	if !ok {
		return false
	}
	if !strings.EqualFold(scheme, "token") && !strings.EqualFold(scheme, "bearer") {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(value)), []byte(token)) == 1
}

// sweepInterval bounds how often idle client limiters are dropped.
const sweepInterval = time.Minute

// RateLimit rejects clients exceeding their token bucket with 429. Clients
// are keyed by remote address, so RealIP must run first when behind a
// proxy.
func RateLimit(limiter *ratelimiter.KeyedLimiter, m metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		var lastSweep atomic.Int64
		lastSweep.Store(time.Now().UnixNano())

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now().UnixNano()
			if last := lastSweep.Load(); now-last > int64(sweepInterval) && lastSweep.CompareAndSwap(last, now) {
				if n := limiter.Sweep(); n > 0 {
					logger.Debug("Dropped %d idle rate limiters", n)
				}
			}

			if !limiter.Allow(clientKey(r)) {
				m.RecordRateLimited()
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusTooManyRequests, errResponse{Message: "rate limit exceeded", Reason: "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
