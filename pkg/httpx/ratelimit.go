package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/plumeworks/plume/pkg/slogx"
)

// Admitter decides whether a request from a client address may proceed to a
// given endpoint. Implementations record the attempt before deciding, so a
// rejected request still counts against the caller.
type Admitter interface {
	Admit(ctx context.Context, addr, endpoint string) (bool, error)
}

// RateLimitMiddleware runs every request through the admitter before the
// handler sees it, so over-limit requests are rejected even when their
// bodies would fail validation.
func RateLimitMiddleware(a Admitter, window time.Duration) Middleware {
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			addr := ClientAddr(r)
			allowed, err := a.Admit(ctx, addr, r.URL.Path)
			if err != nil {
				log.Error("rate limit admission failed", "err", err)
				WriteJSON(w, http.StatusInternalServerError, map[string]string{
					"error": "internal_error",
				})
				return
			}

			if !allowed {
				log.Warn("rate limit exceeded", "addr", addr, "endpoint", r.URL.Path)
				w.Header().Set("Retry-After", retryAfter)
				WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"error":             "rate_limit_exceeded",
					"error_description": "Too many requests. Please try again later.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
