package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

var errRateLimited = errors.New("too many requests, try again shortly")

// RateLimit rejects requests with 429 once limiter has no tokens left.
// The limiter is shared by every request passing through the middleware.
func RateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				slog.Warn("Rate limit exceeded", "path", r.URL.Path, "username", GetUsername(r.Context()))
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, errRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
