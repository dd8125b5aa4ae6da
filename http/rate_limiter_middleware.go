package http

import (
	"net"
	"net/http"

	"flip-lending/auth"
)

// RateLimitMiddleware throttles per authenticated user, falling back to the
// client IP for anonymous callers.
func RateLimitMiddleware(
	limiter *RateLimiter,
	metrics *Metrics,
	next http.Handler,
) http.Handler {

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		key := clientKey(r)

		if !limiter.Allow(key) {
			if metrics != nil {
				metrics.rateLimited.Inc()
			}
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if actor := auth.FromContext(r.Context()); actor.Authenticated() {
		return "user:" + actor.UserID
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}
