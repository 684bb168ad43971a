package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// CORS lets the admin dashboard call the API from its own origin.
func (m *Middleware) CORS(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: m.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         86400,
	})(next)
}

// RateLimit caps requests per client IP. Telemetry arrives every few seconds per
// device, so the limit is meant to stop runaway clients only.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	if m.opts.RateLimit <= 0 {
		return next
	}
	return httprate.Limit(
		m.opts.RateLimit,
		m.opts.RateWindow,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			errorResponse(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)(next)
}
