package middleware

import (
	"net/http"

	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestID reuses the caller's X-Request-ID or generates one, and puts it on the
// context for logs and published events.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		ctx := wrap.WithRequestID(r.Context(), id)
		ctx = types.WithRequestIDContext(ctx, id)

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
