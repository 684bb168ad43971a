package middleware

import (
	"fmt"
	"net/http"

	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"
)

func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				ctx := wrap.WithAction(r.Context(), "panic_recovered")
				m.log.Error(ctx, "panic while serving request", fmt.Errorf("%v", p), "URL", r.URL.Path)

				w.Header().Set("Connection", "close")
				errorResponse(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
