package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"

	"github.com/gorilla/websocket"
)

// --- base auth middleware ---

// Auth validates the JWT, loads the user and injects it into context.
// Requests without credentials continue as the anonymous user; protected routes
// reject them in RequireRoles. A bad token is answered with 401 here.
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, err := requestToken(r)
		if err != nil {
			errorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}
		if token == "" || m.auth == nil {
			next.ServeHTTP(w, r.WithContext(models.WithUser(ctx, models.AnonymousUser())))
			return
		}

		user, err := m.auth.RoleCheck(ctx, token)
		if err != nil || user == nil {
			m.log.Warn(wrap.ErrorCtx(ctx, err), "failed to authenticate user", "error", fmt.Sprint(err))
			errorResponse(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx = wrap.WithUserID(ctx, user.ID.String())
		next.ServeHTTP(w, r.WithContext(models.WithUser(ctx, user)))
	})
}

// RequireRoles wraps a handler and allows only users with one of the given roles.
// Usage: mux.Handle("GET /admin/reports/daily", m.RequireRoles(h.Daily, types.RoleAdmin))
func (m *Middleware) RequireRoles(next http.HandlerFunc, allowedRoles ...types.UserRole) http.Handler {
	allowed := make(map[types.UserRole]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := models.UserFromContext(r.Context())
		if user.IsAnonymous() {
			errorResponse(w, http.StatusUnauthorized, "authorization required")
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[user.Role]; !ok {
				errorResponse(w, http.StatusForbidden, "forbidden: insufficient role")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// requestToken reads the bearer token. Browsers cannot set headers on a websocket
// handshake, so upgrades may pass it as the access_token query parameter.
func requestToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		return extractBearerToken(header)
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("access_token"), nil
	}
	return "", nil
}

// --- header parser ---
func extractBearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}
