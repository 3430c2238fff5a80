package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/nerrad567/gray-logic-systembus/internal/auth"
)

// ctxKeyClaims is the context key for the authenticated token claims.
const ctxKeyClaims contextKey = "claims"

// ErrCodeUnauthorized and ErrCodeForbidden are returned by require.
const (
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
)

// require returns middleware that admits callers whose token grants perm.
//
// The token is read from "Authorization: Bearer <token>" or, for WebSocket
// clients that cannot set headers, the "token" query parameter. Without a
// configured secret every request is admitted.
func (s *Server) require(perm auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if s.cfg.Auth.JWTSecret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
				return
			}

			claims, err := auth.ParseToken(token, s.cfg.Auth.JWTSecret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid or expired token")
				return
			}

			if !auth.HasPermission(claims.Role, perm) {
				s.logger.Warn("permission denied",
					"subject", claims.Subject,
					"role", string(claims.Role),
					"permission", string(perm),
				)
				writeError(w, http.StatusForbidden, ErrCodeForbidden, "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the access token from the request.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
