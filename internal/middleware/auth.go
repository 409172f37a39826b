package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jason-s-yu/deckforge/internal/auth"
	"github.com/sirupsen/logrus"
)

// CookieName is the cookie that may carry an access token.
const CookieName = "auth_token"

type claimsKey struct{}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	for _, part := range strings.Split(cookieHeader, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && name == cookieName {
			return value
		}
	}
	return ""
}

// TokenFromRequest returns the access token sent with r. The Authorization
// header wins over the cookie; the token query parameter is for websocket
// clients that can set neither.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token := extractCookieToken(r.Header.Get("Cookie"), CookieName); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFrom returns the verified claims stored by Authenticate.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok && claims != nil
}

// Authenticate verifies the request's access token, if any, and stores its
// claims in the request context. Requests without a token pass through
// anonymously; requests with a bad token are rejected.
func Authenticate(keys *auth.Keys, logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := keys.Authenticate(token)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"remote": r.RemoteAddr,
					"path":   r.URL.Path,
				}).WithError(err).Warn("rejected access token")
				writeError(w, http.StatusUnauthorized, "invalid access token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole rejects requests whose token does not grant role on the
// campaign named by the {id} path value.
func RequireRole(role auth.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "access token required")
			return
		}
		if err := claims.Allows(r.PathValue("id"), role); err != nil {
			msg := "forbidden"
			if errors.Is(err, auth.ErrForbidden) {
				msg = err.Error()
			}
			writeError(w, http.StatusForbidden, msg)
			return
		}
		next(w, r)
	}
}
