package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gennetta/gennetta/internal/service"
)

type contextKeyAuth string

// AuthPrincipalKey is the context key for the authenticated principal.
const AuthPrincipalKey contextKeyAuth = "auth_principal"

// Authenticate returns an HTTP middleware that requires a valid bearer token
// in the Authorization header. When authSvc has no secret configured the
// middleware passes every request through unchanged.
//
// On success the token's principal is attached to the request context. On
// failure a 401 JSON error response is returned.
func Authenticate(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !authSvc.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="gennetta"`)
				writeError(w, http.StatusUnauthorized, "Authentication required. Provide a Bearer token.")
				return
			}

			p, err := authSvc.ValidateJWT(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, service.ErrTokenExpired) {
					msg = "Token expired"
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="gennetta", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, msg)
				return
			}

			ctx := context.WithValue(r.Context(), AuthPrincipalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil if no principal is present (auth disabled or public route).
func GetPrincipal(ctx context.Context) *service.Principal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*service.Principal); ok {
		return p
	}
	return nil
}

// writeError writes the ErrorResponse envelope without importing the
// handler package.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{"code": status, "message": message},
	})
}
