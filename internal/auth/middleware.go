package auth

import (
	"context"
	"net/http"
	"strings"

	"petcare/internal/db"
)

type contextKey struct{}

var claimsKey contextKey

// FromContext returns the session claims set by the middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// Middleware authenticates any logged-in user (customer or doctor).
func Middleware(secret string) func(http.Handler) http.Handler {
	return requireRoles(secret, db.RoleCustomer, db.RoleDoctor)
}

// DoctorMiddleware restricts a subrouter to veterinary service providers.
func DoctorMiddleware(secret string) func(http.Handler) http.Handler {
	return requireRoles(secret, db.RoleDoctor)
}

// AdminMiddleware restricts a subrouter to admin tokens.
func AdminMiddleware(secret string) func(http.Handler) http.Handler {
	return requireRoles(secret, RoleAdmin)
}

func requireRoles(secret string, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			claims, err := ParseToken(secret, token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if !allowed[claims.Role] {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
