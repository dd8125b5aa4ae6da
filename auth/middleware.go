package auth

import (
	"net/http"
	"strings"
)

// TokenValidator is satisfied by *JWTService.
type TokenValidator interface {
	ValidateToken(tokenString string) (AuthContext, error)
}

// Middleware attaches the caller identified by the bearer token to the
// request context. Requests without a token pass through unauthenticated;
// a malformed or invalid token is rejected.
func Middleware(validator TokenValidator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			http.Error(w, "invalid authorization format", http.StatusUnauthorized)
			return
		}

		actor, err := validator.ValidateToken(parts[1])
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), actor)))
	})
}

// RequireRole rejects requests whose caller does not hold one of roles.
func RequireRole(next http.Handler, roles ...Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := FromContext(r.Context())
		if !actor.Authenticated() {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "forbidden", http.StatusForbidden)
	})
}
