package service

import (
	"context"
	"net/http"
	"strings"

	"humidity-server/internal/utils"
)

type contextKey string

// ClaimsContextKey carries the validated token claims on the request context.
const ClaimsContextKey contextKey = "claims"

// JWTMiddleware verifies the bearer token and attaches its claims to the
// request context.
func (s *Service) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			utils.WriteError(w, http.StatusUnauthorized, "Authorization header missing")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			utils.WriteError(w, http.StatusUnauthorized, "invalid token format")
			return
		}

		claims, err := s.Validate(r.Context(), tokenString)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
