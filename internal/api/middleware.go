package api

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKeyUsername struct{}

// Username returns the authenticated username from the context.
func Username(ctx context.Context) string {
	username, _ := ctx.Value(contextKeyUsername{}).(string)
	return username
}

type tokenClaims struct {
	Username string   `json:"user_name"`
	Roles    []string `json:"authorities"`
	jwt.RegisteredClaims
}

// RequireRole verifies the bearer token and checks it carries the role.
// The authorization server signs with HS256 using the shared verifying key;
// auth policy beyond that lives upstream.
func RequireRole(verifyingKey string, role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}

			var claims tokenClaims
			_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
				return []byte(verifyingKey), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil {
				logger.Warn("rejected token", "err", err)
				unauthorized(w, "invalid or expired token")
				return
			}

			if role != "" && !slices.Contains(claims.Roles, role) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden"}`))
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyUsername{}, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
