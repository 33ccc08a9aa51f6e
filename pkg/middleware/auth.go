// pkg/middleware/auth.go
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Deehands24/laymen-terms/pkg/jwt"
	"github.com/Deehands24/laymen-terms/pkg/response"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// UserIDFromContext returns the id placed by JWTAuth or OptionalJWTAuth.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

// BasicAuth protects operational endpoints such as /metrics.
func BasicAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// JWTAuth requires a valid bearer token and stores the user id in the context.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				response.Error(w, http.StatusUnauthorized, "Authorization header missing or invalid")
				return
			}
			claims, err := jwt.ParseToken(secret, token)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalJWTAuth lets anonymous requests through but rejects a bad token.
// Handlers compare the context user id with the id in the request body.
func OptionalJWTAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := bearerToken(r)
			if !ok {
				response.Error(w, http.StatusUnauthorized, "Authorization header missing or invalid")
				return
			}
			claims, err := jwt.ParseToken(secret, token)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// SameUser reports whether a token-authenticated request targets its own user id.
// Requests without a token always pass.
func SameUser(ctx context.Context, userID int64) bool {
	id, ok := UserIDFromContext(ctx)
	return !ok || id == userID
}
