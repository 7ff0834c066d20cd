package handlers

import (
	"context"
	"net/http"

	"elitetransport-backend/internal/apperr"
	"elitetransport-backend/internal/models"
)

type contextKey string

const userContextKey contextKey = "auth_user"

// AuthVerifier is the narrow Verify surface the auth middleware needs.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (*models.User, error)
	IsAdmin(email string) bool
}

// RequireAuth resolves the bearer token to its session owner and stores the
// user on the request context; missing or invalid tokens short-circuit with
// AuthRequired.
func RequireAuth(verifier AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, apperr.New(apperr.AuthRequired, "missing bearer token"))
				return
			}
			user, err := verifier.Verify(r.Context(), token)
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin wraps RequireAuth's output and additionally rejects a caller
// whose email is not on the administrator allow-list. Must be mounted
// after RequireAuth so the user is already on the context.
func RequireAdmin(verifier AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil || !verifier.IsAdmin(user.Email) {
				writeError(w, apperr.New(apperr.Forbidden, "admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the authenticated user RequireAuth attached, or
// nil if the request never passed through it.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}
