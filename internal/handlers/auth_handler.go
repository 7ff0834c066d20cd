package handlers

import (
	"context"
	"net/http"
	"strings"

	"elitetransport-backend/internal/apperr"
	"elitetransport-backend/internal/models"
)

// AuthService defines the sign-up/sign-in/federated-auth/verify operations
// AuthHandler needs.
type AuthService interface {
	SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthResult, error)
	SignIn(ctx context.Context, req *models.SignInRequest) (*models.AuthResult, error)
	GoogleAuth(ctx context.Context, req *models.GoogleAuthRequest) (*models.AuthResult, error)
	Verify(ctx context.Context, token string) (*models.User, error)
	IsAdmin(email string) bool
}

// AuthHandler serves account creation, sign-in, federated sign-in, and
// bearer-token verification.
type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.auth.SignUp(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.auth.SignIn(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Google handles POST /api/auth/google.
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req models.GoogleAuthRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.auth.GoogleAuth(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Verify handles POST /api/auth/verify, resolving the bearer token sent in
// the Authorization header to its owning user.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, apperr.New(apperr.AuthRequired, "missing bearer token"))
		return
	}
	user, err := h.auth.Verify(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    user,
		"isAdmin": h.auth.IsAdmin(user.Email),
	})
}

// bearerToken extracts the token from a "Bearer <token>" Authorization
// header, or returns "" if absent/malformed.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
