package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"elitetransport-backend/internal/apperr"
	"elitetransport-backend/internal/models"
)

type stubVerifier struct {
	user    *models.User
	err     error
	admins  map[string]bool
}

func (s *stubVerifier) Verify(ctx context.Context, token string) (*models.User, error) {
	return s.user, s.err
}

func (s *stubVerifier) IsAdmin(email string) bool {
	return s.admins[email]
}

func TestRequireAuth_MissingToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run without a bearer token")
	})
	handler := RequireAuth(&stubVerifier{})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestRequireAuth_AttachesUser(t *testing.T) {
	user := &models.User{ID: 1, Email: "rider@example.com"}
	var sawUser *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawUser = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(&stubVerifier{user: user})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if sawUser == nil || sawUser.Email != "rider@example.com" {
		t.Fatalf("expected user attached to context, got %+v", sawUser)
	}
}

func TestRequireAuth_InvalidTokenPropagatesError(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run on verify failure")
	})
	handler := RequireAuth(&stubVerifier{err: apperr.New(apperr.AuthRequired, "invalid or expired session")})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestRequireAdmin_RejectsNonAdmin(t *testing.T) {
	user := &models.User{ID: 1, Email: "rider@example.com"}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run for a non-admin caller")
	})
	verifier := &stubVerifier{user: user, admins: map[string]bool{"ops@example.com": true}}
	handler := RequireAuth(verifier)(RequireAdmin(verifier)(next))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rr.Code)
	}
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	user := &models.User{ID: 1, Email: "ops@example.com"}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	verifier := &stubVerifier{user: user, admins: map[string]bool{"ops@example.com": true}}
	handler := RequireAuth(verifier)(RequireAdmin(verifier)(next))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}
