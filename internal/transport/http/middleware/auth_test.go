package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/vedran77/glamplanner/internal/domain"
)

type stubVerifier map[string]domain.Identity

func (s stubVerifier) VerifyToken(token string) (domain.Identity, error) {
	id, ok := s[token]
	if !ok {
		return domain.Identity{}, errors.New("bad token")
	}
	return id, nil
}

func TestAuthAndRequireRole(t *testing.T) {
	admin := domain.Identity{ID: uuid.New(), Username: "mia", Role: domain.RoleAdmin}
	user := domain.Identity{ID: uuid.New(), Username: "ana", Role: domain.RoleUser}
	verifier := stubVerifier{"admin-token": admin, "user-token": user}

	var seen domain.Identity
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Auth(verifier)(RequireRole(domain.RoleAdmin)(final))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer user-token", http.StatusForbidden},
		{"admin", "Bearer admin-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/plans/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
		})
	}

	assert.Equal(t, admin, seen)
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	handler := RequireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
