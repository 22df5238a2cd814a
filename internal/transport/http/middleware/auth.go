package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vedran77/glamplanner/internal/domain"
)

type contextKey string

const IdentityKey contextKey = "identity"

var errNoIdentity = errors.New("no identity in context")

// TokenVerifier resolves a bearer token to the caller's identity.
type TokenVerifier interface {
	VerifyToken(token string) (domain.Identity, error)
}

func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				jsonError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid token")
				return
			}

			identity, err := verifier.VerifyToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				jsonError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole must run after Auth.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := IdentityFrom(r.Context())
			if err != nil {
				jsonError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid token")
				return
			}
			if identity.Role != role {
				jsonError(w, http.StatusForbidden, "FORBIDDEN", "This action requires the "+role.String()+" role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func IdentityFrom(ctx context.Context) (domain.Identity, error) {
	identity, ok := ctx.Value(IdentityKey).(domain.Identity)
	if !ok {
		return domain.Identity{}, errNoIdentity
	}
	return identity, nil
}

// GetIdentity is for handlers mounted behind Auth.
func GetIdentity(ctx context.Context) domain.Identity {
	return ctx.Value(IdentityKey).(domain.Identity)
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
