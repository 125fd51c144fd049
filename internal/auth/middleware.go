package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dulces-mila/mila-backend/internal/platform/httpx"
	"github.com/dulces-mila/mila-backend/internal/shared"
	"github.com/dulces-mila/mila-backend/internal/users"
)

// Middleware resolves bearer tokens into request identities.
type Middleware struct {
	tokens *TokenStore
	logger *slog.Logger
}

// NewMiddleware constructs Middleware.
func NewMiddleware(tokens *TokenStore, logger *slog.Logger) *Middleware {
	return &Middleware{tokens: tokens, logger: logger}
}

// RequireUser rejects requests without a valid bearer token and stores the
// resolved identity in the request context.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		identity, err := m.tokens.Resolve(r.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrTokenInvalid) {
				m.logger.Error("resolve token", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid bearer token")
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin allows only authenticated admins through.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := shared.IdentityFromContext(r.Context())
		if identity == nil || identity.Role != string(users.RoleAdmin) {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
