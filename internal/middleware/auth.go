package middleware

import (
	"context"
	"net/http"
	"strings"

	"expense-api/internal/auth"
	"expense-api/internal/http/respond"
	"expense-api/internal/models"
	"expense-api/internal/storage"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity is the acting identity for a request: the user resolved from the
// presented bearer token, plus the token's ID so logout can revoke exactly
// the credential it was called with.
type Identity struct {
	User    models.User
	TokenID string
}

// IdentityFromContext extracts the acting identity set by RequireAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	return identity, ok
}

// WithIdentity returns a context carrying the acting identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// RequireAuth builds middleware that rejects requests without a live bearer
// token. The token must carry a valid signature and its ID must still be
// present in the token store; a revoked token fails here even if its
// signature checks out.
func RequireAuth(tokens *auth.TokenManager, store storage.TokenStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				respond.Message(w, http.StatusUnauthorized, "Unauthenticated.")
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				respond.Message(w, http.StatusUnauthorized, "Unauthenticated.")
				return
			}

			user, err := store.FindTokenUser(r.Context(), claims.TokenID)
			if err != nil || user.ID != claims.UserID {
				respond.Message(w, http.StatusUnauthorized, "Unauthenticated.")
				return
			}

			identity := Identity{User: user, TokenID: claims.TokenID}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
