package auth

import (
	"context"
	"net/http"
	"strings"

	"libris/internal/httpx"
)

// Principal is the verified identity attached to a request.
type Principal struct {
	ID    int64
	Email string
	Role  Role
}

type principalKey struct{}

// PrincipalFrom extracts the verified principal, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

// Require returns middleware that rejects requests without a valid
// bearer token for the given role. An admin token satisfies a
// borrower-gated route; the reverse does not hold.
func (i *TokenIssuer) Require(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || token == "" {
				httpx.Error(w, http.StatusUnauthorized, "no token provided")
				return
			}

			claims, err := i.Verify(token)
			if err != nil {
				httpx.Error(w, http.StatusForbidden, "invalid token")
				return
			}
			if claims.Role != role && claims.Role != RoleAdmin {
				httpx.Error(w, http.StatusForbidden, "insufficient privileges")
				return
			}

			id, err := claims.SubjectID()
			if err != nil {
				httpx.Error(w, http.StatusForbidden, "invalid token")
				return
			}

			principal := &Principal{ID: id, Email: claims.Email, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, principal)))
		})
	}
}
