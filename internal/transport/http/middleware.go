package http

import (
	"context"
	"net/http"
	"strings"

	"quiz-gateway/internal/domain"
)

type identityKey struct{}

// IdentityFrom extracts the authenticated caller placed by Authenticate.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(domain.Identity)
	return identity, ok
}

// Authenticate verifies the bearer credential and stores the caller identity
// in the request context. Tokens are read from the Authorization header or
// the legacy x-auth header the browser client still sends.
func (a *API) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.verifier.Verify(bearerToken(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.Header.Get("x-auth")
}
