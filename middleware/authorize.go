package middleware

import (
	"net/http"

	"github.com/MrEthical07/tokengate"
)

const bodyForbidden = "forbidden"

// RequireAuthenticated answers 403 unless Gate attached an identity.
func RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := tokengate.IdentityFromContext(r.Context()); !ok {
				http.Error(w, bodyForbidden, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole answers 403 unless the identity carries role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := tokengate.IdentityFromContext(r.Context())
			if !ok || !id.HasRole(role) {
				http.Error(w, bodyForbidden, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Chain wraps h so that mws run in the order given.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
