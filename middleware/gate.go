package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/tokengate"
)

const (
	bodyAccessExpired = "access token expired"
	bodyWrongType     = "invalid token type"
	bodyAccessInvalid = "invalid access token"
)

// Gate authenticates requests that carry an access token. The token is read
// from the engine's access header, falling back to "Authorization: Bearer".
func Gate(engine *tokengate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			token, ok := accessToken(r, engine.AccessHeader())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			id, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, tokengate.ErrAccessExpired):
					http.Error(w, bodyAccessExpired, http.StatusUnauthorized)
				case errors.Is(err, tokengate.ErrWrongTokenType):
					http.Error(w, bodyWrongType, http.StatusUnauthorized)
				case errors.Is(err, tokengate.ErrAccessInvalid):
					http.Error(w, bodyAccessInvalid, http.StatusUnauthorized)
				default:
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(tokengate.WithIdentity(r.Context(), id)))
		})
	}
}

func accessToken(r *http.Request, header string) (string, bool) {
	if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
		return v, true
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
