package middleware

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/MrEthical07/tokengate"
)

const maxLoginBody = 1 << 16

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CredentialFilter serves POST /login. Credentials come from form fields
// "username" and "password", or from a JSON body with the same keys. On
// success the access token is returned in the access header, the refresh
// token in an HttpOnly cookie, and the body is empty.
func CredentialFilter(engine *tokengate.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if engine == nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		creds, err := readCredentials(w, r)
		if err != nil {
			http.Error(w, "malformed login request", http.StatusBadRequest)
			return
		}

		pair, err := engine.Login(r.Context(), creds.Username, creds.Password)
		if err != nil {
			switch {
			case errors.Is(err, tokengate.ErrInvalidCredentials):
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			case errors.Is(err, tokengate.ErrLoginRateLimited):
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			default:
				engine.Logger().ErrorContext(r.Context(), "login failed", "username", creds.Username, "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
			return
		}

		writePair(w, engine, pair)
	})
}

func readCredentials(w http.ResponseWriter, r *http.Request) (loginRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return loginRequest{}, err
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return loginRequest{}, err
	}
	return loginRequest{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}, nil
}

func writePair(w http.ResponseWriter, engine *tokengate.Engine, pair *tokengate.TokenPair) {
	w.Header().Set(engine.AccessHeader(), pair.AccessToken)
	http.SetCookie(w, engine.RefreshCookie(pair.RefreshToken))
	w.WriteHeader(http.StatusOK)
}
