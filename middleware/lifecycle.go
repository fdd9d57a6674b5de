package middleware

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/tokengate"
)

// ReissueHandler serves POST /reissue. The refresh token is read from the
// refresh cookie; a rotated pair is written the same way CredentialFilter
// writes one. Client-side problems answer 400 with a reason body; store
// failures answer 500.
func ReissueHandler(engine *tokengate.Engine) http.Handler {
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

		token := refreshCookie(r, engine)
		pair, err := engine.Reissue(r.Context(), token)
		if err != nil {
			writeLifecycleError(w, r, engine, "reissue", err)
			return
		}

		writePair(w, engine, pair)
	})
}

// LogoutHandler serves POST /logout. It removes the refresh record and clears
// the cookie. No access token is required.
func LogoutHandler(engine *tokengate.Engine) http.Handler {
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

		token := refreshCookie(r, engine)
		if err := engine.Logout(r.Context(), token); err != nil {
			writeLifecycleError(w, r, engine, "logout", err)
			return
		}

		http.SetCookie(w, engine.RefreshCookie(""))
		w.WriteHeader(http.StatusOK)
	})
}

func refreshCookie(r *http.Request, engine *tokengate.Engine) string {
	c, err := r.Cookie(engine.RefreshCookieName())
	if err != nil {
		return ""
	}
	return c.Value
}

func writeLifecycleError(w http.ResponseWriter, r *http.Request, engine *tokengate.Engine, op string, err error) {
	if reason := tokengate.ReissueReason(err); reason != "" {
		http.Error(w, reason, http.StatusBadRequest)
		return
	}
	if errors.Is(err, tokengate.ErrReissueRateLimited) {
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return
	}
	engine.Logger().ErrorContext(r.Context(), op+" failed", "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
