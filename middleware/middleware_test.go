package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/tokengate"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func newMiddlewareEngine(t *testing.T) (*tokengate.Engine, *fixedClock, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := tokengate.DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")

	clock := &fixedClock{now: time.Unix(1_700_000_000, 0)}
	verifier := tokengate.CredentialVerifierFunc(func(_ context.Context, username, password string) (tokengate.Identity, error) {
		switch {
		case username == "admin" && password == "admin-pass":
			return tokengate.Identity{Username: "admin", Role: "ROLE_ADMIN"}, nil
		case username == "user" && password == "user-pass":
			return tokengate.Identity{Username: "user", Role: "ROLE_USER"}, nil
		}
		return tokengate.Identity{}, tokengate.ErrInvalidCredentials
	})

	engine, err := tokengate.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithVerifier(verifier).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return engine, clock, mr
}

func newMux(engine *tokengate.Engine) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/login", CredentialFilter(engine))
	mux.Handle("/reissue", ReissueHandler(engine))
	mux.Handle("/logout", LogoutHandler(engine))
	mux.Handle("/me", Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := tokengate.IdentityFromContext(r.Context())
		_, _ = io.WriteString(w, id.Username+":"+id.Role)
	}), RequireAuthenticated()))
	mux.Handle("/admin", Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "admin Controller")
	}), RequireRole("ROLE_ADMIN")))
	mux.Handle("/open", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := tokengate.IdentityFromContext(r.Context()); ok {
			_, _ = io.WriteString(w, "authenticated")
			return
		}
		_, _ = io.WriteString(w, "anonymous")
	}))
	return Chain(mux, ClientIP(false), Gate(engine))
}

func login(t *testing.T, h http.Handler, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func refreshFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refresh" {
			return c
		}
	}
	t.Fatalf("no refresh cookie in response")
	return nil
}

func body(rec *httptest.ResponseRecorder) string {
	return strings.TrimSpace(rec.Body.String())
}

func TestLoginSetsHeaderAndCookie(t *testing.T) {
	engine, _, _ := newMiddlewareEngine(t)
	h := newMux(engine)

	rec := login(t, h, "admin", "admin-pass")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("access") == "" {
		t.Fatalf("missing access header")
	}
	c := refreshFrom(t, rec)
	if !c.HttpOnly || c.MaxAge != 86400 || c.Path != "/" || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie attributes %+v", c)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("login body should be empty, got %q", rec.Body.String())
	}
}

func TestLoginJSONBody(t *testing.T) {
	engine, _, _ := newMiddlewareEngine(t)
	h := newMux(engine)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"user","password":"user-pass"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get("access") == "" {
		t.Fatalf("json login: %d %s", rec.Code, rec.Body.String())
	}
}

func TestLoginFailures(t *testing.T) {
	engine, _, _ := newMiddlewareEngine(t)
	h := newMux(engine)

	if rec := login(t, h, "admin", "bad"); rec.Code != http.StatusUnauthorized || len(rec.Result().Cookies()) != 0 {
		t.Fatalf("bad password: %d", rec.Code)
	}
	for i := 0; i < 5; i++ {
		login(t, h, "user", "bad")
	}
	if rec := login(t, h, "user", "user-pass"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /login: %d", rec.Code)
	}
}

func TestGateOutcomes(t *testing.T) {
	engine, clock, _ := newMiddlewareEngine(t)
	h := newMux(engine)

	rec := login(t, h, "user", "user-pass")
	access := rec.Header().Get("access")
	refresh := refreshFrom(t, rec).Value

	get := func(path string, set func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if set != nil {
			set(req)
		}
		out := httptest.NewRecorder()
		h.ServeHTTP(out, req)
		return out
	}

	if out := get("/open", nil); out.Code != http.StatusOK || body(out) != "anonymous" {
		t.Fatalf("no token should pass through: %d %q", out.Code, body(out))
	}
	if out := get("/me", nil); out.Code != http.StatusForbidden {
		t.Fatalf("protected route without token: %d", out.Code)
	}
	if out := get("/me", func(r *http.Request) { r.Header.Set("access", access) }); out.Code != http.StatusOK || body(out) != "user:ROLE_USER" {
		t.Fatalf("valid token: %d %q", out.Code, body(out))
	}
	if out := get("/me", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+access) }); out.Code != http.StatusOK {
		t.Fatalf("bearer fallback: %d", out.Code)
	}
	if out := get("/admin", func(r *http.Request) { r.Header.Set("access", access) }); out.Code != http.StatusForbidden {
		t.Fatalf("wrong role: %d", out.Code)
	}
	if out := get("/open", func(r *http.Request) { r.Header.Set("access", refresh) }); out.Code != http.StatusUnauthorized || body(out) != "invalid token type" {
		t.Fatalf("refresh as access: %d %q", out.Code, body(out))
	}
	if out := get("/open", func(r *http.Request) { r.Header.Set("access", "a.b.c") }); out.Code != http.StatusUnauthorized || body(out) != "invalid access token" {
		t.Fatalf("malformed: %d %q", out.Code, body(out))
	}

	clock.now = clock.now.Add(time.Hour)
	if out := get("/open", func(r *http.Request) { r.Header.Set("access", access) }); out.Code != http.StatusUnauthorized || body(out) != "access token expired" {
		t.Fatalf("expired: %d %q", out.Code, body(out))
	}
}

func TestAdminRoute(t *testing.T) {
	engine, _, _ := newMiddlewareEngine(t)
	h := newMux(engine)

	access := login(t, h, "admin", "admin-pass").Header().Get("access")
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("access", access)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || body(rec) != "admin Controller" {
		t.Fatalf("admin: %d %q", rec.Code, body(rec))
	}
}

func post(h http.Handler, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestReissueEndpoint(t *testing.T) {
	engine, clock, _ := newMiddlewareEngine(t)
	h := newMux(engine)

	first := refreshFrom(t, login(t, h, "admin", "admin-pass"))

	clock.now = clock.now.Add(time.Second)
	rec := post(h, "/reissue", &http.Cookie{Name: "refresh", Value: first.Value})
	if rec.Code != http.StatusOK || rec.Header().Get("access") == "" {
		t.Fatalf("reissue: %d %q", rec.Code, body(rec))
	}
	second := refreshFrom(t, rec)
	if second.Value == first.Value {
		t.Fatalf("refresh token must rotate")
	}

	if rec := post(h, "/reissue", &http.Cookie{Name: "refresh", Value: first.Value}); rec.Code != http.StatusBadRequest || body(rec) != "refresh token is not found" {
		t.Fatalf("replay: %d %q", rec.Code, body(rec))
	}
	if rec := post(h, "/reissue", nil); rec.Code != http.StatusBadRequest || body(rec) != "refresh token is missing" {
		t.Fatalf("missing: %d %q", rec.Code, body(rec))
	}
	if rec := post(h, "/reissue", &http.Cookie{Name: "refresh", Value: "junk"}); rec.Code != http.StatusBadRequest || body(rec) != "token is invalid" {
		t.Fatalf("junk: %d %q", rec.Code, body(rec))
	}

	clock.now = clock.now.Add(48 * time.Hour)
	if rec := post(h, "/reissue", &http.Cookie{Name: "refresh", Value: second.Value}); rec.Code != http.StatusBadRequest || body(rec) != "refresh token is expired" {
		t.Fatalf("expired: %d %q", rec.Code, body(rec))
	}
}

func TestReissueStoreDown(t *testing.T) {
	engine, _, mr := newMiddlewareEngine(t)
	h := newMux(engine)

	c := refreshFrom(t, login(t, h, "admin", "admin-pass"))
	mr.Close()

	if rec := post(h, "/reissue", &http.Cookie{Name: "refresh", Value: c.Value}); rec.Code != http.StatusInternalServerError {
		t.Fatalf("store down should be 500, got %d", rec.Code)
	}
}

func TestLogoutEndpoint(t *testing.T) {
	engine, _, _ := newMiddlewareEngine(t)
	h := newMux(engine)

	c := refreshFrom(t, login(t, h, "admin", "admin-pass"))

	rec := post(h, "/logout", &http.Cookie{Name: "refresh", Value: c.Value})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d %q", rec.Code, body(rec))
	}
	cleared := refreshFrom(t, rec)
	if cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Fatalf("cookie not cleared: %+v", cleared)
	}

	if rec := post(h, "/logout", &http.Cookie{Name: "refresh", Value: c.Value}); rec.Code != http.StatusOK {
		t.Fatalf("repeat logout: %d", rec.Code)
	}
	if rec := post(h, "/reissue", &http.Cookie{Name: "refresh", Value: c.Value}); rec.Code != http.StatusBadRequest {
		t.Fatalf("reissue after logout: %d", rec.Code)
	}
	if rec := post(h, "/logout", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("logout without cookie: %d", rec.Code)
	}
}

func TestRemoteIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")

	if got := remoteIP(req, false); got != "192.0.2.10" {
		t.Fatalf("untrusted proxy: %q", got)
	}
	if got := remoteIP(req, true); got != "198.51.100.1" {
		t.Fatalf("trusted proxy: %q", got)
	}
}
