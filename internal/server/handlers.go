package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/MrEthical07/tokengate"
	"github.com/MrEthical07/tokengate/internal/logging"
	"github.com/MrEthical07/tokengate/users"
)

const maxJoinBody = 1 << 16

type handlers struct {
	engine    *tokengate.Engine
	registrar *users.Registrar
	logger    *logging.Logger
	ready     func(context.Context) error
}

type currentUser struct {
	CurrentUsername string `json:"currentUsername"`
	CurrentRole     string `json:"currentRole"`
}

func (h *handlers) join(w http.ResponseWriter, r *http.Request) {
	if h.registrar == nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	var req users.JoinRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJoinBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	res, err := h.registrar.Register(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, users.ErrInvalidJoin):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, users.ErrUserExists):
		writeJSONError(w, http.StatusConflict, "username already taken")
	default:
		h.logger.ErrorContext(r.Context(), "join failed", logging.Username(req.Username), logging.Error(err))
		writeJSONError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	id, _ := tokengate.IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, currentUser{CurrentUsername: id.Username, CurrentRole: id.Role})
}

func (h *handlers) admin(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "admin Controller")
}

// revoke deletes the refresh record named by the form field "token".
func (h *handlers) revoke(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJoinBody)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}

	err := h.engine.Revoke(r.Context(), r.PostFormValue("token"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, tokengate.ErrRefreshMissing):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.ErrorContext(r.Context(), "revoke failed", logging.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Ping(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "health check failed", "component", "redis", logging.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "health check failed", "component", "users", logging.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
