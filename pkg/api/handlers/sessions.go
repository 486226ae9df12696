package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/cifsgate/internal/adapter/smb/session"
	"github.com/marmos91/cifsgate/pkg/server"
)

// SessionsHandler exposes the session registry.
type SessionsHandler struct {
	srv *server.Server
}

func NewSessionsHandler(srv *server.Server) *SessionsHandler {
	return &SessionsHandler{srv: srv}
}

// List handles GET /sessions. Sessions are ordered by ID.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.srv.Sessions().Sessions()

	out := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionInfo(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /sessions/{id}.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := findSession(w, h.srv, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionInfo(sess))
}

// findSession parses a session ID and finds the session, writing a 400 or
// 404 problem when it cannot.
func findSession(w http.ResponseWriter, srv *server.Server, raw string) (*session.Session, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		badRequest(w, "invalid session id "+strconv.Quote(raw))
		return nil, false
	}
	sess, ok := srv.FindSession(uint32(id))
	if !ok {
		notFound(w, "session "+raw+" not found")
		return nil, false
	}
	return sess, true
}
