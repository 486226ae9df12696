package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/cifsgate/pkg/server"
)

// ServerHandler reports the server summary and its session handlers.
type ServerHandler struct {
	srv *server.Server
}

func NewServerHandler(srv *server.Server) *ServerHandler {
	return &ServerHandler{srv: srv}
}

// Info handles GET /server.
func (h *ServerHandler) Info(w http.ResponseWriter, r *http.Request) {
	mgr := h.srv.AccessControl()
	info := ServerInfo{
		Name:           h.srv.Name(),
		Sessions:       h.srv.Sessions().Len(),
		Handlers:       h.srv.Handlers().Len(),
		Shares:         h.srv.Shares().Len(),
		DefaultVerdict: verdictString(mgr.DefaultVerdict()),
		Rules:          len(mgr.Rules()),
		RuleTypes:      mgr.Types(),
		OpenFiles:      h.srv.Locks().Len(),
	}
	if started := h.srv.StartedAt(); !started.IsZero() {
		info.StartedAt = started.UTC()
		info.Uptime = time.Since(started).Truncate(time.Second).String()
	}
	writeJSON(w, http.StatusOK, info)
}

// ListHandlers handles GET /handlers.
func (h *ServerHandler) ListHandlers(w http.ResponseWriter, r *http.Request) {
	handlers := h.srv.Handlers().Handlers()
	out := make([]HandlerInfo, 0, len(handlers))
	for _, sh := range handlers {
		out = append(out, handlerInfo(sh))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetHandler handles GET /handlers/{name}.
func (h *ServerHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sh, ok := h.srv.Handlers().Find(name)
	if !ok {
		notFound(w, "session handler "+name+" not found")
		return
	}
	writeJSON(w, http.StatusOK, handlerInfo(sh))
}
