package handlers

import (
	"net/http"

	"github.com/marmos91/cifsgate/pkg/server"
)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	srv *server.Server
}

// NewHealthHandler creates a health handler. A nil server is never ready.
func NewHealthHandler(srv *server.Server) *HealthHandler {
	return &HealthHandler{srv: srv}
}

// Liveness handles GET /health. It succeeds while the HTTP server answers.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "cifsgate",
	}))
}

// Readiness handles GET /health/ready. The server is ready once it has at
// least one session handler and every handler is listening; otherwise the
// probe answers 503 with the handler list.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.srv == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("server not initialized", nil))
		return
	}

	handlers := h.srv.Handlers().Handlers()
	if len(handlers) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no session handlers registered", nil))
		return
	}

	infos := make([]HandlerInfo, 0, len(handlers))
	ready := true
	for _, sh := range handlers {
		info := handlerInfo(sh)
		ready = ready && info.Listening
		infos = append(infos, info)
	}

	data := map[string]any{
		"server":   h.srv.Name(),
		"handlers": infos,
		"sessions": h.srv.Sessions().Len(),
	}
	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("session handlers not listening", data))
		return
	}
	writeJSON(w, http.StatusOK, healthyResponse(data))
}
