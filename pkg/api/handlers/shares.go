package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/cifsgate/pkg/acl"
	"github.com/marmos91/cifsgate/pkg/server"
	"github.com/marmos91/cifsgate/pkg/share"
)

// SharesHandler exposes the share list and access checks against it.
type SharesHandler struct {
	srv *server.Server
}

func NewSharesHandler(srv *server.Server) *SharesHandler {
	return &SharesHandler{srv: srv}
}

// List handles GET /shares.
//
// Without parameters every share is returned, hidden ones included. With
// ?session=ID the list is what that session would see in a share
// enumeration: hidden shares dropped and access control applied.
func (h *SharesHandler) List(w http.ResponseWriter, r *http.Request) {
	var devices []*share.Device
	if raw := r.URL.Query().Get("session"); raw != "" {
		sess, ok := findSession(w, h.srv, raw)
		if !ok {
			return
		}
		var err error
		if devices, err = h.srv.SharesFor(sess.ID()); err != nil {
			notFound(w, err.Error())
			return
		}
	} else {
		devices = h.srv.Shares().All(true)
	}

	out := make([]ShareInfo, 0, len(devices))
	for _, d := range devices {
		out = append(out, shareInfo(d))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /shares/{name}.
func (h *SharesHandler) Get(w http.ResponseWriter, r *http.Request) {
	dev, ok := h.find(w, chi.URLParam(r, "name"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, shareInfo(dev))
}

// Access handles GET /shares/{name}/access?session=ID and reports the
// verdict the access control manager gives that session for the share.
func (h *SharesHandler) Access(w http.ResponseWriter, r *http.Request) {
	dev, ok := h.find(w, chi.URLParam(r, "name"))
	if !ok {
		return
	}
	raw := r.URL.Query().Get("session")
	if raw == "" {
		badRequest(w, "session query parameter is required")
		return
	}
	sess, ok := findSession(w, h.srv, raw)
	if !ok {
		return
	}

	v := h.srv.AccessControl().CheckAccessControl(sess, dev)
	writeJSON(w, http.StatusOK, AccessInfo{
		Share:   dev.Name,
		Session: sess.ID(),
		Verdict: verdictString(v),
		Allowed: v == acl.Allow,
	})
}

func (h *SharesHandler) find(w http.ResponseWriter, name string) (*share.Device, bool) {
	dev, ok := h.srv.Shares().Find(name)
	if !ok {
		notFound(w, "share "+name+" not found")
		return nil, false
	}
	return dev, true
}
