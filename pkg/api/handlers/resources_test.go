package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cifsgate/internal/adapter/smb/session"
	"github.com/marmos91/cifsgate/pkg/acl"
	"github.com/marmos91/cifsgate/pkg/server"
	"github.com/marmos91/cifsgate/pkg/share"
)

type resourceFixture struct {
	srv    *server.Server
	router http.Handler
	alice  *session.Session
	anon   *session.Session
}

// newResourceFixture builds a server with PUBLIC, PRIVATE (alice only) and
// the hidden IPC$, plus two sessions: alice logged on with one tree and an
// anonymous one.
func newResourceFixture(t *testing.T) resourceFixture {
	t.Helper()

	everyone, err := acl.NewSubnetRule("0.0.0.0", "0.0.0.0", acl.Disallow)
	require.NoError(t, err)
	shares, err := share.NewList(
		&share.Device{Name: "PUBLIC", Type: share.TypeDisk, Comment: "Public files"},
		&share.Device{Name: "PRIVATE", Type: share.TypeDisk, Rules: []acl.AccessControl{
			acl.NewUserRule("alice", acl.Allow),
			everyone,
		}},
		&share.Device{Name: "IPC$", Type: share.TypePipe},
	)
	require.NoError(t, err)

	srv := server.New(server.Options{
		Name:   "FILESRV",
		ACL:    acl.NewManager(acl.WithDefaultVerdict(acl.Allow)),
		Shares: shares,
	})
	require.NoError(t, srv.AddHandler(&fakeHandler{name: "smb", addr: "127.0.0.1:445"}))

	alice := srv.OpenSession(server.KindTCP, net.ParseIP("10.0.0.5"))
	ci := session.NewClientInfo("alice", []byte("secret"))
	ci.Domain = "WORKGROUP"
	alice.SetClientInfo(ci)
	alice.SetProcessID(4242)
	alice.ConnectTree("PUBLIC")

	anon := srv.OpenSession(server.KindNetBIOS, net.ParseIP("10.0.0.9"))

	sh := NewServerHandler(srv)
	sessions := NewSessionsHandler(srv)
	shs := NewSharesHandler(srv)

	r := chi.NewRouter()
	r.Get("/server", sh.Info)
	r.Get("/handlers", sh.ListHandlers)
	r.Get("/handlers/{name}", sh.GetHandler)
	r.Get("/sessions", sessions.List)
	r.Get("/sessions/{id}", sessions.Get)
	r.Get("/shares", shs.List)
	r.Get("/shares/{name}", shs.Get)
	r.Get("/shares/{name}/access", shs.Access)

	return resourceFixture{srv: srv, router: r, alice: alice, anon: anon}
}

func (f resourceFixture) get(t *testing.T, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(w.Body).Decode(out))
	}
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) Problem {
	t.Helper()
	assert.Equal(t, ContentTypeProblemJSON, w.Header().Get("Content-Type"))
	var p Problem
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	return p
}

func TestServerInfo(t *testing.T) {
	f := newResourceFixture(t)

	var info ServerInfo
	w := f.get(t, "/server", &info)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "FILESRV", info.Name)
	assert.Equal(t, 2, info.Sessions)
	assert.Equal(t, 1, info.Handlers)
	assert.Equal(t, 3, info.Shares)
	assert.Equal(t, "allow", info.DefaultVerdict)
	assert.Contains(t, info.RuleTypes, acl.TypeAddress)
	assert.True(t, info.StartedAt.IsZero(), "server was never started")
	assert.Empty(t, info.Uptime)
}

func TestListHandlers(t *testing.T) {
	f := newResourceFixture(t)

	var handlers []HandlerInfo
	w := f.get(t, "/handlers", &handlers)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, handlers, 1)
	assert.Equal(t, "smb", handlers[0].Name)
	assert.Equal(t, "tcp", handlers[0].Protocol)
	assert.True(t, handlers[0].Listening)
	assert.Nil(t, handlers[0].ActiveConnections)

	var one HandlerInfo
	w = f.get(t, "/handlers/smb", &one)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "127.0.0.1:445", one.Address)

	w = f.get(t, "/handlers/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decodeProblem(t, w).Detail, "missing")
}

func TestListSessions(t *testing.T) {
	f := newResourceFixture(t)

	var sessions []SessionInfo
	w := f.get(t, "/sessions", &sessions)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, sessions, 2)

	assert.Equal(t, f.alice.ID(), sessions[0].ID)
	assert.Equal(t, "alice", sessions[0].User)
	assert.Equal(t, "WORKGROUP", sessions[0].Domain)
	assert.Equal(t, "Normal", sessions[0].LogonType)
	assert.Equal(t, "10.0.0.5", sessions[0].RemoteAddress)
	assert.Equal(t, uint32(4242), sessions[0].ProcessID)
	assert.Equal(t, []TreeInfo{{ID: 1, Share: "PUBLIC"}}, sessions[0].Trees)

	assert.Equal(t, "netbios", sessions[1].Protocol)
	assert.Empty(t, sessions[1].User)
	assert.Empty(t, sessions[1].Trees)
}

func TestGetSession(t *testing.T) {
	f := newResourceFixture(t)

	t.Run("Found", func(t *testing.T) {
		var info SessionInfo
		w := f.get(t, "/sessions/"+itoa(f.alice.ID()), &info)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", info.User)
	})

	t.Run("NotFound", func(t *testing.T) {
		w := f.get(t, "/sessions/99999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("InvalidID", func(t *testing.T) {
		w := f.get(t, "/sessions/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, http.StatusBadRequest, decodeProblem(t, w).Status)
	})

	t.Run("PasswordNotExposed", func(t *testing.T) {
		w := f.get(t, "/sessions/"+itoa(f.alice.ID()), nil)
		assert.NotContains(t, w.Body.String(), "secret")
	})
}

func TestListShares(t *testing.T) {
	f := newResourceFixture(t)

	t.Run("All", func(t *testing.T) {
		var shares []ShareInfo
		w := f.get(t, "/shares", &shares)
		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, shares, 3)
		assert.Equal(t, "PUBLIC", shares[0].Name)
		assert.Equal(t, "Public files", shares[0].Comment)
		assert.Equal(t, "PRIVATE", shares[1].Name)
		require.Len(t, shares[1].Rules, 2)
		assert.Equal(t, RuleInfo{Type: acl.TypeUser, Name: "alice", Verdict: "allow"}, shares[1].Rules[0])
		assert.True(t, shares[2].Hidden)
		assert.Equal(t, "pipe", shares[2].Type)
	})

	t.Run("FilteredForAlice", func(t *testing.T) {
		var shares []ShareInfo
		w := f.get(t, "/shares?session="+itoa(f.alice.ID()), &shares)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"PUBLIC", "PRIVATE"}, shareNames(shares))
	})

	t.Run("FilteredForAnonymous", func(t *testing.T) {
		var shares []ShareInfo
		w := f.get(t, "/shares?session="+itoa(f.anon.ID()), &shares)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"PUBLIC"}, shareNames(shares))
	})

	t.Run("UnknownSession", func(t *testing.T) {
		w := f.get(t, "/shares?session=77777", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetShare(t *testing.T) {
	f := newResourceFixture(t)

	var info ShareInfo
	w := f.get(t, "/shares/private", &info)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PRIVATE", info.Name)

	w = f.get(t, "/shares/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShareAccess(t *testing.T) {
	f := newResourceFixture(t)

	tests := []struct {
		name    string
		path    string
		code    int
		verdict string
		allowed bool
	}{
		{"AliceAllowed", "/shares/PRIVATE/access?session=" + itoa(f.alice.ID()), http.StatusOK, "allow", true},
		{"AnonymousRefused", "/shares/PRIVATE/access?session=" + itoa(f.anon.ID()), http.StatusOK, "disallow", false},
		{"DefaultApplies", "/shares/PUBLIC/access?session=" + itoa(f.anon.ID()), http.StatusOK, "allow", true},
		{"MissingSession", "/shares/PUBLIC/access", http.StatusBadRequest, "", false},
		{"UnknownShare", "/shares/NOPE/access?session=1", http.StatusNotFound, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var info AccessInfo
			w := f.get(t, tt.path, &info)
			require.Equal(t, tt.code, w.Code)
			if tt.code != http.StatusOK {
				return
			}
			assert.Equal(t, tt.verdict, info.Verdict)
			assert.Equal(t, tt.allowed, info.Allowed)
		})
	}
}

func shareNames(shares []ShareInfo) []string {
	names := make([]string, 0, len(shares))
	for _, s := range shares {
		names = append(names, s.Name)
	}
	return names
}

func itoa(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
