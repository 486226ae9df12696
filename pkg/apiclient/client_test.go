package apiclient

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cifsgate/internal/adapter/smb/session"
	"github.com/marmos91/cifsgate/pkg/api"
	"github.com/marmos91/cifsgate/pkg/server"
	"github.com/marmos91/cifsgate/pkg/share"
)

func TestNew(t *testing.T) {
	client := New("http://localhost:8080/")
	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:8080", client.BaseURL())
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

func TestWithTimeout(t *testing.T) {
	client := New("http://localhost:8080")
	short := client.WithTimeout(2 * time.Second)

	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Equal(t, 2*time.Second, short.httpClient.Timeout)
	assert.Equal(t, client.BaseURL(), short.BaseURL())
}

func TestGetWithSuccess(t *testing.T) {
	type Response struct {
		Message string `json:"message"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "1", r.URL.Query().Get("session"))
		_ = json.NewEncoder(w).Encode(Response{Message: "success"})
	}))
	defer srv.Close()

	var resp Response
	err := New(srv.URL).get(context.Background(), "/test", map[string][]string{"session": {"1"}}, &resp)
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Message)
}

func TestGetWithProblem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"type":"about:blank","title":"Not Found","status":404,"detail":"session 9 not found"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Session(context.Background(), 9)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "session 9 not found", apiErr.Detail)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Not Found (404): session 9 not found", err.Error())
}

func TestGetWithPlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Server(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Internal Server Error", apiErr.Title)
	assert.Equal(t, "boom", apiErr.Detail)
	assert.False(t, IsNotFound(err))
}

func TestGetConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

// newAdminAPI serves the real admin router over a server with one share,
// one listening handler and one logged-on session.
func newAdminAPI(t *testing.T) (*Client, uint32) {
	t.Helper()

	shares, err := share.NewList(
		&share.Device{Name: "PUBLIC", Type: share.TypeDisk},
		&share.Device{Name: "IPC$", Type: share.TypePipe},
	)
	require.NoError(t, err)
	srv := server.New(server.Options{Name: "FILESRV", Shares: shares})

	sess := srv.OpenSession(server.KindTCP, net.ParseIP("192.168.1.20"))
	sess.SetClientInfo(session.NewClientInfo("bob", nil))
	sess.ConnectTree("PUBLIC")

	ts := httptest.NewServer(api.NewRouter(srv, nil))
	t.Cleanup(ts.Close)
	return New(ts.URL), sess.ID()
}

func TestClientAgainstRouter(t *testing.T) {
	client, id := newAdminAPI(t)
	ctx := context.Background()

	t.Run("Health", func(t *testing.T) {
		h, err := client.Health(ctx)
		require.NoError(t, err)
		assert.True(t, h.Healthy())
		assert.Equal(t, "cifsgate", h.Data["service"])
	})

	t.Run("ReadyWithoutHandlers", func(t *testing.T) {
		h, err := client.Ready(ctx)
		require.NoError(t, err)
		assert.False(t, h.Healthy())
		assert.Equal(t, "no session handlers registered", h.Error)
	})

	t.Run("Server", func(t *testing.T) {
		info, err := client.Server(ctx)
		require.NoError(t, err)
		assert.Equal(t, "FILESRV", info.Name)
		assert.Equal(t, 1, info.Sessions)
		assert.Equal(t, 2, info.Shares)
	})

	t.Run("Handlers", func(t *testing.T) {
		handlers, err := client.Handlers(ctx)
		require.NoError(t, err)
		assert.Empty(t, handlers)

		_, err = client.Handler(ctx, "smb")
		assert.True(t, IsNotFound(err))
	})

	t.Run("Sessions", func(t *testing.T) {
		sessions, err := client.Sessions(ctx)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "bob", sessions[0].User)

		s, err := client.Session(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "192.168.1.20", s.RemoteAddress)
		assert.Equal(t, []Tree{{ID: 1, Share: "PUBLIC"}}, s.Trees)
	})

	t.Run("Shares", func(t *testing.T) {
		all, err := client.Shares(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		visible, err := client.SharesFor(ctx, id)
		require.NoError(t, err)
		require.Len(t, visible, 1)
		assert.Equal(t, "PUBLIC", visible[0].Name)

		ipc, err := client.Share(ctx, "IPC$")
		require.NoError(t, err)
		assert.True(t, ipc.Hidden)
	})

	t.Run("CheckAccess", func(t *testing.T) {
		access, err := client.CheckAccess(ctx, "PUBLIC", id)
		require.NoError(t, err)
		assert.True(t, access.Allowed)
		assert.Equal(t, "allow", access.Verdict)
	})
}
