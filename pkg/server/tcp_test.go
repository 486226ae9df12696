package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cifsgate/internal/adapter/smb/session"
)

// echoDispatcher replies with the session ID followed by the message.
var echoDispatcher = DispatcherFunc(func(_ context.Context, sess *session.Session, msg []byte) ([]byte, error) {
	id := sess.ID()
	out := []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
	return append(out, msg...), nil
})

// startHandler serves h in the background and stops it when the test ends.
func startHandler(t *testing.T, h *TCPHandler) {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- h.Serve(context.Background()) }()

	select {
	case <-h.Ready():
	case err := <-errCh:
		t.Fatalf("serve failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener not ready")
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, h.Stop(ctx))
		assert.NoError(t, <-errCh)
	})
}

func dial(t *testing.T, h *TCPHandler) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", h.Addr(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestTCPHandlerSessionLifecycle(t *testing.T) {
	srv := New(Options{})
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	h := NewTCPHandler(TCPConfig{Name: "smb", Kind: KindTCP, BindAddress: "127.0.0.1"}, srv, echoDispatcher, metrics)
	startHandler(t, h)
	assert.Equal(t, "smb", h.Name())
	assert.Equal(t, KindTCP, h.Protocol())

	conn := dial(t, h)
	require.NoError(t, writeFrame(conn, nbSessionMessage, []byte("ping"), time.Second))

	f, err := readFrame(context.Background(), conn, 1024, 2*time.Second, true)
	require.NoError(t, err)
	require.Len(t, f.payload, 8)
	assert.Equal(t, []byte("ping"), f.payload[4:])

	id := uint32(f.payload[0])<<24 | uint32(f.payload[1])<<16 | uint32(f.payload[2])<<8 | uint32(f.payload[3])
	sess, ok := srv.FindSession(id)
	require.True(t, ok)
	assert.Equal(t, KindTCP, sess.Protocol())
	assert.True(t, sess.RemoteAddress().IsLoopback())
	assert.Equal(t, int32(1), h.ActiveConnections())

	// Closing the client closes the session.
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		_, ok := srv.FindSession(id)
		return !ok && h.ActiveConnections() == 0
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Accepted.WithLabelValues("smb")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Closed.WithLabelValues("smb")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Frames.WithLabelValues("smb", "in")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Frames.WithLabelValues("smb", "out")))
}

func TestTCPHandlerRejectsOversizedMessage(t *testing.T) {
	srv := New(Options{})
	h := NewTCPHandler(TCPConfig{BindAddress: "127.0.0.1", MaxMessageSize: 16}, srv, echoDispatcher, nil)
	startHandler(t, h)

	conn := dial(t, h)
	require.NoError(t, writeFrame(conn, nbSessionMessage, make([]byte, 64), time.Second))

	// The server drops the connection instead of replying.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := conn.Read(make([]byte, 1))
	assert.Error(t, err)
	require.Eventually(t, func() bool { return srv.Sessions().Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestNetBIOSHandlerSessionRequest(t *testing.T) {
	srv := New(Options{})
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	h := NewTCPHandler(TCPConfig{
		Name:        "nb",
		Kind:        KindNetBIOS,
		BindAddress: "127.0.0.1",
		ServerName:  "FILESRV",
	}, srv, echoDispatcher, metrics)
	startHandler(t, h)

	request := func(called string) []byte {
		return append(encodeNetBIOSName(called, 0x20), encodeNetBIOSName("CLIENT", 0x00)...)
	}

	t.Run("UnknownName", func(t *testing.T) {
		conn := dial(t, h)
		require.NoError(t, writeFrame(conn, nbSessionRequest, request("OTHER"), time.Second))

		f, err := readFrame(context.Background(), conn, 1024, 2*time.Second, true)
		require.NoError(t, err)
		assert.Equal(t, nbNegativeResponse, f.kind)
		assert.Equal(t, []byte{nbCalledNameNotFound}, f.payload)

		require.Eventually(t, func() bool {
			return testutil.ToFloat64(metrics.Rejected.WithLabelValues("nb")) == 1
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, 0, srv.Sessions().Len())
	})

	t.Run("Accepted", func(t *testing.T) {
		conn := dial(t, h)
		require.NoError(t, writeFrame(conn, nbSessionRequest, request("filesrv"), time.Second))

		f, err := readFrame(context.Background(), conn, 1024, 2*time.Second, true)
		require.NoError(t, err)
		assert.Equal(t, nbPositiveResponse, f.kind)
		assert.Empty(t, f.payload)

		require.NoError(t, writeFrame(conn, nbSessionMessage, []byte("hi"), time.Second))
		f, err = readFrame(context.Background(), conn, 1024, 2*time.Second, true)
		require.NoError(t, err)
		assert.Equal(t, []byte("hi"), f.payload[4:])

		sessions := srv.Sessions().Sessions()
		require.Len(t, sessions, 1)
		assert.Equal(t, KindNetBIOS, sessions[0].Protocol())
	})

	t.Run("WildcardName", func(t *testing.T) {
		conn := dial(t, h)
		require.NoError(t, writeFrame(conn, nbSessionRequest, request(anyServerName), time.Second))

		f, err := readFrame(context.Background(), conn, 1024, 2*time.Second, true)
		require.NoError(t, err)
		assert.Equal(t, nbPositiveResponse, f.kind)
	})
}

func TestTCPHandlerStopClosesSessions(t *testing.T) {
	srv := New(Options{})
	h := NewTCPHandler(TCPConfig{BindAddress: "127.0.0.1", ShutdownTimeout: 2 * time.Second}, srv, nil, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- h.Serve(context.Background()) }()
	<-h.Ready()

	conn, err := net.Dial("tcp", h.Addr())
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return srv.Sessions().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.Stop(ctx))
	require.NoError(t, <-errCh)

	assert.Equal(t, 0, srv.Sessions().Len())
	assert.Equal(t, int32(0), h.ActiveConnections())

	// Stop is idempotent.
	assert.NoError(t, h.Stop(ctx))
}

func TestTCPHandlerStopBeforeServe(t *testing.T) {
	h := NewTCPHandler(TCPConfig{}, New(Options{}), nil, nil)
	assert.NoError(t, h.Stop(context.Background()))
	assert.Empty(t, h.Addr())
}
