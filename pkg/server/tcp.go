package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/cifsgate/internal/adapter/smb/session"
	"github.com/marmos91/cifsgate/internal/logger"
)

// Handler kinds.
const (
	// KindTCP is native SMB over TCP (port 445): every packet is a session
	// message.
	KindTCP = "tcp"
	// KindNetBIOS is the NetBIOS session service (port 139): the client
	// must open with a session request before sending messages.
	KindNetBIOS = "netbios"
)

const (
	defaultMaxMessageSize  = 128 * 1024
	defaultShutdownTimeout = 10 * time.Second
	anyServerName          = "*SMBSERVER"
)

// TCPConfig configures a TCPHandler.
type TCPConfig struct {
	// Name identifies the handler in logs and metrics.
	Name string

	// Kind is KindTCP or KindNetBIOS.
	Kind string

	// BindAddress is the IP address to bind to. Empty binds all interfaces.
	BindAddress string

	// Port is the TCP port. Zero picks a free port.
	Port int

	// MaxConnections limits concurrent clients. 0 means unlimited.
	MaxConnections int

	// MaxMessageSize bounds a single session message.
	MaxMessageSize int

	// IdleTimeout closes a connection that sends nothing for this long.
	// 0 disables it.
	IdleTimeout time.Duration

	// WriteTimeout bounds each reply write. 0 disables it.
	WriteTimeout time.Duration

	// ShutdownTimeout is how long Stop waits for connections to drain
	// before force-closing them.
	ShutdownTimeout time.Duration

	// ServerName is the NetBIOS name accepted in session requests. Empty
	// accepts any called name.
	ServerName string
}

// SessionFactory opens the session bound to an accepted connection and
// closes it when the connection ends.
type SessionFactory interface {
	OpenSession(protocol string, remote net.IP) *session.Session
	CloseSession(id uint32)
}

// Dispatcher processes one session message and returns the reply, or nil
// when there is nothing to send. Protocol-level failures should be encoded
// in the reply; a returned error closes the connection.
type Dispatcher interface {
	Dispatch(ctx context.Context, sess *session.Session, msg []byte) ([]byte, error)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, sess *session.Session, msg []byte) ([]byte, error)

func (f DispatcherFunc) Dispatch(ctx context.Context, sess *session.Session, msg []byte) ([]byte, error) {
	return f(ctx, sess, msg)
}

// discardDispatcher accepts messages and never replies.
var discardDispatcher = DispatcherFunc(func(ctx context.Context, _ *session.Session, msg []byte) ([]byte, error) {
	logger.DebugCtx(ctx, "Discarding session message", "bytes", len(msg))
	return nil, nil
})

// TCPHandler is a SessionHandler that accepts TCP connections, opens one
// session per connection and feeds NetBIOS-framed messages to a Dispatcher.
//
// All exported methods are safe for concurrent use; Stop is idempotent.
type TCPHandler struct {
	cfg        TCPConfig
	sessions   SessionFactory
	dispatcher Dispatcher
	metrics    *Metrics

	listenerMu sync.RWMutex
	listener   net.Listener
	ready      chan struct{}
	served     chan struct{}
	started    atomic.Bool

	shutdown     chan struct{}
	shutdownOnce sync.Once

	// requestCtx is cancelled on shutdown to abort in-flight dispatches.
	requestCtx     context.Context
	cancelRequests context.CancelFunc

	activeConns sync.WaitGroup
	connCount   atomic.Int32
	conns       sync.Map // connection ID -> net.Conn
	sem         chan struct{}
}

// NewTCPHandler creates a stopped handler. A nil dispatcher discards every
// message.
func NewTCPHandler(cfg TCPConfig, sessions SessionFactory, dispatcher Dispatcher, metrics *Metrics) *TCPHandler {
	if cfg.Kind == "" {
		cfg.Kind = KindTCP
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Kind
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if dispatcher == nil {
		dispatcher = discardDispatcher
	}

	var sem chan struct{}
	if cfg.MaxConnections > 0 {
		sem = make(chan struct{}, cfg.MaxConnections)
	}

	requestCtx, cancel := context.WithCancel(context.Background())
	return &TCPHandler{
		cfg:            cfg,
		sessions:       sessions,
		dispatcher:     dispatcher,
		metrics:        metrics,
		ready:          make(chan struct{}),
		served:         make(chan struct{}),
		shutdown:       make(chan struct{}),
		requestCtx:     requestCtx,
		cancelRequests: cancel,
		sem:            sem,
	}
}

func (h *TCPHandler) Name() string     { return h.cfg.Name }
func (h *TCPHandler) Protocol() string { return h.cfg.Kind }

// Ready is closed once the listener is bound.
func (h *TCPHandler) Ready() <-chan struct{} { return h.ready }

// Addr returns the bound listener address, or "" before Serve binds it.
func (h *TCPHandler) Addr() string {
	h.listenerMu.RLock()
	defer h.listenerMu.RUnlock()
	if h.listener == nil {
		return ""
	}
	return h.listener.Addr().String()
}

// ActiveConnections returns the number of open connections.
func (h *TCPHandler) ActiveConnections() int32 {
	return h.connCount.Load()
}

// Serve runs the accept loop until ctx is cancelled or Stop is called.
// It returns nil after a graceful shutdown.
func (h *TCPHandler) Serve(ctx context.Context) error {
	if !h.started.CompareAndSwap(false, true) {
		return fmt.Errorf("handler %s already serving", h.cfg.Name)
	}
	defer close(h.served)

	addr := net.JoinHostPort(h.cfg.BindAddress, strconv.Itoa(h.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create %s listener on %s: %w", h.cfg.Name, addr, err)
	}

	h.listenerMu.Lock()
	h.listener = ln
	h.listenerMu.Unlock()
	close(h.ready)

	logger.Info("Session handler listening",
		logger.KeyHandler, h.cfg.Name,
		logger.KeyProtocol, h.cfg.Kind,
		logger.KeyAddress, ln.Addr().String())

	// The watcher exits on shutdown as well so Serve never leaks it.
	go func() {
		select {
		case <-ctx.Done():
			logger.Info("Session handler shutdown signal received", logger.KeyHandler, h.cfg.Name)
			h.initiateShutdown()
		case <-h.shutdown:
		}
	}()

	for {
		if h.sem != nil {
			select {
			case h.sem <- struct{}{}:
			case <-h.shutdown:
				return h.gracefulShutdown()
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			if h.sem != nil {
				<-h.sem
			}
			select {
			case <-h.shutdown:
				return h.gracefulShutdown()
			default:
				logger.Debug("Accept failed", logger.KeyHandler, h.cfg.Name, logger.Err(err))
				continue
			}
		}

		if tcp, ok := conn.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(true); err != nil {
				logger.Debug("Failed to set TCP_NODELAY", logger.Err(err))
			}
		}

		id := uuid.NewString()
		h.activeConns.Add(1)
		h.connCount.Add(1)
		h.conns.Store(id, conn)
		h.metrics.connectionAccepted(h.cfg.Name)

		logger.Debug("Connection accepted",
			logger.KeyHandler, h.cfg.Name,
			logger.KeyConnectionID, id,
			logger.KeyAddress, conn.RemoteAddr().String(),
			"active", h.connCount.Load())

		go func() {
			defer func() {
				_ = conn.Close()
				h.conns.Delete(id)
				h.metrics.connectionClosed(h.cfg.Name)
				h.connCount.Add(-1)
				if h.sem != nil {
					<-h.sem
				}
				h.activeConns.Done()
				logger.Debug("Connection closed",
					logger.KeyHandler, h.cfg.Name,
					logger.KeyConnectionID, id,
					"active", h.connCount.Load())
			}()
			h.serveConn(h.requestCtx, id, conn)
		}()
	}
}

// Stop begins shutdown and waits for Serve to return or ctx to end.
func (h *TCPHandler) Stop(ctx context.Context) error {
	h.initiateShutdown()
	if !h.started.Load() {
		return nil
	}
	select {
	case <-h.served:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop %s: %w", h.cfg.Name, ctx.Err())
	}
}

func (h *TCPHandler) serveConn(ctx context.Context, id string, conn net.Conn) {
	remote := remoteIP(conn)
	lc := logger.NewLogContext(h.cfg.Kind, remote.String())
	ctx = logger.WithContext(ctx, lc)

	if h.cfg.Kind == KindNetBIOS {
		ok, err := h.acceptSessionRequest(ctx, conn)
		if err != nil {
			logger.DebugCtx(ctx, "NetBIOS session request failed", logger.KeyConnectionID, id, logger.Err(err))
			return
		}
		if !ok {
			h.metrics.connectionRejected(h.cfg.Name)
			return
		}
	}

	sess := h.sessions.OpenSession(h.cfg.Kind, remote)
	defer h.sessions.CloseSession(sess.ID())
	ctx = logger.WithContext(ctx, lc.WithSession(sess.ID()))

	for {
		f, err := readFrame(ctx, conn, h.cfg.MaxMessageSize, h.cfg.IdleTimeout, true)
		if err != nil {
			if isConnClosed(err) {
				logger.DebugCtx(ctx, "Client disconnected", logger.KeyConnectionID, id)
			} else {
				logger.WarnCtx(ctx, "Read failed", logger.KeyConnectionID, id, logger.Err(err))
			}
			return
		}
		if f.kind != nbSessionMessage {
			logger.WarnCtx(ctx, "Unexpected NetBIOS packet", logger.KeyConnectionID, id, "type", fmt.Sprintf("0x%02x", f.kind))
			return
		}
		h.metrics.frame(h.cfg.Name, "in")

		reply, err := h.dispatcher.Dispatch(ctx, sess, f.payload)
		if err != nil {
			logger.WarnCtx(ctx, "Dispatch failed, closing connection", logger.KeyConnectionID, id, logger.Err(err))
			return
		}
		if reply == nil {
			continue
		}
		if err := writeFrame(conn, nbSessionMessage, reply, h.cfg.WriteTimeout); err != nil {
			logger.DebugCtx(ctx, "Write failed", logger.KeyConnectionID, id, logger.Err(err))
			return
		}
		h.metrics.frame(h.cfg.Name, "out")
	}
}

// acceptSessionRequest reads the NetBIOS session request and answers it.
// It reports false when the called name was refused.
func (h *TCPHandler) acceptSessionRequest(ctx context.Context, conn net.Conn) (bool, error) {
	f, err := readFrame(ctx, conn, h.cfg.MaxMessageSize, h.cfg.IdleTimeout, true)
	if err != nil {
		return false, err
	}
	if f.kind != nbSessionRequest {
		return false, fmt.Errorf("expected session request, got 0x%02x", f.kind)
	}

	called, _, rest, err := decodeNetBIOSName(f.payload)
	if err != nil {
		return false, err
	}
	calling, _, _, err := decodeNetBIOSName(rest)
	if err != nil {
		return false, err
	}

	if h.cfg.ServerName != "" && called != anyServerName && !strings.EqualFold(called, h.cfg.ServerName) {
		logger.InfoCtx(ctx, "Refusing NetBIOS session for unknown name", "called", called, "calling", calling)
		return false, writeFrame(conn, nbNegativeResponse, []byte{nbCalledNameNotFound}, h.cfg.WriteTimeout)
	}

	logger.DebugCtx(ctx, "NetBIOS session accepted", "called", called, "calling", calling)
	return true, writeFrame(conn, nbPositiveResponse, nil, h.cfg.WriteTimeout)
}

func (h *TCPHandler) initiateShutdown() {
	h.shutdownOnce.Do(func() {
		logger.Debug("Session handler shutdown initiated", logger.KeyHandler, h.cfg.Name)
		close(h.shutdown)

		h.listenerMu.Lock()
		if h.listener != nil {
			if err := h.listener.Close(); err != nil {
				logger.Debug("Error closing listener", logger.KeyHandler, h.cfg.Name, logger.Err(err))
			}
		}
		h.listenerMu.Unlock()

		h.interruptBlockingReads()
		h.cancelRequests()
	})
}

// interruptBlockingReads sets a short deadline on every connection so reads
// parked in readFrame return.
func (h *TCPHandler) interruptBlockingReads() {
	deadline := time.Now().Add(100 * time.Millisecond)
	h.conns.Range(func(key, value any) bool {
		if conn, ok := value.(net.Conn); ok {
			if err := conn.SetReadDeadline(deadline); err != nil {
				logger.Debug("Error setting shutdown deadline", logger.KeyConnectionID, key, logger.Err(err))
			}
		}
		return true
	})
}

func (h *TCPHandler) gracefulShutdown() error {
	logger.Info("Session handler draining connections",
		logger.KeyHandler, h.cfg.Name,
		"active", h.connCount.Load(),
		"timeout", h.cfg.ShutdownTimeout)

	done := make(chan struct{})
	go func() {
		h.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Session handler stopped", logger.KeyHandler, h.cfg.Name)
		return nil
	case <-time.After(h.cfg.ShutdownTimeout):
		remaining := h.connCount.Load()
		logger.Warn("Shutdown timeout exceeded, forcing connections closed",
			logger.KeyHandler, h.cfg.Name, "active", remaining)
		h.forceCloseConnections()
		return fmt.Errorf("%s shutdown timeout: %d connections force-closed", h.cfg.Name, remaining)
	}
}

func (h *TCPHandler) forceCloseConnections() {
	h.conns.Range(func(key, value any) bool {
		if conn, ok := value.(net.Conn); ok {
			_ = conn.Close()
			h.metrics.connectionForceClosed(h.cfg.Name)
		}
		h.conns.Delete(key)
		return true
	})
}

func remoteIP(conn net.Conn) net.IP {
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		return addr.IP
	}
	return nil
}

func isConnClosed(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
