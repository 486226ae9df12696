// Package server owns the runtime state of a CIFS server: the session
// handlers that accept clients, the session registry, the share list with
// its access control, the byte-range lock table and the authenticator.
//
// A Server is built from configuration, handlers are added, and Start runs
// them until the context ends:
//
//	srv := server.New(server.Options{ACL: mgr, Shares: shares, Locks: table, Authenticator: auth})
//	_ = srv.AddHandler(server.NewTCPHandler(cfg, srv, dispatcher, metrics))
//	err := srv.Start(ctx)
package server

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marmos91/cifsgate/internal/adapter/smb/session"
	"github.com/marmos91/cifsgate/internal/adapter/smb/types"
	"github.com/marmos91/cifsgate/internal/logger"
	"github.com/marmos91/cifsgate/internal/telemetry"
	"github.com/marmos91/cifsgate/pkg/acl"
	"github.com/marmos91/cifsgate/pkg/auth"
	"github.com/marmos91/cifsgate/pkg/lock"
	"github.com/marmos91/cifsgate/pkg/share"
)

// Options configures a Server. Nil fields get working defaults: an ACL
// manager that allows everything, an empty share list, a lock table without
// a per-file limit and an authenticator that only admits guests.
type Options struct {
	Name            string
	ACL             *acl.Manager
	Shares          *share.List
	Locks           *lock.Table
	Authenticator   auth.Authenticator
	SessionMetrics  *session.Metrics
	ShutdownTimeout time.Duration
}

// Server ties the session-level state together. It implements
// SessionFactory so handlers can open sessions on it.
type Server struct {
	name            string
	sessions        *session.Registry
	ids             session.IDGenerator
	handlers        *HandlerList
	listeners       session.Listeners
	acl             *acl.Manager
	shares          *share.List
	locks           *lock.Table
	auth            auth.Authenticator
	sessionMetrics  *session.Metrics
	shutdownTimeout time.Duration
	startedAt       atomic.Pointer[time.Time]
}

// New creates a server with no handlers.
func New(opts Options) *Server {
	s := &Server{
		name:            opts.Name,
		sessions:        session.NewRegistry(opts.SessionMetrics),
		handlers:        NewHandlerList(),
		acl:             opts.ACL,
		shares:          opts.Shares,
		locks:           opts.Locks,
		auth:            opts.Authenticator,
		sessionMetrics:  opts.SessionMetrics,
		shutdownTimeout: opts.ShutdownTimeout,
	}
	if s.name == "" {
		s.name = "CIFSGATE"
	}
	if s.acl == nil {
		s.acl = acl.NewManager(acl.WithDefaultVerdict(acl.Allow))
	}
	if s.shares == nil {
		s.shares, _ = share.NewList()
	}
	if s.locks == nil {
		s.locks = lock.NewTable(0, nil)
	}
	if s.auth == nil {
		s.auth = auth.NewLocalAuthenticator(auth.LocalConfig{AllowGuest: true})
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 30 * time.Second
	}
	return s
}

func (s *Server) Name() string                   { return s.name }
func (s *Server) Handlers() *HandlerList         { return s.handlers }
func (s *Server) Sessions() *session.Registry    { return s.sessions }
func (s *Server) AccessControl() *acl.Manager    { return s.acl }
func (s *Server) Shares() *share.List            { return s.shares }
func (s *Server) Locks() *lock.Table             { return s.locks }
func (s *Server) AddListener(l session.Listener) { s.listeners.Add(l) }

// StartedAt reports when Start began serving, or the zero time.
func (s *Server) StartedAt() time.Time {
	if t := s.startedAt.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

// AddHandler registers h. Handlers added after Start has begun serving are
// not started.
func (s *Server) AddHandler(h SessionHandler) error {
	if err := s.handlers.Add(h); err != nil {
		return err
	}
	logger.Debug("Session handler registered", logger.KeyHandler, h.Name(), logger.KeyProtocol, h.Protocol())
	return nil
}

// Start waits until at least one handler is registered, then serves every
// handler in its own goroutine. It returns when all handlers have returned;
// the first handler error cancels the others.
func (s *Server) Start(ctx context.Context) error {
	if err := s.handlers.WaitWhileEmptyContext(ctx); err != nil {
		return err
	}
	now := time.Now()
	s.startedAt.Store(&now)

	handlers := s.handlers.Handlers()
	logger.Info("Server starting", "server", s.name, "handlers", len(handlers), "shares", s.shares.Len())

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range handlers {
		g.Go(func() error {
			return h.Serve(gctx)
		})
	}
	return g.Wait()
}

// Shutdown stops every handler in registration order and closes the
// remaining sessions. Handler errors are joined.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	var errs []error
	for _, h := range s.handlers.Handlers() {
		if err := h.Stop(ctx); err != nil {
			logger.Warn("Session handler stop failed", logger.KeyHandler, h.Name(), logger.Err(err))
			errs = append(errs, err)
		}
	}

	closed := s.sessions.RemoveAll()
	for _, sess := range closed {
		s.locks.ReleaseSession(sess.ID())
		s.listeners.NotifyClosed(sess)
	}
	logger.Info("Server stopped", "server", s.name, logger.KeyCount, len(closed))
	return errors.Join(errs...)
}

// OpenSession allocates a session ID, registers the session and notifies
// listeners.
func (s *Server) OpenSession(protocol string, remote net.IP) *session.Session {
	sess := session.New(s.ids.Next(), protocol, remote)
	s.sessions.Add(sess)
	s.listeners.NotifyOpened(sess)

	logger.Debug("Session opened",
		logger.SessionID(sess.ID()),
		logger.Protocol(protocol),
		logger.ClientIP(remote.String()))
	return sess
}

// CloseSession unregisters the session and releases its byte-range locks.
// Unknown IDs are ignored.
func (s *Server) CloseSession(id uint32) {
	sess, ok := s.sessions.Remove(id)
	if !ok {
		return
	}
	released := s.locks.ReleaseSession(id)
	s.listeners.NotifyClosed(sess)

	logger.Debug("Session closed", logger.SessionID(id), "locks_released", released)
}

// FindSession looks a session up by ID.
func (s *Server) FindSession(id uint32) (*session.Session, bool) {
	return s.sessions.Find(id)
}

// Logon authenticates ci and binds it to the session. Rejected credentials
// yield ErrSrv/bad password.
func (s *Server) Logon(ctx context.Context, id uint32, ci *session.ClientInfo) error {
	ctx, span := telemetry.StartSessionSpan(ctx, "logon", id, telemetry.Username(ci.UserName))
	defer span.End()

	sess, ok := s.sessions.Find(id)
	if !ok {
		err := types.NewError(types.ErrSrv, types.SRVBadUserID)
		telemetry.RecordError(ctx, err)
		return err
	}
	if ci.ClientAddress == "" && sess.RemoteAddress() != nil {
		ci.ClientAddress = sess.RemoteAddress().String()
	}

	if err := s.auth.Authenticate(ctx, ci); err != nil {
		logger.InfoCtx(ctx, "Logon rejected",
			logger.SessionID(id),
			logger.Username(ci.UserName),
			logger.Err(err))
		perr := types.NewErrorWithMessage(types.ErrSrv, types.SRVBadPassword, err.Error())
		telemetry.RecordError(ctx, perr)
		return perr
	}

	sess.SetClientInfo(ci)
	s.sessionMetrics.ObserveLogon(ci.LogonType)
	s.listeners.NotifyLoggedOn(sess)
	telemetry.SetAttributes(ctx, telemetry.LogonType(ci.LogonType.String()), telemetry.Domain(ci.Domain))

	logger.InfoCtx(ctx, "Logon",
		logger.SessionID(id),
		logger.Username(ci.UserName),
		logger.Domain(ci.Domain),
		logger.LogonType(ci.LogonType.String()))
	return nil
}

// SharesFor returns the visible shares the session may access. Hidden
// shares are never listed.
func (s *Server) SharesFor(id uint32) ([]*share.Device, error) {
	sess, ok := s.sessions.Find(id)
	if !ok {
		return nil, types.NewError(types.ErrSrv, types.SRVBadUserID)
	}
	return acl.FilterShareList(s.acl, sess, s.shares.All(false)), nil
}

// TreeConnect checks the session's access to shareName and, when allowed,
// binds a tree ID to it.
func (s *Server) TreeConnect(ctx context.Context, id uint32, shareName string) (uint16, *share.Device, error) {
	ctx, span := telemetry.StartSessionSpan(ctx, "tree_connect", id, telemetry.Share(shareName))
	defer span.End()

	sess, ok := s.sessions.Find(id)
	if !ok {
		err := types.NewError(types.ErrSrv, types.SRVBadUserID)
		telemetry.RecordError(ctx, err)
		return 0, nil, err
	}

	dev, ok := s.shares.Find(shareName)
	if !ok {
		err := types.NewError(types.ErrSrv, types.SRVInvalidNetworkName)
		telemetry.RecordError(ctx, err)
		return 0, nil, err
	}

	_, aclSpan := telemetry.StartACLSpan(ctx, dev.Name, telemetry.RuleCount(len(dev.Rules)+len(s.acl.Rules())))
	verdict := s.acl.CheckAccessControl(sess, dev)
	aclSpan.SetAttributes(telemetry.Verdict(verdict.String()))
	aclSpan.End()

	if verdict != acl.Allow {
		logger.InfoCtx(ctx, "Tree connect denied",
			logger.SessionID(id),
			logger.Share(dev.Name),
			logger.Verdict(verdict.String()))
		err := types.NewError(types.ErrDos, types.DOSAccessDenied)
		telemetry.RecordError(ctx, err)
		return 0, nil, err
	}

	tid := sess.ConnectTree(dev.Name)
	logger.DebugCtx(ctx, "Tree connected", logger.SessionID(id), logger.Share(dev.Name), "tid", tid)
	return tid, dev, nil
}

// TreeDisconnect releases a tree ID.
func (s *Server) TreeDisconnect(id uint32, tid uint16) error {
	sess, ok := s.sessions.Find(id)
	if !ok {
		return types.NewError(types.ErrSrv, types.SRVBadUserID)
	}
	if !sess.DisconnectTree(tid) {
		return types.NewError(types.ErrSrv, types.SRVInvalidTID)
	}
	return nil
}

// ProcessLocking applies a LockingAndX request on behalf of a session.
// Ranges without a process ID are owned by the session's own process ID.
func (s *Server) ProcessLocking(ctx context.Context, req lock.LockingRequest) (*lock.LockingResult, error) {
	ctx, span := telemetry.StartLockSpan(ctx, req.Path, telemetry.LockFlags(req.Flags.String()), telemetry.SessionID(req.SessionID))
	defer span.End()

	sess, ok := s.sessions.Find(req.SessionID)
	if !ok {
		err := types.NewError(types.ErrSrv, types.SRVBadUserID)
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	pid := sess.ProcessID()
	req.Unlocks = stampOwner(req.Unlocks, pid)
	req.Locks = stampOwner(req.Locks, pid)
	res, err := s.locks.ProcessLockingRequest(ctx, req)
	if err != nil {
		telemetry.RecordError(ctx, err)
	}
	return res, err
}

func stampOwner(ranges []lock.Range, pid uint32) []lock.Range {
	if len(ranges) == 0 {
		return ranges
	}
	out := make([]lock.Range, len(ranges))
	for i, r := range ranges {
		if r.ProcessID == 0 {
			r.ProcessID = pid
		}
		out[i] = r
	}
	return out
}
