package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext carries per-session logging fields through a context.Context.
// Values are treated as immutable once stored; use the With* helpers to
// derive a modified copy.
type LogContext struct {
	TraceID   string
	SpanID    string
	Protocol  string // smb, netbios, ftp
	SessionID uint32
	ClientIP  string
	Username  string
	Domain    string
	Share     string
	StartTime time.Time
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from ctx, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext starts a LogContext for a connection from clientIP.
func NewLogContext(protocol, clientIP string) *LogContext {
	return &LogContext{
		Protocol:  protocol,
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// WithSession returns a copy bound to a session ID.
func (lc *LogContext) WithSession(id uint32) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.SessionID = id
	}
	return c
}

// WithUser returns a copy carrying the logged-on identity.
func (lc *LogContext) WithUser(username, domain string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.Username = username
		c.Domain = domain
	}
	return c
}

// WithShare returns a copy with the share set
func (lc *LogContext) WithShare(share string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.Share = share
	}
	return c
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.TraceID = traceID
		c.SpanID = spanID
	}
	return c
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
