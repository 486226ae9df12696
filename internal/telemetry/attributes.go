package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys.
const (
	AttrClientIP   = "client.address"
	AttrProtocol   = "network.protocol.name"
	AttrHandler    = "cifs.handler"
	AttrSessionID  = "cifs.session.id"
	AttrUsername   = "cifs.user.name"
	AttrDomain     = "cifs.user.domain"
	AttrLogonType  = "cifs.logon.type"
	AttrShare      = "cifs.share"
	AttrVerdict    = "cifs.acl.verdict"
	AttrRuleCount  = "cifs.acl.rules"
	AttrPath       = "cifs.path"
	AttrLockOffset = "cifs.lock.offset"
	AttrLockLength = "cifs.lock.length"
	AttrLockFlags  = "cifs.lock.flags"
	AttrErrorClass = "cifs.error.class"
	AttrErrorCode  = "cifs.error.code"
)

func ClientIP(ip string) attribute.KeyValue      { return attribute.String(AttrClientIP, ip) }
func Protocol(name string) attribute.KeyValue    { return attribute.String(AttrProtocol, name) }
func Handler(name string) attribute.KeyValue     { return attribute.String(AttrHandler, name) }
func Username(name string) attribute.KeyValue    { return attribute.String(AttrUsername, name) }
func Domain(name string) attribute.KeyValue      { return attribute.String(AttrDomain, name) }
func LogonType(t string) attribute.KeyValue      { return attribute.String(AttrLogonType, t) }
func Share(name string) attribute.KeyValue       { return attribute.String(AttrShare, name) }
func Verdict(v string) attribute.KeyValue        { return attribute.String(AttrVerdict, v) }
func RuleCount(n int) attribute.KeyValue         { return attribute.Int(AttrRuleCount, n) }
func Path(p string) attribute.KeyValue           { return attribute.String(AttrPath, p) }
func LockFlags(flags string) attribute.KeyValue  { return attribute.String(AttrLockFlags, flags) }
func ErrorClass(class string) attribute.KeyValue { return attribute.String(AttrErrorClass, class) }
func ErrorCode(code int) attribute.KeyValue      { return attribute.Int(AttrErrorCode, code) }

// SessionID formats the ID the same way the logger does.
func SessionID(id uint32) attribute.KeyValue {
	return attribute.String(AttrSessionID, fmt.Sprintf("0x%08x", id))
}

// LockRange returns offset and length attributes. Values above MaxInt64 are
// clamped since OTel attributes are signed.
func LockRange(offset, length uint64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(AttrLockOffset, clampInt64(offset)),
		attribute.Int64(AttrLockLength, clampInt64(length)),
	}
}

func clampInt64(v uint64) int64 {
	const maxInt64 = 1<<63 - 1
	if v > maxInt64 {
		return maxInt64
	}
	return int64(v)
}

// StartSessionSpan starts a span for a per-session server operation such as
// logon or tree connect.
func StartSessionSpan(ctx context.Context, operation string, sessionID uint32, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+1)
	all = append(all, SessionID(sessionID))
	all = append(all, attrs...)
	return StartSpan(ctx, "session."+operation,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(all...))
}

// StartACLSpan starts a span around an access-control evaluation.
func StartACLSpan(ctx context.Context, share string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+1)
	all = append(all, Share(share))
	all = append(all, attrs...)
	return StartSpan(ctx, "acl.check", trace.WithAttributes(all...))
}

// StartLockSpan starts a span for a locking request on path.
func StartLockSpan(ctx context.Context, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+1)
	all = append(all, Path(path))
	all = append(all, attrs...)
	return StartSpan(ctx, "lock.process", trace.WithAttributes(all...))
}
