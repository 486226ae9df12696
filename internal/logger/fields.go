package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys. Use them consistently so log aggregation can query
// sessions, shares and access decisions across transports.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Transport
	KeyProtocol     = "protocol"
	KeyHandler      = "handler"
	KeyAddress      = "address"
	KeyConnectionID = "connection_id"
	KeyCommand      = "command"

	// Client identity
	KeySessionID = "session_id"
	KeyClientIP  = "client_ip"
	KeyUsername  = "username"
	KeyDomain    = "domain"
	KeyLogonType = "logon_type"

	// Access control
	KeyShare    = "share"
	KeyRule     = "rule"
	KeyRuleType = "rule_type"
	KeyVerdict  = "verdict"

	// Locking
	KeyPath       = "path"
	KeyLockOffset = "lock_offset"
	KeyLockLength = "lock_length"
	KeyLockFlags  = "lock_flags"
	KeyPID        = "pid"

	// Errors
	KeyError      = "error"
	KeyErrorClass = "error_class"
	KeyErrorCode  = "error_code"

	KeyDurationMs = "duration_ms"
	KeyCount      = "count"
)

func Protocol(proto string) slog.Attr {
	return slog.String(KeyProtocol, proto)
}

func Handler(name string) slog.Attr {
	return slog.String(KeyHandler, name)
}

func Address(addr string) slog.Attr {
	return slog.String(KeyAddress, addr)
}

func ConnectionID(id string) slog.Attr {
	return slog.String(KeyConnectionID, id)
}

// SessionID renders the ID in the 0x-prefixed form used by SMB tooling.
func SessionID(id uint32) slog.Attr {
	return slog.String(KeySessionID, fmt.Sprintf("0x%08x", id))
}

func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

func Domain(name string) slog.Attr {
	return slog.String(KeyDomain, name)
}

func LogonType(t string) slog.Attr {
	return slog.String(KeyLogonType, t)
}

func Share(name string) slog.Attr {
	return slog.String(KeyShare, name)
}

func Rule(desc string) slog.Attr {
	return slog.String(KeyRule, desc)
}

func Verdict(v string) slog.Attr {
	return slog.String(KeyVerdict, v)
}

func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// LockRange groups offset and length into one attribute pair.
func LockRange(offset, length uint64) slog.Attr {
	return slog.Group("lock",
		slog.Uint64("offset", offset),
		slog.Uint64("length", length),
	)
}

func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns an error attribute; a nil error yields an empty attribute
// that handlers skip.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
