// Package types holds the wire-level vocabulary shared by the CIFS session
// layer: NT time conversion, LockingAndX flag decoding, sharing modes, NT
// status codes and the class/code protocol error returned to clients.
//
// # Time
//
// CIFS timestamps count 100-nanosecond ticks since 1601-01-01 UTC. The host
// side of the codec uses milliseconds since the Unix epoch:
//
//	wire := types.ToWireTime(time.Now().UnixMilli())
//	ms := types.ToHostTimeMillis(wire)
//
// InfiniteTime is the "never" sentinel and must be checked with IsInfinite
// before converting.
//
// # Errors
//
// Older dialects report failures as an (error class, error code) pair while
// SMB2 uses a 32-bit NT status. ProtocolError carries the pair and maps it to
// a Status for the newer dialects:
//
//	err := types.NewError(types.ErrDos, types.DOSAccessDenied)
//	if pe, ok := types.AsProtocolError(err); ok {
//	    status := pe.Status()
//	}
package types
