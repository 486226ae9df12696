// Package lock tracks open files and their byte-range locks.
//
// A Table maps normalised paths to FileState entries. Each FileState counts
// opens, remembers the sharing mode granted by the first opener and keeps the
// byte-range locks held on the file. LockingAndX requests are applied with
// Table.ProcessLockingRequest, which decodes the request flags and returns a
// *types.ProtocolError for the client when a request cannot be granted.
//
// Ranges follow SMB semantics: a zero-length lock is valid but overlaps
// nothing, and overlapping locks conflict unless both are shared.
package lock
