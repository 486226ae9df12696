package types

import "strings"

// LockingFlags is the LockType byte of an SMB_COM_LOCKING_ANDX request.
type LockingFlags uint16

const (
	LockSharedLock  LockingFlags = 0x0001
	LockOplockBreak LockingFlags = 0x0002
	LockChangeType  LockingFlags = 0x0004
	LockCancel      LockingFlags = 0x0008
	LockLargeFiles  LockingFlags = 0x0010

	// lockActionMask covers the bits that turn a request into something
	// other than a plain lock/unlock.
	lockActionMask LockingFlags = 0x000F
)

// IsNormalLockUnlock reports whether none of the shared, oplock-break,
// change-type or cancel bits are set. LargeFiles does not affect the result.
func (f LockingFlags) IsNormalLockUnlock() bool { return f&lockActionMask == 0 }

// HasLargeFiles reports whether lock ranges use 64-bit offsets.
func (f LockingFlags) HasLargeFiles() bool { return f&LockLargeFiles != 0 }

func (f LockingFlags) IsSharedLock() bool  { return f&LockSharedLock != 0 }
func (f LockingFlags) IsOplockBreak() bool { return f&LockOplockBreak != 0 }
func (f LockingFlags) IsChangeType() bool  { return f&LockChangeType != 0 }
func (f LockingFlags) IsCancel() bool      { return f&LockCancel != 0 }

func (f LockingFlags) String() string {
	if f == 0 {
		return "Exclusive"
	}
	var parts []string
	for _, b := range []struct {
		bit  LockingFlags
		name string
	}{
		{LockSharedLock, "Shared"},
		{LockOplockBreak, "OplockBreak"},
		{LockChangeType, "ChangeType"},
		{LockCancel, "Cancel"},
		{LockLargeFiles, "LargeFiles"},
	} {
		if f&b.bit != 0 {
			parts = append(parts, b.name)
		}
	}
	if f&^(lockActionMask|LockLargeFiles) != 0 {
		parts = append(parts, "Unknown")
	}
	return strings.Join(parts, "|")
}

// IsNormalLockUnlock is the integer form of LockingFlags.IsNormalLockUnlock.
// Only the low 16 bits of flags are considered.
func IsNormalLockUnlock(flags int) bool { return LockingFlags(flags).IsNormalLockUnlock() }

// HasLargeFiles is the integer form of LockingFlags.HasLargeFiles.
func HasLargeFiles(flags int) bool { return LockingFlags(flags).HasLargeFiles() }

// IsSharedLock is the integer form of LockingFlags.IsSharedLock.
func IsSharedLock(flags int) bool { return LockingFlags(flags).IsSharedLock() }

// IsOplockBreak is the integer form of LockingFlags.IsOplockBreak.
func IsOplockBreak(flags int) bool { return LockingFlags(flags).IsOplockBreak() }

// IsChangeType is the integer form of LockingFlags.IsChangeType.
func IsChangeType(flags int) bool { return LockingFlags(flags).IsChangeType() }

// IsCancel is the integer form of LockingFlags.IsCancel.
func IsCancel(flags int) bool { return LockingFlags(flags).IsCancel() }
