package lock

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Owner identifies who holds a lock: the session and the client process
// within it.
type Owner struct {
	SessionID uint32
	ProcessID uint32
}

func (o Owner) String() string {
	return fmt.Sprintf("%08x:%d", o.SessionID, o.ProcessID)
}

// FileLock is a byte-range lock.
type FileLock struct {
	ID       string
	Offset   uint64
	Length   uint64
	Owner    Owner
	Shared   bool
	Acquired time.Time
}

// NewFileLock creates a lock with a fresh ID.
func NewFileLock(offset, length uint64, owner Owner, shared bool) *FileLock {
	return &FileLock{
		ID:       uuid.NewString(),
		Offset:   offset,
		Length:   length,
		Owner:    owner,
		Shared:   shared,
		Acquired: time.Now(),
	}
}

// End returns the exclusive end of the range, saturating at the maximum
// offset.
func (l *FileLock) End() uint64 {
	return rangeEnd(l.Offset, l.Length)
}

// Overlaps reports whether the lock covers any byte of offset/length.
func (l *FileLock) Overlaps(offset, length uint64) bool {
	return RangesOverlap(l.Offset, l.Length, offset, length)
}

// ConflictsWith reports whether l and o cannot both be held. Locks of the
// same owner never conflict.
func (l *FileLock) ConflictsWith(o *FileLock) bool {
	if l.Owner == o.Owner {
		return false
	}
	if l.Shared && o.Shared {
		return false
	}
	return l.Overlaps(o.Offset, o.Length)
}

func (l *FileLock) String() string {
	kind := "exclusive"
	if l.Shared {
		kind = "shared"
	}
	return fmt.Sprintf("[%d:%d %s owner=%s]", l.Offset, l.Length, kind, l.Owner)
}

// RangesOverlap reports whether two byte ranges share at least one byte.
// Zero-length ranges never overlap.
func RangesOverlap(offset1, length1, offset2, length2 uint64) bool {
	if length1 == 0 || length2 == 0 {
		return false
	}
	return rangeEnd(offset1, length1) > offset2 && rangeEnd(offset2, length2) > offset1
}

func rangeEnd(offset, length uint64) uint64 {
	end := offset + length
	if end < offset {
		return ^uint64(0)
	}
	return end
}
