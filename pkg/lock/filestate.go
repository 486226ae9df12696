package lock

import (
	"sync"

	"github.com/marmos91/cifsgate/internal/adapter/smb/types"
)

// FileState is the shared state of one open file.
type FileState struct {
	path     string
	maxLocks int

	mu        sync.Mutex
	openCount int
	sharing   types.SharingMode
	locks     []*FileLock
}

func newFileState(path string, maxLocks int) *FileState {
	return &FileState{path: path, maxLocks: maxLocks}
}

func (f *FileState) Path() string { return f.path }

// OpenCount returns the number of outstanding opens.
func (f *FileState) OpenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openCount
}

// SharingMode returns the sharing mode granted to the first opener.
func (f *FileState) SharingMode() types.SharingMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sharing
}

// AllowsOpen reports whether a new open with the given sharing mode and
// access may proceed.
func (f *FileState) AllowsOpen(sharing types.SharingMode, access types.AccessKind) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allowsOpenLocked(sharing, access)
}

func (f *FileState) allowsOpenLocked(sharing types.SharingMode, access types.AccessKind) bool {
	if f.openCount == 0 {
		return true
	}
	return f.sharing.AllowsOpen(sharing, access)
}

// open registers an open or fails with a sharing violation.
func (f *FileState) open(sharing types.SharingMode, access types.AccessKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.allowsOpenLocked(sharing, access) {
		return types.NewError(types.ErrDos, types.DOSSharingViolation)
	}
	if f.openCount == 0 {
		f.sharing = sharing
	}
	f.openCount++
	return nil
}

// close drops one open and returns the remaining count. When the last open
// goes away, all locks are released and their number is returned too.
func (f *FileState) close() (remaining, released int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openCount > 0 {
		f.openCount--
	}
	if f.openCount == 0 {
		released = len(f.locks)
		f.locks = nil
		f.sharing = types.ShareNone
	}
	return f.openCount, released
}

// AddLock adds l unless it conflicts with a held lock or the per-file limit
// is reached. A state whose last open was closed accepts no locks.
func (f *FileState) AddLock(l *FileLock) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.openCount == 0 {
		return types.NewError(types.ErrDos, types.DOSInvalidHandle)
	}

	if f.maxLocks > 0 && len(f.locks) >= f.maxLocks {
		return types.NewErrorWithMessage(types.ErrDos, types.DOSLockConflict, "too many locks on file")
	}
	for _, held := range f.locks {
		if held.ConflictsWith(l) {
			return types.NewError(types.ErrDos, types.DOSLockConflict)
		}
	}
	f.locks = append(f.locks, l)
	return nil
}

// RemoveLock removes the lock with exactly this range and owner.
func (f *FileState) RemoveLock(offset, length uint64, owner Owner) (*FileLock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, held := range f.locks {
		if held.Offset == offset && held.Length == length && held.Owner == owner {
			f.locks = append(f.locks[:i], f.locks[i+1:]...)
			return held, nil
		}
	}
	return nil, types.NewError(types.ErrDos, types.DOSNotLocked)
}

// removeLockByID is used to roll back a partially applied request.
func (f *FileState) removeLockByID(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, held := range f.locks {
		if held.ID == id {
			f.locks = append(f.locks[:i], f.locks[i+1:]...)
			return true
		}
	}
	return false
}

// CanRead reports whether owner may read the range: no other owner holds an
// exclusive lock over it.
func (f *FileState) CanRead(offset, length uint64, owner Owner) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, held := range f.locks {
		if !held.Shared && held.Owner != owner && held.Overlaps(offset, length) {
			return false
		}
	}
	return true
}

// CanWrite reports whether owner may write the range: it must not overlap a
// lock held by another owner, nor any shared lock.
func (f *FileState) CanWrite(offset, length uint64, owner Owner) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, held := range f.locks {
		if !held.Overlaps(offset, length) {
			continue
		}
		if held.Shared || held.Owner != owner {
			return false
		}
	}
	return true
}

// Locks returns a snapshot of the held locks.
func (f *FileState) Locks() []*FileLock {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FileLock(nil), f.locks...)
}

// LockCount returns the number of held locks.
func (f *FileState) LockCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.locks)
}

// releaseSession drops every lock held by sessionID.
func (f *FileState) releaseSession(sessionID uint32) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.locks[:0]
	released := 0
	for _, held := range f.locks {
		if held.Owner.SessionID == sessionID {
			released++
			continue
		}
		kept = append(kept, held)
	}
	for i := len(kept); i < len(f.locks); i++ {
		f.locks[i] = nil
	}
	f.locks = kept
	return released
}
