package lock

import (
	"context"
	"strings"
	"sync"

	"github.com/marmos91/cifsgate/internal/adapter/smb/types"
	"github.com/marmos91/cifsgate/internal/logger"
)

const max32 = 0xFFFFFFFF

// Table maps open file paths to their FileState.
type Table struct {
	maxLocks int
	metrics  *Metrics

	mu    sync.Mutex
	files map[string]*FileState
}

// NewTable creates an empty table. maxLocksPerFile <= 0 means unlimited;
// metrics may be nil.
func NewTable(maxLocksPerFile int, metrics *Metrics) *Table {
	return &Table{
		maxLocks: maxLocksPerFile,
		metrics:  metrics,
		files:    make(map[string]*FileState),
	}
}

// NormalizePath converts a client path to the table key: backslash
// separated, rooted, with the directory part upper-cased and the final
// component kept as sent.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "/", `\`)
	if !strings.HasPrefix(p, `\`) {
		p = `\` + p
	}
	p = strings.TrimRight(p, `\`)
	if p == "" {
		return `\`
	}
	i := strings.LastIndexByte(p, '\\')
	return strings.ToUpper(p[:i+1]) + p[i+1:]
}

// Open registers an open of path and returns its state. A sharing conflict
// with existing opens yields an ERRDOS sharing violation.
func (t *Table) Open(path string, sharing types.SharingMode, access types.AccessKind) (*FileState, error) {
	key := NormalizePath(path)

	t.mu.Lock()
	defer t.mu.Unlock()

	fs, ok := t.files[key]
	if !ok {
		fs = newFileState(key, t.maxLocks)
	}
	if err := fs.open(sharing, access); err != nil {
		t.metrics.observeOpen(false)
		return nil, err
	}
	t.files[key] = fs
	t.metrics.observeOpen(true)
	return fs, nil
}

// Close drops one open of path. The entry and its locks go away with the
// last open. It reports whether path was open.
func (t *Table) Close(path string) bool {
	key := NormalizePath(path)

	t.mu.Lock()
	defer t.mu.Unlock()

	fs, ok := t.files[key]
	if !ok {
		return false
	}
	remaining, released := fs.close()
	if remaining == 0 {
		delete(t.files, key)
	}
	t.metrics.locksReleased(released)
	return true
}

// State returns the state of an open file.
func (t *Table) State(path string) (*FileState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fs, ok := t.files[NormalizePath(path)]
	return fs, ok
}

// Len returns the number of open files.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.files)
}

// ReleaseSession drops every lock owned by sessionID and returns how many
// were released. Opens are left to the caller's file close handling.
func (t *Table) ReleaseSession(sessionID uint32) int {
	t.mu.Lock()
	states := make([]*FileState, 0, len(t.files))
	for _, fs := range t.files {
		states = append(states, fs)
	}
	t.mu.Unlock()

	total := 0
	for _, fs := range states {
		total += fs.releaseSession(sessionID)
	}
	t.metrics.locksReleased(total)
	return total
}

// Range is one lock or unlock element of a LockingAndX request.
type Range struct {
	ProcessID uint32
	Offset    uint64
	Length    uint64
}

// LockingRequest is a decoded SMB_COM_LOCKING_ANDX request.
type LockingRequest struct {
	Path      string
	SessionID uint32
	Flags     types.LockingFlags
	Unlocks   []Range
	Locks     []Range
}

// LockingResult reports what a request did.
type LockingResult struct {
	Acquired  []*FileLock
	Released  int
	OplockAck bool
	Cancelled bool
}

// ProcessLockingRequest applies req. Unlocks are processed before locks and
// the lock elements are all-or-nothing: if one cannot be granted, the ones
// already granted by this request are rolled back.
func (t *Table) ProcessLockingRequest(ctx context.Context, req LockingRequest) (*LockingResult, error) {
	res := &LockingResult{}
	flags := req.Flags

	logger.DebugCtx(ctx, "LockingAndX",
		logger.KeyPath, req.Path,
		logger.KeyLockFlags, flags.String(),
		"unlocks", len(req.Unlocks),
		"locks", len(req.Locks))

	if flags.IsCancel() {
		// Locks are granted or refused immediately, so there is never a
		// pending request to cancel.
		res.Cancelled = true
		return res, nil
	}
	if flags.IsChangeType() {
		t.metrics.observeLock(resultUnsupported)
		return nil, types.NewErrorWithMessage(types.ErrDos, types.DOSNotSupported, "lock type change not supported")
	}

	fs, ok := t.State(req.Path)
	if !ok {
		return nil, types.NewError(types.ErrDos, types.DOSInvalidHandle)
	}

	if !flags.HasLargeFiles() {
		for _, r := range append(append([]Range(nil), req.Unlocks...), req.Locks...) {
			if r.Offset > max32 || r.Length > max32 {
				return nil, types.NewErrorWithMessage(types.ErrDos, types.DOSInvalidData, "32-bit lock range out of bounds")
			}
		}
	}

	if flags.IsOplockBreak() {
		res.OplockAck = true
	}

	for _, r := range req.Unlocks {
		owner := Owner{SessionID: req.SessionID, ProcessID: r.ProcessID}
		if _, err := fs.RemoveLock(r.Offset, r.Length, owner); err != nil {
			t.metrics.observeUnlock(false)
			t.metrics.locksReleased(res.Released)
			return nil, err
		}
		res.Released++
		t.metrics.observeUnlock(true)
	}
	t.metrics.locksReleased(res.Released)

	shared := flags.IsSharedLock()
	for _, r := range req.Locks {
		l := NewFileLock(r.Offset, r.Length, Owner{SessionID: req.SessionID, ProcessID: r.ProcessID}, shared)
		if err := fs.AddLock(l); err != nil {
			for _, granted := range res.Acquired {
				fs.removeLockByID(granted.ID)
			}
			t.metrics.locksReleased(len(res.Acquired))
			t.metrics.observeLock(resultConflict)
			logger.DebugCtx(ctx, "Lock refused", logger.KeyPath, fs.Path(), logger.LockRange(r.Offset, r.Length), logger.Err(err))
			return nil, err
		}
		res.Acquired = append(res.Acquired, l)
		t.metrics.observeLock(resultGranted)
	}
	return res, nil
}
