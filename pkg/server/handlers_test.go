package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHandler serves until its context ends or Stop is called.
type fakeHandler struct {
	name    string
	serveFn func(ctx context.Context) error

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
	once    sync.Once
}

func newFakeHandler(name string) *fakeHandler {
	return &fakeHandler{name: name, stopCh: make(chan struct{})}
}

func (f *fakeHandler) Name() string     { return f.name }
func (f *fakeHandler) Protocol() string { return "fake" }
func (f *fakeHandler) Addr() string     { return "" }

func (f *fakeHandler) Serve(ctx context.Context) error {
	if f.serveFn != nil {
		return f.serveFn(ctx)
	}
	select {
	case <-ctx.Done():
	case <-f.stopCh:
	}
	return nil
}

func (f *fakeHandler) Stop(context.Context) error {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
	f.once.Do(func() { close(f.stopCh) })
	return nil
}

func (f *fakeHandler) wasStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func TestHandlerListAddAndLookup(t *testing.T) {
	t.Parallel()
	l := NewHandlerList()
	assert.Equal(t, 0, l.Len())

	require.NoError(t, l.Add(newFakeHandler("smb")))
	require.NoError(t, l.Add(newFakeHandler("netbios")))

	err := l.Add(newFakeHandler("smb"))
	require.ErrorIs(t, err, ErrDuplicateHandler)
	assert.Equal(t, 2, l.Len())

	h, ok := l.At(1)
	require.True(t, ok)
	assert.Equal(t, "netbios", h.Name())

	_, ok = l.At(2)
	assert.False(t, ok)
	_, ok = l.At(-1)
	assert.False(t, ok)

	h, ok = l.Find("smb")
	require.True(t, ok)
	assert.Equal(t, "smb", h.Name())
	_, ok = l.Find("ftp")
	assert.False(t, ok)
}

func TestHandlerListRemove(t *testing.T) {
	t.Parallel()
	l := NewHandlerList()
	for _, n := range []string{"a", "b", "c", "d"} {
		require.NoError(t, l.Add(newFakeHandler(n)))
	}

	h, ok := l.RemoveAt(1)
	require.True(t, ok)
	assert.Equal(t, "b", h.Name())

	h, ok = l.Remove("d")
	require.True(t, ok)
	assert.Equal(t, "d", h.Name())

	_, ok = l.Remove("d")
	assert.False(t, ok)
	_, ok = l.RemoveAt(5)
	assert.False(t, ok)

	names := func(hs []SessionHandler) []string {
		out := make([]string, len(hs))
		for i, h := range hs {
			out[i] = h.Name()
		}
		return out
	}
	assert.Equal(t, []string{"a", "c"}, names(l.Handlers()))

	// A removed name can be registered again.
	require.NoError(t, l.Add(newFakeHandler("b")))

	all := l.RemoveAll()
	assert.Equal(t, []string{"a", "c", "b"}, names(all))
	assert.Equal(t, 0, l.Len())
}

func TestHandlerListSnapshotIsCopy(t *testing.T) {
	t.Parallel()
	l := NewHandlerList()
	require.NoError(t, l.Add(newFakeHandler("a")))

	snap := l.Handlers()
	require.NoError(t, l.Add(newFakeHandler("b")))
	assert.Len(t, snap, 1)
}

func TestWaitWhileEmptyReturnsImmediately(t *testing.T) {
	t.Parallel()
	l := NewHandlerList()
	require.NoError(t, l.Add(newFakeHandler("a")))

	done := make(chan struct{})
	go func() {
		l.WaitWhileEmpty()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitWhileEmpty blocked on a non-empty list")
	}
}

func TestWaitWhileEmptyWakesAllWaiters(t *testing.T) {
	t.Parallel()
	l := NewHandlerList()

	const waiters = 5
	var wg sync.WaitGroup
	woke := make(chan int, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.WaitWhileEmpty()
			woke <- l.Len()
		}()
	}

	// Nobody may wake while the list is empty.
	select {
	case <-woke:
		t.Fatal("waiter returned before a handler was added")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, l.Add(newFakeHandler("smb")))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waiters not released after Add")
	}

	close(woke)
	for n := range woke {
		assert.GreaterOrEqual(t, n, 1)
	}
}

func TestWaitWhileEmptyContext(t *testing.T) {
	t.Parallel()

	t.Run("Cancelled", func(t *testing.T) {
		t.Parallel()
		l := NewHandlerList()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		err := l.WaitWhileEmptyContext(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Added", func(t *testing.T) {
		t.Parallel()
		l := NewHandlerList()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		errCh := make(chan error, 1)
		go func() { errCh <- l.WaitWhileEmptyContext(ctx) }()

		time.Sleep(10 * time.Millisecond)
		require.NoError(t, l.Add(newFakeHandler("smb")))
		assert.NoError(t, <-errCh)
	})
}
