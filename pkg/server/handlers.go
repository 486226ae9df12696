package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateHandler is returned by HandlerList.Add when a handler with the
// same name is already registered.
var ErrDuplicateHandler = errors.New("duplicate session handler")

// SessionHandler accepts client connections for one transport and turns them
// into sessions.
type SessionHandler interface {
	// Name is unique within a server.
	Name() string
	// Protocol names the transport, e.g. "tcp" or "netbios".
	Protocol() string
	// Serve blocks until ctx is cancelled or Stop is called.
	Serve(ctx context.Context) error
	// Stop closes the listener and waits for connections to drain within
	// the context deadline.
	Stop(ctx context.Context) error
	// Addr reports the listening address once Serve has bound it.
	Addr() string
}

// HandlerList is an ordered list of session handlers. Goroutines may block in
// WaitWhileEmpty until the first handler is added.
type HandlerList struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	handlers []SessionHandler
}

// NewHandlerList returns an empty list.
func NewHandlerList() *HandlerList {
	l := &HandlerList{}
	l.nonEmpty = sync.NewCond(&l.mu)
	return l
}

// Add appends h and wakes every waiter.
func (l *HandlerList) Add(h SessionHandler) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.handlers {
		if existing.Name() == h.Name() {
			return fmt.Errorf("%w: %s", ErrDuplicateHandler, h.Name())
		}
	}
	l.handlers = append(l.handlers, h)
	l.nonEmpty.Broadcast()
	return nil
}

// Len returns the number of handlers.
func (l *HandlerList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.handlers)
}

// At returns the handler at index i.
func (l *HandlerList) At(i int) (SessionHandler, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.handlers) {
		return nil, false
	}
	return l.handlers[i], true
}

// Find looks a handler up by name.
func (l *HandlerList) Find(name string) (SessionHandler, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexLocked(name); i >= 0 {
		return l.handlers[i], true
	}
	return nil, false
}

// RemoveAt removes and returns the handler at index i.
func (l *HandlerList) RemoveAt(i int) (SessionHandler, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.handlers) {
		return nil, false
	}
	return l.removeLocked(i), true
}

// Remove removes and returns the named handler.
func (l *HandlerList) Remove(name string) (SessionHandler, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(name)
	if i < 0 {
		return nil, false
	}
	return l.removeLocked(i), true
}

// RemoveAll empties the list and returns what it held, in order.
func (l *HandlerList) RemoveAll() []SessionHandler {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.handlers
	l.handlers = nil
	return out
}

// Handlers returns a snapshot in registration order.
func (l *HandlerList) Handlers() []SessionHandler {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]SessionHandler, len(l.handlers))
	copy(out, l.handlers)
	return out
}

// WaitWhileEmpty blocks until the list holds at least one handler.
func (l *HandlerList) WaitWhileEmpty() {
	l.mu.Lock()
	for len(l.handlers) == 0 {
		l.nonEmpty.Wait()
	}
	l.mu.Unlock()
}

// WaitWhileEmptyContext is WaitWhileEmpty bounded by ctx. It returns
// ctx.Err() if the context ends first.
func (l *HandlerList) WaitWhileEmptyContext(ctx context.Context) error {
	// sync.Cond has no cancellation; a watcher broadcasts on ctx.Done so the
	// waiter re-checks both conditions.
	stop := context.AfterFunc(ctx, func() {
		l.mu.Lock()
		l.nonEmpty.Broadcast()
		l.mu.Unlock()
	})
	defer stop()

	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.handlers) == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.nonEmpty.Wait()
	}
	return nil
}

func (l *HandlerList) indexLocked(name string) int {
	for i, h := range l.handlers {
		if h.Name() == name {
			return i
		}
	}
	return -1
}

func (l *HandlerList) removeLocked(i int) SessionHandler {
	h := l.handlers[i]
	l.handlers = append(l.handlers[:i], l.handlers[i+1:]...)
	return h
}
