package session

import "sync"

// Listener observes session lifecycle events. Callbacks run synchronously on
// the goroutine that caused the event and must not block.
type Listener interface {
	SessionOpened(s *Session)
	SessionClosed(s *Session)
	SessionLoggedOn(s *Session)
}

// ListenerFuncs adapts optional functions to a Listener.
type ListenerFuncs struct {
	Opened   func(*Session)
	Closed   func(*Session)
	LoggedOn func(*Session)
}

func (f ListenerFuncs) SessionOpened(s *Session) {
	if f.Opened != nil {
		f.Opened(s)
	}
}

func (f ListenerFuncs) SessionClosed(s *Session) {
	if f.Closed != nil {
		f.Closed(s)
	}
}

func (f ListenerFuncs) SessionLoggedOn(s *Session) {
	if f.LoggedOn != nil {
		f.LoggedOn(s)
	}
}

// Listeners fans events out to registered listeners in registration order.
type Listeners struct {
	mu   sync.RWMutex
	list []Listener
}

// Add registers l.
func (ls *Listeners) Add(l Listener) {
	ls.mu.Lock()
	ls.list = append(ls.list, l)
	ls.mu.Unlock()
}

// Len returns the number of registered listeners.
func (ls *Listeners) Len() int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.list)
}

func (ls *Listeners) snapshot() []Listener {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return append([]Listener(nil), ls.list...)
}

func (ls *Listeners) NotifyOpened(s *Session) {
	for _, l := range ls.snapshot() {
		l.SessionOpened(s)
	}
}

func (ls *Listeners) NotifyClosed(s *Session) {
	for _, l := range ls.snapshot() {
		l.SessionClosed(s)
	}
}

func (ls *Listeners) NotifyLoggedOn(s *Session) {
	for _, l := range ls.snapshot() {
		l.SessionLoggedOn(s)
	}
}
