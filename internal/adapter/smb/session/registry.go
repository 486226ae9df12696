package session

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Registry holds the live sessions of a server keyed by session ID.
//
// All methods are safe for concurrent use. Enumeration returns snapshots so
// callers may add or remove sessions while iterating.
type Registry struct {
	mu       sync.Mutex
	sessions map[uint32]*Session
	metrics  *Metrics
}

// NewRegistry creates an empty registry. m may be nil.
func NewRegistry(m *Metrics) *Registry {
	return &Registry{
		sessions: make(map[uint32]*Session),
		metrics:  m,
	}
}

// Add stores s under its ID, replacing any session already registered with
// the same ID.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	old, replaced := r.sessions[s.ID()]
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	switch {
	case !replaced:
		r.metrics.sessionAdded(s.Protocol())
	case old.Protocol() != s.Protocol():
		r.metrics.sessionRemoved(old.Protocol())
		r.metrics.sessionAdded(s.Protocol())
	}
}

// Find returns the session registered under id.
func (r *Registry) Find(id uint32) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove unregisters and returns the session for id. Removing an unknown ID
// is a no-op that reports false.
func (r *Registry) Remove(id uint32) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if ok {
		r.metrics.sessionRemoved(s.Protocol())
	}
	return s, ok
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// IDs returns a sorted snapshot of the registered session IDs.
func (r *Registry) IDs() []uint32 {
	r.mu.Lock()
	ids := make([]uint32, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Sessions returns a snapshot of the registered sessions ordered by ID.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}

// RemoveAll empties the registry and returns what it held.
func (r *Registry) RemoveAll() []*Session {
	r.mu.Lock()
	old := r.sessions
	r.sessions = make(map[uint32]*Session)
	r.mu.Unlock()

	list := make([]*Session, 0, len(old))
	for _, s := range old {
		r.metrics.sessionRemoved(s.Protocol())
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}

// IDGenerator hands out session IDs. Zero is never returned; after wrapping
// the counter skips it.
type IDGenerator struct {
	next atomic.Uint32
}

// Next returns the next session ID.
func (g *IDGenerator) Next() uint32 {
	for {
		if id := g.next.Add(1); id != 0 {
			return id
		}
	}
}
