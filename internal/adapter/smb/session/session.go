package session

import (
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/marmos91/cifsgate/pkg/acl"
)

// Session is one client conversation with the server, from connect until the
// transport closes it. ID, protocol, remote address and creation time are
// fixed at construction; the identity and tree connections change under mu.
type Session struct {
	id        uint32
	protocol  string
	remote    net.IP
	createdAt time.Time

	mu        sync.RWMutex
	client    *ClientInfo
	processID uint32
	trees     map[uint16]string
	nextTID   uint16
}

// New creates a session. remote may be nil for transports without a network
// peer (named pipes, in-process tests).
func New(id uint32, protocol string, remote net.IP) *Session {
	return &Session{
		id:        id,
		protocol:  protocol,
		remote:    remote,
		createdAt: time.Now(),
		trees:     make(map[uint16]string),
	}
}

func (s *Session) ID() uint32           { return s.id }
func (s *Session) Protocol() string     { return s.protocol }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// RemoteAddress returns the peer IP or nil.
func (s *Session) RemoteAddress() net.IP { return s.remote }

// SetClientInfo records the logged-on identity.
func (s *Session) SetClientInfo(ci *ClientInfo) {
	s.mu.Lock()
	s.client = ci
	s.mu.Unlock()
}

// ClientInfo returns the identity, or nil before logon.
func (s *Session) ClientInfo() *ClientInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

func (s *Session) HasClientInfo() bool {
	return s.ClientInfo() != nil
}

// Identity exposes the logged-on user to access-control rules.
func (s *Session) Identity() (acl.Identity, bool) {
	ci := s.ClientInfo()
	if ci == nil {
		return acl.Identity{}, false
	}
	return acl.Identity{UserName: ci.UserName, Domain: ci.Domain}, true
}

// SetProcessID records the client process ID used as the lock owner.
func (s *Session) SetProcessID(pid uint32) {
	s.mu.Lock()
	s.processID = pid
	s.mu.Unlock()
}

func (s *Session) ProcessID() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processID
}

// ConnectTree allocates a tree ID for share. Tree IDs start at 1 and are not
// reused while the session lives.
func (s *Session) ConnectTree(share string) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		s.nextTID++
		if s.nextTID == 0 {
			continue
		}
		if _, used := s.trees[s.nextTID]; !used {
			s.trees[s.nextTID] = share
			return s.nextTID
		}
	}
}

// Tree returns the share bound to tid.
func (s *Session) Tree(tid uint16) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.trees[tid]
	return name, ok
}

// DisconnectTree releases tid; it reports whether the tree existed.
func (s *Session) DisconnectTree(tid uint16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trees[tid]; !ok {
		return false
	}
	delete(s.trees, tid)
	return true
}

// TreeIDs returns the connected tree IDs in ascending order.
func (s *Session) TreeIDs() []uint16 {
	s.mu.RLock()
	ids := make([]uint16, 0, len(s.trees))
	for id := range s.trees {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Session) String() string {
	user := "-"
	if ci := s.ClientInfo(); ci != nil {
		user = ci.String()
	}
	return fmt.Sprintf("session 0x%08x %s %v %s", s.id, s.protocol, s.remote, user)
}
