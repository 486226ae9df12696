package acl

import "net"

// Identity is the logged-on user as seen by rules.
type Identity struct {
	UserName string
	Domain   string
}

// Subject is the party asking for access, normally a session.
type Subject interface {
	// RemoteAddress returns the peer address or nil when the transport has
	// none.
	RemoteAddress() net.IP
	// Identity reports the logged-on user; false before logon.
	Identity() (Identity, bool)
	// Protocol names the transport the subject arrived on.
	Protocol() string
}

// Resource is a shared device that access is being requested for.
type Resource interface {
	ShareName() string
	// ShareRules returns rules that apply to this resource only. They are
	// evaluated before the manager's rules.
	ShareRules() []AccessControl
}
