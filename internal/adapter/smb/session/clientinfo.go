package session

import "strings"

// LogonType classifies how a client authenticated.
type LogonType int

const (
	LogonNormal LogonType = iota
	LogonGuest
	LogonNull
	LogonAdministrator
)

func (t LogonType) String() string {
	switch t {
	case LogonNormal:
		return "Normal"
	case LogonGuest:
		return "Guest"
	case LogonNull:
		return "Null"
	case LogonAdministrator:
		return "Administrator"
	default:
		return "Unknown"
	}
}

// ClientInfo is the identity a client presented at logon.
type ClientInfo struct {
	UserName        string
	Password        []byte // Unicode (NT) password or hash
	ANSIPassword    []byte // LanMan password or hash, optional
	LogonType       LogonType
	Domain          string
	OperatingSystem string
	ClientAddress   string // textual remote address, optional
}

// NewClientInfo returns a ClientInfo with a normal logon type.
func NewClientInfo(user string, password []byte) *ClientInfo {
	return &ClientInfo{UserName: user, Password: password}
}

func (c *ClientInfo) IsGuest() bool         { return c.LogonType == LogonGuest }
func (c *ClientInfo) IsNullSession() bool   { return c.LogonType == LogonNull }
func (c *ClientInfo) IsAdministrator() bool { return c.LogonType == LogonAdministrator }

func (c *ClientInfo) HasPassword() bool      { return len(c.Password) > 0 }
func (c *ClientInfo) HasANSIPassword() bool  { return len(c.ANSIPassword) > 0 }
func (c *ClientInfo) HasClientAddress() bool { return c.ClientAddress != "" }

// SetGuest switches between a guest and a normal logon.
func (c *ClientInfo) SetGuest(guest bool) {
	if guest {
		c.LogonType = LogonGuest
	} else {
		c.LogonType = LogonNormal
	}
}

// String renders the identity for logs. Passwords are never included.
func (c *ClientInfo) String() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(c.UserName)
	b.WriteByte(',')
	b.WriteString(c.Domain)
	b.WriteByte(',')
	b.WriteString(c.OperatingSystem)
	if c.HasClientAddress() {
		b.WriteByte(',')
		b.WriteString(c.ClientAddress)
	}
	if c.LogonType != LogonNormal {
		b.WriteByte(',')
		b.WriteString(c.LogonType.String())
	}
	b.WriteByte(']')
	return b.String()
}
