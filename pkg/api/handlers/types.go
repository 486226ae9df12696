package handlers

import (
	"strings"
	"time"

	"github.com/marmos91/cifsgate/internal/adapter/smb/session"
	"github.com/marmos91/cifsgate/pkg/acl"
	"github.com/marmos91/cifsgate/pkg/server"
	"github.com/marmos91/cifsgate/pkg/share"
)

// ServerInfo is the body of GET /server.
type ServerInfo struct {
	Name           string    `json:"name"`
	StartedAt      time.Time `json:"started_at,omitzero"`
	Uptime         string    `json:"uptime,omitempty"`
	Sessions       int       `json:"sessions"`
	Handlers       int       `json:"handlers"`
	Shares         int       `json:"shares"`
	DefaultVerdict string    `json:"default_verdict"`
	Rules          int       `json:"rules"`
	RuleTypes      []string  `json:"rule_types"`
	OpenFiles      int       `json:"open_files"`
}

// HandlerInfo describes one session handler.
type HandlerInfo struct {
	Name              string `json:"name"`
	Protocol          string `json:"protocol"`
	Address           string `json:"address,omitempty"`
	Listening         bool   `json:"listening"`
	ActiveConnections *int32 `json:"active_connections,omitempty"`
}

// TreeInfo is a connected tree of a session.
type TreeInfo struct {
	ID    uint16 `json:"id"`
	Share string `json:"share"`
}

// SessionInfo describes one session. Passwords are never exposed.
type SessionInfo struct {
	ID              uint32     `json:"id"`
	Protocol        string     `json:"protocol"`
	RemoteAddress   string     `json:"remote_address,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	User            string     `json:"user,omitempty"`
	Domain          string     `json:"domain,omitempty"`
	LogonType       string     `json:"logon_type,omitempty"`
	OperatingSystem string     `json:"operating_system,omitempty"`
	ProcessID       uint32     `json:"process_id,omitempty"`
	Trees           []TreeInfo `json:"trees,omitempty"`
}

// RuleInfo describes one access control rule.
type RuleInfo struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Verdict string `json:"verdict"`
}

// ShareInfo describes one shared device.
type ShareInfo struct {
	Name    string     `json:"name"`
	Type    string     `json:"type"`
	Comment string     `json:"comment,omitempty"`
	Hidden  bool       `json:"hidden"`
	Rules   []RuleInfo `json:"rules,omitempty"`
}

// AccessInfo is the body of GET /shares/{name}/access.
type AccessInfo struct {
	Share   string `json:"share"`
	Session uint32 `json:"session"`
	Verdict string `json:"verdict"`
	Allowed bool   `json:"allowed"`
}

type connectionCounter interface {
	ActiveConnections() int32
}

func handlerInfo(h server.SessionHandler) HandlerInfo {
	info := HandlerInfo{
		Name:     h.Name(),
		Protocol: h.Protocol(),
		Address:  h.Addr(),
	}
	info.Listening = info.Address != ""
	if c, ok := h.(connectionCounter); ok {
		n := c.ActiveConnections()
		info.ActiveConnections = &n
	}
	return info
}

func sessionInfo(s *session.Session) SessionInfo {
	info := SessionInfo{
		ID:        s.ID(),
		Protocol:  s.Protocol(),
		CreatedAt: s.CreatedAt().UTC(),
		ProcessID: s.ProcessID(),
	}
	if ip := s.RemoteAddress(); ip != nil {
		info.RemoteAddress = ip.String()
	}
	if ci := s.ClientInfo(); ci != nil {
		info.User = ci.UserName
		info.Domain = ci.Domain
		info.LogonType = ci.LogonType.String()
		info.OperatingSystem = ci.OperatingSystem
	}
	for _, tid := range s.TreeIDs() {
		if name, ok := s.Tree(tid); ok {
			info.Trees = append(info.Trees, TreeInfo{ID: tid, Share: name})
		}
	}
	return info
}

func ruleInfos(rules []acl.AccessControl) []RuleInfo {
	if len(rules) == 0 {
		return nil
	}
	out := make([]RuleInfo, 0, len(rules))
	for _, r := range rules {
		out = append(out, RuleInfo{Type: r.Type(), Name: r.Name(), Verdict: verdictString(r.Verdict())})
	}
	return out
}

func verdictString(v acl.Verdict) string {
	return strings.ToLower(v.String())
}

func shareInfo(d *share.Device) ShareInfo {
	return ShareInfo{
		Name:    d.Name,
		Type:    d.Type.String(),
		Comment: d.Comment,
		Hidden:  d.Hidden(),
		Rules:   ruleInfos(d.Rules),
	}
}
