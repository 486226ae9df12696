package apiclient

import "time"

// Health is the envelope of the health endpoints.
type Health struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Healthy reports whether the probe passed.
func (h *Health) Healthy() bool {
	return h.Status == "healthy"
}

// ServerInfo summarizes a running server.
type ServerInfo struct {
	Name           string    `json:"name"`
	StartedAt      time.Time `json:"started_at"`
	Uptime         string    `json:"uptime,omitempty"`
	Sessions       int       `json:"sessions"`
	Handlers       int       `json:"handlers"`
	Shares         int       `json:"shares"`
	DefaultVerdict string    `json:"default_verdict"`
	Rules          int       `json:"rules"`
	RuleTypes      []string  `json:"rule_types"`
	OpenFiles      int       `json:"open_files"`
}

// Handler is a session handler.
type Handler struct {
	Name              string `json:"name"`
	Protocol          string `json:"protocol"`
	Address           string `json:"address,omitempty"`
	Listening         bool   `json:"listening"`
	ActiveConnections *int32 `json:"active_connections,omitempty"`
}

// Tree is a tree connection of a session.
type Tree struct {
	ID    uint16 `json:"id"`
	Share string `json:"share"`
}

// Session is an active client session.
type Session struct {
	ID              uint32    `json:"id"`
	Protocol        string    `json:"protocol"`
	RemoteAddress   string    `json:"remote_address,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	User            string    `json:"user,omitempty"`
	Domain          string    `json:"domain,omitempty"`
	LogonType       string    `json:"logon_type,omitempty"`
	OperatingSystem string    `json:"operating_system,omitempty"`
	ProcessID       uint32    `json:"process_id,omitempty"`
	Trees           []Tree    `json:"trees,omitempty"`
}

// Rule is an access control rule.
type Rule struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Verdict string `json:"verdict"`
}

// Share is a shared device.
type Share struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Comment string `json:"comment,omitempty"`
	Hidden  bool   `json:"hidden"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Access is the result of an access check.
type Access struct {
	Share   string `json:"share"`
	Session uint32 `json:"session"`
	Verdict string `json:"verdict"`
	Allowed bool   `json:"allowed"`
}
