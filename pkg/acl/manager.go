package acl

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Manager evaluates access-control rules for sessions and shares.
//
// The rule list is fixed at construction. The parser registry may grow
// through AddAccessControlType, which is meant for configuration time.
type Manager struct {
	defaultVerdict Verdict
	rules          []AccessControl
	metrics        *Metrics

	mu      sync.RWMutex
	parsers map[string]Parser
}

// Option configures a Manager.
type Option func(*Manager)

// WithDefaultVerdict sets the verdict returned when no rule applies.
func WithDefaultVerdict(v Verdict) Option {
	return func(m *Manager) { m.defaultVerdict = v }
}

// WithRules sets the manager-wide rules in evaluation order.
func WithRules(rules ...AccessControl) Option {
	return func(m *Manager) { m.rules = append([]AccessControl(nil), rules...) }
}

// WithMetrics enables evaluation metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager returns a manager with the built-in parsers registered. Without
// WithDefaultVerdict the fallback is Default, which callers treat as a denial.
func NewManager(opts ...Option) *Manager {
	m := &Manager{parsers: make(map[string]Parser)}
	for _, p := range []Parser{addressParser{}, userParser{}, domainParser{}, protocolParser{}} {
		m.parsers[p.Type()] = p
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultVerdict returns the fallback verdict.
func (m *Manager) DefaultVerdict() Verdict { return m.defaultVerdict }

// Rules returns a copy of the manager-wide rules.
func (m *Manager) Rules() []AccessControl {
	return append([]AccessControl(nil), m.rules...)
}

// CheckAccessControl returns the first non-Default verdict from the share's
// own rules followed by the manager rules, or the default verdict when none
// applies.
func (m *Manager) CheckAccessControl(subj Subject, res Resource) Verdict {
	start := time.Now()

	if res != nil {
		if v := firstMatch(res.ShareRules(), subj, res); v != Default {
			m.metrics.observe(time.Since(start), v, sourceShare)
			return v
		}
	}
	if v := firstMatch(m.rules, subj, res); v != Default {
		m.metrics.observe(time.Since(start), v, sourceGlobal)
		return v
	}
	m.metrics.observe(time.Since(start), m.defaultVerdict, sourceDefault)
	return m.defaultVerdict
}

func firstMatch(rules []AccessControl, subj Subject, res Resource) Verdict {
	for _, r := range rules {
		if v := r.AllowsAccess(subj, res); v != Default {
			return v
		}
	}
	return Default
}

// FilterShareList returns the shares subj is allowed to use, in input order.
func FilterShareList[R Resource](m *Manager, subj Subject, shares []R) []R {
	out := make([]R, 0, len(shares))
	for _, s := range shares {
		if m.CheckAccessControl(subj, s) == Allow {
			out = append(out, s)
		}
	}
	return out
}

// FilterShareList returns the shares subj is allowed to use, in input order.
func (m *Manager) FilterShareList(subj Subject, shares []Resource) []Resource {
	return FilterShareList(m, subj, shares)
}

// CreateAccessControl builds a rule with the parser registered for typeName.
// The rule is not added to the manager.
func (m *Manager) CreateAccessControl(typeName string, params Params) (AccessControl, error) {
	m.mu.RLock()
	p, ok := m.parsers[strings.ToLower(typeName)]
	m.mu.RUnlock()
	if !ok {
		return nil, &InvalidACLTypeError{Type: typeName}
	}

	r, err := p.Parse(params)
	if err != nil {
		m.metrics.observeParseError(typeName)
		return nil, &ACLParseError{Type: typeName, Err: err}
	}
	return r, nil
}

// AddAccessControlType registers p under p.Type(), replacing any parser of
// the same name.
func (m *Manager) AddAccessControlType(p Parser) {
	m.mu.Lock()
	m.parsers[strings.ToLower(p.Type())] = p
	m.mu.Unlock()
}

// Types lists the registered parser names in sorted order.
func (m *Manager) Types() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.parsers))
	for name := range m.parsers {
		names = append(names, name)
	}
	m.mu.RUnlock()
	sort.Strings(names)
	return names
}
