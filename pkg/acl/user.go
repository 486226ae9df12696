package acl

import "strings"

const (
	TypeUser   = "user"
	TypeDomain = "domain"
)

// UserRule matches the logged-on user name, ignoring case. Subjects that have
// not logged on never match.
type UserRule struct {
	rule
}

func NewUserRule(user string, v Verdict) *UserRule {
	return &UserRule{rule{name: user, typ: TypeUser, verdict: v}}
}

func (r *UserRule) AllowsAccess(subj Subject, _ Resource) Verdict {
	id, ok := subj.Identity()
	if !ok {
		return Default
	}
	return r.matched(strings.EqualFold(id.UserName, r.name))
}

// DomainRule matches the logged-on user's domain, ignoring case.
type DomainRule struct {
	rule
}

func NewDomainRule(domain string, v Verdict) *DomainRule {
	return &DomainRule{rule{name: domain, typ: TypeDomain, verdict: v}}
}

func (r *DomainRule) AllowsAccess(subj Subject, _ Resource) Verdict {
	id, ok := subj.Identity()
	if !ok || id.Domain == "" {
		return Default
	}
	return r.matched(strings.EqualFold(id.Domain, r.name))
}

type userParams struct {
	User       string `mapstructure:"user" validate:"required"`
	baseParams `mapstructure:",squash"`
}

type userParser struct{}

func (userParser) Type() string { return TypeUser }

func (userParser) Parse(params Params) (AccessControl, error) {
	var p userParams
	v, err := decodeParams(params, &p)
	if err != nil {
		return nil, err
	}
	return NewUserRule(p.User, v), nil
}

type domainParams struct {
	Domain     string `mapstructure:"domain" validate:"required"`
	baseParams `mapstructure:",squash"`
}

type domainParser struct{}

func (domainParser) Type() string { return TypeDomain }

func (domainParser) Parse(params Params) (AccessControl, error) {
	var p domainParams
	v, err := decodeParams(params, &p)
	if err != nil {
		return nil, err
	}
	return NewDomainRule(p.Domain, v), nil
}
