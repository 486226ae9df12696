package acl

import "fmt"

// AccessControl is one admission rule.
//
// AllowsAccess must be a pure function of its arguments and must return one of
// the three verdicts.
type AccessControl interface {
	// Name is the rule's target: an address, subnet/mask, user or domain.
	Name() string
	// Type is the parser type that built the rule.
	Type() string
	// Verdict is what the rule returns when it matches.
	Verdict() Verdict
	AllowsAccess(subj Subject, res Resource) Verdict
	String() string
}

type rule struct {
	name    string
	typ     string
	verdict Verdict
}

func (r rule) Name() string     { return r.name }
func (r rule) Type() string     { return r.typ }
func (r rule) Verdict() Verdict { return r.verdict }

func (r rule) String() string {
	return fmt.Sprintf("[%s:%s,%s]", r.typ, r.name, r.verdict)
}

// matched returns the rule verdict when ok, Default otherwise.
func (r rule) matched(ok bool) Verdict {
	if ok {
		return r.verdict
	}
	return Default
}
