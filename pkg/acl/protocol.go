package acl

import (
	"fmt"
	"strings"
)

const TypeProtocol = "protocol"

// ProtocolRule matches the transport a subject connected over.
type ProtocolRule struct {
	rule
	protocols []string
}

// NewProtocolRule matches any of protocols, ignoring case.
func NewProtocolRule(protocols []string, v Verdict) *ProtocolRule {
	norm := make([]string, 0, len(protocols))
	for _, p := range protocols {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			norm = append(norm, p)
		}
	}
	return &ProtocolRule{
		rule:      rule{name: strings.Join(norm, ","), typ: TypeProtocol, verdict: v},
		protocols: norm,
	}
}

func (r *ProtocolRule) AllowsAccess(subj Subject, _ Resource) Verdict {
	proto := strings.ToLower(subj.Protocol())
	for _, p := range r.protocols {
		if p == proto {
			return r.verdict
		}
	}
	return Default
}

type protocolParams struct {
	Protocols  string `mapstructure:"protocols" validate:"required"`
	baseParams `mapstructure:",squash"`
}

type protocolParser struct{}

func (protocolParser) Type() string { return TypeProtocol }

func (protocolParser) Parse(params Params) (AccessControl, error) {
	var p protocolParams
	v, err := decodeParams(params, &p)
	if err != nil {
		return nil, err
	}
	r := NewProtocolRule(strings.Split(p.Protocols, ","), v)
	if len(r.protocols) == 0 {
		return nil, fmt.Errorf("protocols list is empty")
	}
	return r, nil
}
