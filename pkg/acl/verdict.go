package acl

import (
	"fmt"
	"strings"
)

// Verdict is the outcome of evaluating a rule.
type Verdict int

const (
	// Default means the rule does not apply.
	Default Verdict = iota
	Allow
	Disallow
)

func (v Verdict) String() string {
	switch v {
	case Default:
		return "Default"
	case Allow:
		return "Allow"
	case Disallow:
		return "Disallow"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// ParseVerdict accepts allow, disallow (or deny) and default, in any case.
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow":
		return Allow, nil
	case "disallow", "deny":
		return Disallow, nil
	case "default":
		return Default, nil
	}
	return Default, fmt.Errorf("invalid access verdict %q", s)
}

func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(v.String())), nil
}

func (v *Verdict) UnmarshalText(b []byte) error {
	parsed, err := ParseVerdict(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
