package acl

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// TypeAddress is the parser type for AddressRule.
const TypeAddress = "address"

// AddressRule matches the subject's IPv4 address either exactly or against a
// subnet. Subjects without an IPv4 address never match.
type AddressRule struct {
	rule
	addr uint32
	mask uint32
}

// NewAddressRule builds an exact-match rule for ip.
func NewAddressRule(ip string, v Verdict) (*AddressRule, error) {
	addr, err := parseIPv4(ip)
	if err != nil {
		return nil, err
	}
	return &AddressRule{
		rule: rule{name: ip, typ: TypeAddress, verdict: v},
		addr: addr,
		mask: 0xFFFFFFFF,
	}, nil
}

// NewSubnetRule builds a rule matching subnet/mask. mask may be dotted
// ("255.255.255.0") or a prefix length ("24").
func NewSubnetRule(subnet, mask string, v Verdict) (*AddressRule, error) {
	addr, err := parseIPv4(subnet)
	if err != nil {
		return nil, err
	}
	m, err := parseMask(mask)
	if err != nil {
		return nil, err
	}
	return &AddressRule{
		rule: rule{name: subnet + "/" + mask, typ: TypeAddress, verdict: v},
		addr: addr & m,
		mask: m,
	}, nil
}

// IsSubnet reports whether the rule was built with a mask.
func (r *AddressRule) IsSubnet() bool {
	return r.mask != 0xFFFFFFFF
}

func (r *AddressRule) AllowsAccess(subj Subject, _ Resource) Verdict {
	ip := subj.RemoteAddress()
	if ip == nil {
		return Default
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return Default
	}
	return r.matched(binary.BigEndian.Uint32(ip4)&r.mask == r.addr)
}

func parseIPv4(s string) (uint32, error) {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return 0, fmt.Errorf("invalid IP address %q", s)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return 0, fmt.Errorf("%q is not an IPv4 address", s)
	}
	return binary.BigEndian.Uint32(ip4), nil
}

func parseMask(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 32 {
			return 0, fmt.Errorf("invalid prefix length %d", n)
		}
		return binary.BigEndian.Uint32(net.CIDRMask(n, 32)), nil
	}
	m, err := parseIPv4(s)
	if err != nil {
		return 0, fmt.Errorf("invalid subnet mask %q", s)
	}
	// A valid mask is a run of ones followed by zeros.
	if inv := ^m; inv&(inv+1) != 0 {
		return 0, fmt.Errorf("subnet mask %q is not contiguous", s)
	}
	return m, nil
}

type addressParams struct {
	IP     string `mapstructure:"ip" validate:"omitempty,ipv4"`
	Subnet string `mapstructure:"subnet" validate:"omitempty,ipv4"`
	Mask   string `mapstructure:"mask"`

	baseParams `mapstructure:",squash"`
}

type addressParser struct{}

func (addressParser) Type() string { return TypeAddress }

func (addressParser) Parse(params Params) (AccessControl, error) {
	var p addressParams
	v, err := decodeParams(params, &p)
	if err != nil {
		return nil, err
	}

	switch {
	case p.IP != "" && p.Subnet != "":
		return nil, fmt.Errorf("ip and subnet are mutually exclusive")
	case p.IP != "":
		if p.Mask != "" {
			return nil, fmt.Errorf("mask requires subnet, not ip")
		}
		return NewAddressRule(p.IP, v)
	case p.Subnet != "":
		if p.Mask == "" {
			return nil, fmt.Errorf("subnet requires mask")
		}
		return NewSubnetRule(p.Subnet, p.Mask, v)
	}
	return nil, fmt.Errorf("one of ip or subnet is required")
}
