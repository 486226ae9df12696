// Package acl decides whether a session may use a shared resource.
//
// A Manager holds an ordered list of AccessControl rules and a registry of
// Parsers that build rules from configuration. Each rule returns Allow,
// Disallow or Default ("does not apply"); the first rule that returns
// something other than Default decides, and the manager's default verdict
// applies when none does. Rules attached to a share are consulted before the
// manager-wide list.
//
// Built-in rule types:
//
//	address   ip: 10.0.0.5                     exact IPv4 match
//	address   subnet: 192.168.1.0, mask: 24    masked IPv4 match
//	user      user: alice                      case-insensitive user name
//	domain    domain: CORP                     case-insensitive domain
//	protocol  protocols: tcp,netbios           session handler kind
//
// Rules are immutable after construction, so evaluation is lock-free and safe
// for concurrent use once configuration has been loaded.
package acl
