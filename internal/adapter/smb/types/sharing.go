package types

import "strings"

// SharingMode is the share access a client grants other openers of a file.
type SharingMode uint32

const (
	ShareNone      SharingMode = 0x00
	ShareRead      SharingMode = 0x01
	ShareWrite     SharingMode = 0x02
	ShareReadWrite SharingMode = ShareRead | ShareWrite
	ShareDelete    SharingMode = 0x04
)

func (m SharingMode) AllowsRead() bool   { return m&ShareRead != 0 }
func (m SharingMode) AllowsWrite() bool  { return m&ShareWrite != 0 }
func (m SharingMode) AllowsDelete() bool { return m&ShareDelete != 0 }

func (m SharingMode) String() string {
	if m == ShareNone {
		return "None"
	}
	var parts []string
	if m.AllowsRead() {
		parts = append(parts, "Read")
	}
	if m.AllowsWrite() {
		parts = append(parts, "Write")
	}
	if m.AllowsDelete() {
		parts = append(parts, "Delete")
	}
	return strings.Join(parts, "|")
}

// AccessKind is the data access requested by an open.
type AccessKind int

const (
	AccessReadOnly AccessKind = iota
	AccessWriteOnly
	AccessReadWrite
)

func (a AccessKind) String() string {
	switch a {
	case AccessReadOnly:
		return "ReadOnly"
	case AccessWriteOnly:
		return "WriteOnly"
	case AccessReadWrite:
		return "ReadWrite"
	default:
		return "Unknown"
	}
}

// AllowsOpen decides whether a new open with the requested sharing mode and
// access can join a file already held open under m. Callers handle the
// "no current opens" case themselves.
//
// Both sides sharing read/write always succeeds; otherwise the existing mode
// must share exactly the kind of access being requested.
func (m SharingMode) AllowsOpen(requested SharingMode, access AccessKind) bool {
	if m&ShareReadWrite == ShareReadWrite && requested&ShareReadWrite == ShareReadWrite {
		return true
	}
	switch access {
	case AccessReadOnly:
		return m.AllowsRead()
	case AccessWriteOnly:
		return m.AllowsWrite()
	}
	return false
}
