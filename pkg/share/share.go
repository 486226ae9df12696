// Package share describes the devices a server exposes to clients.
package share

import (
	"fmt"
	"strings"
	"sync"

	"github.com/marmos91/cifsgate/pkg/acl"
)

// Type is the kind of shared device.
type Type int

const (
	TypeDisk Type = iota
	TypePrinter
	TypePipe
	TypeAdmin
)

func (t Type) String() string {
	switch t {
	case TypeDisk:
		return "disk"
	case TypePrinter:
		return "printer"
	case TypePipe:
		return "pipe"
	case TypeAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseType converts a configuration string into a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disk", "":
		return TypeDisk, nil
	case "printer", "print":
		return TypePrinter, nil
	case "pipe", "ipc":
		return TypePipe, nil
	case "admin":
		return TypeAdmin, nil
	}
	return TypeDisk, fmt.Errorf("unknown share type %q", s)
}

// Device is a named shared resource.
type Device struct {
	Name    string
	Type    Type
	Comment string
	Rules   []acl.AccessControl
}

// ShareName implements acl.Resource.
func (d *Device) ShareName() string {
	if d == nil {
		return ""
	}
	return d.Name
}

// ShareRules implements acl.Resource.
func (d *Device) ShareRules() []acl.AccessControl {
	if d == nil {
		return nil
	}
	return d.Rules
}

// Hidden reports whether the share is left out of enumerations (name ends
// in '$').
func (d *Device) Hidden() bool {
	return strings.HasSuffix(d.Name, "$")
}

func (d *Device) String() string {
	return fmt.Sprintf("[%s,%s,rules=%d]", d.Name, d.Type, len(d.Rules))
}

// List is an ordered, name-unique collection of devices. Names compare
// case-insensitively.
type List struct {
	mu      sync.RWMutex
	devices []*Device
}

// NewList builds a list from devices, rejecting duplicate names.
func NewList(devices ...*Device) (*List, error) {
	l := &List{}
	for _, d := range devices {
		if err := l.Add(d); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add appends d.
func (l *List) Add(d *Device) error {
	if d == nil || d.Name == "" {
		return fmt.Errorf("share name is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.indexLocked(d.Name) >= 0 {
		return fmt.Errorf("share %q already exists", d.Name)
	}
	l.devices = append(l.devices, d)
	return nil
}

// Find returns the device called name.
func (l *List) Find(name string) (*Device, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexLocked(name); i >= 0 {
		return l.devices[i], true
	}
	return nil, false
}

// Remove deletes the device called name.
func (l *List) Remove(name string) (*Device, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(name)
	if i < 0 {
		return nil, false
	}
	d := l.devices[i]
	l.devices = append(l.devices[:i], l.devices[i+1:]...)
	return d, true
}

// Len returns the number of devices.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.devices)
}

// All returns a snapshot in insertion order. Hidden shares are included only
// when includeHidden is set.
func (l *List) All(includeHidden bool) []*Device {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Device, 0, len(l.devices))
	for _, d := range l.devices {
		if includeHidden || !d.Hidden() {
			out = append(out, d)
		}
	}
	return out
}

func (l *List) indexLocked(name string) int {
	for i, d := range l.devices {
		if strings.EqualFold(d.Name, name) {
			return i
		}
	}
	return -1
}
