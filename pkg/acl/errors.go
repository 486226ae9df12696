package acl

import (
	"errors"
	"fmt"
)

var (
	// ErrACLParse matches any *ACLParseError with errors.Is.
	ErrACLParse = errors.New("acl parse error")
	// ErrInvalidACLType matches any *InvalidACLTypeError with errors.Is.
	ErrInvalidACLType = errors.New("invalid acl type")
)

// ACLParseError reports malformed rule parameters.
type ACLParseError struct {
	Type string
	Err  error
}

func (e *ACLParseError) Error() string {
	return fmt.Sprintf("acl %q: invalid parameters: %v", e.Type, e.Err)
}

func (e *ACLParseError) Unwrap() error { return e.Err }

func (e *ACLParseError) Is(target error) bool { return target == ErrACLParse }

// InvalidACLTypeError reports a rule type with no registered parser.
type InvalidACLTypeError struct {
	Type string
}

func (e *InvalidACLTypeError) Error() string {
	return fmt.Sprintf("acl type %q is not registered", e.Type)
}

func (e *InvalidACLTypeError) Is(target error) bool { return target == ErrInvalidACLType }
