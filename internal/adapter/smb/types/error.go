package types

import (
	"errors"
	"fmt"
)

// ErrorClass is the SMB error class byte. NTErr is not a wire value; it tags
// errors whose code is already a 32-bit NT status.
type ErrorClass int

const (
	Success ErrorClass = 0x00
	ErrDos  ErrorClass = 0x01
	ErrSrv  ErrorClass = 0x02
	ErrHrd  ErrorClass = 0x03
	ErrCmd  ErrorClass = 0xFF
	NTErr   ErrorClass = 0x100
)

func (c ErrorClass) String() string {
	switch c {
	case Success:
		return "Success"
	case ErrDos:
		return "ERRDOS"
	case ErrSrv:
		return "ERRSRV"
	case ErrHrd:
		return "ERRHRD"
	case ErrCmd:
		return "ERRCMD"
	case NTErr:
		return "NTERR"
	default:
		return fmt.Sprintf("class(0x%02X)", int(c))
	}
}

// ProtocolError is a failure reported back to a client as an error class and
// code. The zero value is not useful; build one with NewError.
type ProtocolError struct {
	class   ErrorClass
	code    int
	message string
}

// NewError returns an error whose message comes from the class/code text
// table.
func NewError(class ErrorClass, code int) *ProtocolError {
	return &ProtocolError{class: class, code: code, message: ErrorText(class, code)}
}

// NewErrorWithMessage returns an error with an explicit message.
func NewErrorWithMessage(class ErrorClass, code int, msg string) *ProtocolError {
	return &ProtocolError{class: class, code: code, message: msg}
}

// NewStatusError wraps an NT status as a ProtocolError in the NTErr class.
func NewStatusError(s Status) *ProtocolError {
	return &ProtocolError{class: NTErr, code: int(s), message: s.String()}
}

func (e *ProtocolError) Class() ErrorClass { return e.class }
func (e *ProtocolError) Code() int         { return e.code }
func (e *ProtocolError) Message() string   { return e.message }

func (e *ProtocolError) Error() string {
	return e.message
}

// Is matches another *ProtocolError with the same class and code, so callers
// can compare against a freshly built error with errors.Is.
func (e *ProtocolError) Is(target error) bool {
	var t *ProtocolError
	if !errors.As(target, &t) {
		return false
	}
	return e.class == t.class && e.code == t.code
}

// Status maps the class/code pair onto the NT status used by SMB2 responses.
// Unmapped pairs become STATUS_UNEXPECTED_IO_ERROR.
func (e *ProtocolError) Status() Status {
	if e.class == NTErr {
		return Status(uint32(e.code))
	}
	if s, ok := dosToStatus[errorKey{e.class, e.code}]; ok {
		return s
	}
	return StatusUnexpectedIOError
}

// AsProtocolError unwraps err to a *ProtocolError.
func AsProtocolError(err error) (*ProtocolError, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

var dosToStatus = map[errorKey]Status{
	{ErrDos, DOSBadFunction}:        StatusNotImplemented,
	{ErrDos, DOSFileNotFound}:       StatusObjectNameNotFound,
	{ErrDos, DOSDirectoryInvalid}:   StatusObjectPathNotFound,
	{ErrDos, DOSAccessDenied}:       StatusAccessDenied,
	{ErrDos, DOSInvalidHandle}:      StatusInvalidHandle,
	{ErrDos, DOSNotEnoughMemory}:    StatusNoMemory,
	{ErrDos, DOSInvalidData}:        StatusInvalidParameter,
	{ErrDos, DOSNoMoreFiles}:        StatusNoMoreFiles,
	{ErrDos, DOSSharingViolation}:   StatusSharingViolation,
	{ErrDos, DOSLockConflict}:       StatusLockNotGranted,
	{ErrDos, DOSFileAlreadyExists}:  StatusObjectNameCollision,
	{ErrDos, DOSNotLocked}:          StatusRangeNotLocked,
	{ErrDos, DOSNotSupported}:       StatusNotSupported,
	{ErrDos, DOSPipeBusy}:           StatusPipeBusy,
	{ErrDos, DOSPipeClosing}:        StatusPipeClosing,
	{ErrDos, DOSNotConnected}:       StatusPipeDisconnected,
	{ErrSrv, SRVNonSpecificError}:   StatusUnexpectedIOError,
	{ErrSrv, SRVBadPassword}:        StatusLogonFailure,
	{ErrSrv, SRVNoAccessRights}:     StatusAccessDenied,
	{ErrSrv, SRVInvalidTID}:         StatusInvalidTID,
	{ErrSrv, SRVInvalidNetworkName}: StatusBadNetworkName,
	{ErrSrv, SRVInvalidDevice}:      StatusBadNetworkName,
	{ErrSrv, SRVBadUserID}:          StatusUserSessionDeleted,
	{ErrSrv, SRVNotSupported}:       StatusNotSupported,
	{ErrHrd, HRDWriteProtect}:       StatusMediaWriteProtected,
	{ErrHrd, HRDDiskFull}:           StatusDiskFull,
	{ErrHrd, HRDSharingViolation}:   StatusSharingViolation,
	{ErrHrd, HRDLockViolation}:      StatusLockNotGranted,
}
