package types

import "fmt"

// ERRDOS codes.
const (
	DOSBadFunction       = 1
	DOSFileNotFound      = 2
	DOSDirectoryInvalid  = 3
	DOSTooManyOpenFiles  = 4
	DOSAccessDenied      = 5
	DOSInvalidHandle     = 6
	DOSNotEnoughMemory   = 8
	DOSInvalidAccess     = 12
	DOSInvalidData       = 13
	DOSInvalidDrive      = 15
	DOSNoMoreFiles       = 18
	DOSSharingViolation  = 32
	DOSLockConflict      = 33
	DOSFileAlreadyExists = 80
	DOSNotSupported      = 50
	DOSNotLocked         = 158
	DOSPipeBusy          = 231
	DOSPipeClosing       = 232
	DOSNotConnected      = 233
	DOSMoreData          = 234
)

// ERRSRV codes.
const (
	SRVNonSpecificError   = 1
	SRVBadPassword        = 2
	SRVNoAccessRights     = 4
	SRVInvalidTID         = 5
	SRVInvalidNetworkName = 6
	SRVInvalidDevice      = 7
	SRVQueueFull          = 49
	SRVBadUserID          = 91
	SRVNotSupported       = 0xFFFF
)

// ERRHRD codes.
const (
	HRDWriteProtect     = 19
	HRDNotReady         = 21
	HRDDataError        = 23
	HRDGeneralFailure   = 31
	HRDSharingViolation = 32
	HRDLockViolation    = 33
	HRDDiskFull         = 39
)

type errorKey struct {
	class ErrorClass
	code  int
}

var errorText = map[errorKey]string{
	{ErrDos, DOSBadFunction}:       "Invalid function",
	{ErrDos, DOSFileNotFound}:      "File not found",
	{ErrDos, DOSDirectoryInvalid}:  "Directory invalid",
	{ErrDos, DOSTooManyOpenFiles}:  "Too many open files",
	{ErrDos, DOSAccessDenied}:      "Access denied",
	{ErrDos, DOSInvalidHandle}:     "Invalid file handle",
	{ErrDos, DOSNotEnoughMemory}:   "Not enough memory",
	{ErrDos, DOSInvalidAccess}:     "Invalid access code",
	{ErrDos, DOSInvalidData}:       "Invalid data",
	{ErrDos, DOSInvalidDrive}:      "Invalid drive",
	{ErrDos, DOSNoMoreFiles}:       "No more files",
	{ErrDos, DOSSharingViolation}:  "Sharing violation",
	{ErrDos, DOSLockConflict}:      "Lock conflict",
	{ErrDos, DOSFileAlreadyExists}: "File already exists",
	{ErrDos, DOSNotSupported}:      "Not supported",
	{ErrDos, DOSNotLocked}:         "Range not locked",
	{ErrDos, DOSPipeBusy}:          "Pipe busy",
	{ErrDos, DOSPipeClosing}:       "Pipe closing",
	{ErrDos, DOSNotConnected}:      "Pipe not connected",
	{ErrDos, DOSMoreData}:          "More data available",

	{ErrSrv, SRVNonSpecificError}:   "Non-specific error",
	{ErrSrv, SRVBadPassword}:        "Bad password",
	{ErrSrv, SRVNoAccessRights}:     "No access rights",
	{ErrSrv, SRVInvalidTID}:         "Invalid tree ID",
	{ErrSrv, SRVInvalidNetworkName}: "Invalid network name",
	{ErrSrv, SRVInvalidDevice}:      "Invalid device",
	{ErrSrv, SRVQueueFull}:          "Print queue full",
	{ErrSrv, SRVBadUserID}:          "Bad user ID",
	{ErrSrv, SRVNotSupported}:       "Request not supported",

	{ErrHrd, HRDWriteProtect}:     "Write protected media",
	{ErrHrd, HRDNotReady}:         "Drive not ready",
	{ErrHrd, HRDDataError}:        "Data error",
	{ErrHrd, HRDGeneralFailure}:   "General failure",
	{ErrHrd, HRDSharingViolation}: "Sharing violation",
	{ErrHrd, HRDLockViolation}:    "Lock violation",
	{ErrHrd, HRDDiskFull}:         "Disk full",
}

// ErrorText returns the human readable text for a class/code pair.
func ErrorText(class ErrorClass, code int) string {
	if class == Success {
		return "Success"
	}
	if class == NTErr {
		return Status(uint32(code)).String()
	}
	if class == ErrCmd {
		return fmt.Sprintf("Command format error 0x%02X", code)
	}
	if msg, ok := errorText[errorKey{class, code}]; ok {
		return msg
	}
	return fmt.Sprintf("Unknown error class=0x%02X code=0x%02X", int(class), code)
}
