package types

import "fmt"

// Status is a 32-bit NT_STATUS code ([MS-ERREF] 2.3).
//
// The top two bits carry the severity: 00 success, 01 informational,
// 10 warning, 11 error.
type Status uint32

const (
	StatusSuccess                Status = 0x00000000
	StatusPending                Status = 0x00000103
	StatusNoMoreFiles            Status = 0x80000006
	StatusNotImplemented         Status = 0xC0000002
	StatusInvalidHandle          Status = 0xC0000008
	StatusInvalidParameter       Status = 0xC000000D
	StatusNoSuchFile             Status = 0xC000000F
	StatusInvalidDeviceRequest   Status = 0xC0000010
	StatusMoreProcessingRequired Status = 0xC0000016
	StatusNoMemory               Status = 0xC0000017
	StatusAccessDenied           Status = 0xC0000022
	StatusObjectNameInvalid      Status = 0xC0000033
	StatusObjectNameNotFound     Status = 0xC0000034
	StatusObjectNameCollision    Status = 0xC0000035
	StatusObjectPathNotFound     Status = 0xC000003A
	StatusSharingViolation       Status = 0xC0000043
	StatusLockNotGranted         Status = 0xC0000054
	StatusLogonFailure           Status = 0xC000006D
	StatusRangeNotLocked         Status = 0xC000007E
	StatusDiskFull               Status = 0xC000007F
	StatusInsufficientResources  Status = 0xC000009A
	StatusMediaWriteProtected    Status = 0xC00000A2
	StatusNotSupported           Status = 0xC00000BB
	StatusNetworkNameDeleted     Status = 0xC00000C9
	StatusBadNetworkName         Status = 0xC00000CC
	StatusRequestNotAccepted     Status = 0xC00000D0
	StatusInternalError          Status = 0xC00000E5
	StatusUnexpectedIOError      Status = 0xC00000E9
	StatusPipeBusy               Status = 0xC00000AE
	StatusPipeClosing            Status = 0xC00000B1
	StatusPipeDisconnected       Status = 0xC00000B0
	StatusCancelled              Status = 0xC0000120
	StatusInvalidTID             Status = 0xC000005B
	StatusUserSessionDeleted     Status = 0xC0000203
)

var statusNames = map[Status]string{
	StatusSuccess:                "STATUS_SUCCESS",
	StatusPending:                "STATUS_PENDING",
	StatusNoMoreFiles:            "STATUS_NO_MORE_FILES",
	StatusNotImplemented:         "STATUS_NOT_IMPLEMENTED",
	StatusInvalidHandle:          "STATUS_INVALID_HANDLE",
	StatusInvalidParameter:       "STATUS_INVALID_PARAMETER",
	StatusNoSuchFile:             "STATUS_NO_SUCH_FILE",
	StatusInvalidDeviceRequest:   "STATUS_INVALID_DEVICE_REQUEST",
	StatusMoreProcessingRequired: "STATUS_MORE_PROCESSING_REQUIRED",
	StatusNoMemory:               "STATUS_NO_MEMORY",
	StatusAccessDenied:           "STATUS_ACCESS_DENIED",
	StatusObjectNameInvalid:      "STATUS_OBJECT_NAME_INVALID",
	StatusObjectNameNotFound:     "STATUS_OBJECT_NAME_NOT_FOUND",
	StatusObjectNameCollision:    "STATUS_OBJECT_NAME_COLLISION",
	StatusObjectPathNotFound:     "STATUS_OBJECT_PATH_NOT_FOUND",
	StatusSharingViolation:       "STATUS_SHARING_VIOLATION",
	StatusLockNotGranted:         "STATUS_LOCK_NOT_GRANTED",
	StatusLogonFailure:           "STATUS_LOGON_FAILURE",
	StatusRangeNotLocked:         "STATUS_RANGE_NOT_LOCKED",
	StatusDiskFull:               "STATUS_DISK_FULL",
	StatusInsufficientResources:  "STATUS_INSUFFICIENT_RESOURCES",
	StatusMediaWriteProtected:    "STATUS_MEDIA_WRITE_PROTECTED",
	StatusNotSupported:           "STATUS_NOT_SUPPORTED",
	StatusNetworkNameDeleted:     "STATUS_NETWORK_NAME_DELETED",
	StatusBadNetworkName:         "STATUS_BAD_NETWORK_NAME",
	StatusRequestNotAccepted:     "STATUS_REQUEST_NOT_ACCEPTED",
	StatusInternalError:          "STATUS_INTERNAL_ERROR",
	StatusUnexpectedIOError:      "STATUS_UNEXPECTED_IO_ERROR",
	StatusPipeBusy:               "STATUS_PIPE_BUSY",
	StatusPipeClosing:            "STATUS_PIPE_CLOSING",
	StatusPipeDisconnected:       "STATUS_PIPE_DISCONNECTED",
	StatusCancelled:              "STATUS_CANCELLED",
	StatusInvalidTID:             "STATUS_SMB_BAD_TID",
	StatusUserSessionDeleted:     "STATUS_USER_SESSION_DELETED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS_0x%08X", uint32(s))
}

// IsSuccess reports whether the severity bits are success or informational.
func (s Status) IsSuccess() bool {
	return uint32(s)&0x80000000 == 0
}

// IsError reports whether both severity bits are set.
func (s Status) IsError() bool {
	return uint32(s)&0xC0000000 == 0xC0000000
}

// IsWarning reports whether only the high severity bit is set.
func (s Status) IsWarning() bool {
	return uint32(s)&0xC0000000 == 0x80000000
}

// Severity returns the two severity bits (0-3).
func (s Status) Severity() int {
	return int(uint32(s)>>30) & 0x3
}
