package types

import "time"

const (
	// EpochOffset is the number of 100ns ticks between 1601-01-01 and
	// 1970-01-01 UTC.
	EpochOffset int64 = 116444736000000000

	// InfiniteTime marks a time that never arrives (oplock and lease expiry).
	InfiniteTime int64 = 0x7FFFFFFFFFFFFFFF

	ticksPerMilli = 10_000
)

// ToWireTime converts Unix milliseconds to NT ticks.
func ToWireTime(hostMillis int64) int64 {
	return hostMillis*ticksPerMilli + EpochOffset
}

// ToHostTimeMillis converts NT ticks to Unix milliseconds, truncating
// sub-millisecond precision.
func ToHostTimeMillis(wire int64) int64 {
	return (wire - EpochOffset) / ticksPerMilli
}

// IsInfinite reports whether wire is the InfiniteTime sentinel.
func IsInfinite(wire int64) bool {
	return wire == InfiniteTime
}

// TimeToWire converts t to NT ticks. The zero time encodes as 0, which
// clients read as "not set".
func TimeToWire(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return ToWireTime(t.UnixMilli())
}

// WireToTime converts NT ticks to a UTC time. 0 and InfiniteTime both decode
// to the zero time.
func WireToTime(wire int64) time.Time {
	if wire == 0 || IsInfinite(wire) {
		return time.Time{}
	}
	return time.UnixMilli(ToHostTimeMillis(wire)).UTC()
}

// NowWire returns the current time in NT ticks.
func NowWire() int64 {
	return TimeToWire(time.Now())
}
