package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockingFlagPredicates(t *testing.T) {
	tests := []struct {
		flags  int
		normal bool
		large  bool
		shared bool
		oplock bool
		change bool
		cancel bool
	}{
		{flags: 0x00, normal: true},
		{flags: 0x01, shared: true},
		{flags: 0x02, oplock: true},
		{flags: 0x03, shared: true, oplock: true},
		{flags: 0x04, change: true},
		{flags: 0x08, cancel: true},
		{flags: 0x10, normal: true, large: true},
		{flags: 0x11, large: true, shared: true},
		{flags: 0x1F, large: true, shared: true, oplock: true, change: true, cancel: true},
		{flags: 0x20, normal: true},
	}

	for _, tt := range tests {
		f := LockingFlags(tt.flags)
		assert.Equal(t, tt.normal, IsNormalLockUnlock(tt.flags), "normal 0x%02x", tt.flags)
		assert.Equal(t, tt.normal, f.IsNormalLockUnlock(), "normal 0x%02x", tt.flags)
		assert.Equal(t, tt.large, HasLargeFiles(tt.flags), "large 0x%02x", tt.flags)
		assert.Equal(t, tt.shared, IsSharedLock(tt.flags), "shared 0x%02x", tt.flags)
		assert.Equal(t, tt.oplock, IsOplockBreak(tt.flags), "oplock 0x%02x", tt.flags)
		assert.Equal(t, tt.change, IsChangeType(tt.flags), "change 0x%02x", tt.flags)
		assert.Equal(t, tt.cancel, IsCancel(tt.flags), "cancel 0x%02x", tt.flags)
	}
}

func TestLockingFlagPredicatesAllCombinations(t *testing.T) {
	for flags := 0; flags <= 0x1F; flags++ {
		f := LockingFlags(flags)
		assert.Equal(t, flags&0x000F == 0, IsNormalLockUnlock(flags), "normal 0x%02x", flags)
		assert.Equal(t, flags&0x000F == 0, f.IsNormalLockUnlock(), "normal 0x%02x", flags)
		assert.Equal(t, IsNormalLockUnlock(flags), IsNormalLockUnlock(flags^0x10), "large bit 0x%02x", flags)
		assert.Equal(t, flags&0x01 != 0, f.IsSharedLock(), "shared 0x%02x", flags)
		assert.Equal(t, flags&0x02 != 0, f.IsOplockBreak(), "oplock 0x%02x", flags)
		assert.Equal(t, flags&0x04 != 0, f.IsChangeType(), "change 0x%02x", flags)
		assert.Equal(t, flags&0x08 != 0, f.IsCancel(), "cancel 0x%02x", flags)
		assert.Equal(t, flags&0x10 != 0, f.HasLargeFiles(), "large 0x%02x", flags)
	}
}

func TestLockingFlagsString(t *testing.T) {
	assert.Equal(t, "Exclusive", LockingFlags(0).String())
	assert.Equal(t, "Shared|LargeFiles", (LockSharedLock | LockLargeFiles).String())
	assert.Equal(t, "Cancel|Unknown", LockingFlags(0x48).String())
}
