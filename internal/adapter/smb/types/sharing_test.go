package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSharingModeValues(t *testing.T) {
	assert.Equal(t, SharingMode(0), ShareNone)
	assert.Equal(t, SharingMode(1), ShareRead)
	assert.Equal(t, SharingMode(2), ShareWrite)
	assert.Equal(t, SharingMode(3), ShareReadWrite)
	assert.Equal(t, SharingMode(4), ShareDelete)
	assert.Equal(t, "Read|Write|Delete", (ShareReadWrite | ShareDelete).String())
	assert.Equal(t, "None", ShareNone.String())
}

func TestSharingModeAllowsOpen(t *testing.T) {
	tests := []struct {
		name      string
		existing  SharingMode
		requested SharingMode
		access    AccessKind
		want      bool
	}{
		{"BothReadWrite", ShareReadWrite, ShareReadWrite, AccessReadWrite, true},
		{"SharedReadReadOnly", ShareRead, ShareNone, AccessReadOnly, true},
		{"SharedReadWriteOnly", ShareRead, ShareNone, AccessWriteOnly, false},
		{"SharedWriteWriteOnly", ShareWrite, ShareNone, AccessWriteOnly, true},
		{"SharedWriteReadOnly", ShareWrite, ShareNone, AccessReadOnly, false},
		{"NoSharing", ShareNone, ShareReadWrite, AccessReadOnly, false},
		{"ReadWriteRequestedOnReadShare", ShareRead, ShareReadWrite, AccessReadWrite, false},
		{"ReadWriteAccessNeedsBothShared", ShareReadWrite, ShareRead, AccessReadWrite, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.existing.AllowsOpen(tt.requested, tt.access))
		})
	}
}
