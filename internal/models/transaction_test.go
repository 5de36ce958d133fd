package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmitBoundary(t *testing.T) {
	limit := PrivilegeLimit{DailyAmount: 10000, DailyCount: 3}

	// used + amount == cap is admissible.
	assert.NoError(t, limit.Admit(DailyUsage{Amount: 9000, Count: 1}, 1000))

	// One cent over the cap is not.
	err := limit.Admit(DailyUsage{Amount: 9000, Count: 1}, 1001)
	require.Error(t, err)
	assert.Equal(t, CodeDailyLimitExceeded, CodeOf(err))

	// Count cap applies regardless of amount.
	err = limit.Admit(DailyUsage{Amount: 0, Count: 3}, 1)
	require.Error(t, err)
	assert.Equal(t, CodeDailyCountExceeded, CodeOf(err))
}

func TestAdmitOverflowTreatedAsLimit(t *testing.T) {
	limit := PrivilegeLimit{DailyAmount: MaxMoney, DailyCount: 100}
	err := limit.Admit(DailyUsage{Amount: MaxMoney, Count: 1}, 1)
	require.Error(t, err)
	assert.Equal(t, CodeDailyLimitExceeded, CodeOf(err))
}

func TestValidTransferMode(t *testing.T) {
	for _, m := range []TransferMode{ModeNEFT, ModeRTGS, ModeIMPS, ModeUPI, ModeCheque} {
		assert.True(t, ValidTransferMode(m))
	}
	assert.False(t, ValidTransferMode(ModeReconcile))
	assert.False(t, ValidTransferMode("WIRE"))
}
