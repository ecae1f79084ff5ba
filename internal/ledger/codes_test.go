package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClaimCode(t *testing.T) {
	code, err := NewClaimCode()
	require.NoError(t, err)
	assert.True(t, len(code) > len(ClaimCodePrefix))
	assert.Equal(t, CodeKindClaim, KindOfCode(code))
}

func TestNewPickupCode(t *testing.T) {
	code, err := NewPickupCode()
	require.NoError(t, err)
	assert.Equal(t, CodeKindOrder, KindOfCode(code))
}

func TestCodesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := NewClaimCode()
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate code generated: %s", code)
		seen[code] = true
	}
}

func TestKindOfCode(t *testing.T) {
	assert.Equal(t, CodeKindClaim, KindOfCode("RWD-ABCDEF"))
	assert.Equal(t, CodeKindOrder, KindOfCode("PCK-ABCDEF"))
	assert.Equal(t, CodeKindUnknown, KindOfCode("XYZ-ABCDEF"))
	assert.Equal(t, CodeKindUnknown, KindOfCode(""))
}
