package util

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexStringTo32Bytes(t *testing.T) {
	bytes, err := HexStringTo32Bytes("0x4b363db94e286120d76eb905340fdd4e54bfe9f06bf33ff6cf5ad27f511bfe95")
	require.NoError(t, err)
	assert.Equal(t, byte(0x4b), bytes[0])
	assert.Equal(t, byte(0x95), bytes[31])

	_, err = HexStringTo32Bytes("0x4b36")
	assert.Error(t, err)

	_, err = HexStringTo32Bytes("0xzz")
	assert.Error(t, err)
}

func TestBranchRoundTrip(t *testing.T) {
	branch := []common.Hash{common.HexToHash("0x01"), common.HexToHash("0xff")}

	decoded, err := HexStringsToBranch(BranchToHexStrings(branch))
	require.NoError(t, err)
	assert.Equal(t, branch, decoded)
}
