package keccak

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	// keccak256 of the empty string
	expected := common.HexToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
	assert.Equal(t, expected, Hash())
	assert.True(t, Matches([]byte{}, expected))
	assert.False(t, Matches([]byte{0x00}, expected))
}
