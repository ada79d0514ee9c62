package keccak

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Hash returns the Keccak256 digest of the concatenated inputs
func Hash(data ...[]byte) common.Hash {
	return crypto.Keccak256Hash(data...)
}

// Matches reports whether data hashes to expected
func Matches(data []byte, expected common.Hash) bool {
	return Hash(data) == expected
}
