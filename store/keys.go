package store

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"

	"github.com/snowfork/ethereum-light-client/beacon/state"
)

// Key layout. Every mapped table lives under its own prefix and block
// numbers are big endian so that range scans return them in order.
var (
	NonMappedStateKey = []byte("non_mapped")
	GCCursorKey       = []byte("gc_cursor")

	FinalizedBlockPrefix    = []byte("finalized_execution_blocks/")
	UnfinalizedHeaderPrefix = []byte("unfinalized_headers/")
	SubmitterPrefix         = []byte("submitters/")
)

func join(prefix, suffix []byte) []byte {
	key := make([]byte, 0, len(prefix)+len(suffix))
	key = append(key, prefix...)
	return append(key, suffix...)
}

func FinalizedBlockKey(number uint64) []byte {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], number)
	return join(FinalizedBlockPrefix, n[:])
}

// FinalizedBlockNumber is the inverse of FinalizedBlockKey.
func FinalizedBlockNumber(key []byte) (uint64, bool) {
	if len(key) != len(FinalizedBlockPrefix)+8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(FinalizedBlockPrefix):]), true
}

func UnfinalizedHeaderKey(hash common.Hash) []byte {
	return join(UnfinalizedHeaderPrefix, hash[:])
}

func SubmitterKey(account state.Account) []byte {
	return join(SubmitterPrefix, []byte(account))
}

// PrefixEnd returns the smallest key greater than every key starting with
// prefix, or nil if there is none.
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
