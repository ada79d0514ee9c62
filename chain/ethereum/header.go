// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package ethereum

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	etypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

type HeaderID struct {
	Number uint64
	Hash   common.Hash
}

// DecodeHeader decodes an RLP encoded execution block header.
func DecodeHeader(data []byte) (*etypes.Header, error) {
	var header etypes.Header
	if err := rlp.DecodeBytes(data, &header); err != nil {
		return nil, fmt.Errorf("decode execution header: %w", err)
	}
	if header.Number == nil || !header.Number.IsUint64() {
		return nil, fmt.Errorf("execution header number is not uint64")
	}
	return &header, nil
}

func EncodeHeader(header *etypes.Header) ([]byte, error) {
	return rlp.EncodeToBytes(header)
}

func MakeHeaderID(header *etypes.Header) (HeaderID, error) {
	if header.Number == nil || !header.Number.IsUint64() {
		return HeaderID{}, fmt.Errorf("execution header number is not uint64")
	}
	return HeaderID{
		Number: header.Number.Uint64(),
		Hash:   header.Hash(),
	}, nil
}
