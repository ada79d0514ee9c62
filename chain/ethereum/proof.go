// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package ethereum

import (
	"fmt"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	etypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	etrie "github.com/ethereum/go-ethereum/trie"
)

// ProofData collects the trie nodes of a proof in the order the trie emits
// them, from the root down to the value.
type ProofData struct {
	Keys   [][]byte
	Values [][]byte
}

func NewProofData() *ProofData {
	return &ProofData{
		Keys:   make([][]byte, 0),
		Values: make([][]byte, 0),
	}
}

// For interface ethdb.KeyValueWriter
func (p *ProofData) Put(key []byte, value []byte) error {
	p.Keys = append(p.Keys, gethCommon.CopyBytes(key))
	p.Values = append(p.Values, gethCommon.CopyBytes(value))
	return nil
}

// For interface ethdb.KeyValueWriter
func (p *ProofData) Delete(_ []byte) error {
	return fmt.Errorf("Delete should never be called to generate a proof")
}

// Nodes returns the encoded proof nodes, root first.
func (p *ProofData) Nodes() [][]byte {
	return p.Values
}

// ReceiptKey is the receipts trie key of the receipt at index.
func ReceiptKey(index uint64) ([]byte, error) {
	return rlp.EncodeToBytes(index)
}

// MakeReceiptTrie rebuilds the receipts trie of a block from its receipts.
func MakeReceiptTrie(receipts etypes.Receipts) (*etrie.Trie, error) {
	receiptTrie := etrie.NewEmpty(etrie.NewDatabase(rawdb.NewMemoryDatabase(), nil))
	for i, receipt := range receipts {
		key, err := ReceiptKey(uint64(i))
		if err != nil {
			return nil, err
		}
		value, err := EncodeReceipt(receipt)
		if err != nil {
			return nil, fmt.Errorf("encode receipt %d: %w", i, err)
		}
		if err := receiptTrie.Update(key, value); err != nil {
			return nil, err
		}
	}
	return receiptTrie, nil
}

func MakeReceiptProof(receiptTrie *etrie.Trie, index uint64) (*ProofData, error) {
	key, err := ReceiptKey(index)
	if err != nil {
		return nil, err
	}

	proof := NewProofData()
	if err := receiptTrie.Prove(key, proof); err != nil {
		return nil, fmt.Errorf("prove receipt %d: %w", index, err)
	}
	return proof, nil
}
