// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package ethereum

import (
	"context"
	"fmt"
	"sync"

	etypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/sync/errgroup"
)

const receiptFetchBatchSize int = 100

// Fetch all receipts for the given block in batches of `receiptFetchBatchSize`
func GetAllReceipts(ctx context.Context, conn *Connection, block *etypes.Block) (etypes.Receipts, error) {
	transactions := block.Body().Transactions
	numTransactions := len(transactions)
	receiptsByIndex := sync.Map{}

	for i := 0; i < numTransactions; i += receiptFetchBatchSize {
		eg, ctx := errgroup.WithContext(ctx)
		upper := i + receiptFetchBatchSize
		if upper >= numTransactions {
			upper = numTransactions
		}
		for j, tx := range transactions[i:upper] {
			index := i + j
			txHash := tx.Hash()
			eg.Go(func() error {
				receipt, err := conn.client.TransactionReceipt(ctx, txHash)
				if err != nil {
					return fmt.Errorf("fetch receipt %d of block %s: %w", index, block.Hash().Hex(), err)
				}
				receiptsByIndex.Store(index, receipt)
				return nil
			})
		}
		err := eg.Wait()
		if err != nil {
			return nil, err
		}
	}

	// Place receipts in same order as corresponding transactions
	receipts := make([]*etypes.Receipt, numTransactions)
	receiptsByIndex.Range(func(index interface{}, receipt interface{}) bool {
		receipts[index.(int)] = receipt.(*etypes.Receipt)
		return true
	})
	return receipts, nil
}

// DecodeReceipt decodes a receipt in its consensus encoding, either a legacy
// RLP list or a typed envelope.
func DecodeReceipt(data []byte) (*etypes.Receipt, error) {
	var receipt etypes.Receipt
	if err := receipt.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return &receipt, nil
}

func EncodeReceipt(receipt *etypes.Receipt) ([]byte, error) {
	return receipt.MarshalBinary()
}

// DecodeLog decodes the consensus fields of a log: address, topics and data.
func DecodeLog(data []byte) (*etypes.Log, error) {
	var log etypes.Log
	if err := rlp.DecodeBytes(data, &log); err != nil {
		return nil, fmt.Errorf("decode log: %w", err)
	}
	return &log, nil
}

func EncodeLog(log *etypes.Log) ([]byte, error) {
	return rlp.EncodeToBytes(log)
}
