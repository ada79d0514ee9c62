// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	log "github.com/sirupsen/logrus"
)

type Connection struct {
	endpoint string
	client   *ethclient.Client
	chainID  *big.Int
}

func NewConnection(endpoint string) *Connection {
	return &Connection{
		endpoint: endpoint,
	}
}

func (co *Connection) Connect(ctx context.Context) error {
	client, err := ethclient.DialContext(ctx, co.endpoint)
	if err != nil {
		return err
	}

	chainID, err := client.NetworkID(ctx)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"endpoint": co.endpoint,
		"chainID":  chainID,
	}).Info("Connected to chain")

	co.client = client
	co.chainID = chainID

	return nil
}

func (co *Connection) Close() {
	if co.client != nil {
		co.client.Close()
	}
}

func (co *Connection) Client() *ethclient.Client {
	return co.client
}

func (co *Connection) ChainID() *big.Int {
	return co.chainID
}

// TransactionLocation returns the block containing the transaction and the
// index of the transaction inside it.
func (co *Connection) TransactionLocation(ctx context.Context, txHash common.Hash) (*types.Block, uint64, error) {
	receipt, err := co.client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch receipt of %s: %w", txHash.Hex(), err)
	}

	block, err := co.client.BlockByHash(ctx, receipt.BlockHash)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch block %s: %w", receipt.BlockHash.Hex(), err)
	}

	return block, uint64(receipt.TransactionIndex), nil
}

// MakeLogEntryRequest fetches everything needed to prove a log of the given
// transaction.
func (co *Connection) MakeLogEntryRequest(ctx context.Context, txHash common.Hash, logIndex uint64) (*VerifyLogEntryRequest, error) {
	block, txIndex, err := co.TransactionLocation(ctx, txHash)
	if err != nil {
		return nil, err
	}

	receipts, err := GetAllReceipts(ctx, co, block)
	if err != nil {
		return nil, err
	}

	return MakeLogEntryRequest(block.Header(), receipts, txIndex, logIndex)
}
