// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package ethereum

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	etypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/snowfork/ethereum-light-client/crypto/trie"

	log "github.com/sirupsen/logrus"
)

// VerifyLogEntryRequest proves that a log was emitted by a receipt of an
// execution block. All payloads are consensus encoded.
type VerifyLogEntryRequest struct {
	LogIndex     uint64
	LogEntryData []byte
	ReceiptIndex uint64
	ReceiptData  []byte
	HeaderData   []byte
	Proof        [][]byte
}

// BlockHashLookup returns the finalized block hash at a height.
type BlockHashLookup func(number uint64) (common.Hash, bool, error)

func sameLog(a, b *etypes.Log) bool {
	if a.Address != b.Address || len(a.Topics) != len(b.Topics) {
		return false
	}
	for i := range a.Topics {
		if a.Topics[i] != b.Topics[i] {
			return false
		}
	}
	return bytes.Equal(a.Data, b.Data)
}

func rejectLogEntry(reason string, err error) {
	entry := log.WithField("reason", reason)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("Log entry not verified")
}

// VerifyLogEntry checks that the log sits at LogIndex of the receipt, that
// the receipt is proven under the receipts root of the header, and that the
// header is the finalized block at its height. Invalid input yields false;
// only a failing lookup is returned as an error.
func VerifyLogEntry(req *VerifyLogEntryRequest, lookup BlockHashLookup) (bool, error) {
	if req == nil {
		rejectLogEntry("missing request", nil)
		return false, nil
	}
	logEntry, err := DecodeLog(req.LogEntryData)
	if err != nil {
		rejectLogEntry("log entry", err)
		return false, nil
	}
	receipt, err := DecodeReceipt(req.ReceiptData)
	if err != nil {
		rejectLogEntry("receipt", err)
		return false, nil
	}
	header, err := DecodeHeader(req.HeaderData)
	if err != nil {
		rejectLogEntry("header", err)
		return false, nil
	}

	if req.LogIndex >= uint64(len(receipt.Logs)) {
		rejectLogEntry(fmt.Sprintf("log index %d out of range, receipt has %d logs", req.LogIndex, len(receipt.Logs)), nil)
		return false, nil
	}
	if !sameLog(receipt.Logs[req.LogIndex], logEntry) {
		rejectLogEntry("log entry differs from receipt log", nil)
		return false, nil
	}

	key, err := ReceiptKey(req.ReceiptIndex)
	if err != nil {
		rejectLogEntry("receipt key", err)
		return false, nil
	}
	value, err := trie.VerifyProof(header.ReceiptHash, key, req.Proof)
	if err != nil {
		rejectLogEntry("receipt proof", err)
		return false, nil
	}
	if !bytes.Equal(value, req.ReceiptData) {
		rejectLogEntry("proven receipt differs from receipt data", nil)
		return false, nil
	}

	number := header.Number.Uint64()
	finalized, ok, err := lookup(number)
	if err != nil {
		return false, err
	}
	if !ok || finalized != header.Hash() {
		log.WithFields(logrus.Fields{
			"number": number,
			"hash":   header.Hash().Hex(),
		}).Debug("Log entry block is not finalized")
		return false, nil
	}

	return true, nil
}

// MakeLogEntryRequest builds the request proving log logIndex of receipt
// txIndex in the block with the given header and receipts.
func MakeLogEntryRequest(header *etypes.Header, receipts etypes.Receipts, txIndex, logIndex uint64) (*VerifyLogEntryRequest, error) {
	if txIndex >= uint64(len(receipts)) {
		return nil, fmt.Errorf("transaction index %d out of range, block has %d receipts", txIndex, len(receipts))
	}
	receipt := receipts[txIndex]
	if logIndex >= uint64(len(receipt.Logs)) {
		return nil, fmt.Errorf("log index %d out of range, receipt has %d logs", logIndex, len(receipt.Logs))
	}

	receiptTrie, err := MakeReceiptTrie(receipts)
	if err != nil {
		return nil, err
	}
	if receiptTrie.Hash() != header.ReceiptHash {
		return nil, fmt.Errorf("receipts trie root %s does not match header receipts root %s", receiptTrie.Hash().Hex(), header.ReceiptHash.Hex())
	}

	proof, err := MakeReceiptProof(receiptTrie, txIndex)
	if err != nil {
		return nil, err
	}

	logData, err := EncodeLog(receipt.Logs[logIndex])
	if err != nil {
		return nil, err
	}
	receiptData, err := EncodeReceipt(receipt)
	if err != nil {
		return nil, err
	}
	headerData, err := EncodeHeader(header)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"blockNumber": header.Number,
		"txIndex":     txIndex,
		"logIndex":    logIndex,
		"proofNodes":  len(proof.Nodes()),
	}).Debug("Generated log entry request")

	return &VerifyLogEntryRequest{
		LogIndex:     logIndex,
		LogEntryData: logData,
		ReceiptIndex: txIndex,
		ReceiptData:  receiptData,
		HeaderData:   headerData,
		Proof:        proof.Nodes(),
	}, nil
}
