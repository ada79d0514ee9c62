package ethereum_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	etypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowfork/ethereum-light-client/chain/ethereum"
)

func makeReceipts(n int) etypes.Receipts {
	receipts := make(etypes.Receipts, n)
	for i := range receipts {
		receipt := &etypes.Receipt{
			Status:            etypes.ReceiptStatusSuccessful,
			CumulativeGasUsed: uint64(21000 * (i + 1)),
			Logs: []*etypes.Log{
				{
					Address: common.BytesToAddress([]byte{0xee, byte(i)}),
					Topics: []common.Hash{
						common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"),
						common.BytesToHash([]byte{byte(i)}),
					},
					Data: []byte{0x01, byte(i)},
				},
				{
					Address: common.BytesToAddress([]byte{0xef}),
					Data:    []byte("second"),
				},
			},
		}
		if i%2 == 1 {
			receipt.Type = etypes.DynamicFeeTxType
		}
		receipt.Bloom = etypes.CreateBloom(etypes.Receipts{receipt})
		receipts[i] = receipt
	}
	return receipts
}

func makeBlock(t *testing.T, receipts etypes.Receipts) *etypes.Header {
	receiptTrie, err := ethereum.MakeReceiptTrie(receipts)
	require.NoError(t, err)

	return &etypes.Header{
		ParentHash:  common.HexToHash("0x01"),
		Number:      big.NewInt(1000),
		ReceiptHash: receiptTrie.Hash(),
		Difficulty:  big.NewInt(0),
		GasLimit:    30000000,
		Time:        1700000000,
	}
}

func finalizedAt(hash common.Hash) ethereum.BlockHashLookup {
	return func(number uint64) (common.Hash, bool, error) {
		if number != 1000 {
			return common.Hash{}, false, nil
		}
		return hash, true, nil
	}
}

func TestVerifyLogEntry(t *testing.T) {
	receipts := makeReceipts(20)
	header := makeBlock(t, receipts)
	lookup := finalizedAt(header.Hash())

	for _, txIndex := range []uint64{0, 1, 7, 19} {
		for logIndex := uint64(0); logIndex < 2; logIndex++ {
			req, err := ethereum.MakeLogEntryRequest(header, receipts, txIndex, logIndex)
			require.NoError(t, err)

			valid, err := ethereum.VerifyLogEntry(req, lookup)
			require.NoError(t, err)
			assert.True(t, valid, "tx %d log %d", txIndex, logIndex)
		}
	}
}

func TestVerifyLogEntryRejects(t *testing.T) {
	receipts := makeReceipts(10)
	header := makeBlock(t, receipts)
	lookup := finalizedAt(header.Hash())

	newRequest := func() *ethereum.VerifyLogEntryRequest {
		req, err := ethereum.MakeLogEntryRequest(header, receipts, 3, 0)
		require.NoError(t, err)
		return req
	}

	tests := []struct {
		name   string
		mutate func(req *ethereum.VerifyLogEntryRequest)
		lookup ethereum.BlockHashLookup
	}{
		{
			name:   "log from another position",
			mutate: func(req *ethereum.VerifyLogEntryRequest) { req.LogIndex = 1 },
		},
		{
			name:   "log index out of range",
			mutate: func(req *ethereum.VerifyLogEntryRequest) { req.LogIndex = 2 },
		},
		{
			name: "receipt index of another receipt",
			mutate: func(req *ethereum.VerifyLogEntryRequest) {
				req.ReceiptIndex = 4
			},
		},
		{
			name: "mutated proof node",
			mutate: func(req *ethereum.VerifyLogEntryRequest) {
				last := req.Proof[len(req.Proof)-1]
				last[len(last)-1] ^= 0x01
			},
		},
		{
			name:   "empty proof",
			mutate: func(req *ethereum.VerifyLogEntryRequest) { req.Proof = nil },
		},
		{
			name:   "garbage log",
			mutate: func(req *ethereum.VerifyLogEntryRequest) { req.LogEntryData = []byte{0x01, 0x02} },
		},
		{
			name:   "garbage header",
			mutate: func(req *ethereum.VerifyLogEntryRequest) { req.HeaderData = []byte{0xc1} },
		},
		{
			name:   "block not finalized",
			mutate: func(req *ethereum.VerifyLogEntryRequest) {},
			lookup: func(uint64) (common.Hash, bool, error) { return common.Hash{}, false, nil },
		},
		{
			name:   "forked sibling finalized instead",
			mutate: func(req *ethereum.VerifyLogEntryRequest) {},
			lookup: finalizedAt(common.HexToHash("0xbeef")),
		},
	}

	for _, tt := range tests {
		req := newRequest()
		tt.mutate(req)
		l := lookup
		if tt.lookup != nil {
			l = tt.lookup
		}

		valid, err := ethereum.VerifyLogEntry(req, l)
		require.NoError(t, err, tt.name)
		assert.False(t, valid, tt.name)
	}
}

func TestVerifyLogEntryLookupFailure(t *testing.T) {
	receipts := makeReceipts(3)
	header := makeBlock(t, receipts)
	req, err := ethereum.MakeLogEntryRequest(header, receipts, 0, 0)
	require.NoError(t, err)

	failure := errors.New("storage down")
	_, err = ethereum.VerifyLogEntry(req, func(uint64) (common.Hash, bool, error) {
		return common.Hash{}, false, failure
	})
	assert.ErrorIs(t, err, failure)
}

func TestVerifyLogEntryNilRequest(t *testing.T) {
	valid, err := ethereum.VerifyLogEntry(nil, func(uint64) (common.Hash, bool, error) {
		return common.Hash{}, false, errors.New("unexpected lookup")
	})
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestMakeLogEntryRequestRejectsMismatchedReceipts(t *testing.T) {
	receipts := makeReceipts(3)
	header := makeBlock(t, receipts)

	_, err := ethereum.MakeLogEntryRequest(header, receipts[:2], 0, 0)
	assert.Error(t, err)

	_, err = ethereum.MakeLogEntryRequest(header, receipts, 5, 0)
	assert.Error(t, err)

	_, err = ethereum.MakeLogEntryRequest(header, receipts, 0, 9)
	assert.Error(t, err)
}
