package replay

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	beaconjson "github.com/snowfork/ethereum-light-client/beacon/json"
	"github.com/snowfork/ethereum-light-client/beacon/state"
	"github.com/snowfork/ethereum-light-client/beacon/util"
	"github.com/snowfork/ethereum-light-client/chain/ethereum"
	"github.com/snowfork/ethereum-light-client/lightclient"
	"github.com/snowfork/ethereum-light-client/store"
)

const (
	admin   = "admin.near"
	relayer = "relayer.near"
)

func header(parent common.Hash, number uint64) *types.Header {
	return &types.Header{
		ParentHash: parent,
		Number:     new(big.Int).SetUint64(number),
		Difficulty: big.NewInt(0),
		GasLimit:   30000000,
		Time:       1700000000 + number*12,
	}
}

func encodeHeader(t *testing.T, h *types.Header) string {
	data, err := ethereum.EncodeHeader(h)
	require.NoError(t, err)
	return util.BytesToHexString(data)
}

func committee(seed byte) state.SyncCommittee {
	c := state.SyncCommittee{PubKeys: make([]state.PublicKey, state.SyncCommitteeSize)}
	for i := range c.PubKeys {
		c.PubKeys[i][0] = seed
		c.PubKeys[i][1] = byte(i)
		c.PubKeys[i][2] = byte(i >> 8)
	}
	c.AggregatePubKey[0] = seed
	return c
}

func initMessage(t *testing.T, genesis *types.Header) beaconjson.Message {
	beaconHeader := state.BeaconBlockHeader{
		Slot:          10*8192 + 64,
		ProposerIndex: 3,
		StateRoot:     common.HexToHash("0x51"),
		BodyRoot:      common.HexToHash("0x52"),
	}
	root, err := beaconHeader.HashTreeRoot()
	require.NoError(t, err)

	return beaconjson.Message{
		Op:     OpInit,
		Caller: admin,
		Init: &beaconjson.InitInput{
			Network:                  "goerli",
			FinalizedExecutionHeader: encodeHeader(t, genesis),
			FinalizedBeaconHeader: beaconjson.NewExtendedBeaconHeader(state.ExtendedBeaconBlockHeader{
				Header:             beaconHeader,
				BeaconBlockRoot:    root,
				ExecutionBlockHash: genesis.Hash(),
			}),
			CurrentSyncCommittee:        beaconjson.NewSyncCommittee(committee(1)),
			NextSyncCommittee:           beaconjson.NewSyncCommittee(committee(2)),
			ValidateUpdates:             true,
			HashesGCThreshold:           1000,
			MaxSubmittedBlocksByAccount: 10,
		},
	}
}

func newContract(t *testing.T) *lightclient.Contract {
	contract, err := lightclient.New(store.NewMemDB())
	require.NoError(t, err)
	return contract
}

func TestApply(t *testing.T) {
	contract := newContract(t)
	genesis := header(common.HexToHash("0x01"), 100)
	child := header(genesis.Hash(), 101)
	orphan := header(common.HexToHash("0x02"), 101)
	signer := relayer

	messages := []beaconjson.Message{
		initMessage(t, genesis),
		{Op: OpRegisterSubmitter, Caller: relayer},
		{Op: OpRegisterSubmitter, Caller: relayer},
		{Op: OpSubmitHeader, Caller: relayer, Header: encodeHeader(t, child)},
		{Op: OpSubmitHeader, Caller: relayer, Header: encodeHeader(t, orphan)},
		{Op: OpSetPaused, Caller: relayer, Mask: 1},
		{Op: OpSetPaused, Caller: admin, Mask: 1},
		{Op: OpUpdateTrustedSigner, Caller: admin, Signer: &signer},
	}

	result, err := Apply(context.Background(), contract, messages)
	require.NoError(t, err)
	assert.Equal(t, Result{Applied: 5, Rejected: 3}, result)

	registered, err := contract.IsSubmitterRegistered(relayer)
	require.NoError(t, err)
	assert.True(t, registered)

	known, err := contract.IsKnownExecutionHeader(child.Hash())
	require.NoError(t, err)
	assert.True(t, known)

	known, err = contract.IsKnownExecutionHeader(orphan.Hash())
	require.NoError(t, err)
	assert.False(t, known)

	mask, err := contract.GetPaused()
	require.NoError(t, err)
	assert.Equal(t, lightclient.PausedSubmitUpdate, mask)

	trusted, err := contract.GetTrustedSigner()
	require.NoError(t, err)
	require.NotNil(t, trusted)
	assert.Equal(t, state.Account(relayer), *trusted)
}

func TestApplyCountsRejectionsBeforeInit(t *testing.T) {
	contract := newContract(t)

	result, err := Apply(context.Background(), contract, []beaconjson.Message{
		{Op: OpRegisterSubmitter, Caller: relayer},
		{Op: OpSetPaused, Caller: admin},
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Rejected: 2}, result)
}

func TestApplyStopsOnMalformedMessage(t *testing.T) {
	genesis := header(common.HexToHash("0x01"), 100)

	tests := []struct {
		name string
		msg  beaconjson.Message
	}{
		{"unknown op", beaconjson.Message{Op: "withdraw", Caller: relayer}},
		{"bad header hex", beaconjson.Message{Op: OpSubmitHeader, Caller: relayer, Header: "0xzz"}},
		{"bad header rlp", beaconjson.Message{Op: OpSubmitHeader, Caller: relayer, Header: "0x0102"}},
		{"update missing", beaconjson.Message{Op: OpSubmitUpdate, Caller: relayer}},
		{"init missing", beaconjson.Message{Op: OpReset, Caller: admin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contract := newContract(t)

			result, err := Apply(context.Background(), contract, []beaconjson.Message{
				initMessage(t, genesis),
				tt.msg,
				{Op: OpRegisterSubmitter, Caller: relayer},
			})
			require.ErrorIs(t, err, ErrMalformedMessage)
			assert.Equal(t, Result{Applied: 1}, result)

			registered, err := contract.IsSubmitterRegistered(relayer)
			require.NoError(t, err)
			assert.False(t, registered)
		})
	}
}

func TestApplyHonoursCancellation(t *testing.T) {
	contract := newContract(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Apply(ctx, contract, []beaconjson.Message{
		initMessage(t, header(common.HexToHash("0x01"), 100)),
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Result{}, result)

	initialized, err := contract.IsInitialized()
	require.NoError(t, err)
	assert.False(t, initialized)
}
