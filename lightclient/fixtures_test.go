package lightclient

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/stretchr/testify/require"

	"github.com/snowfork/ethereum-light-client/beacon/state"
	"github.com/snowfork/ethereum-light-client/crypto/merkle"
	"github.com/snowfork/ethereum-light-client/store"
)

const (
	admin   state.Account = "admin.near"
	relayer state.Account = "relayer.near"
	other   state.Account = "other.near"

	slotsPerPeriod = 8192

	// Finalized beacon slot at initialization, inside period 10.
	initSlot          = 10*slotsPerPeriod + 64
	initExecutionBase = 100
)

func makeHeader(parent common.Hash, number uint64, seed byte) *types.Header {
	return &types.Header{
		ParentHash: parent,
		Number:     new(big.Int).SetUint64(number),
		Difficulty: big.NewInt(0),
		GasLimit:   30000000,
		Time:       1700000000 + number*12,
		Extra:      []byte{seed},
	}
}

// makeChain returns n headers extending parent, numbered from parent+1.
func makeChain(parent *types.Header, n int, seed byte) []*types.Header {
	headers := make([]*types.Header, n)
	prev := parent
	for i := range headers {
		headers[i] = makeHeader(prev.Hash(), prev.Number.Uint64()+1, seed)
		prev = headers[i]
	}
	return headers
}

func fakeCommittee(seed byte) state.SyncCommittee {
	committee := state.SyncCommittee{PubKeys: make([]state.PublicKey, state.SyncCommitteeSize)}
	for i := range committee.PubKeys {
		committee.PubKeys[i][0] = seed
		committee.PubKeys[i][1] = byte(i)
		committee.PubKeys[i][2] = byte(i >> 8)
	}
	committee.AggregatePubKey[0] = seed
	return committee
}

func extendedHeader(t *testing.T, header state.BeaconBlockHeader, blockHash common.Hash) state.ExtendedBeaconBlockHeader {
	root, err := header.HashTreeRoot()
	require.NoError(t, err)
	return state.ExtendedBeaconBlockHeader{
		Header:             header,
		BeaconBlockRoot:    root,
		ExecutionBlockHash: blockHash,
	}
}

func initInput(t *testing.T, genesis *types.Header) InitInput {
	beaconHeader := state.BeaconBlockHeader{
		Slot:          initSlot,
		ProposerIndex: 7,
		StateRoot:     common.HexToHash("0x51"),
		BodyRoot:      common.HexToHash("0x52"),
	}
	return InitInput{
		Network:                     "goerli",
		FinalizedExecutionHeader:    genesis,
		FinalizedBeaconHeader:       extendedHeader(t, beaconHeader, genesis.Hash()),
		CurrentSyncCommittee:        fakeCommittee(1),
		NextSyncCommittee:           fakeCommittee(2),
		ValidateUpdates:             true,
		VerifyBLSSignatures:         false,
		HashesGCThreshold:           1000,
		MaxSubmittedBlocksByAccount: 100,
	}
}

func participation(n int) bitfield.Bitvector512 {
	bits := bitfield.NewBitvector512()
	for i := 0; i < n; i++ {
		bits.SetBitAt(uint64(i), true)
	}
	return bits
}

// updateParams describes the light client update the builder produces.
type updateParams struct {
	finalizedSlot uint64
	attestedSlot  uint64
	signatureSlot uint64
	blockHash     common.Hash
	participants  int
	// nextCommittee is proven under the finalized state when set.
	nextCommittee *state.SyncCommittee
	// payloadDepth defaults to the pre-Deneb payload depth.
	payloadDepth uint64
}

func newUpdateParams(finalizedSlot uint64, blockHash common.Hash) updateParams {
	return updateParams{
		finalizedSlot: finalizedSlot,
		attestedSlot:  finalizedSlot + 64,
		signatureSlot: finalizedSlot + 65,
		blockHash:     blockHash,
		participants:  state.SyncCommitteeSize,
	}
}

func chunkBranch(t *testing.T, c *state.ChunkContainer, depth, index uint64) []common.Hash {
	branch, err := c.Branch(merkle.GeneralizedIndex(depth, index))
	require.NoError(t, err)
	return branch
}

func chunkRoot(t *testing.T, c *state.ChunkContainer) common.Hash {
	root, err := c.HashTreeRoot()
	require.NoError(t, err)
	return root
}

// buildUpdate assembles an update whose branches all verify.
func buildUpdate(t *testing.T, p updateParams) *state.LightClientUpdate {
	payloadDepth := p.payloadDepth
	if payloadDepth == 0 {
		payloadDepth = merkle.ExecutionPayloadProofSize
	}

	payload := state.NewChunkContainer(payloadDepth)
	payload.Chunks[merkle.ExecutionPayloadBlockHashIndex] = p.blockHash
	payload.Chunks[0] = common.HexToHash("0xa0")

	body := state.NewChunkContainer(merkle.BeaconBlockBodyProofSize)
	body.Chunks[merkle.BeaconBlockBodyExecutionPayloadIndex] = chunkRoot(t, payload)
	body.Chunks[1] = common.HexToHash("0xb1")

	executionBranch := append(
		chunkBranch(t, payload, payloadDepth, merkle.ExecutionPayloadBlockHashIndex),
		chunkBranch(t, body, merkle.BeaconBlockBodyProofSize, merkle.BeaconBlockBodyExecutionPayloadIndex)...,
	)

	finalized := state.BeaconBlockHeader{
		Slot:          p.finalizedSlot,
		ProposerIndex: 11,
		ParentRoot:    common.HexToHash("0xc0"),
		StateRoot:     common.HexToHash("0xc1"),
		BodyRoot:      chunkRoot(t, body),
	}

	var committeeUpdate *state.SyncCommitteeUpdate
	if p.nextCommittee != nil {
		committeeRoot, err := p.nextCommittee.HashTreeRoot()
		require.NoError(t, err)

		finalizedState := state.NewChunkContainer(merkle.SyncCommitteeTreeDepth)
		finalizedState.Chunks[merkle.SyncCommitteeTreeIndex] = committeeRoot
		finalizedState.Chunks[2] = common.HexToHash("0xd2")
		finalized.StateRoot = chunkRoot(t, finalizedState)

		committeeUpdate = &state.SyncCommitteeUpdate{
			NextSyncCommittee:       *p.nextCommittee,
			NextSyncCommitteeBranch: chunkBranch(t, finalizedState, merkle.SyncCommitteeTreeDepth, merkle.SyncCommitteeTreeIndex),
		}
	}

	finalizedRoot, err := finalized.HashTreeRoot()
	require.NoError(t, err)

	attestedState := state.NewChunkContainer(merkle.FinalityTreeDepth)
	attestedState.Chunks[merkle.FinalityTreeIndex] = finalizedRoot
	attestedState.Chunks[3] = common.HexToHash("0xe3")

	return &state.LightClientUpdate{
		AttestedBeaconHeader: state.BeaconBlockHeader{
			Slot:          p.attestedSlot,
			ProposerIndex: 12,
			ParentRoot:    common.HexToHash("0xf0"),
			StateRoot:     chunkRoot(t, attestedState),
			BodyRoot:      common.HexToHash("0xf1"),
		},
		SyncAggregate: state.SyncAggregate{
			SyncCommitteeBits: participation(p.participants),
		},
		SignatureSlot: p.signatureSlot,
		FinalityUpdate: state.FinalizedHeaderUpdate{
			HeaderUpdate: state.HeaderUpdate{
				BeaconHeader:        finalized,
				ExecutionBlockHash:  p.blockHash,
				ExecutionHashBranch: executionBranch,
			},
			FinalityBranch: chunkBranch(t, attestedState, merkle.FinalityTreeDepth, merkle.FinalityTreeIndex),
		},
		SyncCommitteeUpdate: committeeUpdate,
	}
}

// testClient is an initialized contract with a registered relayer.
type testClient struct {
	*Contract
	genesis *types.Header
	slot    uint64
}

func newTestClient(t *testing.T, mutate func(*InitInput)) *testClient {
	genesis := makeHeader(common.HexToHash("0x99"), initExecutionBase, 0)
	args := initInput(t, genesis)
	if mutate != nil {
		mutate(&args)
	}

	c, err := New(store.NewMemDB())
	require.NoError(t, err)
	require.NoError(t, c.Init(admin, args))
	require.NoError(t, c.RegisterSubmitter(relayer))

	return &testClient{Contract: c, genesis: genesis, slot: initSlot}
}

func (tc *testClient) submitAll(t *testing.T, headers []*types.Header) {
	for _, header := range headers {
		require.NoError(t, tc.SubmitExecutionHeader(relayer, header))
	}
}

// finalize submits an update finalizing blockHash one step after the
// previous finalized slot.
func (tc *testClient) finalize(t *testing.T, blockHash common.Hash) {
	tc.slot += 128
	update := buildUpdate(t, newUpdateParams(tc.slot, blockHash))
	require.NoError(t, tc.SubmitBeaconChainLightClientUpdate(relayer, update))
}
