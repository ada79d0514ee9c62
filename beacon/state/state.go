package state

import (
	"github.com/ethereum/go-ethereum/common"
)

// Account is the host's opaque caller identity.
type Account string

func (a Account) String() string {
	return string(a)
}

// ExtendedBeaconBlockHeader is a finalized beacon header together with its
// tree hash root and the execution block it commits to.
type ExtendedBeaconBlockHeader struct {
	Header             BeaconBlockHeader
	BeaconBlockRoot    common.Hash
	ExecutionBlockHash common.Hash
}

type ExecutionHeaderInfo struct {
	ParentHash  common.Hash
	BlockNumber uint64
	Submitter   Account
}

type HeaderUpdate struct {
	BeaconHeader        BeaconBlockHeader
	ExecutionBlockHash  common.Hash
	ExecutionHashBranch []common.Hash
}

type FinalizedHeaderUpdate struct {
	HeaderUpdate   HeaderUpdate
	FinalityBranch []common.Hash
}

type SyncCommitteeUpdate struct {
	NextSyncCommittee       SyncCommittee
	NextSyncCommitteeBranch []common.Hash
}

type LightClientUpdate struct {
	AttestedBeaconHeader BeaconBlockHeader
	SyncAggregate        SyncAggregate
	SignatureSlot        uint64
	FinalityUpdate       FinalizedHeaderUpdate
	SyncCommitteeUpdate  *SyncCommitteeUpdate
}

type LightClientState struct {
	FinalizedBeaconHeader ExtendedBeaconBlockHeader
	CurrentSyncCommittee  SyncCommittee
	NextSyncCommittee     SyncCommittee
}

// ToExtended recomputes the beacon block root of the updated header.
func (h *HeaderUpdate) ToExtended() (ExtendedBeaconBlockHeader, error) {
	root, err := h.BeaconHeader.HashTreeRoot()
	if err != nil {
		return ExtendedBeaconBlockHeader{}, err
	}

	return ExtendedBeaconBlockHeader{
		Header:             h.BeaconHeader,
		BeaconBlockRoot:    root,
		ExecutionBlockHash: h.ExecutionBlockHash,
	}, nil
}
