package json

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prysmaticlabs/go-bitfield"

	"github.com/snowfork/ethereum-light-client/beacon/state"
	"github.com/snowfork/ethereum-light-client/beacon/util"
	"github.com/snowfork/ethereum-light-client/chain/ethereum"
	"github.com/snowfork/ethereum-light-client/lightclient"
)

const syncCommitteeBitsSize = state.SyncCommitteeSize / 8

func (b BeaconHeader) ToState() (state.BeaconBlockHeader, error) {
	parentRoot, err := util.HexStringToHash(b.ParentRoot)
	if err != nil {
		return state.BeaconBlockHeader{}, fmt.Errorf("parse parent root: %w", err)
	}
	stateRoot, err := util.HexStringToHash(b.StateRoot)
	if err != nil {
		return state.BeaconBlockHeader{}, fmt.Errorf("parse state root: %w", err)
	}
	bodyRoot, err := util.HexStringToHash(b.BodyRoot)
	if err != nil {
		return state.BeaconBlockHeader{}, fmt.Errorf("parse body root: %w", err)
	}

	return state.BeaconBlockHeader{
		Slot:          b.Slot,
		ProposerIndex: b.ProposerIndex,
		ParentRoot:    parentRoot,
		StateRoot:     stateRoot,
		BodyRoot:      bodyRoot,
	}, nil
}

func (e ExtendedBeaconHeader) ToState() (state.ExtendedBeaconBlockHeader, error) {
	header, err := e.Header.ToState()
	if err != nil {
		return state.ExtendedBeaconBlockHeader{}, err
	}
	root, err := util.HexStringToHash(e.BeaconBlockRoot)
	if err != nil {
		return state.ExtendedBeaconBlockHeader{}, fmt.Errorf("parse beacon block root: %w", err)
	}
	blockHash, err := util.HexStringToHash(e.ExecutionBlockHash)
	if err != nil {
		return state.ExtendedBeaconBlockHeader{}, fmt.Errorf("parse execution block hash: %w", err)
	}

	return state.ExtendedBeaconBlockHeader{
		Header:             header,
		BeaconBlockRoot:    root,
		ExecutionBlockHash: blockHash,
	}, nil
}

func (s SyncCommittee) ToState() (state.SyncCommittee, error) {
	if len(s.Pubkeys) != state.SyncCommitteeSize {
		return state.SyncCommittee{}, fmt.Errorf("%w: got %d", state.ErrSyncCommitteeSize, len(s.Pubkeys))
	}

	pubkeys := make([]state.PublicKey, 0, len(s.Pubkeys))
	for i, pubkey := range s.Pubkeys {
		key, err := util.HexStringToPublicKey(pubkey)
		if err != nil {
			return state.SyncCommittee{}, fmt.Errorf("parse pubkey %d: %w", i, err)
		}
		pubkeys = append(pubkeys, key)
	}

	aggregate, err := util.HexStringToPublicKey(s.AggregatePubkey)
	if err != nil {
		return state.SyncCommittee{}, fmt.Errorf("parse aggregate pubkey: %w", err)
	}

	return state.SyncCommittee{
		PubKeys:         pubkeys,
		AggregatePubKey: aggregate,
	}, nil
}

func (s SyncAggregate) ToState() (state.SyncAggregate, error) {
	bits, err := util.HexStringToByteArray(s.SyncCommitteeBits)
	if err != nil {
		return state.SyncAggregate{}, fmt.Errorf("parse sync committee bits: %w", err)
	}
	if len(bits) != syncCommitteeBitsSize {
		return state.SyncAggregate{}, fmt.Errorf("sync committee bits must be %d bytes, got %d", syncCommitteeBitsSize, len(bits))
	}
	signature, err := util.HexStringTo96Bytes(s.SyncCommitteeSignature)
	if err != nil {
		return state.SyncAggregate{}, fmt.Errorf("parse sync committee signature: %w", err)
	}

	return state.SyncAggregate{
		SyncCommitteeBits:      bitfield.Bitvector512(bits),
		SyncCommitteeSignature: signature,
	}, nil
}

func (u Update) ToState() (*state.LightClientUpdate, error) {
	attested, err := u.AttestedBeaconHeader.ToState()
	if err != nil {
		return nil, fmt.Errorf("attested header: %w", err)
	}
	aggregate, err := u.SyncAggregate.ToState()
	if err != nil {
		return nil, err
	}

	headerUpdate := u.FinalityUpdate.HeaderUpdate
	finalized, err := headerUpdate.BeaconHeader.ToState()
	if err != nil {
		return nil, fmt.Errorf("finalized header: %w", err)
	}
	blockHash, err := util.HexStringToHash(headerUpdate.ExecutionBlockHash)
	if err != nil {
		return nil, fmt.Errorf("parse execution block hash: %w", err)
	}
	executionBranch, err := util.HexStringsToBranch(headerUpdate.ExecutionHashBranch)
	if err != nil {
		return nil, fmt.Errorf("parse execution hash branch: %w", err)
	}
	finalityBranch, err := util.HexStringsToBranch(u.FinalityUpdate.FinalityBranch)
	if err != nil {
		return nil, fmt.Errorf("parse finality branch: %w", err)
	}

	update := &state.LightClientUpdate{
		AttestedBeaconHeader: attested,
		SyncAggregate:        aggregate,
		SignatureSlot:        u.SignatureSlot,
		FinalityUpdate: state.FinalizedHeaderUpdate{
			HeaderUpdate: state.HeaderUpdate{
				BeaconHeader:        finalized,
				ExecutionBlockHash:  blockHash,
				ExecutionHashBranch: executionBranch,
			},
			FinalityBranch: finalityBranch,
		},
	}

	if u.SyncCommitteeUpdate != nil {
		committee, err := u.SyncCommitteeUpdate.NextSyncCommittee.ToState()
		if err != nil {
			return nil, fmt.Errorf("next sync committee: %w", err)
		}
		branch, err := util.HexStringsToBranch(u.SyncCommitteeUpdate.NextSyncCommitteeBranch)
		if err != nil {
			return nil, fmt.Errorf("parse next sync committee branch: %w", err)
		}
		update.SyncCommitteeUpdate = &state.SyncCommitteeUpdate{
			NextSyncCommittee:       committee,
			NextSyncCommitteeBranch: branch,
		}
	}

	return update, nil
}

func (i InitInput) ToState() (lightclient.InitInput, error) {
	headerData, err := util.HexStringToByteArray(i.FinalizedExecutionHeader)
	if err != nil {
		return lightclient.InitInput{}, fmt.Errorf("parse finalized execution header: %w", err)
	}
	header, err := ethereum.DecodeHeader(headerData)
	if err != nil {
		return lightclient.InitInput{}, err
	}
	beaconHeader, err := i.FinalizedBeaconHeader.ToState()
	if err != nil {
		return lightclient.InitInput{}, fmt.Errorf("finalized beacon header: %w", err)
	}
	current, err := i.CurrentSyncCommittee.ToState()
	if err != nil {
		return lightclient.InitInput{}, fmt.Errorf("current sync committee: %w", err)
	}
	next, err := i.NextSyncCommittee.ToState()
	if err != nil {
		return lightclient.InitInput{}, fmt.Errorf("next sync committee: %w", err)
	}

	var signer *state.Account
	if i.TrustedSigner != nil {
		account := state.Account(*i.TrustedSigner)
		signer = &account
	}

	return lightclient.InitInput{
		Network:                     i.Network,
		FinalizedExecutionHeader:    header,
		FinalizedBeaconHeader:       beaconHeader,
		CurrentSyncCommittee:        current,
		NextSyncCommittee:           next,
		ValidateUpdates:             i.ValidateUpdates,
		VerifyBLSSignatures:         i.VerifyBLSSignatures,
		HashesGCThreshold:           i.HashesGCThreshold,
		MaxSubmittedBlocksByAccount: i.MaxSubmittedBlocksByAccount,
		TrustedSigner:               signer,
	}, nil
}

func (r VerifyLogEntryRequest) ToState() (*ethereum.VerifyLogEntryRequest, error) {
	logData, err := util.HexStringToByteArray(r.LogEntryData)
	if err != nil {
		return nil, fmt.Errorf("parse log entry: %w", err)
	}
	receiptData, err := util.HexStringToByteArray(r.ReceiptData)
	if err != nil {
		return nil, fmt.Errorf("parse receipt: %w", err)
	}
	headerData, err := util.HexStringToByteArray(r.HeaderData)
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	proof := make([][]byte, 0, len(r.Proof))
	for k, node := range r.Proof {
		decoded, err := util.HexStringToByteArray(node)
		if err != nil {
			return nil, fmt.Errorf("parse proof node %d: %w", k, err)
		}
		proof = append(proof, decoded)
	}

	return &ethereum.VerifyLogEntryRequest{
		LogIndex:     r.LogIndex,
		LogEntryData: logData,
		ReceiptIndex: r.ReceiptIndex,
		ReceiptData:  receiptData,
		HeaderData:   headerData,
		Proof:        proof,
	}, nil
}

func NewBeaconHeader(b state.BeaconBlockHeader) BeaconHeader {
	return BeaconHeader{
		Slot:          b.Slot,
		ProposerIndex: b.ProposerIndex,
		ParentRoot:    b.ParentRoot.Hex(),
		StateRoot:     b.StateRoot.Hex(),
		BodyRoot:      b.BodyRoot.Hex(),
	}
}

func NewExtendedBeaconHeader(e state.ExtendedBeaconBlockHeader) ExtendedBeaconHeader {
	return ExtendedBeaconHeader{
		Header:             NewBeaconHeader(e.Header),
		BeaconBlockRoot:    e.BeaconBlockRoot.Hex(),
		ExecutionBlockHash: e.ExecutionBlockHash.Hex(),
	}
}

func NewSyncCommittee(s state.SyncCommittee) SyncCommittee {
	pubkeys := []string{}
	for _, pubkey := range s.PubKeys {
		pubkeys = append(pubkeys, util.BytesToHexString(pubkey[:]))
	}

	return SyncCommittee{
		Pubkeys:         pubkeys,
		AggregatePubkey: util.BytesToHexString(s.AggregatePubKey[:]),
	}
}

func NewUpdate(u *state.LightClientUpdate) Update {
	headerUpdate := u.FinalityUpdate.HeaderUpdate

	var committeeUpdate *NextSyncCommitteeUpdate
	if u.SyncCommitteeUpdate != nil {
		committeeUpdate = &NextSyncCommitteeUpdate{
			NextSyncCommittee:       NewSyncCommittee(u.SyncCommitteeUpdate.NextSyncCommittee),
			NextSyncCommitteeBranch: util.BranchToHexStrings(u.SyncCommitteeUpdate.NextSyncCommitteeBranch),
		}
	}

	return Update{
		AttestedBeaconHeader: NewBeaconHeader(u.AttestedBeaconHeader),
		SyncAggregate: SyncAggregate{
			SyncCommitteeBits:      util.BytesToHexString(u.SyncAggregate.SyncCommitteeBits),
			SyncCommitteeSignature: util.BytesToHexString(u.SyncAggregate.SyncCommitteeSignature[:]),
		},
		SignatureSlot: u.SignatureSlot,
		FinalityUpdate: FinalizedHeaderUpdate{
			HeaderUpdate: HeaderUpdate{
				BeaconHeader:        NewBeaconHeader(headerUpdate.BeaconHeader),
				ExecutionBlockHash:  headerUpdate.ExecutionBlockHash.Hex(),
				ExecutionHashBranch: util.BranchToHexStrings(headerUpdate.ExecutionHashBranch),
			},
			FinalityBranch: util.BranchToHexStrings(u.FinalityUpdate.FinalityBranch),
		},
		SyncCommitteeUpdate: committeeUpdate,
	}
}

func NewLightClientState(s state.LightClientState) LightClientState {
	return LightClientState{
		FinalizedBeaconHeader: NewExtendedBeaconHeader(s.FinalizedBeaconHeader),
		CurrentSyncCommittee:  NewSyncCommittee(s.CurrentSyncCommittee),
		NextSyncCommittee:     NewSyncCommittee(s.NextSyncCommittee),
	}
}

func NewVerifyLogEntryRequest(r *ethereum.VerifyLogEntryRequest) VerifyLogEntryRequest {
	proof := make([]string, 0, len(r.Proof))
	for _, node := range r.Proof {
		proof = append(proof, util.BytesToHexString(node))
	}

	return VerifyLogEntryRequest{
		LogIndex:     r.LogIndex,
		LogEntryData: util.BytesToHexString(r.LogEntryData),
		ReceiptIndex: r.ReceiptIndex,
		ReceiptData:  util.BytesToHexString(r.ReceiptData),
		HeaderData:   util.BytesToHexString(r.HeaderData),
		Proof:        proof,
	}
}

// ParseAccount returns nil for an empty account name.
func ParseAccount(name string) *state.Account {
	if name == "" {
		return nil
	}
	account := state.Account(name)
	return &account
}

// ParseHash accepts a block hash with or without the 0x prefix.
func ParseHash(s string) (common.Hash, error) {
	return util.HexStringToHash(s)
}
