package json

import (
	"strings"
)

type BeaconHeader struct {
	Slot          uint64 `json:"slot"`
	ProposerIndex uint64 `json:"proposer_index"`
	ParentRoot    string `json:"parent_root"`
	StateRoot     string `json:"state_root"`
	BodyRoot      string `json:"body_root"`
}

type ExtendedBeaconHeader struct {
	Header             BeaconHeader `json:"header"`
	BeaconBlockRoot    string       `json:"beacon_block_root"`
	ExecutionBlockHash string       `json:"execution_block_hash"`
}

type SyncCommittee struct {
	Pubkeys         []string `json:"pubkeys"`
	AggregatePubkey string   `json:"aggregate_pubkey"`
}

type SyncAggregate struct {
	SyncCommitteeBits      string `json:"sync_committee_bits"`
	SyncCommitteeSignature string `json:"sync_committee_signature"`
}

type HeaderUpdate struct {
	BeaconHeader        BeaconHeader `json:"beacon_header"`
	ExecutionBlockHash  string       `json:"execution_block_hash"`
	ExecutionHashBranch []string     `json:"execution_hash_branch"`
}

type FinalizedHeaderUpdate struct {
	HeaderUpdate   HeaderUpdate `json:"header_update"`
	FinalityBranch []string     `json:"finality_branch"`
}

type NextSyncCommitteeUpdate struct {
	NextSyncCommittee       SyncCommittee `json:"next_sync_committee"`
	NextSyncCommitteeBranch []string      `json:"next_sync_committee_branch"`
}

type Update struct {
	AttestedBeaconHeader BeaconHeader             `json:"attested_beacon_header"`
	SyncAggregate        SyncAggregate            `json:"sync_aggregate"`
	SignatureSlot        uint64                   `json:"signature_slot"`
	FinalityUpdate       FinalizedHeaderUpdate    `json:"finality_update"`
	SyncCommitteeUpdate  *NextSyncCommitteeUpdate `json:"sync_committee_update"`
}

type LightClientState struct {
	FinalizedBeaconHeader ExtendedBeaconHeader `json:"finalized_beacon_header"`
	CurrentSyncCommittee  SyncCommittee        `json:"current_sync_committee"`
	NextSyncCommittee     SyncCommittee        `json:"next_sync_committee"`
}

// InitInput carries the trusted checkpoint a client starts from. The
// execution header is RLP encoded.
type InitInput struct {
	Network                     string               `json:"network"`
	FinalizedExecutionHeader    string               `json:"finalized_execution_header"`
	FinalizedBeaconHeader       ExtendedBeaconHeader `json:"finalized_beacon_header"`
	CurrentSyncCommittee        SyncCommittee        `json:"current_sync_committee"`
	NextSyncCommittee           SyncCommittee        `json:"next_sync_committee"`
	ValidateUpdates             bool                 `json:"validate_updates"`
	VerifyBLSSignatures         bool                 `json:"verify_bls_signatures"`
	HashesGCThreshold           uint64               `json:"hashes_gc_threshold"`
	MaxSubmittedBlocksByAccount uint32               `json:"max_submitted_blocks_by_account"`
	TrustedSigner               *string              `json:"trusted_signer"`
}

type VerifyLogEntryRequest struct {
	LogIndex     uint64   `json:"log_index"`
	LogEntryData string   `json:"log_entry_data"`
	ReceiptIndex uint64   `json:"receipt_index"`
	ReceiptData  string   `json:"receipt_data"`
	HeaderData   string   `json:"header_data"`
	Proof        []string `json:"proof"`
}

// Message is one entry of a replay file. Only the fields used by Op need
// to be set.
type Message struct {
	Op     string     `json:"op"`
	Caller string     `json:"caller"`
	Init   *InitInput `json:"init,omitempty"`
	Header string     `json:"header,omitempty"`
	Update *Update    `json:"update,omitempty"`
	Signer *string    `json:"signer,omitempty"`
	Mask   uint8      `json:"mask,omitempty"`
}

func (b *BeaconHeader) RemoveLeadingZeroHashes() {
	b.ParentRoot = removeLeadingZeroHash(b.ParentRoot)
	b.StateRoot = removeLeadingZeroHash(b.StateRoot)
	b.BodyRoot = removeLeadingZeroHash(b.BodyRoot)
}

func (s *SyncCommittee) RemoveLeadingZeroHashes() {
	for i, pubkey := range s.Pubkeys {
		s.Pubkeys[i] = removeLeadingZeroHash(pubkey)
	}

	s.AggregatePubkey = removeLeadingZeroHash(s.AggregatePubkey)
}

func (s *SyncAggregate) RemoveLeadingZeroHashes() {
	s.SyncCommitteeBits = removeLeadingZeroHash(s.SyncCommitteeBits)
	s.SyncCommitteeSignature = removeLeadingZeroHash(s.SyncCommitteeSignature)
}

func (e *ExtendedBeaconHeader) RemoveLeadingZeroHashes() {
	e.Header.RemoveLeadingZeroHashes()
	e.BeaconBlockRoot = removeLeadingZeroHash(e.BeaconBlockRoot)
	e.ExecutionBlockHash = removeLeadingZeroHash(e.ExecutionBlockHash)
}

func (s *Update) RemoveLeadingZeroHashes() {
	s.AttestedBeaconHeader.RemoveLeadingZeroHashes()
	s.SyncAggregate.RemoveLeadingZeroHashes()

	headerUpdate := &s.FinalityUpdate.HeaderUpdate
	headerUpdate.BeaconHeader.RemoveLeadingZeroHashes()
	headerUpdate.ExecutionBlockHash = removeLeadingZeroHash(headerUpdate.ExecutionBlockHash)
	headerUpdate.ExecutionHashBranch = removeLeadingZeroHashForSlice(headerUpdate.ExecutionHashBranch)
	s.FinalityUpdate.FinalityBranch = removeLeadingZeroHashForSlice(s.FinalityUpdate.FinalityBranch)

	if s.SyncCommitteeUpdate != nil {
		s.SyncCommitteeUpdate.NextSyncCommittee.RemoveLeadingZeroHashes()
		s.SyncCommitteeUpdate.NextSyncCommitteeBranch = removeLeadingZeroHashForSlice(s.SyncCommitteeUpdate.NextSyncCommitteeBranch)
	}
}

func removeLeadingZeroHashForSlice(s []string) []string {
	result := make([]string, len(s))

	for i, item := range s {
		result[i] = removeLeadingZeroHash(item)
	}
	return result
}

func removeLeadingZeroHash(s string) string {
	return strings.Replace(s, "0x", "", 1)
}
