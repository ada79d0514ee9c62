package lightclient

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/snowfork/go-substrate-rpc-client/v4/scale"

	"github.com/snowfork/ethereum-light-client/beacon/config"
	"github.com/snowfork/ethereum-light-client/beacon/state"
	"github.com/snowfork/ethereum-light-client/store"
)

// Mask is a set of paused operations.
type Mask uint8

const PausedSubmitUpdate Mask = 1

// NonMappedState is the singleton record holding the client configuration
// and the finalized head.
type NonMappedState struct {
	Admin                       state.Account
	TrustedSigner               *state.Account
	ValidateUpdates             bool
	VerifyBLSSignatures         bool
	HashesGCThreshold           uint64
	Network                     config.Network
	MaxSubmittedBlocksByAccount uint32
	FinalizedBeaconHeader       state.ExtendedBeaconBlockHeader
	FinalizedExecutionHeader    *state.ExecutionHeaderInfo
	CurrentSyncCommittee        *state.SyncCommittee
	NextSyncCommittee           *state.SyncCommittee
	Paused                      Mask
}

type optionAccount struct {
	HasValue bool
	Value    state.Account
}

func (o optionAccount) Encode(encoder scale.Encoder) error {
	return encoder.EncodeOption(o.HasValue, o.Value)
}

func (o *optionAccount) Decode(decoder scale.Decoder) error {
	return decoder.DecodeOption(&o.HasValue, &o.Value)
}

type optionHeaderInfo struct {
	HasValue bool
	Value    state.ExecutionHeaderInfo
}

func (o optionHeaderInfo) Encode(encoder scale.Encoder) error {
	return encoder.EncodeOption(o.HasValue, o.Value)
}

func (o *optionHeaderInfo) Decode(decoder scale.Decoder) error {
	return decoder.DecodeOption(&o.HasValue, &o.Value)
}

type optionSyncCommittee struct {
	HasValue bool
	Value    state.SyncCommittee
}

func (o optionSyncCommittee) Encode(encoder scale.Encoder) error {
	return encoder.EncodeOption(o.HasValue, o.Value)
}

func (o *optionSyncCommittee) Decode(decoder scale.Decoder) error {
	return decoder.DecodeOption(&o.HasValue, &o.Value)
}

type nonMappedSCALE struct {
	Admin                       state.Account
	TrustedSigner               optionAccount
	ValidateUpdates             bool
	VerifyBLSSignatures         bool
	HashesGCThreshold           uint64
	Network                     config.Network
	MaxSubmittedBlocksByAccount uint32
	FinalizedBeaconHeader       state.ExtendedBeaconBlockHeader
	FinalizedExecutionHeader    optionHeaderInfo
	CurrentSyncCommittee        optionSyncCommittee
	NextSyncCommittee           optionSyncCommittee
	Paused                      uint8
}

func (s NonMappedState) Encode(encoder scale.Encoder) error {
	fields := nonMappedSCALE{
		Admin:                       s.Admin,
		ValidateUpdates:             s.ValidateUpdates,
		VerifyBLSSignatures:         s.VerifyBLSSignatures,
		HashesGCThreshold:           s.HashesGCThreshold,
		Network:                     s.Network,
		MaxSubmittedBlocksByAccount: s.MaxSubmittedBlocksByAccount,
		FinalizedBeaconHeader:       s.FinalizedBeaconHeader,
		Paused:                      uint8(s.Paused),
	}
	if s.TrustedSigner != nil {
		fields.TrustedSigner = optionAccount{true, *s.TrustedSigner}
	}
	if s.FinalizedExecutionHeader != nil {
		fields.FinalizedExecutionHeader = optionHeaderInfo{true, *s.FinalizedExecutionHeader}
	}
	if s.CurrentSyncCommittee != nil {
		fields.CurrentSyncCommittee = optionSyncCommittee{true, *s.CurrentSyncCommittee}
	}
	if s.NextSyncCommittee != nil {
		fields.NextSyncCommittee = optionSyncCommittee{true, *s.NextSyncCommittee}
	}
	return encoder.Encode(fields)
}

func (s *NonMappedState) Decode(decoder scale.Decoder) error {
	var fields nonMappedSCALE
	if err := decoder.Decode(&fields); err != nil {
		return err
	}

	*s = NonMappedState{
		Admin:                       fields.Admin,
		ValidateUpdates:             fields.ValidateUpdates,
		VerifyBLSSignatures:         fields.VerifyBLSSignatures,
		HashesGCThreshold:           fields.HashesGCThreshold,
		Network:                     fields.Network,
		MaxSubmittedBlocksByAccount: fields.MaxSubmittedBlocksByAccount,
		FinalizedBeaconHeader:       fields.FinalizedBeaconHeader,
		Paused:                      Mask(fields.Paused),
	}
	if fields.TrustedSigner.HasValue {
		signer := fields.TrustedSigner.Value
		s.TrustedSigner = &signer
	}
	if fields.FinalizedExecutionHeader.HasValue {
		info := fields.FinalizedExecutionHeader.Value
		s.FinalizedExecutionHeader = &info
	}
	if fields.CurrentSyncCommittee.HasValue {
		committee := fields.CurrentSyncCommittee.Value
		s.CurrentSyncCommittee = &committee
	}
	if fields.NextSyncCommittee.HasValue {
		committee := fields.NextSyncCommittee.Value
		s.NextSyncCommittee = &committee
	}
	return nil
}

// ConsensusState gives typed access to the client records kept in a
// KVStore. It is created for a single call and caches the singleton record.
type ConsensusState struct {
	kv        store.KVStore
	nonMapped *NonMappedState
}

func NewConsensusState(kv store.KVStore) *ConsensusState {
	return &ConsensusState{kv: kv}
}

func (c *ConsensusState) IsInitialized() (bool, error) {
	has, err := c.kv.Has(store.NonMappedStateKey)
	if err != nil {
		return false, storageError(err, "check initialization")
	}
	return has, nil
}

func (c *ConsensusState) NonMapped() (*NonMappedState, error) {
	if c.nonMapped != nil {
		return c.nonMapped, nil
	}

	var s NonMappedState
	err := store.Load(c.kv, store.NonMappedStateKey, &s)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(NotInitialized, "The client is not initialized")
	}
	if err != nil {
		return nil, storageError(err, "load state")
	}

	c.nonMapped = &s
	return c.nonMapped, nil
}

func (c *ConsensusState) SaveNonMapped(s *NonMappedState) error {
	if err := store.Save(c.kv, store.NonMappedStateKey, s); err != nil {
		return storageError(err, "save state")
	}
	c.nonMapped = s
	return nil
}

func (c *ConsensusState) FinalizedBlockHash(number uint64) (common.Hash, bool, error) {
	var hash common.Hash
	err := store.Load(c.kv, store.FinalizedBlockKey(number), &hash)
	if errors.Is(err, store.ErrNotFound) {
		return common.Hash{}, false, nil
	}
	if err != nil {
		return common.Hash{}, false, storageError(err, fmt.Sprintf("load finalized block %d", number))
	}
	return hash, true, nil
}

func (c *ConsensusState) SetFinalizedBlockHash(number uint64, hash common.Hash) error {
	if err := store.Save(c.kv, store.FinalizedBlockKey(number), hash); err != nil {
		return storageError(err, fmt.Sprintf("save finalized block %d", number))
	}
	return nil
}

func (c *ConsensusState) DeleteFinalizedBlockHash(number uint64) error {
	if err := c.kv.Delete(store.FinalizedBlockKey(number)); err != nil {
		return storageError(err, fmt.Sprintf("delete finalized block %d", number))
	}
	return nil
}

// FinalizedBlocks visits the finalized index in ascending block order until
// fn returns false.
func (c *ConsensusState) FinalizedBlocks(fn func(number uint64, hash common.Hash) bool) error {
	prefix := store.FinalizedBlockPrefix
	err := c.kv.Iterate(prefix, store.PrefixEnd(prefix), func(key, value []byte) (bool, error) {
		number, ok := store.FinalizedBlockNumber(key)
		if !ok {
			return false, fmt.Errorf("malformed finalized block key %x", key)
		}
		var hash common.Hash
		if err := store.Decode(value, &hash); err != nil {
			return false, fmt.Errorf("decode finalized block %d: %w", number, err)
		}
		return fn(number, hash), nil
	})
	if err != nil {
		return storageError(err, "scan finalized blocks")
	}
	return nil
}

func (c *ConsensusState) UnfinalizedHeader(hash common.Hash) (*state.ExecutionHeaderInfo, bool, error) {
	var info state.ExecutionHeaderInfo
	err := store.Load(c.kv, store.UnfinalizedHeaderKey(hash), &info)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageError(err, fmt.Sprintf("load header %s", hash.Hex()))
	}
	return &info, true, nil
}

func (c *ConsensusState) HasUnfinalizedHeader(hash common.Hash) (bool, error) {
	has, err := c.kv.Has(store.UnfinalizedHeaderKey(hash))
	if err != nil {
		return false, storageError(err, fmt.Sprintf("check header %s", hash.Hex()))
	}
	return has, nil
}

func (c *ConsensusState) SetUnfinalizedHeader(hash common.Hash, info state.ExecutionHeaderInfo) error {
	if err := store.Save(c.kv, store.UnfinalizedHeaderKey(hash), info); err != nil {
		return storageError(err, fmt.Sprintf("save header %s", hash.Hex()))
	}
	return nil
}

func (c *ConsensusState) DeleteUnfinalizedHeader(hash common.Hash) error {
	if err := c.kv.Delete(store.UnfinalizedHeaderKey(hash)); err != nil {
		return storageError(err, fmt.Sprintf("delete header %s", hash.Hex()))
	}
	return nil
}

// Submitter returns the number of pending headers of account and whether it
// is registered at all.
func (c *ConsensusState) Submitter(account state.Account) (uint32, bool, error) {
	var count uint32
	err := store.Load(c.kv, store.SubmitterKey(account), &count)
	if errors.Is(err, store.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storageError(err, fmt.Sprintf("load submitter %s", account))
	}
	return count, true, nil
}

func (c *ConsensusState) SetSubmitter(account state.Account, count uint32) error {
	if err := store.Save(c.kv, store.SubmitterKey(account), count); err != nil {
		return storageError(err, fmt.Sprintf("save submitter %s", account))
	}
	return nil
}

func (c *ConsensusState) DeleteSubmitter(account state.Account) error {
	if err := c.kv.Delete(store.SubmitterKey(account)); err != nil {
		return storageError(err, fmt.Sprintf("delete submitter %s", account))
	}
	return nil
}

// GCCursor is the lowest block number that may still be in the finalized
// index.
func (c *ConsensusState) GCCursor() (uint64, error) {
	var cursor uint64
	err := store.Load(c.kv, store.GCCursorKey, &cursor)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, storageError(err, "load gc cursor")
	}
	return cursor, nil
}

func (c *ConsensusState) SetGCCursor(cursor uint64) error {
	if err := store.Save(c.kv, store.GCCursorKey, cursor); err != nil {
		return storageError(err, "save gc cursor")
	}
	return nil
}

// Clear removes every record of the client.
func (c *ConsensusState) Clear() error {
	for _, prefix := range [][]byte{
		store.FinalizedBlockPrefix,
		store.UnfinalizedHeaderPrefix,
		store.SubmitterPrefix,
	} {
		if _, err := store.DeletePrefix(c.kv, prefix); err != nil {
			return storageError(err, fmt.Sprintf("clear %s", prefix))
		}
	}
	for _, key := range [][]byte{store.NonMappedStateKey, store.GCCursorKey} {
		if err := c.kv.Delete(key); err != nil {
			return storageError(err, fmt.Sprintf("clear %s", key))
		}
	}
	c.nonMapped = nil
	return nil
}
