package lightclient

import (
	log "github.com/sirupsen/logrus"

	"github.com/snowfork/ethereum-light-client/beacon/config"
	"github.com/snowfork/ethereum-light-client/beacon/protocol"
	"github.com/snowfork/ethereum-light-client/beacon/state"
	"github.com/snowfork/ethereum-light-client/crypto/bls"
	"github.com/snowfork/ethereum-light-client/crypto/merkle"
)

const MinSyncCommitteeParticipants = 1

type updateEngine struct {
	verifier *bls.Verifier
}

func networkProtocol(nm *NonMappedState) (config.NetworkConfig, *protocol.Protocol, error) {
	netConf, err := config.NewNetworkConfig(nm.Network)
	if err != nil {
		return config.NetworkConfig{}, nil, newInvariant(InvalidInitInput, "stored network: %v", err)
	}
	return netConf, protocol.New(netConf.Spec), nil
}

func isUpdateAllowed(nm *NonMappedState, caller state.Account) error {
	if nm.Paused&PausedSubmitUpdate != 0 && caller != nm.Admin {
		return newError(Paused, "Submitting light client updates is paused")
	}
	if nm.TrustedSigner != nil && *nm.TrustedSigner != caller {
		return newError(Unauthorized, "Eth-client is deployed as trust mode, only trusted_signer can update the client")
	}
	return nil
}

func (e *updateEngine) submit(cs *ConsensusState, caller state.Account, update *state.LightClientUpdate) error {
	nm, err := cs.NonMapped()
	if err != nil {
		return err
	}

	if err := isUpdateAllowed(nm, caller); err != nil {
		return err
	}

	if nm.ValidateUpdates {
		if err := e.validate(nm, update); err != nil {
			return err
		}
	}

	return commitUpdate(cs, nm, update)
}

// validate runs every check on update without touching the state.
func (e *updateEngine) validate(nm *NonMappedState, update *state.LightClientUpdate) error {
	netConf, proto, err := networkProtocol(nm)
	if err != nil {
		return err
	}

	finalizedPeriod := proto.ComputeSyncPeriodAtSlot(nm.FinalizedBeaconHeader.Header.Slot)
	if err := verifyFinalityBranch(nm, update, netConf, proto, finalizedPeriod); err != nil {
		return err
	}

	bits := update.SyncAggregate.SyncCommitteeBits
	if uint64(len(bits))*8 != bits.Len() {
		return newError(InsufficientParticipants, "Invalid sync committee bits length: %d", len(bits))
	}

	sum := bits.Count()
	if sum < MinSyncCommitteeParticipants {
		return newError(InsufficientParticipants, "Invalid sync committee bits sum: %d", sum)
	}
	if sum*3 < bits.Len()*2 {
		return newError(QuorumNotMet, "Sync committee bits sum is less than 2/3 threshold, bits sum: %d", sum)
	}

	if nm.VerifyBLSSignatures {
		return e.verifySignature(nm, update, netConf, proto, finalizedPeriod)
	}
	return nil
}

func verifyFinalityBranch(nm *NonMappedState, update *state.LightClientUpdate, netConf config.NetworkConfig, proto *protocol.Protocol, finalizedPeriod uint64) error {
	// Updates without finality are not accepted, so the active header is
	// always the finalized one.
	active := &update.FinalityUpdate.HeaderUpdate.BeaconHeader

	if active.Slot <= nm.FinalizedBeaconHeader.Header.Slot {
		return newError(StaleUpdate, "The active header slot number should be higher than the finalized slot")
	}
	if update.AttestedBeaconHeader.Slot < active.Slot {
		return newError(InvalidOrdering, "The attested header slot should be equal to or higher than the finalized header slot")
	}
	if update.SignatureSlot <= update.AttestedBeaconHeader.Slot {
		return newError(InvalidOrdering, "The signature slot should be higher than the attested header slot")
	}

	updatePeriod := proto.ComputeSyncPeriodAtSlot(active.Slot)
	if updatePeriod != finalizedPeriod && !proto.IsNextPeriod(finalizedPeriod, updatePeriod) {
		return newError(PeriodSkip, "The acceptable update periods are '%d' and '%d' but got %d", finalizedPeriod, finalizedPeriod+1, updatePeriod)
	}

	activeRoot, err := active.HashTreeRoot()
	if err != nil {
		return wrapError(InvalidFinalityProof, err, "Invalid finality proof")
	}
	if !merkle.VerifyMerkleBranch(
		activeRoot,
		update.FinalityUpdate.FinalityBranch,
		merkle.FinalityTreeDepth,
		merkle.FinalityTreeIndex,
		update.AttestedBeaconHeader.StateRoot,
	) {
		return newError(InvalidFinalityProof, "Invalid finality proof")
	}

	headerUpdate := &update.FinalityUpdate.HeaderUpdate
	payloadDepth := netConf.ExecutionPayloadProofSize(active.Slot)
	if !merkle.VerifyExecutionPayloadBranch(headerUpdate.ExecutionBlockHash, headerUpdate.ExecutionHashBranch, payloadDepth, active.BodyRoot) {
		return newError(InvalidExecutionProof, "Invalid execution block hash proof")
	}

	if updatePeriod == finalizedPeriod {
		return nil
	}

	committeeUpdate := update.SyncCommitteeUpdate
	if committeeUpdate == nil {
		return newError(MissingSyncCommitteeUpdate, "The sync committee update is missed")
	}
	committeeRoot, err := committeeUpdate.NextSyncCommittee.HashTreeRoot()
	if err != nil {
		return wrapError(InvalidSyncCommitteeProof, err, "Invalid next sync committee proof")
	}
	if !merkle.VerifyMerkleBranch(
		committeeRoot,
		committeeUpdate.NextSyncCommitteeBranch,
		merkle.SyncCommitteeTreeDepth,
		merkle.SyncCommitteeTreeIndex,
		active.StateRoot,
	) {
		return newError(InvalidSyncCommitteeProof, "Invalid next sync committee proof")
	}

	return nil
}

func (e *updateEngine) verifySignature(nm *NonMappedState, update *state.LightClientUpdate, netConf config.NetworkConfig, proto *protocol.Protocol, finalizedPeriod uint64) error {
	signaturePeriod := proto.ComputeSyncPeriodAtSlot(update.SignatureSlot)
	if signaturePeriod != finalizedPeriod && !proto.IsNextPeriod(finalizedPeriod, signaturePeriod) {
		return newError(PeriodSkip, "The acceptable signature periods are '%d' and '%d' but got %d", finalizedPeriod, finalizedPeriod+1, signaturePeriod)
	}

	committee := nm.CurrentSyncCommittee
	if signaturePeriod != finalizedPeriod {
		committee = nm.NextSyncCommittee
	}
	if committee == nil {
		return newInvariant(SignatureVerificationFailed, "no sync committee stored for period %d", signaturePeriod)
	}

	forkVersion, ok := netConf.ComputeForkVersionBySlot(update.SignatureSlot)
	if !ok {
		return newError(SignatureVerificationFailed, "Unsupported fork")
	}

	domain, err := bls.ComputeDomain(bls.DomainSyncCommittee, forkVersion, netConf.GenesisValidatorsRoot)
	if err != nil {
		return wrapError(SignatureVerificationFailed, err, "Failed to verify the bls signature")
	}
	attestedRoot, err := update.AttestedBeaconHeader.HashTreeRoot()
	if err != nil {
		return wrapError(SignatureVerificationFailed, err, "Failed to verify the bls signature")
	}
	signingRoot, err := bls.ComputeSigningRoot(attestedRoot, domain)
	if err != nil {
		return wrapError(SignatureVerificationFailed, err, "Failed to verify the bls signature")
	}

	participants := bls.ParticipantPubKeys(committee, update.SyncAggregate.SyncCommitteeBits)
	err = e.verifier.FastAggregateVerify(participants, signingRoot, update.SyncAggregate.SyncCommitteeSignature)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"signatureSlot": update.SignatureSlot,
			"participants":  len(participants),
		}).Debug("Sync committee signature rejected")
		return wrapError(SignatureVerificationFailed, err, "Failed to verify the bls signature")
	}

	return nil
}

// commitUpdate rotates the sync committees when the update enters the next
// period and finalizes its header.
func commitUpdate(cs *ConsensusState, nm *NonMappedState, update *state.LightClientUpdate) error {
	_, proto, err := networkProtocol(nm)
	if err != nil {
		return err
	}

	headerUpdate := &update.FinalityUpdate.HeaderUpdate
	finalizedPeriod := proto.ComputeSyncPeriodAtSlot(nm.FinalizedBeaconHeader.Header.Slot)
	updatePeriod := proto.ComputeSyncPeriodAtSlot(headerUpdate.BeaconHeader.Slot)

	if proto.IsNextPeriod(finalizedPeriod, updatePeriod) {
		if update.SyncCommitteeUpdate == nil {
			return newError(MissingSyncCommitteeUpdate, "The sync committee update is missed")
		}
		next := update.SyncCommitteeUpdate.NextSyncCommittee
		nm.CurrentSyncCommittee = nm.NextSyncCommittee
		nm.NextSyncCommittee = &next

		log.WithFields(log.Fields{
			"period": updatePeriod,
		}).Info("Rotated sync committees")
	}

	finalized, err := headerUpdate.ToExtended()
	if err != nil {
		return newError(InvalidFinalityProof, "Invalid finalized header: %v", err)
	}

	return finalizeHeader(cs, nm, finalized)
}
