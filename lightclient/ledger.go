package lightclient

import (
	"github.com/ethereum/go-ethereum/core/types"
	log "github.com/sirupsen/logrus"

	"github.com/snowfork/ethereum-light-client/beacon/state"
)

// MaxFinalizationWalk bounds the number of headers a single finalization may
// move into the finalized index.
const MaxFinalizationWalk = 1 << 20

func headerNumber(header *types.Header) (uint64, error) {
	if header == nil || header.Number == nil || !header.Number.IsUint64() {
		return 0, newError(InvalidHeader, "Execution header number must be an unsigned 64 bit integer")
	}
	return header.Number.Uint64(), nil
}

// submitExecutionHeader appends header to the pending chain. Every check runs
// before the first write, so a rejected header leaves the quota untouched.
func submitExecutionHeader(cs *ConsensusState, submitter state.Account, header *types.Header) error {
	nm, err := cs.NonMapped()
	if err != nil {
		return err
	}

	number, err := headerNumber(header)
	if err != nil {
		return err
	}

	if header.ParentHash != nm.FinalizedBeaconHeader.ExecutionBlockHash {
		known, err := cs.HasUnfinalizedHeader(header.ParentHash)
		if err != nil {
			return err
		}
		if !known {
			return newError(UnknownParent, "Header has unknown parent %s. Parent should be submitted first.", header.ParentHash.Hex())
		}
	}

	count, err := reserveSubmission(cs, nm, submitter)
	if err != nil {
		return err
	}

	blockHash := header.Hash()
	duplicate, err := cs.HasUnfinalizedHeader(blockHash)
	if err != nil {
		return err
	}
	if duplicate {
		return newError(DuplicateSubmission, "The block %s already submitted!", blockHash.Hex())
	}

	if err := cs.SetSubmitter(submitter, count); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"submitter": submitter,
	}).Debugf("Submitted header number %d, hash %s", number, blockHash.Hex())

	return cs.SetUnfinalizedHeader(blockHash, state.ExecutionHeaderInfo{
		ParentHash:  header.ParentHash,
		BlockNumber: number,
		Submitter:   submitter,
	})
}

// finalizeHeader advances the finalized head. The pending chain ending in
// its execution block is walked back to the previous finalized block, each
// header moving into the finalized index and freeing its submitter's quota.
func finalizeHeader(cs *ConsensusState, nm *NonMappedState, finalized state.ExtendedBeaconBlockHeader) error {
	head, ok, err := cs.UnfinalizedHeader(finalized.ExecutionBlockHash)
	if err != nil {
		return err
	}
	if !ok {
		return newError(UnknownExecutionBlockHash, "Unknown execution block hash")
	}

	log.WithFields(log.Fields{
		"currentSlot": nm.FinalizedBeaconHeader.Header.Slot,
		"newSlot":     finalized.Header.Slot,
	}).Infof("Current finalized slot: %d, New finalized slot: %d", nm.FinalizedBeaconHeader.Header.Slot, finalized.Header.Slot)

	previous := nm.FinalizedBeaconHeader.ExecutionBlockHash
	released := make(map[state.Account]uint32)

	cursor := head
	cursorHash := finalized.ExecutionBlockHash
	for steps := 0; ; steps++ {
		if steps >= MaxFinalizationWalk {
			return newInvariant(UnknownParent, "finalization walked %d headers without reaching %s", steps, previous.Hex())
		}

		released[cursor.Submitter]++

		if err := cs.DeleteUnfinalizedHeader(cursorHash); err != nil {
			return err
		}
		if err := cs.SetFinalizedBlockHash(cursor.BlockNumber, cursorHash); err != nil {
			return err
		}

		if cursor.ParentHash == previous {
			break
		}

		parentHash := cursor.ParentHash
		parent, ok, err := cs.UnfinalizedHeader(parentHash)
		if err != nil {
			return err
		}
		if !ok {
			inv := newInvariant(UnknownParent, "Header has unknown parent %s. Parent should be submitted first.", parentHash.Hex())
			log.WithFields(log.Fields{
				"header": cursorHash.Hex(),
				"parent": parentHash.Hex(),
				"number": cursor.BlockNumber,
			}).WithError(inv).Error("Pending chain is broken")
			return inv
		}

		cursor = parent
		cursorHash = parentHash
	}

	nm.FinalizedBeaconHeader = finalized
	nm.FinalizedExecutionHeader = head
	if err := cs.SaveNonMapped(nm); err != nil {
		return err
	}

	if err := releaseSubmissions(cs, released); err != nil {
		return err
	}

	if head.BlockNumber > nm.HashesGCThreshold {
		return gcFinalizedBlocks(cs, head.BlockNumber-nm.HashesGCThreshold)
	}
	return nil
}

// gcFinalizedBlocks removes every finalized block numbered cutoff or lower.
// The cursor records how far earlier runs got, so each block is deleted
// once.
func gcFinalizedBlocks(cs *ConsensusState, cutoff uint64) error {
	cursor, err := cs.GCCursor()
	if err != nil {
		return err
	}
	if cursor > cutoff {
		return nil
	}

	log.WithFields(log.Fields{
		"from": cursor,
		"to":   cutoff,
	}).Debug("Removing old finalized blocks")

	for number := cursor; number <= cutoff; number++ {
		if err := cs.DeleteFinalizedBlockHash(number); err != nil {
			return err
		}
	}

	return cs.SetGCCursor(cutoff + 1)
}
