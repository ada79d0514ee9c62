package merkle

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/minio/sha256-simd"
)

// Generalized index layout of the branches a light client update carries.
const (
	// Finalized checkpoint root inside BeaconState (gindex 105).
	FinalityTreeDepth uint64 = 6
	FinalityTreeIndex uint64 = 41

	// Next sync committee inside BeaconState (gindex 55).
	SyncCommitteeTreeDepth uint64 = 5
	SyncCommitteeTreeIndex uint64 = 23

	// block_hash inside ExecutionPayload, before and after Deneb.
	ExecutionPayloadProofSize      uint64 = 4
	DenebExecutionPayloadProofSize uint64 = 5
	ExecutionPayloadBlockHashIndex uint64 = 12

	// execution_payload inside BeaconBlockBody.
	BeaconBlockBodyProofSize             uint64 = 4
	BeaconBlockBodyExecutionPayloadIndex uint64 = 9

	ExecutionProofSize      = ExecutionPayloadProofSize + BeaconBlockBodyProofSize
	DenebExecutionProofSize = DenebExecutionPayloadProofSize + BeaconBlockBodyProofSize
)

func hashPair(left, right common.Hash) common.Hash {
	var buf [64]byte
	copy(buf[:32], left[:])
	copy(buf[32:], right[:])
	return sha256.Sum256(buf[:])
}

// ComputeMerkleRoot folds leaf with branch, leaf side first. Bit i of index
// selects whether the running hash is the right child at height i.
func ComputeMerkleRoot(leaf common.Hash, branch []common.Hash, depth, index uint64) common.Hash {
	value := leaf
	for i := uint64(0); i < depth; i++ {
		if (index>>i)&1 == 1 {
			value = hashPair(branch[i], value)
		} else {
			value = hashPair(value, branch[i])
		}
	}
	return value
}

// VerifyMerkleBranch checks that leaf sits at index of a depth deep tree with
// the given root. A branch whose length differs from depth never verifies.
func VerifyMerkleBranch(leaf common.Hash, branch []common.Hash, depth, index uint64, root common.Hash) bool {
	if uint64(len(branch)) != depth || depth >= 64 || index >= 1<<depth {
		return false
	}
	return ComputeMerkleRoot(leaf, branch, depth, index) == root
}

// VerifyExecutionPayloadBranch checks the two level proof binding an
// execution block hash to a beacon block body root. The first payloadDepth
// nodes lead from block_hash to the execution payload root, the last four
// from the payload root to the body root.
func VerifyExecutionPayloadBranch(blockHash common.Hash, branch []common.Hash, payloadDepth uint64, bodyRoot common.Hash) bool {
	if payloadDepth >= 64 || uint64(len(branch)) != payloadDepth+BeaconBlockBodyProofSize {
		return false
	}

	payloadRoot := ComputeMerkleRoot(
		blockHash,
		branch[:payloadDepth],
		payloadDepth,
		ExecutionPayloadBlockHashIndex,
	)

	return VerifyMerkleBranch(
		payloadRoot,
		branch[payloadDepth:],
		BeaconBlockBodyProofSize,
		BeaconBlockBodyExecutionPayloadIndex,
		bodyRoot,
	)
}

// GeneralizedIndex returns 2^depth + index.
func GeneralizedIndex(depth, index uint64) int {
	return int(uint64(1)<<depth + index)
}
