package state

import (
	"github.com/ethereum/go-ethereum/common"
	ssz "github.com/ferranbt/fastssz"
)

// ChunkContainer is a container whose fields are all 32 byte roots. It lets
// callers place a known leaf at any generalized index and produce the
// surrounding branch, e.g. the finalized checkpoint root inside a state tree.
type ChunkContainer struct {
	Chunks []common.Hash
}

func NewChunkContainer(depth uint64) *ChunkContainer {
	return &ChunkContainer{Chunks: make([]common.Hash, 1<<depth)}
}

// HashTreeRoot ssz hashes the ChunkContainer object
func (c *ChunkContainer) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(c)
}

// HashTreeRootWith ssz hashes the ChunkContainer object with a hasher
func (c *ChunkContainer) HashTreeRootWith(hh ssz.HashWalker) (err error) {
	indx := hh.Index()
	for i := range c.Chunks {
		hh.PutBytes(c.Chunks[i][:])
	}
	hh.Merkleize(indx)
	return
}

// GetTree ssz hashes the ChunkContainer object
func (c *ChunkContainer) GetTree() (*ssz.Node, error) {
	return ssz.ProofTree(c)
}

// Branch returns the sibling hashes from the leaf at gindex up to the root,
// leaf side first.
func (c *ChunkContainer) Branch(gindex int) ([]common.Hash, error) {
	tree, err := c.GetTree()
	if err != nil {
		return nil, err
	}

	proof, err := tree.Prove(gindex)
	if err != nil {
		return nil, err
	}

	branch := make([]common.Hash, len(proof.Hashes))
	for i, h := range proof.Hashes {
		branch[i] = common.BytesToHash(h)
	}

	return branch, nil
}
