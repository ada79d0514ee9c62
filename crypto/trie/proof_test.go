package trie

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/rlp"
	gethTrie "github.com/ethereum/go-ethereum/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderedProof records proof nodes in the order the trie emits them, root first.
type orderedProof struct {
	nodes [][]byte
}

func (p *orderedProof) Put(_ []byte, value []byte) error {
	p.nodes = append(p.nodes, common.CopyBytes(value))
	return nil
}

func (p *orderedProof) Delete(_ []byte) error {
	return fmt.Errorf("Delete should never be called to generate a proof")
}

func indexKey(t *testing.T, i uint64) []byte {
	key, err := rlp.EncodeToBytes(i)
	require.NoError(t, err)
	return key
}

func buildTrie(t *testing.T, values map[string][]byte) *gethTrie.Trie {
	tr := gethTrie.NewEmpty(gethTrie.NewDatabase(rawdb.NewMemoryDatabase(), nil))
	for k, v := range values {
		tr.MustUpdate([]byte(k), v)
	}
	return tr
}

func prove(t *testing.T, tr *gethTrie.Trie, key []byte) [][]byte {
	proof := &orderedProof{}
	require.NoError(t, tr.Prove(key, proof))
	return proof.nodes
}

func receiptLike(i uint64) []byte {
	return bytes.Repeat([]byte{byte(i), 0xab}, 60)
}

func receiptTrie(t *testing.T, n uint64) (*gethTrie.Trie, map[uint64][]byte) {
	values := make(map[string][]byte)
	byIndex := make(map[uint64][]byte)
	for i := uint64(0); i < n; i++ {
		values[string(indexKey(t, i))] = receiptLike(i)
		byIndex[i] = receiptLike(i)
	}
	return buildTrie(t, values), byIndex
}

func TestKeyToNibbles(t *testing.T) {
	assert.Equal(t, []byte{0x0, 0x1, 0xa, 0xb}, KeyToNibbles([]byte{0x01, 0xab}))
	assert.Empty(t, KeyToNibbles(nil))
}

func TestDecodeCompactPath(t *testing.T) {
	values := []struct {
		name    string
		compact []byte
		path    []byte
		leaf    bool
	}{
		{
			name:    "even extension",
			compact: []byte{0x00, 0x12},
			path:    []byte{0x1, 0x2},
			leaf:    false,
		},
		{
			name:    "odd extension",
			compact: []byte{0x13, 0x45},
			path:    []byte{0x3, 0x4, 0x5},
			leaf:    false,
		},
		{
			name:    "even leaf",
			compact: []byte{0x20, 0x0f},
			path:    []byte{0x0, 0xf},
			leaf:    true,
		},
		{
			name:    "odd leaf",
			compact: []byte{0x3a},
			path:    []byte{0xa},
			leaf:    true,
		},
	}

	for _, tt := range values {
		path, leaf, err := DecodeCompactPath(tt.compact)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.path, path, tt.name)
		assert.Equal(t, tt.leaf, leaf, tt.name)
	}

	_, _, err := DecodeCompactPath([]byte{0x40})
	assert.ErrorIs(t, err, ErrProofStructureInvalid)

	_, _, err = DecodeCompactPath(nil)
	assert.ErrorIs(t, err, ErrProofStructureInvalid)
}

func TestVerifyProof_AllReceipts(t *testing.T) {
	tr, values := receiptTrie(t, 300)
	root := tr.Hash()

	for i := uint64(0); i < 300; i++ {
		key := indexKey(t, i)
		value, err := VerifyProof(root, key, prove(t, tr, key))
		require.NoError(t, err, "receipt %d", i)
		assert.Equal(t, values[i], value, "receipt %d", i)
	}
}

func TestVerifyProof_SingleLeaf(t *testing.T) {
	tr, values := receiptTrie(t, 1)
	key := indexKey(t, 0)

	value, err := VerifyProof(tr.Hash(), key, prove(t, tr, key))
	require.NoError(t, err)
	assert.Equal(t, values[0], value)
}

func TestVerifyProof_RejectsMutations(t *testing.T) {
	tr, _ := receiptTrie(t, 40)
	root := tr.Hash()
	key := indexKey(t, 17)
	proof := prove(t, tr, key)
	require.Greater(t, len(proof), 1)

	for n := range proof {
		for b := range proof[n] {
			mutated := make([][]byte, len(proof))
			for i := range proof {
				mutated[i] = common.CopyBytes(proof[i])
			}
			mutated[n][b] ^= 0x01

			_, err := VerifyProof(root, key, mutated)
			require.Error(t, err, "node %d byte %d", n, b)
		}
	}

	for b := 0; b < common.HashLength; b++ {
		mutatedRoot := root
		mutatedRoot[b] ^= 0x80
		_, err := VerifyProof(mutatedRoot, key, proof)
		require.ErrorIs(t, err, ErrProofStructureInvalid, "root byte %d", b)
	}
}

func TestVerifyProof_StructuralErrors(t *testing.T) {
	tr, _ := receiptTrie(t, 40)
	root := tr.Hash()
	key := indexKey(t, 3)
	proof := prove(t, tr, key)

	t.Run("empty proof", func(t *testing.T) {
		_, err := VerifyProof(root, key, nil)
		assert.ErrorIs(t, err, ErrProofStructureInvalid)
	})

	t.Run("truncated proof", func(t *testing.T) {
		_, err := VerifyProof(root, key, proof[:len(proof)-1])
		assert.ErrorIs(t, err, ErrProofStructureInvalid)
	})

	t.Run("trailing node", func(t *testing.T) {
		extended := append(append([][]byte{}, proof...), proof[len(proof)-1])
		_, err := VerifyProof(root, key, extended)
		assert.ErrorIs(t, err, ErrProofStructureInvalid)
	})

	t.Run("wrong key", func(t *testing.T) {
		_, err := VerifyProof(root, indexKey(t, 4), proof)
		assert.ErrorIs(t, err, ErrProofStructureInvalid)
	})

	t.Run("too many nodes", func(t *testing.T) {
		long := make([][]byte, MaxProofNodes+1)
		for i := range long {
			long[i] = proof[0]
		}
		_, err := VerifyProof(root, key, long)
		assert.ErrorIs(t, err, ErrProofStructureInvalid)
	})
}

func TestVerifyProof_EmbeddedNodes(t *testing.T) {
	// Short values keep the leaves below 32 bytes so they are stored inline
	// in their parent branch.
	tr := buildTrie(t, map[string][]byte{
		"\x01": {0x01},
		"\x02": {0x02},
		"\x03": {0x03},
	})
	root := tr.Hash()

	for _, k := range []byte{0x01, 0x02, 0x03} {
		value, err := VerifyProof(root, []byte{k}, prove(t, tr, []byte{k}))
		require.NoError(t, err)
		assert.Equal(t, []byte{k}, value)
	}
}
