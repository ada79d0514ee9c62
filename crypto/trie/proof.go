package trie

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/snowfork/ethereum-light-client/crypto/keccak"
)

// MaxProofNodes bounds the work done for a single proof. A Merkle-Patricia
// path over 32 byte keys never needs more than 64 nibble steps.
const MaxProofNodes = 64

var ErrProofStructureInvalid = errors.New("invalid trie proof")

const (
	branchNodeItems = 17
	shortNodeItems  = 2
	valueSlot       = 16
)

type item struct {
	kind    rlp.Kind
	content []byte
	raw     []byte
}

func proofError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrProofStructureInvalid, fmt.Sprintf(format, args...))
}

// KeyToNibbles splits every byte of key into its high and low nibble.
func KeyToNibbles(key []byte) []byte {
	nibbles := make([]byte, 0, len(key)*2)
	for _, b := range key {
		nibbles = append(nibbles, b/16, b%16)
	}
	return nibbles
}

// DecodeCompactPath decodes the hex-prefix encoded path of a leaf or
// extension node. The flag nibble is 0/1 for extensions and 2/3 for leaves,
// odd values carrying the first path nibble in the low half of byte 0.
func DecodeCompactPath(compact []byte) ([]byte, bool, error) {
	if len(compact) == 0 {
		return nil, false, proofError("empty node path")
	}

	head := compact[0] / 16
	if head > 3 {
		return nil, false, proofError("invalid path prefix %d", head)
	}

	path := make([]byte, 0, len(compact)*2)
	if head%2 == 1 {
		path = append(path, compact[0]%16)
	}
	for _, b := range compact[1:] {
		path = append(path, b/16, b%16)
	}

	return path, head >= 2, nil
}

func splitNode(node []byte) ([]item, error) {
	content, rest, err := rlp.SplitList(node)
	if err != nil {
		return nil, proofError("node is not an rlp list: %v", err)
	}
	if len(rest) != 0 {
		return nil, proofError("trailing bytes after node")
	}

	var items []item
	for len(content) > 0 {
		kind, value, tail, err := rlp.Split(content)
		if err != nil {
			return nil, proofError("malformed node item: %v", err)
		}
		items = append(items, item{
			kind:    kind,
			content: value,
			raw:     content[:len(content)-len(tail)],
		})
		content = tail
		if len(items) > branchNodeItems {
			return nil, proofError("node has more than %d items", branchNodeItems)
		}
	}

	return items, nil
}

func (i item) bytes() ([]byte, error) {
	if i.kind == rlp.List {
		return nil, proofError("expected byte string, found list")
	}
	return i.content, nil
}

func checkNode(node, expected []byte, isRoot bool) error {
	if isRoot || len(node) >= 32 {
		if !bytes.Equal(keccak.Hash(node).Bytes(), expected) {
			return proofError("node hash does not match expected %x", expected)
		}
		return nil
	}

	if !bytes.Equal(node, expected) {
		return proofError("embedded node does not match parent reference")
	}
	return nil
}

// VerifyProof walks proof from the node hashing to root down to the value
// stored under key, and returns that value. Children embedded inline in
// their parent may either be repeated as the next proof node or omitted.
func VerifyProof(root common.Hash, key []byte, proof [][]byte) ([]byte, error) {
	if len(proof) == 0 {
		return nil, proofError("empty proof")
	}
	if len(proof) > MaxProofNodes {
		return nil, proofError("proof has %d nodes, limit is %d", len(proof), MaxProofNodes)
	}

	nibbles := KeyToNibbles(key)
	keyIndex := 0
	proofIndex := 0

	node := proof[0]
	if err := checkNode(node, root.Bytes(), true); err != nil {
		return nil, fmt.Errorf("proof node 0: %w", err)
	}

	// descend moves to the child referenced by ref.
	descend := func(ref item) ([]byte, error) {
		if ref.kind == rlp.List {
			if proofIndex+1 < len(proof) && bytes.Equal(proof[proofIndex+1], ref.raw) {
				proofIndex++
			}
			return ref.raw, nil
		}

		proofIndex++
		if proofIndex >= len(proof) {
			return nil, proofError("proof ended before reaching the value")
		}
		child := proof[proofIndex]
		if err := checkNode(child, ref.content, false); err != nil {
			return nil, fmt.Errorf("proof node %d: %w", proofIndex, err)
		}
		return child, nil
	}

	for steps := 0; steps <= len(nibbles)+len(proof); steps++ {
		items, err := splitNode(node)
		if err != nil {
			return nil, fmt.Errorf("proof node %d: %w", proofIndex, err)
		}

		last := proofIndex+1 == len(proof)

		switch len(items) {
		case branchNodeItems:
			if keyIndex == len(nibbles) {
				if !last {
					return nil, proofError("key consumed at node %d but proof continues", proofIndex)
				}
				return items[valueSlot].bytes()
			}
			ref := items[nibbles[keyIndex]]
			keyIndex++
			if node, err = descend(ref); err != nil {
				return nil, err
			}

		case shortNodeItems:
			compact, err := items[0].bytes()
			if err != nil {
				return nil, err
			}
			path, leaf, err := DecodeCompactPath(compact)
			if err != nil {
				return nil, err
			}
			if keyIndex+len(path) > len(nibbles) {
				return nil, proofError("node %d path runs past the end of the key", proofIndex)
			}
			if !bytes.Equal(path, nibbles[keyIndex:keyIndex+len(path)]) {
				return nil, proofError("node %d path does not match key", proofIndex)
			}
			keyIndex += len(path)

			if leaf {
				if !last {
					return nil, proofError("leaf at node %d but proof continues", proofIndex)
				}
				if keyIndex != len(nibbles) {
					return nil, proofError("leaf at node %d does not consume the key", proofIndex)
				}
				return items[1].bytes()
			}
			if node, err = descend(items[1]); err != nil {
				return nil, err
			}

		default:
			return nil, proofError("node %d has %d items", proofIndex, len(items))
		}
	}

	return nil, proofError("proof does not terminate")
}
