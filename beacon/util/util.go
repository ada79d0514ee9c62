package util

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

func HexStringToByteArray(hexString string) ([]byte, error) {
	bytes, err := hex.DecodeString(strings.TrimPrefix(hexString, "0x"))
	if err != nil {
		return []byte{}, err
	}

	return bytes, nil
}

func BytesToHexString(bytes []byte) string {
	return "0x" + hex.EncodeToString(bytes)
}

// hexToFixed decodes hexString into out, which must match the decoded length
// exactly.
func hexToFixed(hexString string, out []byte) error {
	decoded, err := HexStringToByteArray(hexString)
	if err != nil {
		return err
	}
	if len(decoded) != len(out) {
		return fmt.Errorf("expected %d bytes but got %d in %q", len(out), len(decoded), hexString)
	}

	copy(out, decoded)

	return nil
}

func HexStringToPublicKey(hexString string) ([48]byte, error) {
	var pubkeyBytes [48]byte
	err := hexToFixed(hexString, pubkeyBytes[:])
	return pubkeyBytes, err
}

func HexStringTo32Bytes(hexString string) ([32]byte, error) {
	var bytes [32]byte
	err := hexToFixed(hexString, bytes[:])
	return bytes, err
}

func HexStringTo96Bytes(hexString string) ([96]byte, error) {
	var bytes [96]byte
	err := hexToFixed(hexString, bytes[:])
	return bytes, err
}

func HexStringToHash(hexString string) (common.Hash, error) {
	bytes, err := HexStringTo32Bytes(hexString)
	return common.Hash(bytes), err
}

func HexStringsToBranch(proofs []string) ([]common.Hash, error) {
	branch := make([]common.Hash, 0, len(proofs))

	for _, proof := range proofs {
		hash, err := HexStringToHash(proof)
		if err != nil {
			return nil, err
		}
		branch = append(branch, hash)
	}

	return branch, nil
}

func BranchToHexStrings(proofs []common.Hash) []string {
	branch := make([]string, 0, len(proofs))

	for _, proof := range proofs {
		branch = append(branch, proof.Hex())
	}

	return branch
}
