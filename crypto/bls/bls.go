package bls

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
	"github.com/prysmaticlabs/go-bitfield"
	blst "github.com/supranational/blst/bindings/go"

	"github.com/snowfork/ethereum-light-client/beacon/state"
)

// Ciphersuite of the Ethereum consensus layer (proof of possession, min-pk).
var dst = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_")

var DomainSyncCommittee = [4]byte{0x07, 0x00, 0x00, 0x00}

// Two committees worth of keys.
const DefaultCacheSize = 2 * state.SyncCommitteeSize

var (
	ErrInvalidPublicKey   = errors.New("invalid BLS public key")
	ErrInvalidSignature   = errors.New("invalid BLS signature")
	ErrNoParticipants     = errors.New("no participating public keys")
	ErrVerificationFailed = errors.New("aggregate signature does not verify")
)

// Verifier checks sync committee signatures. Decompressed public keys are kept
// in an LRU cache since the same committee signs every update in a period.
type Verifier struct {
	keys *lru.Cache
}

func NewVerifier(cacheSize int) (*Verifier, error) {
	keys, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create public key cache: %w", err)
	}
	return &Verifier{keys: keys}, nil
}

func (v *Verifier) publicKey(pk state.PublicKey) (*blst.P1Affine, error) {
	if cached, ok := v.keys.Get(pk); ok {
		return cached.(*blst.P1Affine), nil
	}

	key := new(blst.P1Affine).Uncompress(pk[:])
	if key == nil || !key.KeyValidate() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPublicKey, common.Bytes2Hex(pk[:]))
	}

	v.keys.Add(pk, key)
	return key, nil
}

// FastAggregateVerify checks that signature is the aggregate of every
// pubkey signing message.
func (v *Verifier) FastAggregateVerify(pubkeys []state.PublicKey, message common.Hash, signature state.Signature) error {
	if len(pubkeys) == 0 {
		return ErrNoParticipants
	}

	keys := make([]*blst.P1Affine, len(pubkeys))
	for i, pk := range pubkeys {
		key, err := v.publicKey(pk)
		if err != nil {
			return err
		}
		keys[i] = key
	}

	sig := new(blst.P2Affine).Uncompress(signature[:])
	if sig == nil {
		return ErrInvalidSignature
	}

	if !sig.FastAggregateVerify(true, keys, message[:], dst) {
		return ErrVerificationFailed
	}

	return nil
}

// ParticipantPubKeys returns the keys of the committee members whose bit is
// set, in committee order.
func ParticipantPubKeys(committee *state.SyncCommittee, bits bitfield.Bitvector512) []state.PublicKey {
	participants := make([]state.PublicKey, 0, bits.Count())
	for i, pk := range committee.PubKeys {
		if uint64(i) < bits.Len() && bits.BitAt(uint64(i)) {
			participants = append(participants, pk)
		}
	}
	return participants
}

// AggregatePublicKeys sums the given keys, e.g. to derive a committee's
// aggregate_pubkey.
func AggregatePublicKeys(pubkeys []state.PublicKey) (state.PublicKey, error) {
	if len(pubkeys) == 0 {
		return state.PublicKey{}, ErrNoParticipants
	}

	keys := make([]*blst.P1Affine, len(pubkeys))
	for i, pk := range pubkeys {
		key := new(blst.P1Affine).Uncompress(pk[:])
		if key == nil {
			return state.PublicKey{}, fmt.Errorf("%w: index %d", ErrInvalidPublicKey, i)
		}
		keys[i] = key
	}

	agg := new(blst.P1Aggregate)
	if !agg.Aggregate(keys, true) {
		return state.PublicKey{}, ErrInvalidPublicKey
	}

	var out state.PublicKey
	copy(out[:], agg.ToAffine().Compress())
	return out, nil
}

func ComputeDomain(domainType [4]byte, forkVersion [4]byte, genesisValidatorsRoot common.Hash) (common.Hash, error) {
	forkData := state.ForkData{
		CurrentVersion:        forkVersion,
		GenesisValidatorsRoot: genesisValidatorsRoot,
	}
	forkDataRoot, err := forkData.HashTreeRoot()
	if err != nil {
		return common.Hash{}, fmt.Errorf("hash fork data: %w", err)
	}

	var domain common.Hash
	copy(domain[:4], domainType[:])
	copy(domain[4:], forkDataRoot[:28])
	return domain, nil
}

func ComputeSigningRoot(objectRoot common.Hash, domain common.Hash) (common.Hash, error) {
	signingData := state.SigningData{
		ObjectRoot: objectRoot,
		Domain:     domain,
	}
	root, err := signingData.HashTreeRoot()
	if err != nil {
		return common.Hash{}, fmt.Errorf("hash signing data: %w", err)
	}
	return root, nil
}
