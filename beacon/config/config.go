package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/snowfork/ethereum-light-client/crypto/merkle"
)

type Network string

const (
	Bellatrix = "bellatrix"
	Capella   = "capella"
	Deneb     = "deneb"
)

const (
	Mainnet Network = "mainnet"
	Goerli  Network = "goerli"
	Sepolia Network = "sepolia"
)

type SpecSettings struct {
	SlotsInEpoch                 uint64 `mapstructure:"slotsInEpoch"`
	EpochsPerSyncCommitteePeriod uint64 `mapstructure:"epochsPerSyncCommitteePeriod"`
}

// Fork is a fork version together with the epoch at which it activates.
type Fork struct {
	Name    string
	Version [4]byte
	Epoch   uint64
}

type NetworkConfig struct {
	Network               Network
	GenesisValidatorsRoot common.Hash
	// Forks are ordered by activation epoch.
	Forks []Fork
	Spec  SpecSettings
}

var mainnetSpec = SpecSettings{
	SlotsInEpoch:                 32,
	EpochsPerSyncCommitteePeriod: 256,
}

var networks = map[Network]NetworkConfig{
	Mainnet: {
		Network:               Mainnet,
		GenesisValidatorsRoot: common.HexToHash("0x4b363db94e286120d76eb905340fdd4e54bfe9f06bf33ff6cf5ad27f511bfe95"),
		Forks: []Fork{
			{Name: Bellatrix, Version: [4]byte{0x02, 0x00, 0x00, 0x00}, Epoch: 144896},
			{Name: Capella, Version: [4]byte{0x03, 0x00, 0x00, 0x00}, Epoch: 194048},
			{Name: Deneb, Version: [4]byte{0x04, 0x00, 0x00, 0x00}, Epoch: 269568},
		},
		Spec: mainnetSpec,
	},
	Goerli: {
		Network:               Goerli,
		GenesisValidatorsRoot: common.HexToHash("0x043db0d9a83813551ee2f33450d23797757d430911a9320530ad8a0eabc43efb"),
		Forks: []Fork{
			{Name: Bellatrix, Version: [4]byte{0x02, 0x00, 0x10, 0x20}, Epoch: 112260},
			{Name: Capella, Version: [4]byte{0x03, 0x00, 0x10, 0x20}, Epoch: 162304},
			{Name: Deneb, Version: [4]byte{0x04, 0x00, 0x10, 0x20}, Epoch: 231680},
		},
		Spec: mainnetSpec,
	},
	Sepolia: {
		Network:               Sepolia,
		GenesisValidatorsRoot: common.HexToHash("0xd8ea171f3c94aea21ebc42a1ed61052acf3f9209c00e4efbaaddac09ed9b8078"),
		Forks: []Fork{
			{Name: Bellatrix, Version: [4]byte{0x90, 0x00, 0x00, 0x71}, Epoch: 100},
			{Name: Capella, Version: [4]byte{0x90, 0x00, 0x00, 0x72}, Epoch: 56832},
			{Name: Deneb, Version: [4]byte{0x90, 0x00, 0x00, 0x73}, Epoch: 132608},
		},
		Spec: mainnetSpec,
	},
}

func ParseNetwork(input string) (Network, error) {
	network := Network(strings.ToLower(strings.TrimSpace(input)))
	if _, ok := networks[network]; !ok {
		return "", fmt.Errorf("Unknown network %s", input)
	}
	return network, nil
}

func NewNetworkConfig(network Network) (NetworkConfig, error) {
	conf, ok := networks[network]
	if !ok {
		return NetworkConfig{}, fmt.Errorf("Unknown network %s", network)
	}
	return conf, nil
}

// ComputeForkVersion returns the version of the latest fork active at epoch.
// Epochs before the first known fork have no version.
func (n NetworkConfig) ComputeForkVersion(epoch uint64) ([4]byte, bool) {
	fork, ok := n.ForkAtEpoch(epoch)
	return fork.Version, ok
}

func (n NetworkConfig) ForkAtEpoch(epoch uint64) (Fork, bool) {
	for i := len(n.Forks) - 1; i >= 0; i-- {
		if epoch >= n.Forks[i].Epoch {
			return n.Forks[i], true
		}
	}
	return Fork{}, false
}

// ExecutionPayloadProofSize returns the depth of block_hash inside the
// execution payload of a block at slot. Deneb grew the payload past 16
// fields.
func (n NetworkConfig) ExecutionPayloadProofSize(slot uint64) uint64 {
	fork, ok := n.ForkAtEpoch(slot / n.Spec.SlotsInEpoch)
	if ok && fork.Name == Deneb {
		return merkle.DenebExecutionPayloadProofSize
	}
	return merkle.ExecutionPayloadProofSize
}

func (n NetworkConfig) ComputeForkVersionBySlot(slot uint64) ([4]byte, bool) {
	return n.ComputeForkVersion(slot / n.Spec.SlotsInEpoch)
}
