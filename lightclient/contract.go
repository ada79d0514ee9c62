package lightclient

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	log "github.com/sirupsen/logrus"

	"github.com/snowfork/ethereum-light-client/beacon/config"
	"github.com/snowfork/ethereum-light-client/beacon/state"
	"github.com/snowfork/ethereum-light-client/chain/ethereum"
	"github.com/snowfork/ethereum-light-client/crypto/bls"
	"github.com/snowfork/ethereum-light-client/store"
)

type InitInput struct {
	Network                     string
	FinalizedExecutionHeader    *types.Header
	FinalizedBeaconHeader       state.ExtendedBeaconBlockHeader
	CurrentSyncCommittee        state.SyncCommittee
	NextSyncCommittee           state.SyncCommittee
	ValidateUpdates             bool
	VerifyBLSSignatures         bool
	HashesGCThreshold           uint64
	MaxSubmittedBlocksByAccount uint32
	TrustedSigner               *state.Account
}

// FinalizedBlock is one entry of the finalized execution block index.
type FinalizedBlock struct {
	Number uint64
	Hash   common.Hash
}

type Option func(*Contract)

func WithVerifier(verifier *bls.Verifier) Option {
	return func(c *Contract) {
		c.engine.verifier = verifier
	}
}

// Contract exposes the light client operations over a database. Each
// mutating call runs in its own transaction which is committed only when the
// call succeeds.
type Contract struct {
	mu     sync.RWMutex
	db     store.Database
	engine updateEngine
}

func New(db store.Database, opts ...Option) (*Contract, error) {
	c := &Contract{db: db}
	for _, opt := range opts {
		opt(c)
	}

	if c.engine.verifier == nil {
		verifier, err := bls.NewVerifier(bls.DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		c.engine.verifier = verifier
	}

	return c, nil
}

func (c *Contract) execute(op string, fn func(cs *ConsensusState) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	txn := store.NewTxn(c.db)
	defer txn.Discard()

	if err := fn(NewConsensusState(txn)); err != nil {
		logRejection(op, err)
		return err
	}

	if err := txn.Commit(); err != nil {
		return storageError(err, "commit "+op)
	}
	return nil
}

func (c *Contract) query(fn func(cs *ConsensusState) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return fn(NewConsensusState(c.db))
}

func logRejection(op string, err error) {
	fields := log.Fields{
		"op":   op,
		"kind": KindOf(err),
	}
	if IsInvariant(err) {
		log.WithFields(fields).WithError(err).Error("Invariant violated")
		return
	}
	log.WithFields(fields).WithError(err).Debug("Call rejected")
}

func validateInitInput(caller state.Account, args *InitInput) (*NonMappedState, error) {
	network, err := config.ParseNetwork(args.Network)
	if err != nil {
		return nil, wrapError(InvalidInitInput, err, "Unknown network %s", args.Network)
	}

	if network == config.Mainnet {
		if !args.ValidateUpdates {
			return nil, newError(InvalidInitInput, "The updates validation can't be disabled for mainnet")
		}
		if !args.VerifyBLSSignatures && args.TrustedSigner == nil {
			return nil, newError(InvalidInitInput, "The client can't be executed in the trustless mode without BLS sigs verification on Mainnet")
		}
	}

	number, err := headerNumber(args.FinalizedExecutionHeader)
	if err != nil {
		return nil, err
	}
	if args.FinalizedExecutionHeader.Hash() != args.FinalizedBeaconHeader.ExecutionBlockHash {
		return nil, newError(InvalidExecutionProof, "Invalid execution block")
	}

	root, err := args.FinalizedBeaconHeader.Header.HashTreeRoot()
	if err != nil {
		return nil, wrapError(InvalidInitInput, err, "Invalid finalized beacon header: %v", err)
	}
	if common.Hash(root) != args.FinalizedBeaconHeader.BeaconBlockRoot {
		return nil, newError(InvalidInitInput, "The beacon block root does not match the finalized beacon header")
	}

	if n := len(args.CurrentSyncCommittee.PubKeys); n != state.SyncCommitteeSize {
		return nil, newError(InvalidInitInput, "The current sync committee has %d public keys, expected %d", n, state.SyncCommitteeSize)
	}
	if n := len(args.NextSyncCommittee.PubKeys); n != state.SyncCommitteeSize {
		return nil, newError(InvalidInitInput, "The next sync committee has %d public keys, expected %d", n, state.SyncCommitteeSize)
	}

	if args.HashesGCThreshold == 0 {
		return nil, newError(InvalidInitInput, "The hashes gc threshold must be positive")
	}
	if args.MaxSubmittedBlocksByAccount == 0 {
		return nil, newError(InvalidInitInput, "The max submitted blocks by account must be positive")
	}

	current := args.CurrentSyncCommittee
	next := args.NextSyncCommittee

	return &NonMappedState{
		Admin:                       caller,
		TrustedSigner:               args.TrustedSigner,
		ValidateUpdates:             args.ValidateUpdates,
		VerifyBLSSignatures:         args.VerifyBLSSignatures,
		HashesGCThreshold:           args.HashesGCThreshold,
		Network:                     network,
		MaxSubmittedBlocksByAccount: args.MaxSubmittedBlocksByAccount,
		FinalizedBeaconHeader:       args.FinalizedBeaconHeader,
		FinalizedExecutionHeader: &state.ExecutionHeaderInfo{
			ParentHash:  args.FinalizedExecutionHeader.ParentHash,
			BlockNumber: number,
			Submitter:   caller,
		},
		CurrentSyncCommittee: &current,
		NextSyncCommittee:    &next,
	}, nil
}

func initialize(cs *ConsensusState, caller state.Account, args *InitInput) error {
	nm, err := validateInitInput(caller, args)
	if err != nil {
		return err
	}

	if err := cs.SaveNonMapped(nm); err != nil {
		return err
	}

	// Blocks up to the trusted one never enter the finalized index.
	if err := cs.SetGCCursor(nm.FinalizedExecutionHeader.BlockNumber + 1); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"network":   nm.Network,
		"slot":      nm.FinalizedBeaconHeader.Header.Slot,
		"blockHash": nm.FinalizedBeaconHeader.ExecutionBlockHash.Hex(),
		"admin":     caller,
	}).Info("Light client initialized")

	return nil
}

func (c *Contract) Init(caller state.Account, args InitInput) error {
	return c.execute("init", func(cs *ConsensusState) error {
		initialized, err := cs.IsInitialized()
		if err != nil {
			return err
		}
		if initialized {
			return newError(AlreadyInitialized, "The client is already initialized")
		}
		return initialize(cs, caller, &args)
	})
}

// Reset wipes every record and initializes the client again. Only the admin
// may reset.
func (c *Contract) Reset(caller state.Account, args InitInput) error {
	return c.execute("reset", func(cs *ConsensusState) error {
		nm, err := cs.NonMapped()
		if err != nil {
			return err
		}
		if caller != nm.Admin {
			return newError(Unauthorized, "Only the admin can reset the client")
		}
		if err := cs.Clear(); err != nil {
			return err
		}
		return initialize(cs, caller, &args)
	})
}

func (c *Contract) RegisterSubmitter(caller state.Account) error {
	return c.execute("register_submitter", func(cs *ConsensusState) error {
		if _, err := cs.NonMapped(); err != nil {
			return err
		}
		return registerSubmitter(cs, caller)
	})
}

func (c *Contract) UnregisterSubmitter(caller state.Account) error {
	return c.execute("unregister_submitter", func(cs *ConsensusState) error {
		if _, err := cs.NonMapped(); err != nil {
			return err
		}
		return unregisterSubmitter(cs, caller)
	})
}

func (c *Contract) SubmitExecutionHeader(caller state.Account, header *types.Header) error {
	return c.execute("submit_execution_header", func(cs *ConsensusState) error {
		return submitExecutionHeader(cs, caller, header)
	})
}

func (c *Contract) SubmitBeaconChainLightClientUpdate(caller state.Account, update *state.LightClientUpdate) error {
	return c.execute("submit_beacon_chain_light_client_update", func(cs *ConsensusState) error {
		if update == nil {
			return newError(InvalidArgument, "The light client update is missing")
		}
		return c.engine.submit(cs, caller, update)
	})
}

// UpdateTrustedSigner replaces the trusted signer; nil switches the client to
// trustless mode. The admin and the current trusted signer may call it.
func (c *Contract) UpdateTrustedSigner(caller state.Account, signer *state.Account) error {
	return c.execute("update_trusted_signer", func(cs *ConsensusState) error {
		nm, err := cs.NonMapped()
		if err != nil {
			return err
		}

		allowed := caller == nm.Admin || (nm.TrustedSigner != nil && *nm.TrustedSigner == caller)
		if !allowed {
			return newError(Unauthorized, "Only the admin or the trusted signer can update the trusted signer")
		}

		if signer != nil {
			s := *signer
			nm.TrustedSigner = &s
		} else {
			nm.TrustedSigner = nil
		}
		return cs.SaveNonMapped(nm)
	})
}

func (c *Contract) SetPaused(caller state.Account, mask Mask) error {
	return c.execute("set_paused", func(cs *ConsensusState) error {
		nm, err := cs.NonMapped()
		if err != nil {
			return err
		}
		if caller != nm.Admin {
			return newError(Unauthorized, "Only the admin can change the paused flags")
		}
		nm.Paused = mask
		return cs.SaveNonMapped(nm)
	})
}

func (c *Contract) GetPaused() (mask Mask, err error) {
	err = c.query(func(cs *ConsensusState) error {
		nm, err := cs.NonMapped()
		if err != nil {
			return err
		}
		mask = nm.Paused
		return nil
	})
	return
}

func (c *Contract) IsInitialized() (initialized bool, err error) {
	err = c.query(func(cs *ConsensusState) error {
		initialized, err = cs.IsInitialized()
		return err
	})
	return
}

// Settings is the configuration a client was initialized with together with
// its current admin controlled flags.
type Settings struct {
	Admin                       state.Account
	Network                     string
	ValidateUpdates             bool
	VerifyBLSSignatures         bool
	HashesGCThreshold           uint64
	MaxSubmittedBlocksByAccount uint32
	TrustedSigner               *state.Account
	Paused                      Mask
}

func (c *Contract) Settings() (Settings, error) {
	nm, err := c.nonMapped()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Admin:                       nm.Admin,
		Network:                     string(nm.Network),
		ValidateUpdates:             nm.ValidateUpdates,
		VerifyBLSSignatures:         nm.VerifyBLSSignatures,
		HashesGCThreshold:           nm.HashesGCThreshold,
		MaxSubmittedBlocksByAccount: nm.MaxSubmittedBlocksByAccount,
		TrustedSigner:               nm.TrustedSigner,
		Paused:                      nm.Paused,
	}, nil
}

// nonMapped loads the singleton record for a query.
func (c *Contract) nonMapped() (nm *NonMappedState, err error) {
	err = c.query(func(cs *ConsensusState) error {
		nm, err = cs.NonMapped()
		return err
	})
	return
}

// LastBlockNumber returns the number of the finalized execution block.
func (c *Contract) LastBlockNumber() (uint64, error) {
	nm, err := c.nonMapped()
	if err != nil {
		return 0, err
	}
	if nm.FinalizedExecutionHeader == nil {
		return 0, newInvariant(UnknownExecutionBlockHash, "no finalized execution header stored")
	}
	return nm.FinalizedExecutionHeader.BlockNumber, nil
}

// BlockHashSafe returns the finalized block hash at number, if it is still
// inside the retained window.
func (c *Contract) BlockHashSafe(number uint64) (hash common.Hash, ok bool, err error) {
	err = c.query(func(cs *ConsensusState) error {
		if _, err := cs.NonMapped(); err != nil {
			return err
		}
		hash, ok, err = cs.FinalizedBlockHash(number)
		return err
	})
	return
}

// IsKnownExecutionHeader reports whether hash is a submitted header that is
// not finalized yet.
func (c *Contract) IsKnownExecutionHeader(hash common.Hash) (known bool, err error) {
	err = c.query(func(cs *ConsensusState) error {
		if _, err := cs.NonMapped(); err != nil {
			return err
		}
		known, err = cs.HasUnfinalizedHeader(hash)
		return err
	})
	return
}

func (c *Contract) FinalizedBeaconBlockRoot() (common.Hash, error) {
	nm, err := c.nonMapped()
	if err != nil {
		return common.Hash{}, err
	}
	return nm.FinalizedBeaconHeader.BeaconBlockRoot, nil
}

func (c *Contract) FinalizedBeaconBlockSlot() (uint64, error) {
	nm, err := c.nonMapped()
	if err != nil {
		return 0, err
	}
	return nm.FinalizedBeaconHeader.Header.Slot, nil
}

func (c *Contract) FinalizedBeaconBlockHeader() (state.ExtendedBeaconBlockHeader, error) {
	nm, err := c.nonMapped()
	if err != nil {
		return state.ExtendedBeaconBlockHeader{}, err
	}
	return nm.FinalizedBeaconHeader, nil
}

func (c *Contract) GetLightClientState() (state.LightClientState, error) {
	nm, err := c.nonMapped()
	if err != nil {
		return state.LightClientState{}, err
	}
	if nm.CurrentSyncCommittee == nil || nm.NextSyncCommittee == nil {
		return state.LightClientState{}, newInvariant(MissingSyncCommitteeUpdate, "sync committees missing after initialization")
	}
	return state.LightClientState{
		FinalizedBeaconHeader: nm.FinalizedBeaconHeader,
		CurrentSyncCommittee:  *nm.CurrentSyncCommittee,
		NextSyncCommittee:     *nm.NextSyncCommittee,
	}, nil
}

func (c *Contract) IsSubmitterRegistered(account state.Account) (registered bool, err error) {
	err = c.query(func(cs *ConsensusState) error {
		if _, err := cs.NonMapped(); err != nil {
			return err
		}
		_, registered, err = cs.Submitter(account)
		return err
	})
	return
}

func (c *Contract) GetNumOfSubmittedBlocksByAccount(account state.Account) (count uint32, err error) {
	err = c.query(func(cs *ConsensusState) error {
		if _, err := cs.NonMapped(); err != nil {
			return err
		}
		var registered bool
		count, registered, err = cs.Submitter(account)
		if err != nil {
			return err
		}
		if !registered {
			return newError(NotRegistered, "The account is not registered")
		}
		return nil
	})
	return
}

func (c *Contract) GetMaxSubmittedBlocksByAccount() (uint32, error) {
	nm, err := c.nonMapped()
	if err != nil {
		return 0, err
	}
	return nm.MaxSubmittedBlocksByAccount, nil
}

func (c *Contract) GetTrustedSigner() (*state.Account, error) {
	nm, err := c.nonMapped()
	if err != nil {
		return nil, err
	}
	return nm.TrustedSigner, nil
}

// FinalizedBlocks returns the finalized execution block index in ascending
// order.
func (c *Contract) FinalizedBlocks() (blocks []FinalizedBlock, err error) {
	err = c.query(func(cs *ConsensusState) error {
		if _, err := cs.NonMapped(); err != nil {
			return err
		}
		return cs.FinalizedBlocks(func(number uint64, hash common.Hash) bool {
			blocks = append(blocks, FinalizedBlock{Number: number, Hash: hash})
			return true
		})
	})
	return
}

// VerifyLogEntry reports whether the log in req was emitted by a finalized
// block. A malformed or unproven request is reported as false, the error is
// reserved for storage failures and an uninitialized client.
func (c *Contract) VerifyLogEntry(req *ethereum.VerifyLogEntryRequest) (valid bool, err error) {
	err = c.query(func(cs *ConsensusState) error {
		if _, err := cs.NonMapped(); err != nil {
			return err
		}
		valid, err = ethereum.VerifyLogEntry(req, cs.FinalizedBlockHash)
		return err
	})
	return
}
