package replay

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	beaconjson "github.com/snowfork/ethereum-light-client/beacon/json"
	"github.com/snowfork/ethereum-light-client/beacon/state"
	"github.com/snowfork/ethereum-light-client/beacon/util"
	"github.com/snowfork/ethereum-light-client/chain/ethereum"
	"github.com/snowfork/ethereum-light-client/lightclient"
)

const (
	OpInit                = "init"
	OpReset               = "reset"
	OpRegisterSubmitter   = "register_submitter"
	OpUnregisterSubmitter = "unregister_submitter"
	OpSubmitHeader        = "submit_execution_header"
	OpSubmitUpdate        = "submit_beacon_chain_light_client_update"
	OpUpdateTrustedSigner = "update_trusted_signer"
	OpSetPaused           = "set_paused"
)

var ErrMalformedMessage = errors.New("malformed message")

type Result struct {
	Applied  int `json:"applied"`
	Rejected int `json:"rejected"`
}

// Apply runs the messages against the contract in order. A rejected message
// is counted and skipped. Malformed messages, storage failures and
// invariant violations stop the replay.
func Apply(ctx context.Context, contract *lightclient.Contract, messages []beaconjson.Message) (Result, error) {
	var result Result

	for i, msg := range messages {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		logger := log.WithFields(log.Fields{
			"index":  i,
			"op":     msg.Op,
			"caller": msg.Caller,
		})

		err := applyMessage(contract, msg)
		switch {
		case err == nil:
			result.Applied++
			logger.Debug("Applied message")
		case errors.Is(err, ErrMalformedMessage):
			return result, fmt.Errorf("message %d: %w", i, err)
		case lightclient.IsInvariant(err), lightclient.KindOf(err) == lightclient.Storage:
			return result, fmt.Errorf("message %d: %w", i, err)
		default:
			result.Rejected++
			logger.WithField("kind", lightclient.KindOf(err)).WithError(err).Warn("Message rejected")
		}
	}

	return result, nil
}

func applyMessage(contract *lightclient.Contract, msg beaconjson.Message) error {
	caller := state.Account(msg.Caller)

	switch msg.Op {
	case OpInit, OpReset:
		if msg.Init == nil {
			return fmt.Errorf("%w: %s without init arguments", ErrMalformedMessage, msg.Op)
		}
		args, err := msg.Init.ToState()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if msg.Op == OpReset {
			return contract.Reset(caller, args)
		}
		return contract.Init(caller, args)
	case OpRegisterSubmitter:
		return contract.RegisterSubmitter(caller)
	case OpUnregisterSubmitter:
		return contract.UnregisterSubmitter(caller)
	case OpSubmitHeader:
		data, err := util.HexStringToByteArray(msg.Header)
		if err != nil {
			return fmt.Errorf("%w: header: %v", ErrMalformedMessage, err)
		}
		header, err := ethereum.DecodeHeader(data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		return contract.SubmitExecutionHeader(caller, header)
	case OpSubmitUpdate:
		if msg.Update == nil {
			return fmt.Errorf("%w: %s without update", ErrMalformedMessage, msg.Op)
		}
		update, err := msg.Update.ToState()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		return contract.SubmitBeaconChainLightClientUpdate(caller, update)
	case OpUpdateTrustedSigner:
		var signer *state.Account
		if msg.Signer != nil {
			signer = beaconjson.ParseAccount(*msg.Signer)
		}
		return contract.UpdateTrustedSigner(caller, signer)
	case OpSetPaused:
		return contract.SetPaused(caller, lightclient.Mask(msg.Mask))
	default:
		return fmt.Errorf("%w: unknown op %q", ErrMalformedMessage, msg.Op)
	}
}
