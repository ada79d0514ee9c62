package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	beaconjson "github.com/snowfork/ethereum-light-client/beacon/json"
	"github.com/snowfork/ethereum-light-client/beacon/state"
	"github.com/snowfork/ethereum-light-client/cmd/host"
	"github.com/snowfork/ethereum-light-client/lightclient"
)

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register the caller as an execution header submitter",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			return withCaller(func(h *host.Host, caller state.Account) error {
				return h.Contract.RegisterSubmitter(caller)
			})
		},
	}
}

func unregisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unregister",
		Short: "Unregister the caller once all its headers are finalized",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			return withCaller(func(h *host.Host, caller state.Account) error {
				return h.Contract.UnregisterSubmitter(caller)
			})
		},
	}
}

func submitHeaderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "submit-header",
		Short:   "Submit an RLP encoded execution header",
		Args:    cobra.ExactArgs(0),
		Example: "eth-lightclient submit-header --caller relayer.near --header 0xf90211...",
		RunE:    submitHeaderFn,
	}

	cmd.Flags().String("header", "", "RLP hex of the header, or a file containing it")
	cmd.MarkFlagRequired("header")

	return cmd
}

func submitHeaderFn(cmd *cobra.Command, _ []string) error {
	value, err := cmd.Flags().GetString("header")
	if err != nil {
		return err
	}
	header, err := readHeader(value)
	if err != nil {
		return err
	}

	return withCaller(func(h *host.Host, caller state.Account) error {
		if err := h.Contract.SubmitExecutionHeader(caller, header); err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"number": header.Number,
			"hash":   header.Hash().Hex(),
		}).Info("Submitted execution header")
		return nil
	})
}

func submitUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit-update",
		Short: "Submit a beacon chain light client update",
		Args:  cobra.ExactArgs(0),
		RunE:  submitUpdateFn,
	}

	cmd.Flags().String("update", "", "JSON file with the light client update")
	cmd.MarkFlagRequired("update")

	return cmd
}

func submitUpdateFn(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("update")
	if err != nil {
		return err
	}

	var update beaconjson.Update
	if err := host.ReadJSONFile(path, &update); err != nil {
		return err
	}
	lcUpdate, err := update.ToState()
	if err != nil {
		return err
	}

	return withCaller(func(h *host.Host, caller state.Account) error {
		if err := h.Contract.SubmitBeaconChainLightClientUpdate(caller, lcUpdate); err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"slot":      lcUpdate.FinalityUpdate.HeaderUpdate.BeaconHeader.Slot,
			"blockHash": lcUpdate.FinalityUpdate.HeaderUpdate.ExecutionBlockHash.Hex(),
		}).Info("Submitted light client update")
		return nil
	})
}

func updateTrustedSignerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-trusted-signer",
		Short: "Set the trusted signer, or switch to trustless mode without --signer",
		Args:  cobra.ExactArgs(0),
		RunE:  updateTrustedSignerFn,
	}

	cmd.Flags().String("signer", "", "New trusted signer account")

	return cmd
}

func updateTrustedSignerFn(cmd *cobra.Command, _ []string) error {
	signer, err := cmd.Flags().GetString("signer")
	if err != nil {
		return err
	}

	return withCaller(func(h *host.Host, caller state.Account) error {
		return h.Contract.UpdateTrustedSigner(caller, beaconjson.ParseAccount(signer))
	})
}

func pauseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pause",
		Short: "Set the paused operations mask (admin only)",
		Args:  cobra.ExactArgs(0),
		RunE:  pauseFn,
	}

	cmd.Flags().Uint8("mask", uint8(lightclient.PausedSubmitUpdate), "Mask of paused operations, 0 resumes everything")

	return cmd
}

func pauseFn(cmd *cobra.Command, _ []string) error {
	mask, err := cmd.Flags().GetUint8("mask")
	if err != nil {
		return err
	}

	return withCaller(func(h *host.Host, caller state.Account) error {
		return h.Contract.SetPaused(caller, lightclient.Mask(mask))
	})
}
