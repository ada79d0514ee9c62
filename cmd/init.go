package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	beaconjson "github.com/snowfork/ethereum-light-client/beacon/json"
	"github.com/snowfork/ethereum-light-client/beacon/state"
	"github.com/snowfork/ethereum-light-client/cmd/host"
	"github.com/snowfork/ethereum-light-client/lightclient"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Initialize the light client from a trusted checkpoint",
		Args:    cobra.ExactArgs(0),
		Example: "eth-lightclient init --caller admin.near --input init.json",
		RunE:    initFn,
	}

	cmd.Flags().String("input", "", "JSON file with the init arguments")
	cmd.MarkFlagRequired("input")

	return cmd
}

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe all client state and initialize again (admin only)",
		Args:  cobra.ExactArgs(0),
		RunE:  resetFn,
	}

	cmd.Flags().String("input", "", "JSON file with the init arguments")
	cmd.MarkFlagRequired("input")

	return cmd
}

func readInitInput(cmd *cobra.Command) (lightclient.InitInput, error) {
	path, err := cmd.Flags().GetString("input")
	if err != nil {
		return lightclient.InitInput{}, err
	}

	var input beaconjson.InitInput
	if err := host.ReadJSONFile(path, &input); err != nil {
		return lightclient.InitInput{}, err
	}
	return input.ToState()
}

func initFn(cmd *cobra.Command, _ []string) error {
	return withCaller(func(h *host.Host, caller state.Account) error {
		args, err := readInitInput(cmd)
		if err != nil {
			return err
		}
		if err := h.Contract.Init(caller, args); err != nil {
			return err
		}
		log.WithField("network", args.Network).Info("Initialized light client")
		return nil
	})
}

func resetFn(cmd *cobra.Command, _ []string) error {
	return withCaller(func(h *host.Host, caller state.Account) error {
		args, err := readInitInput(cmd)
		if err != nil {
			return err
		}
		if err := h.Contract.Reset(caller, args); err != nil {
			return err
		}
		log.WithField("network", args.Network).Info("Reset light client")
		return nil
	})
}
