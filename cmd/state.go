package cmd

import (
	"fmt"

	"github.com/cbroglie/mustache"
	"github.com/spf13/cobra"

	beaconjson "github.com/snowfork/ethereum-light-client/beacon/json"
	"github.com/snowfork/ethereum-light-client/cmd/host"
	"github.com/snowfork/ethereum-light-client/lightclient"
)

const defaultStateTemplate = `network:              {{Network}}
finalized slot:       {{FinalizedSlot}}
finalized root:       {{FinalizedRoot}}
finalized block:      {{LastBlockNumber}} {{FinalizedBlockHash}}
validate updates:     {{ValidateUpdates}}
verify signatures:    {{VerifyBLSSignatures}}
trusted signer:       {{#TrustedSigner}}{{TrustedSigner}}{{/TrustedSigner}}{{^TrustedSigner}}none{{/TrustedSigner}}
paused mask:          {{Paused}}
max blocks/account:   {{MaxSubmittedBlocks}}
finalized hashes:
{{#FinalizedBlocks}}
  {{number}} {{hash}}
{{/FinalizedBlocks}}
`

type stateView struct {
	Network             string
	FinalizedSlot       uint64
	FinalizedRoot       string
	FinalizedBlockHash  string
	LastBlockNumber     uint64
	ValidateUpdates     bool
	VerifyBLSSignatures bool
	TrustedSigner       string
	Paused              uint8
	MaxSubmittedBlocks  uint32
	FinalizedBlocks     []map[string]interface{}
}

func loadStateView(c *lightclient.Contract) (*stateView, error) {
	settings, err := c.Settings()
	if err != nil {
		return nil, err
	}
	lcState, err := c.GetLightClientState()
	if err != nil {
		return nil, err
	}
	last, err := c.LastBlockNumber()
	if err != nil {
		return nil, err
	}
	blocks, err := c.FinalizedBlocks()
	if err != nil {
		return nil, err
	}

	finalized := beaconjson.NewExtendedBeaconHeader(lcState.FinalizedBeaconHeader)
	view := &stateView{
		Network:             settings.Network,
		FinalizedSlot:       finalized.Header.Slot,
		FinalizedRoot:       finalized.BeaconBlockRoot,
		FinalizedBlockHash:  finalized.ExecutionBlockHash,
		LastBlockNumber:     last,
		ValidateUpdates:     settings.ValidateUpdates,
		VerifyBLSSignatures: settings.VerifyBLSSignatures,
		Paused:              uint8(settings.Paused),
		MaxSubmittedBlocks:  settings.MaxSubmittedBlocksByAccount,
	}
	if settings.TrustedSigner != nil {
		view.TrustedSigner = string(*settings.TrustedSigner)
	}
	for _, block := range blocks {
		view.FinalizedBlocks = append(view.FinalizedBlocks, map[string]interface{}{
			"number": block.Number,
			"hash":   block.Hash.Hex(),
		})
	}
	return view, nil
}

func renderState(view *stateView, templateFile string) (string, error) {
	if templateFile != "" {
		return mustache.RenderFile(templateFile, view)
	}
	return mustache.Render(defaultStateTemplate, view)
}

func stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print a summary of the light client state",
		Args:  cobra.ExactArgs(0),
		RunE:  stateFn,
	}

	cmd.Flags().String("template", "", "Mustache template to render the state with")

	return cmd
}

func stateFn(cmd *cobra.Command, _ []string) error {
	templateFile, err := cmd.Flags().GetString("template")
	if err != nil {
		return err
	}

	return withHost(func(h *host.Host) error {
		view, err := loadStateView(h.Contract)
		if err != nil {
			return err
		}
		rendered, err := renderState(view, templateFile)
		if err != nil {
			return fmt.Errorf("render state: %w", err)
		}
		fmt.Print(rendered)
		return nil
	})
}
