package run

import (
	"github.com/spf13/cobra"

	"github.com/snowfork/ethereum-light-client/cmd/run/replay"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a long running light client service",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.AddCommand(replay.Command())

	return cmd
}
