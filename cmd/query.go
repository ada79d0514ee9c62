package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	beaconjson "github.com/snowfork/ethereum-light-client/beacon/json"
	"github.com/snowfork/ethereum-light-client/beacon/state"
	"github.com/snowfork/ethereum-light-client/cmd/host"
	"github.com/snowfork/ethereum-light-client/lightclient"
)

type queryFunc func(c *lightclient.Contract, arg string) (interface{}, error)

type finalizedBlock struct {
	Number uint64 `json:"number"`
	Hash   string `json:"hash"`
}

var queries = map[string]struct {
	withArg bool
	run     queryFunc
}{
	"last-block-number": {run: func(c *lightclient.Contract, _ string) (interface{}, error) {
		return c.LastBlockNumber()
	}},
	"block-hash-safe": {withArg: true, run: func(c *lightclient.Contract, arg string) (interface{}, error) {
		number, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse block number: %w", err)
		}
		hash, ok, err := c.BlockHashSafe(number)
		if err != nil || !ok {
			return nil, err
		}
		return hash.Hex(), nil
	}},
	"is-known-execution-header": {withArg: true, run: func(c *lightclient.Contract, arg string) (interface{}, error) {
		hash, err := beaconjson.ParseHash(arg)
		if err != nil {
			return nil, err
		}
		return c.IsKnownExecutionHeader(hash)
	}},
	"finalized-beacon-block-root": {run: func(c *lightclient.Contract, _ string) (interface{}, error) {
		root, err := c.FinalizedBeaconBlockRoot()
		if err != nil {
			return nil, err
		}
		return root.Hex(), nil
	}},
	"finalized-beacon-block-slot": {run: func(c *lightclient.Contract, _ string) (interface{}, error) {
		return c.FinalizedBeaconBlockSlot()
	}},
	"finalized-beacon-block-header": {run: func(c *lightclient.Contract, _ string) (interface{}, error) {
		header, err := c.FinalizedBeaconBlockHeader()
		if err != nil {
			return nil, err
		}
		return beaconjson.NewExtendedBeaconHeader(header), nil
	}},
	"light-client-state": {run: func(c *lightclient.Contract, _ string) (interface{}, error) {
		lcState, err := c.GetLightClientState()
		if err != nil {
			return nil, err
		}
		return beaconjson.NewLightClientState(lcState), nil
	}},
	"is-submitter-registered": {withArg: true, run: func(c *lightclient.Contract, arg string) (interface{}, error) {
		return c.IsSubmitterRegistered(state.Account(arg))
	}},
	"num-of-submitted-blocks": {withArg: true, run: func(c *lightclient.Contract, arg string) (interface{}, error) {
		return c.GetNumOfSubmittedBlocksByAccount(state.Account(arg))
	}},
	"max-submitted-blocks": {run: func(c *lightclient.Contract, _ string) (interface{}, error) {
		return c.GetMaxSubmittedBlocksByAccount()
	}},
	"trusted-signer": {run: func(c *lightclient.Contract, _ string) (interface{}, error) {
		return c.GetTrustedSigner()
	}},
	"settings": {run: func(c *lightclient.Contract, _ string) (interface{}, error) {
		return c.Settings()
	}},
	"paused": {run: func(c *lightclient.Contract, _ string) (interface{}, error) {
		return c.GetPaused()
	}},
	"initialized": {run: func(c *lightclient.Contract, _ string) (interface{}, error) {
		return c.IsInitialized()
	}},
	"finalized-blocks": {run: func(c *lightclient.Contract, _ string) (interface{}, error) {
		blocks, err := c.FinalizedBlocks()
		if err != nil {
			return nil, err
		}
		result := make([]finalizedBlock, 0, len(blocks))
		for _, block := range blocks {
			result = append(result, finalizedBlock{Number: block.Number, Hash: block.Hash.Hex()})
		}
		return result, nil
	}},
}

func queryNames() []string {
	names := make([]string, 0, len(queries))
	for name := range queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runQuery(c *lightclient.Contract, args []string) (interface{}, error) {
	q, ok := queries[args[0]]
	if !ok {
		return nil, fmt.Errorf("unknown query %q, expected one of %s", args[0], strings.Join(queryNames(), ", "))
	}
	if q.withArg != (len(args) == 2) {
		if q.withArg {
			return nil, fmt.Errorf("query %s takes one argument", args[0])
		}
		return nil, fmt.Errorf("query %s takes no arguments", args[0])
	}

	var arg string
	if q.withArg {
		arg = args[1]
	}
	return q.run(c, arg)
}

func queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "query <name> [arg]",
		Short:     "Run a read-only query and print the result as JSON",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: queryNames(),
		Example:   "eth-lightclient query block-hash-safe 17000000",
		RunE: func(_ *cobra.Command, args []string) error {
			return withHost(func(h *host.Host) error {
				result, err := runQuery(h.Contract, args)
				if err != nil {
					return err
				}
				return host.PrintJSON(result)
			})
		},
	}
}
