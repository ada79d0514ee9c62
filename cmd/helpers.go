package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/snowfork/ethereum-light-client/beacon/state"
	"github.com/snowfork/ethereum-light-client/beacon/util"
	"github.com/snowfork/ethereum-light-client/chain/ethereum"
	"github.com/snowfork/ethereum-light-client/cmd/host"
)

func withHost(fn func(h *host.Host) error) error {
	h, err := host.Open(configFile, caller, logLevel)
	if err != nil {
		return err
	}
	defer h.Close()

	return fn(h)
}

func withCaller(fn func(h *host.Host, caller state.Account) error) error {
	return withHost(func(h *host.Host) error {
		caller, err := h.Caller()
		if err != nil {
			return err
		}
		return fn(h, caller)
	})
}

// readHexArg accepts either 0x prefixed hex or the path of a file holding
// it.
func readHexArg(value string) ([]byte, error) {
	if !strings.HasPrefix(value, "0x") {
		contents, err := os.ReadFile(value)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", value, err)
		}
		value = strings.TrimSpace(string(contents))
	}
	return util.HexStringToByteArray(value)
}

func readHeader(value string) (*types.Header, error) {
	data, err := readHexArg(value)
	if err != nil {
		return nil, err
	}
	return ethereum.DecodeHeader(data)
}
