package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	beaconjson "github.com/snowfork/ethereum-light-client/beacon/json"
	"github.com/snowfork/ethereum-light-client/chain/ethereum"
	"github.com/snowfork/ethereum-light-client/cmd/host"
)

func verifyLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-log",
		Short: "Check that a log entry was emitted by a finalized execution block",
		Args:  cobra.ExactArgs(0),
		RunE:  verifyLogFn,
	}

	cmd.Flags().String("request", "", "JSON file with the log entry proof, as written by prove-log")
	cmd.MarkFlagRequired("request")

	return cmd
}

func verifyLogFn(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("request")
	if err != nil {
		return err
	}

	var request beaconjson.VerifyLogEntryRequest
	if err := host.ReadJSONFile(path, &request); err != nil {
		return err
	}
	req, err := request.ToState()
	if err != nil {
		return err
	}

	return withHost(func(h *host.Host) error {
		valid, err := h.Contract.VerifyLogEntry(req)
		if err != nil {
			return err
		}
		return host.PrintJSON(valid)
	})
}

func proveLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prove-log",
		Short:   "Fetch a receipt proof for a transaction log from an execution node",
		Args:    cobra.ExactArgs(0),
		Example: "eth-lightclient prove-log --endpoint ws://localhost:8546 --tx 0x... --log-index 0 > request.json",
		RunE:    proveLogFn,
	}

	cmd.Flags().String("endpoint", "ws://localhost:8546", "Execution node endpoint")
	cmd.Flags().String("tx", "", "Transaction hash")
	cmd.MarkFlagRequired("tx")
	cmd.Flags().Uint64("log-index", 0, "Index of the log within the transaction receipt")
	cmd.Flags().Duration("timeout", 30*time.Second, "Timeout for the node requests")

	return cmd
}

func proveLogFn(cmd *cobra.Command, _ []string) error {
	endpoint, _ := cmd.Flags().GetString("endpoint")
	txHex, _ := cmd.Flags().GetString("tx")
	logIndex, _ := cmd.Flags().GetUint64("log-index")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if len(common.FromHex(txHex)) != common.HashLength {
		return fmt.Errorf("invalid transaction hash %q", txHex)
	}
	txHash := common.HexToHash(txHex)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	conn := ethereum.NewConnection(endpoint)
	if err := conn.Connect(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", endpoint, err)
	}
	defer conn.Close()

	req, err := conn.MakeLogEntryRequest(ctx, txHash, logIndex)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"tx":           txHash.Hex(),
		"receiptIndex": req.ReceiptIndex,
		"logIndex":     req.LogIndex,
		"proofNodes":   len(req.Proof),
	}).Info("Built log entry proof")

	return host.PrintJSON(beaconjson.NewVerifyLogEntryRequest(req))
}
