// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/snowfork/ethereum-light-client/cmd/run"
)

var (
	configFile string
	caller     string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:          "eth-lightclient",
	Short:        "Ethereum beacon light client",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&caller, "caller", "", "Account the call is made from, overrides the configured caller")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level, overrides the configured level")

	rootCmd.AddCommand(run.Command())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(registerCmd())
	rootCmd.AddCommand(unregisterCmd())
	rootCmd.AddCommand(submitHeaderCmd())
	rootCmd.AddCommand(submitUpdateCmd())
	rootCmd.AddCommand(updateTrustedSignerCmd())
	rootCmd.AddCommand(pauseCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(verifyLogCmd())
	rootCmd.AddCommand(proveLogCmd())
	rootCmd.AddCommand(stateCmd())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
