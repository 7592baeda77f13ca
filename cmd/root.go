// Package cmd is the command-line surface over the ledger.
package cmd

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pennychain/pennychain/blockchain"
	"github.com/pennychain/pennychain/config"
	"github.com/pennychain/pennychain/wallet"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgPath    string
	debug      bool
	memProfile bool

	cfg config.App

	profiler interface{ Stop() }
)

var rootCmd = &cobra.Command{
	Use:           "pennychain",
	Short:         "A single-node proof-of-work UTXO ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debug {
			logrus.SetLevel(logrus.DebugLevel)
		}
		if memProfile {
			profiler = profile.Start(profile.MemProfile)
		}

		var err error
		cfg, err = config.Load(cfgPath)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if profiler != nil {
			profiler.Stop()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to a yaml config file.")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging.")
	rootCmd.PersistentFlags().BoolVar(&memProfile, "memprofile", false, "Write a memory profile on exit.")
}

// Execute runs the CLI. Domain failures print their message and exit
// non-zero; anything fatal gets the full wrapped error with stack.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var insufficient *blockchain.InsufficientFundsError
	switch {
	case errors.Is(err, blockchain.ErrNoLedger):
		fmt.Println("No ledger found. Run create-chain first.")
	case errors.Is(err, wallet.ErrUnknownAddress), errors.As(err, &insufficient):
		fmt.Println(err)
	default:
		logrus.Fatalf("%+v", err)
	}
	os.Exit(1)
}
