package cmd

import (
	"fmt"

	"github.com/pennychain/pennychain/blockchain"
	"github.com/pennychain/pennychain/model"
	"github.com/spf13/cobra"
)

var createChainCmd = &cobra.Command{
	Use:   "create-chain ADDRESS",
	Short: "Create a new ledger whose genesis coinbase pays ADDRESS.",
	Args:  cobra.ExactArgs(1),
	RunE:  createChainRun,
}

func init() {
	rootCmd.AddCommand(createChainCmd)
}

func createChainRun(cmd *cobra.Command, args []string) error {
	ledger, err := blockchain.Create(cfg.DBPath, args[0])
	if err != nil {
		return err
	}
	defer ledger.Close()

	fmt.Printf("Created ledger at %s, genesis %s\n", cfg.DBPath, model.HashString(ledger.Tip()))
	return nil
}
