package cmd

import (
	"fmt"

	"github.com/pennychain/pennychain/blockchain"
	"github.com/spf13/cobra"
)

var printChainCmd = &cobra.Command{
	Use:   "print-chain",
	Short: "Print every block, tip to genesis.",
	RunE:  printChainRun,
}

func init() {
	rootCmd.AddCommand(printChainCmd)
}

func printChainRun(cmd *cobra.Command, args []string) error {
	ledger, err := blockchain.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	it := ledger.Iterator()
	for {
		block, err := it.Next()
		if err != nil {
			return err
		}
		if block == nil {
			return nil
		}
		fmt.Printf("%s\n\n", block)
	}
}
