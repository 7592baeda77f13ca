package cmd

import (
	"fmt"

	"github.com/pennychain/pennychain/blockchain"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance ADDRESS",
	Short: "Print the unspent balance of ADDRESS.",
	Args:  cobra.ExactArgs(1),
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	ledger, err := blockchain.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	balance, err := ledger.GetBalance(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Balance of %s: %d\n", args[0], balance)
	return nil
}
