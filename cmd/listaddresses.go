package cmd

import (
	"fmt"

	"github.com/pennychain/pennychain/wallet"
	"github.com/spf13/cobra"
)

var listAddressesCmd = &cobra.Command{
	Use:   "list-addresses",
	Short: "Print the address of every stored wallet.",
	RunE:  listAddressesRun,
}

func init() {
	rootCmd.AddCommand(listAddressesCmd)
}

func listAddressesRun(cmd *cobra.Command, args []string) error {
	wallets, err := wallet.NewWallets(cfg.WalletsPath)
	if err != nil {
		return err
	}

	for _, address := range wallets.Addresses() {
		fmt.Println(address)
	}
	return nil
}
