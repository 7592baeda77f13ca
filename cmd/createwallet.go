package cmd

import (
	"fmt"

	"github.com/pennychain/pennychain/wallet"
	"github.com/spf13/cobra"
)

var createWalletCmd = &cobra.Command{
	Use:   "create-wallet",
	Short: "Generate a new key pair and print its address.",
	RunE:  createWalletRun,
}

func init() {
	rootCmd.AddCommand(createWalletCmd)
}

func createWalletRun(cmd *cobra.Command, args []string) error {
	wallets, err := wallet.NewWallets(cfg.WalletsPath)
	if err != nil {
		return err
	}

	address, err := wallets.CreateWallet()
	if err != nil {
		return err
	}

	fmt.Println(address)
	return nil
}
