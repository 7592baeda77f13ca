package cmd

import (
	"fmt"

	"github.com/pennychain/pennychain/blockchain"
	"github.com/pennychain/pennychain/model"
	"github.com/pennychain/pennychain/wallet"
	"github.com/spf13/cobra"
)

var (
	sendFrom   string
	sendTo     string
	sendAmount uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Transfer value between addresses and mine the block.",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVar(&sendFrom, "from", "", "Sender address.")
	sendCmd.Flags().StringVar(&sendTo, "to", "", "Recipient address.")
	sendCmd.Flags().Uint64Var(&sendAmount, "amount", 0, "Amount to transfer.")
	sendCmd.MarkFlagRequired("from")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func sendRun(cmd *cobra.Command, args []string) error {
	ledger, err := blockchain.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	wallets, err := wallet.NewWallets(cfg.WalletsPath)
	if err != nil {
		return err
	}

	tx, err := ledger.NewTransaction(sendFrom, sendTo, sendAmount, wallets)
	if err != nil {
		return err
	}

	block, err := ledger.MineBlock([]model.Transaction{*tx})
	if err != nil {
		return err
	}

	fmt.Printf("Sent %d from %s to %s in block %s\n",
		sendAmount, sendFrom, sendTo, model.HashString(block.Hash))
	return nil
}
