package cmd

import (
	"github.com/pennychain/pennychain/blockchain"
	"github.com/pennychain/pennychain/server"
	"github.com/spf13/cobra"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Index the chain and serve the SQL explorer over HTTP.",
	RunE:  serveRun,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address; defaults to the configured one.")
}

func serveRun(cmd *cobra.Command, args []string) error {
	ledger, err := blockchain.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	addr := listenAddr
	if addr == "" {
		addr = cfg.ListenAddr
	}
	return server.Serve(ledger, addr)
}
