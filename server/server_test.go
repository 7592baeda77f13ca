package server

import (
	"path/filepath"
	"testing"

	"github.com/genjidb/genji"
	"github.com/genjidb/genji/document"
	"github.com/genjidb/genji/types"
	"github.com/pennychain/pennychain/blockchain"
	"github.com/pennychain/pennychain/model"
	"github.com/pennychain/pennychain/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRows(t *testing.T, db *genji.DB, table string) int {
	t.Helper()

	res, err := db.Query("SELECT * FROM " + table)
	require.NoError(t, err)
	defer res.Close()

	count := 0
	err = res.Iterate(func(d types.Document) error {
		count++
		return nil
	})
	require.NoError(t, err)
	return count
}

func TestBuildIndex(t *testing.T) {
	dir := t.TempDir()

	ws, err := wallet.NewWallets(filepath.Join(dir, "wallets"))
	require.NoError(t, err)
	addrA, err := ws.CreateWallet()
	require.NoError(t, err)
	addrB, err := ws.CreateWallet()
	require.NoError(t, err)

	ledger, err := blockchain.Create(filepath.Join(dir, "chain"), addrA)
	require.NoError(t, err)
	defer ledger.Close()

	tx, err := ledger.NewTransaction(addrA, addrB, 30, ws)
	require.NoError(t, err)
	_, err = ledger.MineBlock([]model.Transaction{*tx})
	require.NoError(t, err)

	db, err := BuildIndex(ledger)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 2, countRows(t, db, "blocks"))
	assert.Equal(t, 2, countRows(t, db, "transactions"))
	assert.Equal(t, 2, countRows(t, db, "inputs"))
	// genesis subsidy, payment, change
	assert.Equal(t, 3, countRows(t, db, "outputs"))

	res, err := db.Query("SELECT `value` FROM outputs WHERE tx_id = ?", model.HashString(tx.ID))
	require.NoError(t, err)
	defer res.Close()

	var values []int64
	err = res.Iterate(func(d types.Document) error {
		var row struct {
			Value int64 `genji:"value"`
		}
		err := document.StructScan(d, &row)
		if err != nil {
			return err
		}
		values = append(values, row.Value)
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{30, 20}, values)
}
