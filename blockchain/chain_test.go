package blockchain

import (
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/pennychain/pennychain/model"
	"github.com/pennychain/pennychain/pow"
	"github.com/pennychain/pennychain/storage"
	"github.com/pennychain/pennychain/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWallets(t *testing.T) (*wallet.Wallets, string, string) {
	t.Helper()

	ws, err := wallet.NewWallets(filepath.Join(t.TempDir(), "wallets"))
	require.NoError(t, err)

	addrA, err := ws.CreateWallet()
	require.NoError(t, err)
	addrB, err := ws.CreateWallet()
	require.NoError(t, err)

	return ws, addrA, addrB
}

func testLedger(t *testing.T, address string) *Ledger {
	t.Helper()

	ledger, err := Create(filepath.Join(t.TempDir(), "chain"), address)
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func TestCreateRefusesExistingLedger(t *testing.T) {
	_, addrA, _ := testWallets(t)
	dbPath := filepath.Join(t.TempDir(), "chain")

	ledger, err := Create(dbPath, addrA)
	require.NoError(t, err)
	require.NoError(t, ledger.Close())

	_, err = Create(dbPath, addrA)
	assert.True(t, errors.Is(err, ErrLedgerExists))
}

func TestOpenMissingLedger(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "chain"))
	assert.True(t, errors.Is(err, ErrNoLedger))
}

func TestOpenStoreWithoutTipPointer(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "chain")
	store, err := storage.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = Open(dbPath)
	assert.True(t, errors.Is(err, ErrNoLedger))
}

func TestOpenRestoresTip(t *testing.T) {
	_, addrA, _ := testWallets(t)
	dbPath := filepath.Join(t.TempDir(), "chain")

	ledger, err := Create(dbPath, addrA)
	require.NoError(t, err)
	tip := ledger.Tip()
	require.NoError(t, ledger.Close())

	reopened, err := Open(dbPath)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, tip, reopened.Tip())
}

func TestMineBlockRequiresTip(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "chain"))
	require.NoError(t, err)
	defer store.Close()

	ledger := &Ledger{store: store}
	_, err = ledger.MineBlock(nil)
	assert.True(t, errors.Is(err, ErrNoTip))
}

func TestNewCoinbaseTx(t *testing.T) {
	_, addrA, _ := testWallets(t)

	tx, err := NewCoinbaseTx(addrA, "")
	require.NoError(t, err)

	assert.True(t, tx.IsCoinbase())
	assert.Contains(t, string(tx.Inputs[0].PubKey), addrA)

	pubKeyHash, err := wallet.ExtractPubKeyHash(addrA)
	require.NoError(t, err)
	require.Len(t, tx.Outputs, 1)
	assert.Equal(t, uint64(Subsidy), tx.Outputs[0].Value)
	assert.True(t, tx.Outputs[0].LockedBy(pubKeyHash))
}

func TestGenesisBalanceAndUTXO(t *testing.T) {
	_, addrA, _ := testWallets(t)
	ledger := testLedger(t, addrA)

	balance, err := ledger.GetBalance(addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(Subsidy), balance)

	// empty appends neither create nor spend outputs
	for i := 0; i < 2; i++ {
		_, err = ledger.MineBlock([]model.Transaction{})
		require.NoError(t, err)
	}

	balance, err = ledger.GetBalance(addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(Subsidy), balance)

	pubKeyHash, err := wallet.ExtractPubKeyHash(addrA)
	require.NoError(t, err)
	utxo, err := ledger.FindUTXO(pubKeyHash)
	require.NoError(t, err)
	require.Len(t, utxo, 1)
	for _, outputs := range utxo {
		require.Len(t, outputs, 1)
		assert.Equal(t, uint64(Subsidy), outputs[0].Output.Value)
	}
}

func TestSendScenario(t *testing.T) {
	ws, addrA, addrB := testWallets(t)
	ledger := testLedger(t, addrA)
	genesisTip := ledger.Tip()

	// the single genesis output covers the request
	selected, accumulated, err := ledger.FindSpendableOutputs(addrA, 30)
	require.NoError(t, err)
	assert.Equal(t, uint64(Subsidy), accumulated)
	require.Len(t, selected, 1)

	tx, err := ledger.NewTransaction(addrA, addrB, 30, ws)
	require.NoError(t, err)

	require.Len(t, tx.Inputs, 1)
	assert.False(t, tx.IsCoinbase())
	genesis, err := ledger.Iterator().Next()
	require.NoError(t, err)
	assert.Equal(t, genesis.Transactions[0].ID, *tx.Inputs[0].PrevTx)

	hashA, err := wallet.ExtractPubKeyHash(addrA)
	require.NoError(t, err)
	hashB, err := wallet.ExtractPubKeyHash(addrB)
	require.NoError(t, err)

	require.Len(t, tx.Outputs, 2)
	assert.Equal(t, uint64(30), tx.Outputs[0].Value)
	assert.True(t, tx.Outputs[0].LockedBy(hashB))
	assert.Equal(t, uint64(20), tx.Outputs[1].Value)
	assert.True(t, tx.Outputs[1].LockedBy(hashA))

	block, err := ledger.MineBlock([]model.Transaction{*tx})
	require.NoError(t, err)
	assert.True(t, pow.Validate(block.Hash))
	assert.Equal(t, genesisTip, *block.PrevBlockHash)
	assert.Equal(t, block.Hash, ledger.Tip())

	balanceA, err := ledger.GetBalance(addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), balanceA)

	balanceB, err := ledger.GetBalance(addrB)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), balanceB)
}

func TestInsufficientFunds(t *testing.T) {
	ws, addrA, addrB := testWallets(t)
	ledger := testLedger(t, addrA)
	tipBefore := ledger.Tip()

	_, err := ledger.NewTransaction(addrA, addrB, 1000, ws)
	require.Error(t, err)

	var insufficient *InsufficientFundsError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, addrA, insufficient.From)
	assert.Equal(t, addrB, insufficient.To)
	assert.Equal(t, uint64(1000), insufficient.Amount)
	assert.Equal(t, uint64(Subsidy), insufficient.Available)

	// no transaction means no block
	assert.Equal(t, tipBefore, ledger.Tip())
}

func TestIteratorWalksTipToGenesis(t *testing.T) {
	_, addrA, _ := testWallets(t)
	ledger := testLedger(t, addrA)

	var appended []*model.Block
	for i := 0; i < 2; i++ {
		block, err := ledger.MineBlock([]model.Transaction{})
		require.NoError(t, err)
		appended = append(appended, block)
	}

	it := ledger.Iterator()
	var walked []*model.Block
	for {
		block, err := it.Next()
		require.NoError(t, err)
		if block == nil {
			break
		}
		walked = append(walked, block)
	}

	require.Len(t, walked, 3)
	assert.Equal(t, appended[1].Hash, walked[0].Hash)
	assert.Equal(t, appended[0].Hash, walked[1].Hash)
	assert.Nil(t, walked[2].PrevBlockHash)

	// exhausted traversal stays exhausted
	block, err := it.Next()
	require.NoError(t, err)
	assert.Nil(t, block)
}

func TestSpendOfSpentOutputIsMasked(t *testing.T) {
	ws, addrA, addrB := testWallets(t)
	ledger := testLedger(t, addrA)

	tx, err := ledger.NewTransaction(addrA, addrB, 50, ws)
	require.NoError(t, err)
	_, err = ledger.MineBlock([]model.Transaction{*tx})
	require.NoError(t, err)

	// the genesis output is fully spent; A has nothing left to select
	balanceA, err := ledger.GetBalance(addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balanceA)

	_, accumulated, err := ledger.FindSpendableOutputs(addrA, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), accumulated)
}
