// Package blockchain implements the ledger core: an append-only chain of
// mined blocks over a persistent store, with UTXO derivation and spend
// selection replayed from transaction history.
package blockchain

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/pennychain/pennychain/model"
	"github.com/pennychain/pennychain/storage"
	"github.com/pennychain/pennychain/wallet"
	"github.com/sirupsen/logrus"
)

// latestHashKey is the reserved store key holding the tip hash.
const latestHashKey = "l"

var (
	// ErrLedgerExists means Create was called where a ledger already lives.
	ErrLedgerExists = errors.New("ledger already exists")

	// ErrNoLedger means Open found no ledger at the configured location.
	// Expected absence, checked with errors.Is.
	ErrNoLedger = errors.New("no ledger found")

	// ErrNoTip means the store has no latest-hash pointer. Appending
	// requires at least a genesis block, so this is an invariant violation.
	ErrNoTip = errors.New("ledger has no tip")
)

// Ledger owns the persistent store exclusively and tracks the chain tip.
// Close releases the store; callers must guarantee it runs on every path.
type Ledger struct {
	tip   chainhash.Hash
	store *storage.Store
}

// Create builds a new ledger at dbPath: mines a genesis block whose
// coinbase pays the subsidy to address. Fails with ErrLedgerExists when a
// store is already present.
func Create(dbPath, address string) (*Ledger, error) {
	if storage.Exists(dbPath) {
		return nil, errors.Wrapf(ErrLedgerExists, "at %s", dbPath)
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}

	ledger, err := createGenesis(store, address)
	if err != nil {
		store.Close()
		return nil, err
	}
	return ledger, nil
}

func createGenesis(store *storage.Store, address string) (*Ledger, error) {
	coinbase, err := NewCoinbaseTx(address, "")
	if err != nil {
		return nil, err
	}

	genesis, err := NewGenesisBlock(*coinbase)
	if err != nil {
		return nil, err
	}
	logrus.Infof("created genesis block:\n%s", genesis)

	err = store.PutBlock(genesis)
	if err != nil {
		return nil, err
	}
	err = store.PutHash([]byte(latestHashKey), &genesis.Hash)
	if err != nil {
		return nil, err
	}

	return &Ledger{tip: genesis.Hash, store: store}, nil
}

// Open returns the ledger persisted at dbPath, or ErrNoLedger when no
// store or no tip pointer exists there.
func Open(dbPath string) (*Ledger, error) {
	if !storage.Exists(dbPath) {
		return nil, errors.Wrapf(ErrNoLedger, "at %s", dbPath)
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}

	tip, err := store.Hash([]byte(latestHashKey))
	if err != nil {
		store.Close()
		return nil, err
	}
	if tip == nil {
		store.Close()
		return nil, errors.Wrapf(ErrNoLedger, "store at %s has no tip pointer", dbPath)
	}

	return &Ledger{tip: *tip, store: store}, nil
}

// Tip returns the hash of the most recently appended block.
func (l *Ledger) Tip() chainhash.Hash {
	return l.tip
}

// MineBlock mines a block holding transactions atop the persisted tip and
// appends it: block first, then the tip pointer, then the in-memory tip.
func (l *Ledger) MineBlock(transactions []model.Transaction) (*model.Block, error) {
	lastHash, err := l.store.Hash([]byte(latestHashKey))
	if err != nil {
		return nil, err
	}
	if lastHash == nil {
		return nil, ErrNoTip
	}

	logrus.Infof("mining block with %d transactions", len(transactions))
	block, err := NewBlock(transactions, lastHash)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("mined block:\n%s", block)

	err = l.store.PutBlock(block)
	if err != nil {
		return nil, err
	}
	err = l.store.PutHash([]byte(latestHashKey), &block.Hash)
	if err != nil {
		return nil, err
	}

	l.tip = block.Hash
	return block, nil
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}

// Iterator starts a single-use traversal from the tip back to genesis.
// Each call returns a fresh traversal; an exhausted one is not restartable.
func (l *Ledger) Iterator() *Iterator {
	tip := l.tip
	return &Iterator{current: &tip, store: l.store}
}

// Iterator walks the chain tip to genesis, one store lookup per step.
type Iterator struct {
	current *chainhash.Hash
	store   *storage.Store
}

// Next returns the next block toward genesis, or (nil, nil) once the
// traversal is done. A missing block ends the traversal quietly; only a
// corrupt (undecodable) block is an error.
func (it *Iterator) Next() (*model.Block, error) {
	if it.current == nil {
		return nil, nil
	}

	block, err := it.store.Block(*it.current)
	if err != nil {
		return nil, err
	}
	if block == nil {
		it.current = nil
		return nil, nil
	}

	if block.PrevBlockHash == nil {
		it.current = nil // genesis reached
	} else {
		prev := *block.PrevBlockHash
		it.current = &prev
	}
	return block, nil
}

// FindUTXO derives the unspent outputs locked by pubKeyHash by replaying
// the whole chain once. Outputs are collected unless a recorded spend
// masks them; every non-coinbase input spending with pubKeyHash records a
// spend, whichever block it appears in. An output created and spent
// within the same scan gets no special treatment.
func (l *Ledger) FindUTXO(pubKeyHash []byte) (model.UTXO, error) {
	utxo := model.UTXO{}
	spent := map[chainhash.Hash]map[int]struct{}{}

	it := l.Iterator()
	for {
		block, err := it.Next()
		if err != nil {
			return nil, err
		}
		if block == nil {
			break
		}

		for _, tx := range block.Transactions {
			for i, out := range tx.Outputs {
				if _, isSpent := spent[tx.ID][i]; isSpent {
					continue
				}
				if !out.LockedBy(pubKeyHash) {
					continue
				}
				utxo[tx.ID] = append(utxo[tx.ID], model.IndexedOutput{Output: out, Index: i})
			}

			if tx.IsCoinbase() {
				continue // no real inputs to record
			}

			for _, in := range tx.Inputs {
				if !in.SpendsWith(pubKeyHash) {
					continue
				}
				if spent[*in.PrevTx] == nil {
					spent[*in.PrevTx] = map[int]struct{}{}
				}
				spent[*in.PrevTx][int(in.PrevTxIndex)] = struct{}{}
			}
		}
	}

	return utxo, nil
}

// FindSpendableOutputs accumulates address's unspent outputs greedily, in
// the UTXO map's natural iteration order, stopping as soon as the total
// reaches amount. Returns the selected output indices per transaction and
// the accumulated total, which may fall short of amount.
func (l *Ledger) FindSpendableOutputs(address string, amount uint64) (map[chainhash.Hash][]int, uint64, error) {
	pubKeyHash, err := wallet.ExtractPubKeyHash(address)
	if err != nil {
		return nil, 0, err
	}

	utxo, err := l.FindUTXO(pubKeyHash)
	if err != nil {
		return nil, 0, err
	}

	selected := map[chainhash.Hash][]int{}
	var accumulated uint64

	for txID, outputs := range utxo {
		for _, out := range outputs {
			selected[txID] = append(selected[txID], out.Index)
			accumulated += out.Output.Value
			if accumulated >= amount {
				return selected, accumulated, nil
			}
		}
	}

	return selected, accumulated, nil
}

// GetBalance sums the values of every unspent output locked by address.
func (l *Ledger) GetBalance(address string) (uint64, error) {
	pubKeyHash, err := wallet.ExtractPubKeyHash(address)
	if err != nil {
		return 0, err
	}

	utxo, err := l.FindUTXO(pubKeyHash)
	if err != nil {
		return 0, err
	}

	var balance uint64
	for _, outputs := range utxo {
		for _, out := range outputs {
			balance += out.Output.Value
		}
	}
	return balance, nil
}
