package blockchain

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pennychain/pennychain/model"
	"github.com/pennychain/pennychain/pow"
)

// NewBlock mines a block holding transactions, linked to prevBlockHash.
// Captures the current time, runs the proof of work to completion, and
// assembles the result. The block is never mutated after this returns.
func NewBlock(transactions []model.Transaction, prevBlockHash *chainhash.Hash) (*model.Block, error) {
	timestamp := uint64(time.Now().UnixNano() / int64(time.Millisecond))

	hash, nonce, err := pow.Solve(timestamp, transactions, prevBlockHash)
	if err != nil {
		return nil, err
	}

	return &model.Block{
		Timestamp:     timestamp,
		Transactions:  transactions,
		PrevBlockHash: prevBlockHash,
		Hash:          hash,
		Nonce:         nonce,
	}, nil
}

// NewGenesisBlock mines the first block of a chain: a lone coinbase
// transaction with no previous hash.
func NewGenesisBlock(coinbase model.Transaction) (*model.Block, error) {
	return NewBlock([]model.Transaction{coinbase}, nil)
}
