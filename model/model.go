// Package model holds the ledger's data types and their canonical wire
// encoding: blocks, transactions, inputs, outputs, and the UTXO set.
package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/crypto/ripemd160"
)

type Block struct {
	Timestamp     uint64 // milliseconds since epoch
	Transactions  []Transaction
	PrevBlockHash *chainhash.Hash // nil only for the genesis block
	Hash          chainhash.Hash
	Nonce         uint64
}

func (b Block) String() string {
	prevHash := "None"
	if b.PrevBlockHash != nil {
		prevHash = HashString(*b.PrevBlockHash)
	}
	var txs strings.Builder
	for _, tx := range b.Transactions {
		txs.WriteString("\n\t")
		txs.WriteString(HashString(tx.ID))
	}
	return fmt.Sprintf("timestamp: %d\nprevious block hash: %s\ntransactions: %s\nhash: %s",
		b.Timestamp, prevHash, txs.String(), HashString(b.Hash))
}

type Transaction struct {
	ID      chainhash.Hash
	Inputs  []TXInput
	Outputs []TXOutput
}

// IsCoinbase reports whether this is a subsidy transaction: exactly one
// input, and that input spends no prior output.
func (tx Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PrevTx == nil
}

type TXInput struct {
	PrevTx      *chainhash.Hash // nil only for coinbase inputs
	PrevTxIndex uint32          // meaningless when PrevTx is nil
	Signature   []byte          // nil for coinbase; never verified (signing is unimplemented)
	PubKey      []byte          // the spender's public key, or the memo for coinbase
}

// SpendsWith reports whether this input unlocks outputs held by pubKeyHash.
// This is the only ownership check the ledger performs.
func (in TXInput) SpendsWith(pubKeyHash []byte) bool {
	return bytes.Equal(HashPubKey(in.PubKey), pubKeyHash)
}

type TXOutput struct {
	Value      uint64 // indivisible units
	PubKeyHash []byte // RIPEMD160(SHA256(pub)) of the owning key
}

// LockedBy reports whether the output belongs to pubKeyHash.
func (out TXOutput) LockedBy(pubKeyHash []byte) bool {
	return bytes.Equal(out.PubKeyHash, pubKeyHash)
}

// IndexedOutput is an output paired with its position in the owning
// transaction's output list.
type IndexedOutput struct {
	Output TXOutput
	Index  int
}

// UTXO maps a transaction id to its outputs that are unspent as of the
// chain tip. Built transiently per query, never persisted.
type UTXO map[chainhash.Hash][]IndexedOutput

// HashPubKey derives the locking hash for a public key: RIPEMD160(SHA256(pub)).
func HashPubKey(pubKey []byte) []byte {
	sha := sha256.Sum256(pubKey)
	r := ripemd160.New()
	r.Write(sha[:])
	return r.Sum(nil)
}

// HashString renders a hash as 0x-prefixed hex in natural byte order.
// chainhash.String() reverses bytes for bitcoin display; we don't want that.
func HashString(h chainhash.Hash) string {
	return "0x" + hex.EncodeToString(h[:])
}
