// Package pow implements the proof-of-work puzzle: find a nonce whose
// block hash starts with TargetBits zero bits.
package pow

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strconv"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/pennychain/pennychain/model"
)

// TargetBits is the fixed difficulty: how many leading bits of a valid
// block hash must be zero. There is no retargeting.
const TargetBits = 16

// ErrNonceExhausted means the entire nonce space was searched without
// finding a valid hash. Practically impossible; treated as fatal.
var ErrNonceExhausted = errors.New("nonce space exhausted before finding a valid hash")

// Solve searches for a nonce that makes the block hash valid. Nonces start
// at 1 and increment sequentially, so the search is deterministic for
// fixed inputs. Blocks until a solution is found.
func Solve(timestamp uint64, transactions []model.Transaction, prevBlockHash *chainhash.Hash) (chainhash.Hash, uint64, error) {
	txDigest := hashTransactions(transactions)

	for nonce := uint64(1); ; nonce++ {
		hash := candidate(timestamp, txDigest, prevBlockHash, nonce)
		if Validate(hash) {
			return hash, nonce, nil
		}
		if nonce == math.MaxUint64 {
			return chainhash.Hash{}, 0, ErrNonceExhausted
		}
	}
}

// candidate hashes one attempt: the timestamp's decimal string, the
// transaction digest, the previous hash when present, and the nonce in
// little-endian byte order.
func candidate(timestamp uint64, txDigest chainhash.Hash, prevBlockHash *chainhash.Hash, nonce uint64) chainhash.Hash {
	h := sha256.New()
	h.Write([]byte(strconv.FormatUint(timestamp, 10)))
	h.Write(txDigest[:])
	if prevBlockHash != nil {
		h.Write(prevBlockHash[:])
	}

	var nonceBytes [8]byte
	binary.LittleEndian.PutUint64(nonceBytes[:], nonce)
	h.Write(nonceBytes[:])

	var hash chainhash.Hash
	copy(hash[:], h.Sum(nil))
	return hash
}

// hashTransactions digests the transaction ids by sequential chaining.
// Not a merkle tree.
func hashTransactions(transactions []model.Transaction) chainhash.Hash {
	h := sha256.New()
	for _, tx := range transactions {
		h.Write(tx.ID[:])
	}
	var digest chainhash.Hash
	copy(digest[:], h.Sum(nil))
	return digest
}

// Validate reports whether the hash meets the compiled difficulty target.
func Validate(hash chainhash.Hash) bool {
	return leadingBitsZero(hash, TargetBits)
}

func leadingBitsZero(hash chainhash.Hash, bits int) bool {
	for _, b := range hash {
		if bits >= 8 {
			if b != 0 {
				return false
			}
			bits -= 8
			continue
		}
		if bits > 0 && b>>(8-bits) != 0 {
			return false
		}
		return true
	}
	return true
}
