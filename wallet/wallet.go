// Package wallet manages ed25519 key pairs, base58check addresses, and
// the on-disk wallet file.
package wallet

import (
	"crypto/ed25519"

	"github.com/btcsuite/btcutil/base58"
	"github.com/cockroachdb/errors"
	"github.com/pennychain/pennychain/model"
)

// addressVersion is the version byte prepended to every address payload.
const addressVersion = 0x00

type Wallet struct {
	priv ed25519.PrivateKey
}

func NewWallet() (*Wallet, error) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, errors.Wrap(err, "generating key pair")
	}
	return &Wallet{priv: priv}, nil
}

func walletFromKey(key []byte) (*Wallet, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, errors.Newf("stored key is %d bytes, want %d", len(key), ed25519.PrivateKeySize)
	}
	return &Wallet{priv: ed25519.PrivateKey(key)}, nil
}

func (w *Wallet) PublicKey() []byte {
	return w.priv.Public().(ed25519.PublicKey)
}

// Sign signs data with the wallet's private key. The ledger never checks
// these signatures; the capability exists for completeness.
func (w *Wallet) Sign(data []byte) []byte {
	return ed25519.Sign(w.priv, data)
}

// Verify checks an ed25519 signature against a raw public key.
func Verify(pubKey, data, sig []byte) bool {
	if len(pubKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubKey), data, sig)
}

// Address renders the wallet's public key hash as a base58check address:
// version byte, 20-byte key hash, 4-byte double-SHA256 checksum.
func (w *Wallet) Address() string {
	return base58.CheckEncode(model.HashPubKey(w.PublicKey()), addressVersion)
}

// ExtractPubKeyHash decodes a base58check address back to the public key
// hash it carries. A malformed address or bad checksum is a recoverable
// caller error.
func ExtractPubKeyHash(address string) ([]byte, error) {
	payload, version, err := base58.CheckDecode(address)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding address %s", address)
	}
	if version != addressVersion {
		return nil, errors.Newf("address %s has version %d, want %d", address, version, addressVersion)
	}
	return payload, nil
}
