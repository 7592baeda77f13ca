// Package storage persists blocks in a leveldb key/value store. Two key
// namespaces share the store: a reserved literal key pointing at the
// latest block hash, and each block's own 32-byte hash pointing at the
// encoded block.
package storage

import (
	"os"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/pennychain/pennychain/model"
	"github.com/syndtr/goleveldb/leveldb"
)

type Store struct {
	db *leveldb.DB
}

// Exists reports whether a store is already present at path. Gates
// ledger create vs open.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Open opens (or creates) the store at path. The store is exclusive to
// one handle at a time; leveldb enforces that with its own lock file.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening store at %s", path)
	}
	return &Store{db: db}, nil
}

// Hash returns the 32-byte hash stored under key, or nil when the key is
// absent. Absence is an expected outcome, not an error.
func (s *Store) Hash(key []byte) (*chainhash.Hash, error) {
	data, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading key %q", key)
	}

	hash, err := chainhash.NewHash(data)
	if err != nil {
		return nil, errors.Wrapf(err, "stored value under %q is not a hash", key)
	}
	return hash, nil
}

func (s *Store) PutHash(key []byte, hash *chainhash.Hash) error {
	err := s.db.Put(key, hash[:], nil)
	return errors.Wrapf(err, "writing hash under %q", key)
}

// Block returns the block stored under hash, or nil when no such block
// exists. Undecodable bytes mean corruption and come back as an error.
func (s *Store) Block(hash chainhash.Hash) (*model.Block, error) {
	data, err := s.db.Get(hash[:], nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading block %s", model.HashString(hash))
	}

	block, err := model.DecodeBlock(data)
	return block, errors.WithMessagef(err, "decoding block %s", model.HashString(hash))
}

func (s *Store) PutBlock(block *model.Block) error {
	data, err := model.EncodeBlock(block)
	if err != nil {
		return errors.WithMessagef(err, "encoding block %s", model.HashString(block.Hash))
	}
	err = s.db.Put(block.Hash[:], data, nil)
	return errors.Wrapf(err, "writing block %s", model.HashString(block.Hash))
}

func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "closing store")
}
