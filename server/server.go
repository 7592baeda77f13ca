// Package server is the chain explorer: it indexes the chain into an
// in-memory SQL database and serves ad-hoc queries over HTTP.
package server

import (
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/genjidb/genji"
	"github.com/genjidb/genji/document"
	"github.com/genjidb/genji/types"
	"github.com/pennychain/pennychain/blockchain"
	"github.com/pennychain/pennychain/model"
	"github.com/sirupsen/logrus"
)

// Serve indexes the ledger and serves /sql on addr. Blocks until the
// listener fails. The index is rebuilt from scratch on every invocation.
func Serve(ledger *blockchain.Ledger, addr string) error {
	db, err := BuildIndex(ledger)
	if err != nil {
		return err
	}
	defer db.Close()

	mux := http.NewServeMux()
	mux.Handle("/sql", query(db))

	logrus.Infof("explorer listening on %s", addr)
	return errors.Wrap(http.ListenAndServe(addr, mux), "explorer server")
}

// BuildIndex walks the chain tip to genesis and loads one row per block,
// transaction, input, and output into an in-memory genji database.
func BuildIndex(ledger *blockchain.Ledger) (*genji.DB, error) {
	db, err := genji.Open(":memory:")
	if err != nil {
		return nil, errors.Wrap(err, "opening index db")
	}

	for _, table := range []string{"blocks", "transactions", "inputs", "outputs"} {
		err = db.Exec("CREATE TABLE " + table)
		if err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "creating table %s", table)
		}
	}

	err = indexChain(db, ledger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func indexChain(db *genji.DB, ledger *blockchain.Ledger) error {
	height := 0
	it := ledger.Iterator()
	for {
		block, err := it.Next()
		if err != nil {
			return err
		}
		if block == nil {
			logrus.Debugf("indexed %d blocks", height)
			return nil
		}

		err = indexBlock(db, block)
		if err != nil {
			return err
		}
		height++
	}
}

func indexBlock(db *genji.DB, block *model.Block) error {
	prevHash := ""
	if block.PrevBlockHash != nil {
		prevHash = model.HashString(*block.PrevBlockHash)
	}

	err := db.Exec(`INSERT INTO blocks (hash, prev_hash, timestamp, nonce, tx_count) VALUES (?, ?, ?, ?, ?)`,
		model.HashString(block.Hash), prevHash, block.Timestamp, block.Nonce, len(block.Transactions))
	if err != nil {
		return errors.Wrap(err, "inserting block")
	}

	for _, tx := range block.Transactions {
		err = db.Exec(`INSERT INTO transactions (id, block_hash, coinbase, input_count, output_count) VALUES (?, ?, ?, ?, ?)`,
			model.HashString(tx.ID), model.HashString(block.Hash), tx.IsCoinbase(), len(tx.Inputs), len(tx.Outputs))
		if err != nil {
			return errors.Wrap(err, "inserting transaction")
		}

		for _, in := range tx.Inputs {
			prevTx := ""
			if in.PrevTx != nil {
				prevTx = model.HashString(*in.PrevTx)
			}
			err = db.Exec(`INSERT INTO inputs (tx_id, prev_tx, prev_index, pub_key) VALUES (?, ?, ?, ?)`,
				model.HashString(tx.ID), prevTx, in.PrevTxIndex, hex.EncodeToString(in.PubKey))
			if err != nil {
				return errors.Wrap(err, "inserting input")
			}
		}

		for i, out := range tx.Outputs {
			err = db.Exec("INSERT INTO outputs (tx_id, idx, `value`, pub_key_hash) VALUES (?, ?, ?, ?)",
				model.HashString(tx.ID), i, out.Value, hex.EncodeToString(out.PubKeyHash))
			if err != nil {
				return errors.Wrap(err, "inserting output")
			}
		}
	}

	return nil
}

func query(db *genji.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.FormValue("query")

		res, err := db.Query(q)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
			return
		}
		defer res.Close()

		var results = make([]map[string]interface{}, 0)
		err = res.Iterate(func(d types.Document) error {
			var m map[string]interface{}
			err := document.MapScan(d, &m)
			if err != nil {
				return errors.Wrap(err, "scanning row")
			}
			results = append(results, m)
			return nil
		})
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
			return
		}

		b, err := json.Marshal(results)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(b)
	})
}
