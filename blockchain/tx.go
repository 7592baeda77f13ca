package blockchain

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/pennychain/pennychain/model"
	"github.com/pennychain/pennychain/wallet"
)

// Subsidy is the fixed coinbase reward per mined block.
const Subsidy = 50

// placeholderSignature fills input signatures; nothing ever verifies them.
var placeholderSignature = []byte("not implemented yet")

// InsufficientFundsError means the sender's unspent outputs do not cover
// the requested amount. Recoverable by the caller; checked with errors.As.
type InsufficientFundsError struct {
	From      string
	To        string
	Amount    uint64
	Available uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("cannot transfer %d from %s to %s: only %d available",
		e.Amount, e.From, e.To, e.Available)
}

// NewCoinbaseTx builds a subsidy transaction paying to. The single input
// spends nothing; its public-key field carries memo, defaulting to a
// message naming the recipient.
func NewCoinbaseTx(to, memo string) (*model.Transaction, error) {
	if memo == "" {
		memo = fmt.Sprintf("Reward to %s", to)
	}

	inputs := []model.TXInput{{PubKey: []byte(memo)}}

	out, err := newTXOutput(Subsidy, to)
	if err != nil {
		return nil, err
	}
	outputs := []model.TXOutput{*out}

	return &model.Transaction{
		ID:      model.HashTransaction(inputs, outputs),
		Inputs:  inputs,
		Outputs: outputs,
	}, nil
}

// NewTransaction builds a transfer of amount from from to to, selecting
// inputs from from's unspent outputs and returning any excess as change.
// The sender's key pair comes from wallets.
func (l *Ledger) NewTransaction(from, to string, amount uint64, wallets *wallet.Wallets) (*model.Transaction, error) {
	selected, accumulated, err := l.FindSpendableOutputs(from, amount)
	if err != nil {
		return nil, err
	}
	if accumulated < amount {
		return nil, &InsufficientFundsError{From: from, To: to, Amount: amount, Available: accumulated}
	}

	senderWallet, err := wallets.Wallet(from)
	if err != nil {
		return nil, err
	}

	var inputs []model.TXInput
	for txID, indices := range selected {
		txID := txID
		for _, idx := range indices {
			inputs = append(inputs, model.TXInput{
				PrevTx:      &txID,
				PrevTxIndex: uint32(idx),
				Signature:   placeholderSignature,
				PubKey:      senderWallet.PublicKey(),
			})
		}
	}

	out, err := newTXOutput(amount, to)
	if err != nil {
		return nil, err
	}
	outputs := []model.TXOutput{*out}

	if accumulated > amount {
		change, err := newTXOutput(accumulated-amount, from)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, *change)
	}

	return &model.Transaction{
		ID:      model.HashTransaction(inputs, outputs),
		Inputs:  inputs,
		Outputs: outputs,
	}, nil
}

// newTXOutput locks value to the key hash carried by address.
func newTXOutput(value uint64, address string) (*model.TXOutput, error) {
	pubKeyHash, err := wallet.ExtractPubKeyHash(address)
	if err != nil {
		return nil, errors.WithMessagef(err, "locking output to %s", address)
	}
	return &model.TXOutput{Value: value, PubKeyHash: pubKeyHash}, nil
}
