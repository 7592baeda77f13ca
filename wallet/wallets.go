package wallet

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/pennychain/pennychain/model"
)

// ErrUnknownAddress means no wallet is stored for the requested address.
var ErrUnknownAddress = errors.New("no wallet for address")

// Wallets is the collection of key pairs persisted at a fixed path.
type Wallets struct {
	path    string
	wallets map[string]*Wallet
}

// NewWallets loads the wallet file at path, or starts empty when the file
// does not exist yet.
func NewWallets(path string) (*Wallets, error) {
	ws := &Wallets{
		path:    path,
		wallets: map[string]*Wallet{},
	}

	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return ws, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading wallet file %s", path)
	}

	err = ws.decode(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "wallet file %s", path)
	}
	return ws, nil
}

// CreateWallet generates a new key pair, persists the collection, and
// returns the new address.
func (ws *Wallets) CreateWallet() (string, error) {
	w, err := NewWallet()
	if err != nil {
		return "", err
	}

	address := w.Address()
	ws.wallets[address] = w

	err = ws.save()
	if err != nil {
		return "", err
	}
	return address, nil
}

// Addresses returns every stored address, sorted for stable output.
func (ws *Wallets) Addresses() []string {
	addresses := make([]string, 0, len(ws.wallets))
	for address := range ws.wallets {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)
	return addresses
}

// Wallet returns the key pair for address, or ErrUnknownAddress.
func (ws *Wallets) Wallet(address string) (*Wallet, error) {
	w, ok := ws.wallets[address]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAddress, "%s", address)
	}
	return w, nil
}

func (ws *Wallets) save() error {
	dir := filepath.Dir(ws.path)
	if dir != "." {
		err := os.MkdirAll(dir, 0700)
		if err != nil {
			return errors.Wrapf(err, "creating wallet dir %s", dir)
		}
	}

	buf := new(bytes.Buffer)
	err := model.WriteVarInt(buf, uint64(len(ws.wallets)))
	if err != nil {
		return err
	}
	for _, address := range ws.Addresses() {
		err = model.WriteBytes(buf, []byte(address))
		if err != nil {
			return err
		}
		err = model.WriteBytes(buf, ws.wallets[address].priv)
		if err != nil {
			return err
		}
	}

	err = ioutil.WriteFile(ws.path, buf.Bytes(), 0600)
	return errors.Wrapf(err, "writing wallet file %s", ws.path)
}

func (ws *Wallets) decode(data []byte) error {
	r := bytes.NewReader(data)

	cnt, err := model.ReadCompactSize(r)
	if err != nil {
		return errors.WithMessage(err, "wallet count")
	}

	for i := uint64(0); i < cnt; i++ {
		addressBytes, err := model.ReadBytes(r)
		if err != nil {
			return errors.WithMessagef(err, "wallet %d address", i)
		}
		key, err := model.ReadBytes(r)
		if err != nil {
			return errors.WithMessagef(err, "wallet %d key", i)
		}

		w, err := walletFromKey(key)
		if err != nil {
			return errors.WithMessagef(err, "wallet %d", i)
		}
		ws.wallets[string(addressBytes)] = w
	}

	if r.Len() != 0 {
		return errors.Newf("%d trailing bytes after wallets", r.Len())
	}
	return nil
}
