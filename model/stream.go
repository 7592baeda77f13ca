package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
)

// Canonical wire format: little-endian fixed-width integers, bitcoin
// CompactSize varints for counts and lengths, one presence byte for
// optional fields. The same bytes are used for persistence and for
// transaction-id hashing, so encoding must be deterministic.

// EncodeBlock serializes a block for persistence.
func EncodeBlock(b *Block) ([]byte, error) {
	buf := new(bytes.Buffer)

	err := writeUint64(buf, b.Timestamp)
	if err != nil {
		return nil, err
	}

	err = WriteVarInt(buf, uint64(len(b.Transactions)))
	if err != nil {
		return nil, err
	}
	for _, tx := range b.Transactions {
		err = writeTransaction(buf, tx)
		if err != nil {
			return nil, err
		}
	}

	err = writeOptionalHash(buf, b.PrevBlockHash)
	if err != nil {
		return nil, err
	}

	_, err = buf.Write(b.Hash[:])
	if err != nil {
		return nil, errors.Wrap(err, "writing block hash")
	}

	err = writeUint64(buf, b.Nonce)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecodeBlock is the inverse of EncodeBlock. A decode failure means the
// stored bytes are corrupt, not that the caller can retry.
func DecodeBlock(data []byte) (*Block, error) {
	r := bytes.NewReader(data)
	block := &Block{}

	var err error
	block.Timestamp, err = readUint64(r)
	if err != nil {
		return nil, errors.WithMessage(err, "block timestamp")
	}

	txCnt, err := ReadCompactSize(r)
	if err != nil {
		return nil, errors.WithMessage(err, "block transaction count")
	}
	block.Transactions = make([]Transaction, txCnt)
	for i := range block.Transactions {
		block.Transactions[i], err = readTransaction(r)
		if err != nil {
			return nil, errors.WithMessagef(err, "block transaction %d", i)
		}
	}

	block.PrevBlockHash, err = readOptionalHash(r)
	if err != nil {
		return nil, errors.WithMessage(err, "previous block hash")
	}

	hashBytes, err := read(r, chainhash.HashSize)
	if err != nil {
		return nil, errors.WithMessage(err, "block hash")
	}
	copy(block.Hash[:], hashBytes)

	block.Nonce, err = readUint64(r)
	if err != nil {
		return nil, errors.WithMessage(err, "block nonce")
	}

	if r.Len() != 0 {
		return nil, errors.Newf("%d trailing bytes after block", r.Len())
	}

	return block, nil
}

// HashTransaction computes a transaction id: one running SHA-256 fed the
// encoded input sequence, then the encoded output sequence. Identical
// input/output content always yields an identical id.
func HashTransaction(inputs []TXInput, outputs []TXOutput) chainhash.Hash {
	h := sha256.New()

	// scratch buffer is pooled; writes to it cannot fail
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_ = writeInputs(buf, inputs)
	h.Write(buf.B)

	buf.Reset()
	_ = writeOutputs(buf, outputs)
	h.Write(buf.B)

	var id chainhash.Hash
	copy(id[:], h.Sum(nil))
	return id
}

func writeTransaction(w io.Writer, tx Transaction) error {
	_, err := w.Write(tx.ID[:])
	if err != nil {
		return errors.Wrap(err, "writing transaction id")
	}
	err = writeInputs(w, tx.Inputs)
	if err != nil {
		return err
	}
	return writeOutputs(w, tx.Outputs)
}

func readTransaction(r io.Reader) (Transaction, error) {
	tx := Transaction{}

	idBytes, err := read(r, chainhash.HashSize)
	if err != nil {
		return tx, errors.WithMessage(err, "transaction id")
	}
	copy(tx.ID[:], idBytes)

	tx.Inputs, err = readInputs(r)
	if err != nil {
		return tx, err
	}

	tx.Outputs, err = readOutputs(r)
	return tx, err
}

func writeInputs(w io.Writer, inputs []TXInput) error {
	err := WriteVarInt(w, uint64(len(inputs)))
	if err != nil {
		return err
	}
	for _, in := range inputs {
		err = writeOptionalHash(w, in.PrevTx)
		if err != nil {
			return err
		}
		if in.PrevTx != nil {
			// the referenced index only travels with a referenced tx
			err = writeUint32(w, in.PrevTxIndex)
			if err != nil {
				return err
			}
		}
		err = writeOptionalBytes(w, in.Signature)
		if err != nil {
			return err
		}
		err = WriteBytes(w, in.PubKey)
		if err != nil {
			return err
		}
	}
	return nil
}

func readInputs(r io.Reader) ([]TXInput, error) {
	cnt, err := ReadCompactSize(r)
	if err != nil {
		return nil, errors.WithMessage(err, "input count")
	}

	var inputs []TXInput
	for i := uint64(0); i < cnt; i++ {
		in := TXInput{}

		in.PrevTx, err = readOptionalHash(r)
		if err != nil {
			return nil, errors.WithMessagef(err, "input %d referenced tx", i)
		}
		if in.PrevTx != nil {
			in.PrevTxIndex, err = readUint32(r)
			if err != nil {
				return nil, errors.WithMessagef(err, "input %d referenced index", i)
			}
		}

		in.Signature, err = readOptionalBytes(r)
		if err != nil {
			return nil, errors.WithMessagef(err, "input %d signature", i)
		}

		in.PubKey, err = ReadBytes(r)
		if err != nil {
			return nil, errors.WithMessagef(err, "input %d public key", i)
		}

		inputs = append(inputs, in)
	}
	return inputs, nil
}

func writeOutputs(w io.Writer, outputs []TXOutput) error {
	err := WriteVarInt(w, uint64(len(outputs)))
	if err != nil {
		return err
	}
	for _, out := range outputs {
		err = writeUint64(w, out.Value)
		if err != nil {
			return err
		}
		err = WriteBytes(w, out.PubKeyHash)
		if err != nil {
			return err
		}
	}
	return nil
}

func readOutputs(r io.Reader) ([]TXOutput, error) {
	cnt, err := ReadCompactSize(r)
	if err != nil {
		return nil, errors.WithMessage(err, "output count")
	}

	var outputs []TXOutput
	for i := uint64(0); i < cnt; i++ {
		out := TXOutput{}

		out.Value, err = readUint64(r)
		if err != nil {
			return nil, errors.WithMessagef(err, "output %d value", i)
		}

		out.PubKeyHash, err = ReadBytes(r)
		if err != nil {
			return nil, errors.WithMessagef(err, "output %d pub key hash", i)
		}

		outputs = append(outputs, out)
	}
	return outputs, nil
}

func writeOptionalHash(w io.Writer, h *chainhash.Hash) error {
	if h == nil {
		_, err := w.Write([]byte{0x00})
		return errors.Wrap(err, "writing absence byte")
	}
	_, err := w.Write([]byte{0x01})
	if err != nil {
		return errors.Wrap(err, "writing presence byte")
	}
	_, err = w.Write(h[:])
	return errors.Wrap(err, "writing hash")
}

func readOptionalHash(r io.Reader) (*chainhash.Hash, error) {
	present, err := readByte(r)
	if err != nil {
		return nil, err
	}
	switch present {
	case 0x00:
		return nil, nil
	case 0x01:
		buf, err := read(r, chainhash.HashSize)
		if err != nil {
			return nil, err
		}
		return chainhash.NewHash(buf)
	default:
		return nil, errors.Newf("invalid presence byte 0x%02x", present)
	}
}

func writeOptionalBytes(w io.Writer, b []byte) error {
	if b == nil {
		_, err := w.Write([]byte{0x00})
		return errors.Wrap(err, "writing absence byte")
	}
	_, err := w.Write([]byte{0x01})
	if err != nil {
		return errors.Wrap(err, "writing presence byte")
	}
	return WriteBytes(w, b)
}

func readOptionalBytes(r io.Reader) ([]byte, error) {
	present, err := readByte(r)
	if err != nil {
		return nil, err
	}
	switch present {
	case 0x00:
		return nil, nil
	case 0x01:
		return ReadBytes(r)
	default:
		return nil, errors.Newf("invalid presence byte 0x%02x", present)
	}
}

// WriteBytes writes a CompactSize length followed by the bytes.
func WriteBytes(w io.Writer, b []byte) error {
	err := WriteVarInt(w, uint64(len(b)))
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return errors.Wrap(err, "writing bytes")
}

// ReadBytes is the inverse of WriteBytes.
func ReadBytes(r io.Reader) ([]byte, error) {
	size, err := ReadCompactSize(r)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return []byte{}, nil
	}
	return read(r, int(size))
}

// ReadCompactSize reads a bitcoin-style variable-width integer.
func ReadCompactSize(r io.Reader) (uint64, error) {
	size, err := readByte(r)
	if err != nil {
		return 0, err
	}

	switch size {
	case 0xff:
		return readUint64(r)
	case 0xfe:
		varInt, err := readUint32(r)
		return uint64(varInt), err
	case 0xfd:
		varInt, err := readUint16(r)
		return uint64(varInt), err
	default:
		return uint64(size), nil
	}
}

// WriteVarInt writes a bitcoin-style variable-width integer.
func WriteVarInt(w io.Writer, v uint64) error {
	if v < 0xfd { // single byte
		_, err := w.Write([]byte{byte(v)})
		return errors.Wrap(err, "")
	} else if v <= 0xffff { // uint16
		_, err := w.Write([]byte{
			0xfd,
			byte(v), byte(v >> 8),
		})
		return errors.Wrap(err, "")
	} else if v <= 0xffffffff { // uint32
		_, err := w.Write([]byte{
			0xfe,
			byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
		})
		return errors.Wrap(err, "")
	} else { // uint64
		_, err := w.Write([]byte{
			0xff,
			byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
			byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
		})
		return errors.Wrap(err, "")
	}
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return errors.Wrap(err, "writing uint64")
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return errors.Wrap(err, "writing uint32")
}

func readUint64(r io.Reader) (uint64, error) {
	buf, err := read(r, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

func readUint32(r io.Reader) (uint32, error) {
	buf, err := read(r, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func readUint16(r io.Reader) (uint16, error) {
	buf, err := read(r, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

func readByte(r io.Reader) (byte, error) {
	buf, err := read(r, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func read(r io.Reader, numBytes int) ([]byte, error) {
	b := make([]byte, numBytes)
	n, err := io.ReadFull(r, b)
	if err != nil {
		return nil, errors.Wrapf(err, "read %d of %d bytes", n, numBytes)
	}
	return b, nil
}
