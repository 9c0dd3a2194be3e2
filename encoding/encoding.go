// Package encoding implements the fixed-width on-wire/on-disk encodings for
// the core entities, as laid out in spec.md §6: every 32-byte word is
// little-endian, structs are the plain concatenation of their fields in
// declaration order, no length prefixes or type tags.
//
// This is deliberately not rivbin (pkg/encoding/rivbin): rivbin is a
// variable-length, reflection-driven encoder built for the teacher's
// heterogeneous transaction/output types. Every entity here is a fixed-size
// concatenation of words and uint64s, so a small set of io.Writer/io.Reader
// helpers mirroring rivbin's MarshalUint64/UnmarshalUint64 (int.go) covers
// the whole format without reflection.
package encoding

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/uqoin/uqoin/block"
	"github.com/uqoin/uqoin/crypto"
	"github.com/uqoin/uqoin/txn"
)

// TransactionSize is the on-wire size of a Transaction: coin‖addr‖sign_r‖sign_s.
const TransactionSize = 4 * crypto.WordSize

// BlockSize is the on-wire size of a Block: offset(8)‖size(8)‖hash_prev‖validator‖nonce‖hash.
const BlockSize = 16 + 4*crypto.WordSize

// CoinInfoSize is the on-disk size of a persisted CoinInfo: owner‖order(8)‖counter(8).
const CoinInfoSize = crypto.WordSize + 16

func putWord(b []byte, w crypto.W) {
	bs := w.Bytes()
	copy(b, bs[:])
}

func getWord(b []byte) crypto.W {
	var bs [crypto.WordSize]byte
	copy(bs[:], b)
	return crypto.FromBytes(bs[:])
}

// MarshalTransaction writes tx as coin‖addr‖sign_r‖sign_s (128 bytes).
func MarshalTransaction(tx txn.Transaction) []byte {
	b := make([]byte, TransactionSize)
	putWord(b[0:32], tx.Coin)
	putWord(b[32:64], tx.Addr)
	putWord(b[64:96], tx.SignR)
	putWord(b[96:128], tx.SignS)
	return b
}

// UnmarshalTransaction reads a Transaction from exactly TransactionSize bytes.
func UnmarshalTransaction(b []byte) (txn.Transaction, error) {
	if len(b) != TransactionSize {
		return txn.Transaction{}, fmt.Errorf("encoding: transaction must be %d bytes, got %d", TransactionSize, len(b))
	}
	return txn.New(getWord(b[0:32]), getWord(b[32:64]), getWord(b[64:96]), getWord(b[96:128])), nil
}

// WriteTransaction writes tx to w.
func WriteTransaction(w io.Writer, tx txn.Transaction) error {
	_, err := w.Write(MarshalTransaction(tx))
	return err
}

// ReadTransaction reads a Transaction from r.
func ReadTransaction(r io.Reader) (txn.Transaction, error) {
	b := make([]byte, TransactionSize)
	if _, err := io.ReadFull(r, b); err != nil {
		return txn.Transaction{}, err
	}
	return UnmarshalTransaction(b)
}

// MarshalBlock writes b as offset(8)‖size(8)‖hash_prev‖validator‖nonce‖hash (144 bytes).
func MarshalBlock(blk *block.Block) []byte {
	out := make([]byte, BlockSize)
	binary.LittleEndian.PutUint64(out[0:8], blk.Offset)
	binary.LittleEndian.PutUint64(out[8:16], blk.Size)
	putWord(out[16:48], blk.HashPrev)
	putWord(out[48:80], blk.Validator)
	putWord(out[80:112], blk.Nonce)
	putWord(out[112:144], blk.Hash)
	return out
}

// UnmarshalBlock reads a Block from exactly BlockSize bytes.
func UnmarshalBlock(b []byte) (*block.Block, error) {
	if len(b) != BlockSize {
		return nil, fmt.Errorf("encoding: block must be %d bytes, got %d", BlockSize, len(b))
	}
	return &block.Block{
		Offset:    binary.LittleEndian.Uint64(b[0:8]),
		Size:      binary.LittleEndian.Uint64(b[8:16]),
		HashPrev:  getWord(b[16:48]),
		Validator: getWord(b[48:80]),
		Nonce:     getWord(b[80:112]),
		Hash:      getWord(b[112:144]),
	}, nil
}

// WriteBlock writes blk to w.
func WriteBlock(w io.Writer, blk *block.Block) error {
	_, err := w.Write(MarshalBlock(blk))
	return err
}

// ReadBlock reads a Block from r.
func ReadBlock(r io.Reader) (*block.Block, error) {
	b := make([]byte, BlockSize)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return UnmarshalBlock(b)
}

// CoinInfo is the persisted shape of state.CoinInfo: owner‖order(8)‖counter(8).
type CoinInfo struct {
	Owner   crypto.W
	Order   uint64
	Counter uint64
}

// MarshalCoinInfo writes ci as owner‖order(8)‖counter(8) (48 bytes).
func MarshalCoinInfo(ci CoinInfo) []byte {
	b := make([]byte, CoinInfoSize)
	putWord(b[0:32], ci.Owner)
	binary.LittleEndian.PutUint64(b[32:40], ci.Order)
	binary.LittleEndian.PutUint64(b[40:48], ci.Counter)
	return b
}

// UnmarshalCoinInfo reads a CoinInfo from exactly CoinInfoSize bytes.
func UnmarshalCoinInfo(b []byte) (CoinInfo, error) {
	if len(b) != CoinInfoSize {
		return CoinInfo{}, fmt.Errorf("encoding: coin info must be %d bytes, got %d", CoinInfoSize, len(b))
	}
	return CoinInfo{
		Owner:   getWord(b[0:32]),
		Order:   binary.LittleEndian.Uint64(b[32:40]),
		Counter: binary.LittleEndian.Uint64(b[40:48]),
	}, nil
}

// BigEndianIndex renders idx as a big-endian sortable bucket key, mirroring
// persist/internal/encode.go's EncodeBlockheight idiom so bolt's lexical
// cursor order matches numeric order.
func BigEndianIndex(idx uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, idx)
	return key
}

// DecodeIndex is the inverse of BigEndianIndex.
func DecodeIndex(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
