// Package storage is the append-only BoltDB-backed log of blocks and
// transactions (C9, SPEC_FULL.md §4.9). It is opaque to the core: it knows
// how to marshal/unmarshal the §6 wire encodings and persist them, and
// performs none of the validation the crypto/coin/txn/state/block/pool
// packages are responsible for.
//
// Grounded on persist/boltdb.go's BoltDatabase (metadata header checked on
// open) and persist/internal/encode.go's big-endian sortable bucket-key
// idiom, reused here via encoding.BigEndianIndex.
package storage

import (
	"errors"
	"fmt"
	"time"

	bolt "github.com/rivine/bbolt"

	"github.com/uqoin/uqoin/block"
	"github.com/uqoin/uqoin/encoding"
	"github.com/uqoin/uqoin/txn"
)

var (
	bucketMetadata     = []byte("Metadata")
	bucketBlocks       = []byte("Blocks")
	bucketTransactions = []byte("Transactions")

	keyHeader  = []byte("Header")
	keyVersion = []byte("Version")
	keyTxCount = []byte("TxCount")
)

// ErrBadHeader is returned when an existing database carries a different
// header than the one the caller expects.
var ErrBadHeader = errors.New("storage: database has a different header")

// ErrBadVersion is returned when an existing database carries a different
// version than the one the caller expects.
var ErrBadVersion = errors.New("storage: database has a different version")

// Metadata identifies the database's logical contents, mirroring
// persist.Metadata: a header string plus a version string, both checked on
// open so an operator cannot accidentally point the daemon at a foreign or
// incompatible database file.
type Metadata struct {
	Header  string
	Version string
}

// Store is the append-only block/transaction log.
type Store struct {
	Metadata
	db *bolt.DB
}

// Open opens (creating if necessary) the BoltDB file at filename and checks
// its metadata against md, exactly as persist.OpenDatabase does.
func Open(md Metadata, filename string) (*Store, error) {
	db, err := bolt.Open(filename, 0600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	s := &Store{Metadata: md, db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketBlocks, bucketTransactions} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		meta, err := tx.CreateBucketIfNotExists(bucketMetadata)
		if err != nil {
			return err
		}
		header := meta.Get(keyHeader)
		if header == nil {
			if err := meta.Put(keyHeader, []byte(s.Header)); err != nil {
				return err
			}
			return meta.Put(keyVersion, []byte(s.Version))
		}
		if string(header) != s.Header {
			return ErrBadHeader
		}
		if version := meta.Get(keyVersion); string(version) != s.Version {
			return ErrBadVersion
		}
		return nil
	})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PushBlock appends blk and its transactions to the log. Blocks are indexed
// by bix (1-based, matching the overall block count after the push).
// blk.Offset is the cumulative transaction count *before* this block (the
// same value RollUp's blockOffset precondition checks against), so the
// i-th transaction (0-based) lands at global offset blk.Offset+i+1 and the
// new cumulative total is blk.Offset+blk.Size.
func (s *Store) PushBlock(bix uint64, blk *block.Block, txs []txn.Transaction) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		blocks := tx.Bucket(bucketBlocks)
		if err := blocks.Put(encoding.BigEndianIndex(bix), encoding.MarshalBlock(blk)); err != nil {
			return err
		}
		transactions := tx.Bucket(bucketTransactions)
		for i, t := range txs {
			offset := blk.Offset + uint64(i) + 1
			if err := transactions.Put(encoding.BigEndianIndex(offset), encoding.MarshalTransaction(t)); err != nil {
				return err
			}
		}
		return transactions.Put(keyTxCount, encoding.BigEndianIndex(blk.Offset+blk.Size))
	})
}

// Truncate drops every block (and its transactions) beyond blockCount,
// supporting a roll-down back to an earlier chain tip.
func (s *Store) Truncate(blockCount uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		blocks := tx.Bucket(bucketBlocks)

		var lastOffset uint64
		if blockCount > 0 {
			raw := blocks.Get(encoding.BigEndianIndex(blockCount))
			if raw == nil {
				return fmt.Errorf("storage: truncate target block %d not found", blockCount)
			}
			blk, err := encoding.UnmarshalBlock(raw)
			if err != nil {
				return err
			}
			lastOffset = blk.Offset + blk.Size
		}

		c := blocks.Cursor()
		var blockKeys [][]byte
		for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
			if encoding.DecodeIndex(k) <= blockCount {
				break
			}
			blockKeys = append(blockKeys, append([]byte(nil), k...))
		}
		for _, k := range blockKeys {
			if err := blocks.Delete(k); err != nil {
				return err
			}
		}

		transactions := tx.Bucket(bucketTransactions)
		tc := transactions.Cursor()
		var txKeys [][]byte
		for k, _ := tc.Last(); k != nil; k, _ = tc.Prev() {
			if string(k) == string(keyTxCount) {
				continue
			}
			if encoding.DecodeIndex(k) <= lastOffset {
				break
			}
			txKeys = append(txKeys, append([]byte(nil), k...))
		}
		for _, k := range txKeys {
			if err := transactions.Delete(k); err != nil {
				return err
			}
		}
		return transactions.Put(keyTxCount, encoding.BigEndianIndex(lastOffset))
	})
}

// GetBlock returns the block at the given (1-based) index.
func (s *Store) GetBlock(bix uint64) (*block.Block, bool, error) {
	var blk *block.Block
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketBlocks).Get(encoding.BigEndianIndex(bix))
		if raw == nil {
			return nil
		}
		b, err := encoding.UnmarshalBlock(raw)
		if err != nil {
			return err
		}
		blk = b
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return blk, blk != nil, nil
}

// GetTransactions returns the count transactions starting at the given
// (1-based) offset, in offset order.
func (s *Store) GetTransactions(offset, count uint64) ([]txn.Transaction, error) {
	out := make([]txn.Transaction, 0, count)
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketTransactions)
		for i := uint64(0); i < count; i++ {
			raw := bucket.Get(encoding.BigEndianIndex(offset + i))
			if raw == nil {
				return fmt.Errorf("storage: transaction at offset %d not found", offset+i)
			}
			t, err := encoding.UnmarshalTransaction(raw)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IsEmpty reports whether the log holds no blocks yet.
func (s *Store) IsEmpty() (bool, error) {
	count, err := s.BlockCount()
	return count == 0, err
}

// BlockCount returns the number of blocks currently in the log.
func (s *Store) BlockCount() (uint64, error) {
	var count uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketBlocks).Cursor()
		k, _ := c.Last()
		if k == nil {
			count = 0
			return nil
		}
		count = encoding.DecodeIndex(k)
		return nil
	})
	return count, err
}

// TransactionCount returns the number of transactions currently in the log.
func (s *Store) TransactionCount() (uint64, error) {
	var count uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketTransactions).Get(keyTxCount)
		if raw == nil {
			count = 0
			return nil
		}
		count = encoding.DecodeIndex(raw)
		return nil
	})
	return count, err
}
