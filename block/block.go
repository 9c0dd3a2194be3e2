// Package block implements the proof-of-work block: its hash target
// formula, construction against a validated transaction set, and the
// mining search used to find a qualifying nonce.
package block

import (
	"github.com/uqoin/uqoin/crypto"
	"github.com/uqoin/uqoin/errs"
	"github.com/uqoin/uqoin/state"
	"github.com/uqoin/uqoin/txn"
)

// Complexity is the network's default mining difficulty exponent: a
// qualifying hash must not exceed (1 << (256-Complexity)) / max(1, size)
// (see Target), so it needs roughly Complexity+log2(size) leading zero
// bits and larger blocks need more work.
const Complexity = 24

// Block is the wire/storage representation of one accepted block: its
// chain link, the validator that mined it, the winning nonce and the
// resulting hash. The transactions it carries are stored separately (see
// the storage collaborator) and addressed by (offset, size).
type Block struct {
	Offset    uint64
	Size      uint64
	HashPrev  crypto.W
	Validator crypto.W
	Nonce     crypto.W
	Hash      crypto.W
}

// Msg computes a block's signed content hash: the chain link, the
// validator, and the hash of every transaction in order. An empty
// transaction list is allowed; its message is SHA3(hash_prev || validator).
func Msg(hashPrev, validator crypto.W, txs []txn.Transaction) crypto.W {
	words := make([]crypto.W, 0, 2+len(txs))
	words = append(words, hashPrev, validator)
	for _, tx := range txs {
		words = append(words, tx.Hash())
	}
	return crypto.HashWords(words...)
}

// Hash computes a block's hash from its message and nonce.
func Hash(msg, nonce crypto.W) crypto.W {
	return crypto.HashWords(msg, nonce)
}

// Target computes the maximum (big-endian numeric) hash value a block of
// the given size may have at the given complexity: (1 << (256-complexity))
// / max(1, size).
func Target(complexity uint64, size int) crypto.W {
	if size < 1 {
		size = 1
	}
	limit := crypto.One.Lsh(uint(256 - complexity))
	return limit.DivUint64(uint64(size))
}

// MeetsTarget reports whether hash qualifies under limit, comparing both
// as big-endian 256-bit numbers.
func MeetsTarget(hash, limit crypto.W) bool {
	return hash.Cmp(limit) <= 0
}

// Genesis returns the fixed block preceding the chain's first real block:
// all-zero fields except a hash fixed to the network's genesis constant.
func Genesis() *Block {
	return &Block{Hash: state.GenesisHash}
}

// Build assembles a Block from a pre-mined nonce, validating txs (as
// groups and validator extensions, per §4.5) against lookup and their
// precomputed senders, and checking the resulting hash against the
// complexity target. prev is the chain-link state the new block extends.
func Build(prev state.Last, validator crypto.W, txs []txn.Transaction, nonce crypto.W, complexity uint64, lookup txn.CoinLookup, senders []crypto.PublicKey) (*Block, error) {
	if err := validateTxs(txs, validator, lookup, senders); err != nil {
		return nil, err
	}

	msg := Msg(prev.Hash, validator, txs)
	hash := Hash(msg, nonce)
	limit := Target(complexity, len(txs))
	if !MeetsTarget(hash, limit) {
		return nil, errs.Of(errs.BlockInvalidHashComplexity)
	}

	return &Block{
		Offset:    prev.Offset,
		Size:      uint64(len(txs)),
		HashPrev:  prev.Hash,
		Validator: validator,
		Nonce:     nonce,
		Hash:      hash,
	}, nil
}

// Validate checks b against the transactions it claims to carry, the
// chain-link state it should extend, and the complexity target.
func Validate(b *Block, txs []txn.Transaction, prev state.Last, complexity uint64, lookup txn.CoinLookup, senders []crypto.PublicKey) error {
	if b.HashPrev != prev.Hash {
		return errs.Of(errs.BlockPreviousHashMismatch)
	}
	if b.Offset != prev.Offset {
		return errs.Of(errs.BlockOffsetMismatch)
	}
	if b.Size != uint64(len(txs)) {
		return errs.Of(errs.BlockBroken)
	}

	if err := validateTxs(txs, b.Validator, lookup, senders); err != nil {
		return err
	}

	msg := Msg(prev.Hash, b.Validator, txs)
	hash := Hash(msg, b.Nonce)
	if hash != b.Hash {
		return errs.Of(errs.BlockInvalidHash)
	}

	limit := Target(complexity, len(txs))
	if !MeetsTarget(hash, limit) {
		return errs.Of(errs.BlockInvalidHashComplexity)
	}
	return nil
}

// validateTxs checks global coin uniqueness, per-tx coin validity, that
// txs partitions exactly into groups and validator extensions, that every
// extension's sender is the block's validator, and that every Merge/Split
// extension's order matches the order of the group it realizes (otherwise
// a validator could resource a Split/Merge with under- or over-valued
// coins and mint or destroy value on roll-up).
func validateTxs(txs []txn.Transaction, validator crypto.W, lookup txn.CoinLookup, senders []crypto.PublicKey) error {
	seen := make(map[crypto.W]struct{}, len(txs))
	for _, tx := range txs {
		if _, ok := seen[tx.Coin]; ok {
			return errs.Of(errs.CoinNotUnique)
		}
		seen[tx.Coin] = struct{}{}
	}

	for i, tx := range txs {
		if err := txn.ValidateCoin(tx, lookup, crypto.W(senders[i])); err != nil {
			return err
		}
	}

	groups := txn.GroupTransactions(txs, lookup, senders)
	consumed := 0
	for _, ge := range groups {
		groupSenders := senders[ge.Offset : ge.Offset+len(ge.Group.Txs)]
		extSenders := senders[ge.Offset+len(ge.Group.Txs) : ge.Offset+len(ge.Group.Txs)+len(ge.Ext.Txs)]
		consumed += len(ge.Group.Txs) + len(ge.Ext.Txs)
		if sender, ok := ge.Ext.Sender(extSenders); ok {
			if crypto.W(sender) != validator {
				return errs.Of(errs.BlockValidatorMismatch)
			}
			if ge.Ext.Order(lookup, extSenders) != ge.Group.Order(lookup, groupSenders) {
				return errs.Of(errs.BlockOrderMismatch)
			}
		}
	}
	if consumed != len(txs) {
		return errs.Of(errs.BlockBroken)
	}
	return nil
}
