// Package txn implements the transaction, group and extension primitives:
// signed coin movements, the bundling rules that turn a flat transaction
// stream into sender-attributed groups, and the validator-synthesized
// extensions that realize Split and Merge atomically.
package txn

import (
	"io"

	"github.com/uqoin/uqoin/coin"
	"github.com/uqoin/uqoin/crypto"
	"github.com/uqoin/uqoin/errs"
)

// Type classifies a transaction (or a group, by its leading transaction) by
// its addr field.
type Type int

const (
	Transfer Type = iota
	Fee
	Split
	Merge
)

func (t Type) String() string {
	switch t {
	case Transfer:
		return "Transfer"
	case Fee:
		return "Fee"
	case Split:
		return "Split"
	case Merge:
		return "Merge"
	default:
		return "???"
	}
}

// Reserved addr values that mark a transaction as something other than a
// Transfer to that address.
var (
	FeeAddr   = crypto.FromUint64(0)
	SplitAddr = crypto.FromUint64(1)
	MergeAddr = crypto.FromUint64(2)
)

// Transaction is the base on-wire unit: a coin moved to addr, signed by the
// coin's current owner.
type Transaction struct {
	Coin   crypto.W
	Addr   crypto.W
	SignR  crypto.W
	SignS  crypto.W
}

// New builds a Transaction from its raw fields, without signing.
func New(c, addr, signR, signS crypto.W) Transaction {
	return Transaction{Coin: c, Addr: addr, SignR: signR, SignS: signS}
}

// Build signs coin's move to addr at the given counter with key, producing
// a ready-to-broadcast Transaction. Use FeeAddr/SplitAddr/MergeAddr for the
// non-Transfer types.
func Build(rand io.Reader, c, addr crypto.W, key crypto.SecretKey, counter uint64) (Transaction, error) {
	msg := calcMsg(c, addr, counter)
	sig, err := crypto.Sign(rand, msg, key)
	if err != nil {
		return Transaction{}, err
	}
	return New(c, addr, sig.R, sig.S), nil
}

// Type reports the transaction's type, derived from its addr field.
func (tx Transaction) Type() Type {
	switch tx.Addr {
	case FeeAddr:
		return Fee
	case SplitAddr:
		return Split
	case MergeAddr:
		return Merge
	default:
		return Transfer
	}
}

// Msg computes the message signed for this transaction at the given
// counter: SHA3(coin || addr || counter).
func (tx Transaction) Msg(counter uint64) crypto.W {
	return calcMsg(tx.Coin, tx.Addr, counter)
}

func calcMsg(c, addr crypto.W, counter uint64) crypto.W {
	return crypto.HashWords(c, addr, crypto.FromUint64(counter))
}

// Hash identifies the transaction on the wire, independent of any live
// counter.
func (tx Transaction) Hash() crypto.W {
	return crypto.HashWords(tx.Coin, tx.Addr, tx.SignR, tx.SignS)
}

// Sender recovers the public key that signed tx, assuming counter was the
// live counter for tx.Coin at signing time.
func Sender(tx Transaction, counter uint64) (crypto.PublicKey, error) {
	return crypto.ExtractPublic(tx.Msg(counter), crypto.Signature{R: tx.SignR, S: tx.SignS})
}

// CoinLookup is the minimal read-only view into live state a transaction
// needs for sender recovery, coin validation and order lookup. State
// satisfies this interface; passing it explicitly (rather than letting
// Transaction methods reach into a global) keeps sender recovery a pure
// function of its inputs, so batch recovery parallelizes trivially.
type CoinLookup interface {
	Owner(c crypto.W) (crypto.W, bool)
	Counter(c crypto.W) uint64
	Order(c crypto.W) (uint64, bool)
}

// CalcSenders recovers the sender of every transaction in txs, in order,
// snapshotting each coin's live counter from lookup on its first
// appearance and advancing it locally for each subsequent appearance of
// the same coin within txs. This mirrors how counters evolve as the
// transactions are later rolled into state.
func CalcSenders(txs []Transaction, lookup CoinLookup) ([]crypto.PublicKey, error) {
	senders := make([]crypto.PublicKey, len(txs))
	seen := make(map[crypto.W]uint64, len(txs))
	for i, tx := range txs {
		counter, ok := seen[tx.Coin]
		if !ok {
			counter = lookup.Counter(tx.Coin)
		}
		pub, err := Sender(tx, counter)
		if err != nil {
			return nil, err
		}
		senders[i] = pub
		seen[tx.Coin] = counter + 1
	}
	return senders, nil
}

// Order returns the order of tx's coin: the live order if state already
// knows the coin, otherwise the order it would mine at for sender.
func Order(tx Transaction, lookup CoinLookup, sender crypto.W) uint64 {
	if o, ok := lookup.Order(tx.Coin); ok {
		return o
	}
	return coin.Order(tx.Coin, sender)
}

// ValidateCoin checks tx.Coin against sender: if the coin is already
// owned, sender must be its owner; otherwise the coin must be structurally
// valid for sender as miner.
func ValidateCoin(tx Transaction, lookup CoinLookup, sender crypto.W) error {
	if owner, ok := lookup.Owner(tx.Coin); ok {
		if owner != sender {
			return errs.Of(errs.TransactionInvalidSender)
		}
		return nil
	}
	if err := coin.Validate(tx.Coin, sender); err != nil {
		return errs.New(errs.CoinInvalid, "%v", err)
	}
	return nil
}

func checkUnique(coins []crypto.W) bool {
	seen := make(map[crypto.W]struct{}, len(coins))
	for _, c := range coins {
		if _, ok := seen[c]; ok {
			return false
		}
		seen[c] = struct{}{}
	}
	return true
}

func checkSame(senders []crypto.PublicKey) bool {
	if len(senders) == 0 {
		return true
	}
	first := senders[0]
	for _, s := range senders[1:] {
		if s != first {
			return false
		}
	}
	return true
}
