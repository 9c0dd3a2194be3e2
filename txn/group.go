package txn

import (
	"github.com/uqoin/uqoin/crypto"
	"github.com/uqoin/uqoin/errs"
)

// Group is a user-signed bundle of transactions: a leading Transfer, Split
// or Merge subject, an optional trailing Fee, all with unique coins and a
// single sender. Construction enforces these shape invariants, so a live
// Group value is always well-formed.
type Group struct {
	Txs []Transaction
}

// leadingSize returns how many non-Fee transactions a group of this
// leading type requires: 1 for Transfer/Split, 3 for Merge, 0 if the
// leading type cannot start a group (Fee).
func leadingSize(t Type) int {
	switch t {
	case Split, Transfer:
		return 1
	case Merge:
		return 3
	default:
		return 0
	}
}

// NewGroup validates txs as a complete group (§4.5 group creation
// invariants) and wraps them.
func NewGroup(txs []Transaction, lookup CoinLookup, senders []crypto.PublicKey) (*Group, error) {
	if err := validateGroup(txs, lookup, senders); err != nil {
		return nil, err
	}
	return &Group{Txs: txs}, nil
}

func validateGroup(txs []Transaction, lookup CoinLookup, senders []crypto.PublicKey) error {
	if len(txs) == 0 {
		return errs.Of(errs.TransactionEmpty)
	}
	if len(senders) != len(txs) {
		return errs.Of(errs.TransactionInvalidSender)
	}
	coins := make([]crypto.W, len(txs))
	for i, tx := range txs {
		coins[i] = tx.Coin
	}
	if !checkUnique(coins) {
		return errs.Of(errs.CoinNotUnique)
	}
	if !checkSame(senders) {
		return errs.Of(errs.TransactionInvalidSender)
	}

	switch txs[0].Type() {
	case Fee:
		return errs.Of(errs.TransactionBrokenGroup)

	case Split, Transfer:
		if len(txs) > 1 {
			if len(txs) != 2 || txs[1].Type() != Fee {
				return errs.Of(errs.TransactionBrokenGroup)
			}
		}

	case Merge:
		feeOK := len(txs) == 3 || (len(txs) == 4 && txs[3].Type() == Fee)
		if !feeOK {
			return errs.Of(errs.TransactionBrokenGroup)
		}
		if txs[1].Type() != Merge || txs[2].Type() != Merge {
			return errs.Of(errs.TransactionBrokenGroup)
		}
		o0 := Order(txs[0], lookup, crypto.W(senders[0]))
		o1 := Order(txs[1], lookup, crypto.W(senders[1]))
		o2 := Order(txs[2], lookup, crypto.W(senders[2]))
		if o1+1 != o0 || o2+1 != o0 {
			return errs.Of(errs.TransactionBrokenGroup)
		}
	}
	return nil
}

// Type reports the group's type, derived from its leading transaction.
func (g *Group) Type() Type {
	return g.Txs[0].Type()
}

// Sender returns the group's single sender.
func (g *Group) Sender(senders []crypto.PublicKey) crypto.PublicKey {
	return senders[0]
}

// Fee returns the group's trailing fee transaction, if present.
func (g *Group) Fee() (Transaction, bool) {
	ix := leadingSize(g.Txs[0].Type())
	if ix < len(g.Txs) {
		return g.Txs[ix], true
	}
	return Transaction{}, false
}

// Hash identifies the group by the hash of its leading transaction.
func (g *Group) Hash() crypto.W {
	return g.Txs[0].Hash()
}

// Order returns the order of the group's subject coin(s): the leading
// coin's order for Transfer/Split, or one more than that for Merge (the
// order of the coin the merge produces).
func (g *Group) Order(lookup CoinLookup, senders []crypto.PublicKey) uint64 {
	o := Order(g.Txs[0], lookup, crypto.W(senders[0]))
	if g.Type() == Merge {
		return o + 1
	}
	return o
}

// ExtSize reports how many validator-signed transactions must follow this
// group to realize it: 0 for Transfer, 3 for Split, 1 for Merge.
func (g *Group) ExtSize() int {
	switch g.Type() {
	case Split:
		return 3
	case Merge:
		return 1
	default:
		return 0
	}
}

// GroupFromSlice attempts to build a Group from the leading transactions
// of txs (joining a trailing Fee by the greedy rule), returning the
// number of transactions consumed.
func GroupFromSlice(txs []Transaction, lookup CoinLookup, senders []crypto.PublicKey) (*Group, int, error) {
	if len(txs) == 0 {
		return nil, 0, errs.Of(errs.TransactionEmpty)
	}
	size := leadingSize(txs[0].Type())
	if size == 0 {
		return nil, 0, errs.Of(errs.TransactionBrokenGroup)
	}
	if size < len(txs) && txs[size].Type() == Fee {
		size++
	}
	if size > len(txs) {
		size = len(txs)
	}
	g, err := NewGroup(txs[:size], lookup, senders[:size])
	if err != nil {
		return nil, 0, err
	}
	return g, size, nil
}

// Extension is a validator-signed bundle of transactions appended after a
// Group to realize its Split or Merge atomically. Construction enforces
// the extension shape invariants.
type Extension struct {
	Txs []Transaction
}

// NewExtension validates txs as a complete extension (§4.5 extension
// invariants) and wraps them. An empty txs is a valid (Transfer) extension.
func NewExtension(txs []Transaction, lookup CoinLookup, senders []crypto.PublicKey) (*Extension, error) {
	if err := validateExtension(txs, lookup, senders); err != nil {
		return nil, err
	}
	return &Extension{Txs: txs}, nil
}

func validateExtension(txs []Transaction, lookup CoinLookup, senders []crypto.PublicKey) error {
	if len(senders) != len(txs) {
		return errs.Of(errs.TransactionInvalidSender)
	}
	coins := make([]crypto.W, len(txs))
	for i, tx := range txs {
		coins[i] = tx.Coin
	}
	if !checkUnique(coins) {
		return errs.Of(errs.CoinNotUnique)
	}
	if !checkSame(senders) {
		return errs.Of(errs.TransactionInvalidSender)
	}

	switch len(txs) {
	case 0:
		// Transfer: no extension required.
	case 1:
		if txs[0].Type() != Transfer {
			return errs.Of(errs.TransactionBrokenExt)
		}
	case 3:
		addr := txs[0].Addr
		for _, tx := range txs {
			if tx.Type() != Transfer {
				return errs.Of(errs.TransactionBrokenExt)
			}
		}
		if txs[1].Addr != addr || txs[2].Addr != addr {
			return errs.Of(errs.TransactionBrokenExt)
		}
		o0 := Order(txs[0], lookup, crypto.W(senders[0]))
		o1 := Order(txs[1], lookup, crypto.W(senders[1]))
		o2 := Order(txs[2], lookup, crypto.W(senders[2]))
		if o1+1 != o0 || o2+1 != o0 {
			return errs.Of(errs.TransactionBrokenExt)
		}
	default:
		return errs.Of(errs.TransactionBrokenExt)
	}
	return nil
}

// Type reports the extension's type, inferred from its size.
func (e *Extension) Type() Type {
	switch len(e.Txs) {
	case 1:
		return Merge
	case 3:
		return Split
	default:
		return Transfer
	}
}

// Sender returns the extension's sender, or false if the extension is
// empty (a Transfer group requires none).
func (e *Extension) Sender(senders []crypto.PublicKey) (crypto.PublicKey, bool) {
	if len(e.Txs) == 0 {
		return crypto.PublicKey{}, false
	}
	return senders[0], true
}

// Order returns the total order this extension hands back to the sender,
// designed to coincide with Group.Order for the group it realizes: a
// Merge extension's single coin already carries the produced order, and a
// Split extension's three coins (orders o, o-1, o-1) sum to 2^(o+1), one
// order above its leading coin. A Transfer extension is empty and carries
// no magnitude, so it reports 0 and is not compared.
func (e *Extension) Order(lookup CoinLookup, senders []crypto.PublicKey) uint64 {
	switch len(e.Txs) {
	case 1:
		return Order(e.Txs[0], lookup, crypto.W(senders[0]))
	case 3:
		return Order(e.Txs[0], lookup, crypto.W(senders[0])) + 1
	default:
		return 0
	}
}

// GroupExt pairs a Group with the extension that realizes it, and the
// offset in the original transaction stream where the group began.
type GroupExt struct {
	Offset int
	Group  *Group
	Ext    *Extension
}

// GroupTransactions repeatedly carves groups and their extensions off the
// front of txs, stopping at the first transaction that cannot start or
// complete a group. It never errors: the caller detects incomplete
// grouping by comparing the total consumed count against len(txs), and
// reports BlockBroken itself.
func GroupTransactions(txs []Transaction, lookup CoinLookup, senders []crypto.PublicKey) []GroupExt {
	var out []GroupExt
	offset := 0
	for offset < len(txs) {
		group, size, err := GroupFromSlice(txs[offset:], lookup, senders[offset:])
		if err != nil {
			break
		}
		extSize := group.ExtSize()
		lo, hi := offset+size, offset+size+extSize
		if hi > len(txs) {
			break
		}
		ext, err := NewExtension(txs[lo:hi], lookup, senders[lo:hi])
		if err != nil {
			break
		}
		out = append(out, GroupExt{Offset: offset, Group: group, Ext: ext})
		offset = hi
	}
	return out
}
