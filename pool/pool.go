// Package pool implements the validator pool: an ordered list of pending
// (Group, sender) pairs awaiting inclusion, the preparation step that
// resources validator extensions against the validator's own coins, and
// the roll_up/roll_down/merge operations that keep the pool consistent
// with a moving chain tip.
package pool

import (
	"io"

	"github.com/uqoin/uqoin/crypto"
	"github.com/uqoin/uqoin/txn"
)

// Resource is the read access the pool needs into live state: the
// txn.CoinLookup every coin check needs, plus the validator's own
// holdings bucketed by order for resourcing extensions. state.State
// satisfies this interface.
type Resource interface {
	txn.CoinLookup
	CoinsByOrder(owner crypto.W) map[uint64][]crypto.W
}

// entry is one pending (Group, sender) pair.
type entry struct {
	group  *txn.Group
	sender crypto.W
}

// Pool is the validator's ordered backlog of pending groups.
type Pool struct {
	entries []entry
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{}
}

// Len reports the number of pending groups.
func (p *Pool) Len() int {
	return len(p.entries)
}

func validateGroupCoins(group *txn.Group, lookup txn.CoinLookup, sender crypto.W) error {
	for _, tx := range group.Txs {
		if err := txn.ValidateCoin(tx, lookup, sender); err != nil {
			return err
		}
	}
	return nil
}

// Add appends group to the pool if its coins currently validate against
// sender. It reports whether the group was accepted.
func (p *Pool) Add(group *txn.Group, lookup txn.CoinLookup, sender crypto.W) bool {
	if err := validateGroupCoins(group, lookup, sender); err != nil {
		return false
	}
	p.entries = append(p.entries, entry{group: group, sender: sender})
	return true
}

// Update drops groups whose coins no longer validate against lookup (e.g.
// spent, or the sender no longer owns them) — the Discarded transition.
func (p *Pool) Update(lookup txn.CoinLookup) {
	kept := p.entries[:0:0]
	for _, e := range p.entries {
		if validateGroupCoins(e.group, lookup, e.sender) == nil {
			kept = append(kept, e)
		}
	}
	p.entries = kept
}

// repeatedSenders builds the []crypto.PublicKey a Group/Extension method
// expects: the same sender repeated once per transaction.
func repeatedSenders(sender crypto.W, n int) []crypto.PublicKey {
	out := make([]crypto.PublicKey, n)
	pub := crypto.PublicKey(sender)
	for i := range out {
		out[i] = pub
	}
	return out
}

// popValidatorCoin removes and returns a coin of the given order from
// resource not present in ignore, or false if none remains. Coins popped
// here are gone from resource even if the overall extension they were
// being resourced for later fails to complete — mirroring the reference
// design's eager pop-then-maybe-discard behavior.
func popValidatorCoin(resource map[uint64][]crypto.W, order uint64, ignore map[crypto.W]struct{}) (crypto.W, bool) {
	series := resource[order]
	for len(series) > 0 {
		c := series[len(series)-1]
		series = series[:len(series)-1]
		resource[order] = series
		if _, skip := ignore[c]; !skip {
			return c, true
		}
	}
	return crypto.W{}, false
}

// extensionOrders returns the orders of validator coins needed to realize
// group's extension: none for Transfer, the merged coin's order for
// Merge, or three coins for Split (one of order o-1 and two of order o-2,
// together worth 2^o for a subject of order o).
func extensionOrders(group *txn.Group, lookup txn.CoinLookup, sender crypto.W) []uint64 {
	order := group.Order(lookup, repeatedSenders(sender, len(group.Txs)))
	switch group.Type() {
	case txn.Merge:
		return []uint64{order}
	case txn.Split:
		return []uint64{order - 1, order - 2, order - 2}
	default:
		return nil
	}
}

// prepare is Prepare's implementation.
func prepare(rand io.Reader, p *Pool, lookup Resource, validatorKey crypto.SecretKey, groupsMax int) ([]txn.Transaction, []crypto.PublicKey, error) {
	validatorPub := validatorKey.Public()
	validatorAddr := crypto.W(validatorPub)
	resource := lookup.CoinsByOrder(validatorAddr)
	coinSet := make(map[crypto.W]struct{})

	var txs []txn.Transaction
	var senders []crypto.PublicKey

	for i, e := range p.entries {
		if groupsMax > 0 && i >= groupsMax {
			break
		}

		skip := false
		for _, tx := range e.group.Txs {
			if _, ok := coinSet[tx.Coin]; ok {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		for _, tx := range e.group.Txs {
			coinSet[tx.Coin] = struct{}{}
		}

		orders := extensionOrders(e.group, lookup, e.sender)
		extTxs := make([]txn.Transaction, 0, len(orders))
		ok := true
		for _, order := range orders {
			c, found := popValidatorCoin(resource, order, coinSet)
			if !found {
				ok = false
				break
			}
			counter := lookup.Counter(c)
			tx, err := txn.Build(rand, c, e.sender, validatorKey, counter)
			if err != nil {
				return nil, nil, err
			}
			coinSet[c] = struct{}{}
			extTxs = append(extTxs, tx)
		}
		if !ok {
			continue
		}

		txs = append(txs, e.group.Txs...)
		txs = append(txs, extTxs...)
		senders = append(senders, repeatedSenders(e.sender, len(e.group.Txs))...)
		for range extTxs {
			senders = append(senders, validatorPub)
		}
	}

	return txs, senders, nil
}

// Prepare iterates pending groups in insertion order, skipping any that
// reference a coin already consumed in this preparation, and for each
// accepted group synthesizes its extension from the validator's own
// holdings, signed with validatorKey at the coin's live counter. A group
// whose extension cannot be fully resourced is skipped. If groupsMax > 0,
// preparation stops after examining that many pending entries, regardless
// of how many of them were actually accepted.
func (p *Pool) Prepare(rand io.Reader, lookup Resource, validatorKey crypto.SecretKey, groupsMax int) ([]txn.Transaction, []crypto.PublicKey, error) {
	return prepare(rand, p, lookup, validatorKey, groupsMax)
}

// RollUp drops groups that intersect the now-committed coins in txs, then
// re-filters the remainder by coin validity against the post-roll-up
// state — the Committed transition.
func (p *Pool) RollUp(txs []txn.Transaction, lookup txn.CoinLookup) {
	committed := make(map[crypto.W]struct{}, len(txs))
	for _, tx := range txs {
		committed[tx.Coin] = struct{}{}
	}

	kept := p.entries[:0:0]
	for _, e := range p.entries {
		intersects := false
		for _, tx := range e.group.Txs {
			if _, ok := committed[tx.Coin]; ok {
				intersects = true
				break
			}
		}
		if intersects {
			continue
		}
		if validateGroupCoins(e.group, lookup, e.sender) == nil {
			kept = append(kept, e)
		}
	}
	p.entries = kept
}

// RollDown re-ingests the transactions freed by a reorg: it regroups txs
// (§4.5) against the post-roll-down state and adds each recovered group
// back to the pool.
func (p *Pool) RollDown(txs []txn.Transaction, lookup txn.CoinLookup, senders []crypto.PublicKey) {
	for _, ge := range txn.GroupTransactions(txs, lookup, senders) {
		sender := crypto.W(ge.Group.Sender(senders[ge.Offset:]))
		p.Add(ge.Group, lookup, sender)
	}
}

// Merge folds other's groups into p, re-validating each against lookup.
func (p *Pool) Merge(other *Pool, lookup txn.CoinLookup) {
	for _, e := range other.entries {
		p.Add(e.group, lookup, e.sender)
	}
}
