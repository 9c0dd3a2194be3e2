// Package state implements uqoin's live ownership index: which address
// owns which coin, each coin's order and transfer counter, and the
// owner-by-order coin buckets used to satisfy validator extensions. It
// provides the deterministic roll_up/roll_down pair that advances or
// rewinds the index by exactly one block.
package state

import (
	"github.com/uqoin/uqoin/build"
	"github.com/uqoin/uqoin/coin"
	"github.com/uqoin/uqoin/crypto"
	"github.com/uqoin/uqoin/txn"
)

// GenesisHash is the fixed hash of the (non-existent) block preceding the
// chain's first block.
var GenesisHash = crypto.MustFromHex("E12BA98A17FD8F70608668AA32AEB3BE1F202B4BD69880A6C0CFE855B1A0706B")

// CoinInfo is the live record for a single coin: who owns it, its order
// (hence value 2^order), and how many times it has appeared as a
// transaction subject in an accepted block (mining counts as the first
// appearance).
type CoinInfo struct {
	Owner   crypto.W
	Order   uint64
	Counter uint64
}

// Last records the most recently accepted block's chain-link metadata.
type Last struct {
	Bix    uint64
	Offset uint64
	Hash   crypto.W
}

// State is the live ownership/order/counter index plus the last accepted
// block's metadata. The zero value is not valid; use New.
type State struct {
	coinInfo   map[crypto.W]CoinInfo
	ownerCoins map[crypto.W]map[uint64]map[crypto.W]struct{}
	last       Last
}

// New returns the genesis state: no coins, no owners, last block at bix 0
// with the fixed genesis hash.
func New() *State {
	return &State{
		coinInfo:   make(map[crypto.W]CoinInfo),
		ownerCoins: make(map[crypto.W]map[uint64]map[crypto.W]struct{}),
		last:       Last{Bix: 0, Offset: 0, Hash: GenesisHash},
	}
}

// Owner implements txn.CoinLookup.
func (s *State) Owner(c crypto.W) (crypto.W, bool) {
	info, ok := s.coinInfo[c]
	if !ok {
		return crypto.W{}, false
	}
	return info.Owner, true
}

// Counter implements txn.CoinLookup: the live counter for c, or 0 if c has
// never appeared in state (the counter a freshly-mined coin would sign
// against).
func (s *State) Counter(c crypto.W) uint64 {
	return s.coinInfo[c].Counter
}

// Order implements txn.CoinLookup.
func (s *State) Order(c crypto.W) (uint64, bool) {
	info, ok := s.coinInfo[c]
	if !ok {
		return 0, false
	}
	return info.Order, true
}

// CoinInfo returns the live record for c, if known.
func (s *State) CoinInfo(c crypto.W) (CoinInfo, bool) {
	info, ok := s.coinInfo[c]
	return info, ok
}

// Coins returns the coins owner holds at the given order, as a snapshot
// (the caller's copy is safe to mutate; it does not alias state).
func (s *State) Coins(owner crypto.W, order uint64) []crypto.W {
	bucket, ok := s.ownerCoins[owner][order]
	if !ok {
		return nil
	}
	out := make([]crypto.W, 0, len(bucket))
	for c := range bucket {
		out = append(out, c)
	}
	return out
}

// CoinsByOrder returns a snapshot of every coin owner holds, bucketed by
// order. The caller's copy does not alias state and is safe to mutate
// (used by the validator pool's prepare step to pop coins as it resources
// extensions).
func (s *State) CoinsByOrder(owner crypto.W) map[uint64][]crypto.W {
	byOrder, ok := s.ownerCoins[owner]
	if !ok {
		return map[uint64][]crypto.W{}
	}
	out := make(map[uint64][]crypto.W, len(byOrder))
	for order, bucket := range byOrder {
		coins := make([]crypto.W, 0, len(bucket))
		for c := range bucket {
			coins = append(coins, c)
		}
		out[order] = coins
	}
	return out
}

// Last returns the last accepted block's chain-link metadata.
func (s *State) Last() Last {
	return s.last
}

var _ txn.CoinLookup = (*State)(nil)

// BlockView is the minimal chain-link information roll_up/roll_down need
// from a block: they never need the block's full transaction list or
// proof-of-work fields.
type BlockView struct {
	HashPrev  crypto.W
	Hash      crypto.W
	Validator crypto.W
}

// RollUp advances state by one block's worth of transactions. bix, the
// block's offset and hash_prev are checked against state's own bookkeeping
// as a precondition: a mismatch means the caller invoked roll_up on the
// wrong block, which is a programming error, not a protocol error, so it
// terminates the process rather than returning one (§7).
func (s *State) RollUp(bix uint64, blockOffset uint64, block BlockView, txs []txn.Transaction) {
	if bix != s.last.Bix+1 {
		build.Critical("state: roll_up bix mismatch", bix, s.last.Bix)
	}
	if blockOffset != s.last.Offset {
		build.Critical("state: roll_up offset mismatch", blockOffset, s.last.Offset)
	}
	if block.HashPrev != s.last.Hash {
		build.Critical("state: roll_up hash_prev mismatch", block.HashPrev, s.last.Hash)
	}

	senders, err := txn.CalcSenders(txs, s)
	if err != nil {
		build.Critical("state: roll_up could not recover senders", err)
	}

	for i, tx := range txs {
		sender := crypto.W(senders[i])
		receiver := tx.Addr
		if tx.Type() != txn.Transfer {
			receiver = block.Validator
		}

		if info, ok := s.coinInfo[tx.Coin]; ok {
			s.ownerCoinRemove(sender, info.Order, tx.Coin)
			info.Owner = receiver
			info.Counter++
			s.coinInfo[tx.Coin] = info
			s.ownerCoinAdd(receiver, info.Order, tx.Coin)
		} else {
			order := coin.Order(tx.Coin, sender)
			s.coinInfo[tx.Coin] = CoinInfo{Owner: receiver, Order: order, Counter: 1}
			s.ownerCoinAdd(receiver, order, tx.Coin)
		}
	}

	s.last.Bix = bix
	s.last.Offset += uint64(len(txs))
	s.last.Hash = block.Hash
}

// RollDown is the exact inverse of RollUp and must be invoked with the
// same (bix, blockOffset, block, txs) it rolled up. As with RollUp, a
// precondition mismatch is a programming error and terminates the process.
func (s *State) RollDown(bix uint64, blockOffset uint64, block BlockView, txs []txn.Transaction) {
	if bix != s.last.Bix {
		build.Critical("state: roll_down bix mismatch", bix, s.last.Bix)
	}
	if blockOffset+uint64(len(txs)) != s.last.Offset {
		build.Critical("state: roll_down offset mismatch", blockOffset, len(txs), s.last.Offset)
	}
	if block.Hash != s.last.Hash {
		build.Critical("state: roll_down hash mismatch", block.Hash, s.last.Hash)
	}

	s.last.Bix--
	s.last.Offset = blockOffset
	s.last.Hash = block.HashPrev

	// Decrement all counters first, so sender recovery below (which reads
	// live counters) sees the pre-roll-up values.
	for _, tx := range txs {
		info := s.coinInfo[tx.Coin]
		info.Counter--
		s.coinInfo[tx.Coin] = info
	}

	senders, err := txn.CalcSenders(txs, s)
	if err != nil {
		build.Critical("state: roll_down could not recover senders", err)
	}

	for i, tx := range txs {
		sender := crypto.W(senders[i])
		receiver := tx.Addr
		if tx.Type() != txn.Transfer {
			receiver = block.Validator
		}

		info := s.coinInfo[tx.Coin]
		if info.Counter == 0 {
			s.ownerCoinRemove(receiver, info.Order, tx.Coin)
			delete(s.coinInfo, tx.Coin)
		} else {
			s.ownerCoinRemove(receiver, info.Order, tx.Coin)
			s.ownerCoinAdd(sender, info.Order, tx.Coin)
			info.Owner = sender
			s.coinInfo[tx.Coin] = info
		}
	}
}

func (s *State) ownerCoinAdd(owner crypto.W, order uint64, c crypto.W) {
	byOrder, ok := s.ownerCoins[owner]
	if !ok {
		byOrder = make(map[uint64]map[crypto.W]struct{})
		s.ownerCoins[owner] = byOrder
	}
	bucket, ok := byOrder[order]
	if !ok {
		bucket = make(map[crypto.W]struct{})
		byOrder[order] = bucket
	}
	bucket[c] = struct{}{}
}

func (s *State) ownerCoinRemove(owner crypto.W, order uint64, c crypto.W) {
	byOrder, ok := s.ownerCoins[owner]
	if !ok {
		return
	}
	bucket, ok := byOrder[order]
	if !ok {
		return
	}
	delete(bucket, c)
	if len(bucket) == 0 {
		delete(byOrder, order)
	}
	if len(byOrder) == 0 {
		delete(s.ownerCoins, owner)
	}
}
