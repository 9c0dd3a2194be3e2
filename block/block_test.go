package block

import (
	"crypto/rand"
	"testing"

	"github.com/uqoin/uqoin/coin"
	"github.com/uqoin/uqoin/crypto"
	"github.com/uqoin/uqoin/errs"
	"github.com/uqoin/uqoin/state"
	"github.com/uqoin/uqoin/txn"
)

// fixedLookup is a minimal txn.CoinLookup for tests that need coins at
// exact, chosen orders without mining for them.
type fixedLookup struct {
	owner map[crypto.W]crypto.W
	order map[crypto.W]uint64
}

func newFixedLookup() *fixedLookup {
	return &fixedLookup{owner: make(map[crypto.W]crypto.W), order: make(map[crypto.W]uint64)}
}

func (l *fixedLookup) set(c, owner crypto.W, order uint64) {
	l.owner[c] = owner
	l.order[c] = order
}

func (l *fixedLookup) Owner(c crypto.W) (crypto.W, bool) {
	o, ok := l.owner[c]
	return o, ok
}

func (l *fixedLookup) Counter(c crypto.W) uint64 { return 0 }

func (l *fixedLookup) Order(c crypto.W) (uint64, bool) {
	o, ok := l.order[c]
	return o, ok
}

func TestGenesisFixedHash(t *testing.T) {
	g := Genesis()
	if g.Hash != state.GenesisHash {
		t.Fatalf("expected genesis hash constant, got %v", g.Hash)
	}
	if g.Offset != 0 || g.Size != 0 {
		t.Fatalf("expected zero offset/size, got %+v", g)
	}
}

func TestEmptyBlockMessageAndHash(t *testing.T) {
	hashPrev := crypto.FromUint64(7)
	validator := crypto.FromUint64(9)

	msg := Msg(hashPrev, validator, nil)
	wantMsg := crypto.HashWords(hashPrev, validator)
	if msg != wantMsg {
		t.Fatalf("empty-block message mismatch")
	}

	nonce := crypto.FromUint64(3)
	h := Hash(msg, nonce)
	wantHash := crypto.HashWords(msg, nonce)
	if h != wantHash {
		t.Fatalf("empty-block hash mismatch")
	}
}

func TestTargetHalvesWithDoubleSize(t *testing.T) {
	t1 := Target(24, 1)
	t2 := Target(24, 2)
	// t2 should be exactly half of t1 (integer division).
	want := t1.DivUint64(2)
	if t2 != want {
		t.Fatalf("expected target to halve with size: %v != %v", t2, want)
	}
}

func TestMineProducesHashMeetingTarget(t *testing.T) {
	msg := crypto.FromUint64(123)
	// A loose target (low complexity) so the test mines quickly.
	limit := Target(4, 1)
	m := NewMiner(rand.Reader, msg, limit)
	nonce, hash, ok, err := m.Next(1_000_000)
	if err != nil {
		t.Fatalf("mining error: %v", err)
	}
	if !ok {
		t.Fatal("expected mining to succeed within the iteration cap")
	}
	if Hash(msg, nonce) != hash {
		t.Fatalf("returned hash does not match recomputed hash")
	}
	if !MeetsTarget(hash, limit) {
		t.Fatal("mined hash does not meet the target")
	}
}

func TestBuildAndValidateMintTransferBlock(t *testing.T) {
	minerKey, _ := crypto.GenerateKey(rand.Reader)
	miner := crypto.W(minerKey.Public())
	c, err := coin.Random(rand.Reader, miner)
	if err != nil {
		t.Fatalf("coin.Random: %v", err)
	}
	receiverKey, _ := crypto.GenerateKey(rand.Reader)
	receiver := crypto.W(receiverKey.Public())

	tx, err := txn.Build(rand.Reader, c, receiver, minerKey, 0)
	if err != nil {
		t.Fatalf("txn.Build: %v", err)
	}

	s := state.New()
	prev := s.Last()
	txs := []txn.Transaction{tx}
	senders, err := txn.CalcSenders(txs, s)
	if err != nil {
		t.Fatalf("CalcSenders: %v", err)
	}

	msg := Msg(prev.Hash, miner, txs)
	limit := Target(4, len(txs))
	m := NewMiner(rand.Reader, msg, limit)
	nonce, _, ok, err := m.Next(1_000_000)
	if err != nil || !ok {
		t.Fatalf("mining failed: ok=%v err=%v", ok, err)
	}

	b, err := Build(prev, miner, txs, nonce, 4, s, senders)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if err := Validate(b, txs, prev, 4, s, senders); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

// buildSplitTxs assembles a Split group (one subject transaction) and its
// three-transaction validator extension, with the subject coin's order set
// to subjectOrder and the extension's leading coin order set to extOrder0
// (the remaining two extension coins are pinned one order below, as
// validateExtension requires). It returns the four transactions in block
// order and the lookup they were built against.
func buildSplitTxs(t *testing.T, subjectOrder, extOrder0 uint64) ([]txn.Transaction, *fixedLookup, crypto.W, crypto.W) {
	t.Helper()
	senderKey, _ := crypto.GenerateKey(rand.Reader)
	sender := crypto.W(senderKey.Public())
	validatorKey, _ := crypto.GenerateKey(rand.Reader)
	validator := crypto.W(validatorKey.Public())

	lookup := newFixedLookup()

	subject, err := coin.Random(rand.Reader, sender)
	if err != nil {
		t.Fatalf("coin.Random subject: %v", err)
	}
	lookup.set(subject, sender, subjectOrder)
	splitTx, err := txn.Build(rand.Reader, subject, txn.SplitAddr, senderKey, 0)
	if err != nil {
		t.Fatalf("txn.Build split: %v", err)
	}

	extOrders := []uint64{extOrder0, extOrder0 - 1, extOrder0 - 1}
	txs := []txn.Transaction{splitTx}
	for _, o := range extOrders {
		c, err := coin.Random(rand.Reader, validator)
		if err != nil {
			t.Fatalf("coin.Random ext: %v", err)
		}
		lookup.set(c, validator, o)
		extTx, err := txn.Build(rand.Reader, c, sender, validatorKey, 0)
		if err != nil {
			t.Fatalf("txn.Build ext: %v", err)
		}
		txs = append(txs, extTx)
	}
	return txs, lookup, sender, validator
}

// TestValidateRejectsSplitExtensionOrderMismatch reproduces a validator
// resourcing a Split with an extension far too small for the group it
// realizes: the subject coin is order 10 (value 1024), but the extension
// only conveys order-2/1/1 coins (value 8). Validate must reject this
// (§4.7), not silently let the validator pocket the difference.
func TestValidateRejectsSplitExtensionOrderMismatch(t *testing.T) {
	txs, lookup, _, validator := buildSplitTxs(t, 10, 2)

	senders, err := txn.CalcSenders(txs, lookup)
	if err != nil {
		t.Fatalf("CalcSenders: %v", err)
	}

	prev := state.Last{Hash: state.GenesisHash}
	b := &Block{
		Offset:    prev.Offset,
		Size:      uint64(len(txs)),
		HashPrev:  prev.Hash,
		Validator: validator,
		Nonce:     crypto.FromUint64(0),
		Hash:      crypto.FromUint64(0),
	}

	err = Validate(b, txs, prev, Complexity, lookup, senders)
	if !errs.Is(err, errs.BlockOrderMismatch) {
		t.Fatalf("expected BlockOrderMismatch, got %v", err)
	}
}

// TestBuildAndValidateSplitBlockConservesValue mirrors the exploit test
// above but with an extension that actually conserves the subject's value
// (order 3, resourced by order-2/1/1 coins summing to the same value), and
// checks the block builds and validates end to end.
func TestBuildAndValidateSplitBlockConservesValue(t *testing.T) {
	txs, lookup, _, validator := buildSplitTxs(t, 3, 2)

	senders, err := txn.CalcSenders(txs, lookup)
	if err != nil {
		t.Fatalf("CalcSenders: %v", err)
	}

	prev := state.Last{Hash: state.GenesisHash}
	msg := Msg(prev.Hash, validator, txs)
	limit := Target(4, len(txs))
	m := NewMiner(rand.Reader, msg, limit)
	nonce, _, ok, err := m.Next(1_000_000)
	if err != nil || !ok {
		t.Fatalf("mining failed: ok=%v err=%v", ok, err)
	}

	b, err := Build(prev, validator, txs, nonce, 4, lookup, senders)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := Validate(b, txs, prev, 4, lookup, senders); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
