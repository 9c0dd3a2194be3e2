package txn

import (
	"crypto/rand"
	"testing"

	"github.com/uqoin/uqoin/coin"
	"github.com/uqoin/uqoin/crypto"
)

// memLookup is a minimal in-memory CoinLookup for unit tests that don't
// need the full state package.
type memLookup struct {
	owner   map[crypto.W]crypto.W
	counter map[crypto.W]uint64
	order   map[crypto.W]uint64
}

func newMemLookup() *memLookup {
	return &memLookup{
		owner:   make(map[crypto.W]crypto.W),
		counter: make(map[crypto.W]uint64),
		order:   make(map[crypto.W]uint64),
	}
}

func (m *memLookup) Owner(c crypto.W) (crypto.W, bool) {
	o, ok := m.owner[c]
	return o, ok
}

func (m *memLookup) Counter(c crypto.W) uint64 {
	return m.counter[c]
}

func (m *memLookup) Order(c crypto.W) (uint64, bool) {
	o, ok := m.order[c]
	return o, ok
}

func TestBuildAndSenderRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	public := key.Public()

	c := crypto.FromUint64(42)
	addr := crypto.FromUint64(99)

	tx, err := Build(rand.Reader, c, addr, key, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tx.Type() != Transfer {
		t.Fatalf("expected Transfer, got %v", tx.Type())
	}

	sender, err := Sender(tx, 0)
	if err != nil {
		t.Fatalf("Sender: %v", err)
	}
	if sender != public {
		t.Fatalf("sender mismatch: %+v != %+v", sender, public)
	}
}

func TestTypeFromAddr(t *testing.T) {
	cases := []struct {
		addr crypto.W
		want Type
	}{
		{FeeAddr, Fee},
		{SplitAddr, Split},
		{MergeAddr, Merge},
		{crypto.FromUint64(7), Transfer},
	}
	for _, c := range cases {
		tx := New(crypto.Zero, c.addr, crypto.Zero, crypto.Zero)
		if got := tx.Type(); got != c.want {
			t.Fatalf("Type(%v) = %v, want %v", c.addr, got, c.want)
		}
	}
}

func TestCalcSendersAdvancesCounterWithinBlock(t *testing.T) {
	key, _ := crypto.GenerateKey(rand.Reader)
	public := key.Public()

	c := crypto.FromUint64(1234)
	lookup := newMemLookup()
	lookup.counter[c] = 0

	tx0, err := Build(rand.Reader, c, crypto.FromUint64(5), key, 0)
	if err != nil {
		t.Fatalf("Build tx0: %v", err)
	}
	tx1, err := Build(rand.Reader, c, crypto.FromUint64(6), key, 1)
	if err != nil {
		t.Fatalf("Build tx1: %v", err)
	}

	senders, err := CalcSenders([]Transaction{tx0, tx1}, lookup)
	if err != nil {
		t.Fatalf("CalcSenders: %v", err)
	}
	if senders[0] != public || senders[1] != public {
		t.Fatalf("expected both senders to recover to %+v, got %+v", public, senders)
	}
}

func TestValidateCoinMintAndOwnership(t *testing.T) {
	minerKey, _ := crypto.GenerateKey(rand.Reader)
	minerPub := crypto.W(minerKey.Public())

	c, err := coin.Random(rand.Reader, minerPub)
	if err != nil {
		t.Fatalf("coin.Random: %v", err)
	}
	tx := New(c, crypto.FromUint64(1), crypto.Zero, crypto.Zero)

	lookup := newMemLookup()
	if err := ValidateCoin(tx, lookup, minerPub); err != nil {
		t.Fatalf("expected mint to validate: %v", err)
	}

	other, _ := crypto.GenerateKey(rand.Reader)
	if err := ValidateCoin(tx, lookup, crypto.W(other.Public())); err == nil {
		t.Fatal("expected mint validation to fail for the wrong miner")
	}

	lookup.owner[c] = minerPub
	if err := ValidateCoin(tx, lookup, minerPub); err != nil {
		t.Fatalf("expected ownership check to pass: %v", err)
	}
	if err := ValidateCoin(tx, lookup, crypto.W(other.Public())); err == nil {
		t.Fatal("expected ownership check to fail for a non-owner sender")
	}
}
