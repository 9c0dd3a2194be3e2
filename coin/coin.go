// Package coin implements the coin primitive: structural validity against
// a miner address, its order (and therefore its value), its human-readable
// symbol, and the search procedure used to mine new coins.
package coin

import (
	"fmt"
	"io"
	"strconv"

	"github.com/uqoin/uqoin/crypto"
)

// ErrInvalid is returned when a coin's structural tail does not match the
// claimed miner.
var ErrInvalid = fmt.Errorf("coin: structural tail does not match miner")

// Validate checks that coin's high 128 bits equal miner's high 128 bits,
// i.e. that coin is structurally valid for miner.
func Validate(c, miner crypto.W) error {
	if c[2] == miner[2] && c[3] == miner[3] {
		return nil
	}
	return ErrInvalid
}

// Order returns the order of coin as mined by miner: the number of
// leading zero bits of SHA3(coin || miner). The coin's value is 2^order.
func Order(c, miner crypto.W) uint64 {
	h := crypto.HashWords(c, miner)
	return 256 - uint64(h.BitLen())
}

// Value returns 2^order as a word.
func Value(order uint64) crypto.W {
	return crypto.One.Lsh(uint(order))
}

// Symbol renders an order as a letter+denomination code, e.g. order 27 ->
// "C128" (value 2^27, letter C = third decade of orders, denomination
// 1<<(27%10) = 128).
func Symbol(order uint64) string {
	letter := byte('A' + order/10)
	number := uint64(1) << (order % 10)
	return fmt.Sprintf("%c%d", letter, number)
}

// OrderBySymbol inverts Symbol.
func OrderBySymbol(symbol string) (uint64, error) {
	if len(symbol) < 2 {
		return 0, fmt.Errorf("coin: malformed symbol %q", symbol)
	}
	letter := symbol[0]
	if letter < 'A' || letter > 'Z' {
		return 0, fmt.Errorf("coin: malformed symbol letter in %q", symbol)
	}
	number, err := strconv.ParseUint(symbol[1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("coin: malformed symbol denomination in %q: %w", symbol, err)
	}
	return 10*uint64(letter-'A') + trailingZeros(number), nil
}

func trailingZeros(x uint64) uint64 {
	if x == 0 {
		return 0
	}
	var n uint64
	for x&1 == 0 {
		x >>= 1
		n++
	}
	return n
}

// Random generates a structurally valid coin for miner: a random 128-bit
// head and miner's 128-bit tail.
func Random(rand io.Reader, miner crypto.W) (crypto.W, error) {
	var buf [16]byte
	if _, err := io.ReadFull(rand, buf[:]); err != nil {
		return crypto.W{}, fmt.Errorf("coin: failed to read entropy: %w", err)
	}
	head := crypto.FromBytes(buf[:])
	return crypto.W{head[0], head[1], miner[2], miner[3]}, nil
}

// Miner is a lazy, effectively infinite search for coins structurally
// valid for a fixed miner address and meeting a minimum order. Each call
// to Next draws fresh randomness and tries again until it succeeds,
// mirroring coin_mine's filtered-infinite-iterator shape from the
// reference design.
type Miner struct {
	rand     io.Reader
	miner    crypto.W
	minOrder uint64
}

// NewMiner creates a coin search for the given miner address and minimum
// order.
func NewMiner(rand io.Reader, miner crypto.W, minOrder uint64) *Miner {
	return &Miner{rand: rand, miner: miner, minOrder: minOrder}
}

// Next draws coins until one meets the minimum order, and returns only
// then or when reading from rand fails. It has no iteration cap and takes
// no context, so a caller cannot stop a search in progress.
func (m *Miner) Next() (crypto.W, error) {
	for {
		c, err := Random(m.rand, m.miner)
		if err != nil {
			return crypto.W{}, err
		}
		if Order(c, m.miner) >= m.minOrder {
			return c, nil
		}
	}
}

// Take draws n coins meeting the miner's minimum order.
func (m *Miner) Take(n int) ([]crypto.W, error) {
	coins := make([]crypto.W, 0, n)
	for i := 0; i < n; i++ {
		c, err := m.Next()
		if err != nil {
			return nil, err
		}
		coins = append(coins, c)
	}
	return coins, nil
}
