package block

import (
	"io"

	"github.com/uqoin/uqoin/crypto"
)

// Miner searches for a nonce that brings msg's hash under limit. Mining
// reads only its own private randomness and the immutable (msg, limit)
// pair, so distinct Miners may run concurrently over disjoint random
// streams without coordination.
type Miner struct {
	rand  io.Reader
	msg   crypto.W
	limit crypto.W
}

// NewMiner creates a search for msg against limit (see Target).
func NewMiner(rand io.Reader, msg, limit crypto.W) *Miner {
	return &Miner{rand: rand, msg: msg, limit: limit}
}

// Next draws a random nonce, checks it against the target, and returns
// (nonce, hash, true) on success. maxIterations bounds the search; 0 means
// unbounded. On cap exhaustion it returns (zero, zero, false) — not an
// error, per the core's mining policy.
func (m *Miner) Next(maxIterations int) (crypto.W, crypto.W, bool, error) {
	for i := 0; maxIterations <= 0 || i < maxIterations; i++ {
		var buf [32]byte
		if _, err := io.ReadFull(m.rand, buf[:]); err != nil {
			return crypto.W{}, crypto.W{}, false, err
		}
		nonce := crypto.FromBytes(buf[:])
		hash := Hash(m.msg, nonce)
		if MeetsTarget(hash, m.limit) {
			return nonce, hash, true, nil
		}
	}
	return crypto.W{}, crypto.W{}, false, nil
}
