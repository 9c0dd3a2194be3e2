package block

import (
	"github.com/NebulousLabs/fastrand"

	"github.com/uqoin/uqoin/crypto"
)

// MineParallel searches for a qualifying nonce across workers goroutines,
// partitioning the nonce space by starting nonce high byte (the worker
// index mod 256, so with more than 256 workers some share a high byte),
// and returns as soon as any
// worker finds one (SPEC_FULL.md §5's worker-pool mining model). Each
// worker seeds its private randomness from fastrand.Reader, mirroring the
// teacher's own use of fastrand.Reader as a drop-in io.Reader entropy
// source (crypto/signatures.go's ed25519.GenerateKey(fastrand.Reader)).
//
// iterationsPerWorker bounds each worker's search the same way Miner.Next
// does; if every worker exhausts its budget without success, MineParallel
// returns (zero, zero, false).
func MineParallel(msg, limit crypto.W, workers int, iterationsPerWorker int) (crypto.W, crypto.W, bool) {
	if workers < 1 {
		workers = 1
	}

	type result struct {
		nonce, hash crypto.W
		ok          bool
	}
	results := make(chan result, workers)

	for worker := 0; worker < workers; worker++ {
		highByte := byte(worker % 256)
		go func(highByte byte) {
			for attempt := 0; iterationsPerWorker <= 0 || attempt < iterationsPerWorker; attempt++ {
				var buf [32]byte
				fastrand.Read(buf[:])
				buf[31] = highByte // partition this worker's candidates from every other worker's
				nonce := crypto.FromBytes(buf[:])
				hash := Hash(msg, nonce)
				if MeetsTarget(hash, limit) {
					results <- result{nonce: nonce, hash: hash, ok: true}
					return
				}
			}
			results <- result{}
		}(highByte)
	}

	for i := 0; i < workers; i++ {
		r := <-results
		if r.ok {
			return r.nonce, r.hash, true
		}
	}
	return crypto.W{}, crypto.W{}, false
}
