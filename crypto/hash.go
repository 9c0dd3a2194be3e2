package crypto

import (
	"golang.org/x/crypto/sha3"
)

// HashWords absorbs the little-endian 32-byte encoding of each operand, in
// order, into a SHA3-256 digest and folds the 32-byte result back into a
// word. This is the hash primitive every protocol message (coin order,
// transaction message, transaction hash, block message/hash) is built from.
func HashWords(words ...W) W {
	h := sha3.New256()
	for _, w := range words {
		b := w.Bytes()
		h.Write(b[:])
	}
	return FromBytes(h.Sum(nil))
}

// HashBytes is the raw SHA3-256 entry point for arbitrary byte buffers
// rather than sequences of words. Package seed does not use it: its seed
// derivation is PBKDF2-HMAC-SHA512.
func HashBytes(data []byte) [32]byte {
	var sum [32]byte
	h := sha3.Sum256(data)
	copy(sum[:], h[:])
	return sum
}
