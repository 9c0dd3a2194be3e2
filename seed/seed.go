// Package seed is the BIP-39-style mnemonic collaborator (C10, SPEC_FULL.md
// §4.10): it lets an operator back up a miner or validator secret key as a
// word phrase instead of raw hex, and turns a phrase plus an optional
// passphrase back into deterministic seed material for
// crypto.GenerateKey. It never touches the coin/transaction/state/block
// pipeline.
//
// The bit-packing (encode11/decode11) is adapted directly from the
// teacher's bip39/base.go; the word list is homegrown (see dictionary.go)
// since the teacher's own table was never populated. Seed derivation
// (NewSeed) follows the real BIP-39 algorithm — PBKDF2-HMAC-SHA512 over the
// mnemonic salted with "mnemonic"+passphrase — using golang.org/x/crypto's
// pbkdf2 subpackage, the same dependency the crypto package already uses
// for SHA3.
package seed

import (
	"crypto/sha512"
	"errors"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	decBits  = 8
	encBits  = 11
	set11bit = 0x400
	set8bit  = 0x80

	pbkdf2Iterations = 2048
	pbkdf2KeyLength  = 64
)

var (
	errEmptyInput   = errors.New("seed: input has length 0")
	errUnknownWord  = errors.New("seed: word not found in dictionary")
	errModulo       = errors.New("seed: entropy length must be a multiple of 4 bytes")
	errInvalidValue = errors.New("seed: value has more than 11 significant bits")
)

// Phrase is the human-readable rendering of entropy: one word per 11 bits.
type Phrase []string

// String joins the phrase's words with single spaces.
func (p Phrase) String() string {
	return strings.Join(p, " ")
}

// NewMnemonic renders entropy as a mnemonic phrase. len(entropy) must be a
// multiple of 4 bytes, matching the teacher's encode11 precondition.
func NewMnemonic(entropy []byte) (string, error) {
	if len(entropy) == 0 {
		return "", errEmptyInput
	}
	enc, err := encode11(entropy)
	if err != nil {
		return "", err
	}
	words := make(Phrase, 0, len(enc))
	for _, v := range enc {
		words = append(words, dictionary[v])
	}
	return words.String(), nil
}

// EntropyFromMnemonic recovers the original entropy bytes from a mnemonic
// produced by NewMnemonic.
func EntropyFromMnemonic(mnemonic string) ([]byte, error) {
	words := strings.Fields(mnemonic)
	if len(words) == 0 {
		return nil, errEmptyInput
	}
	indices := make([]int, 0, len(words))
	for _, w := range words {
		idx, err := searchDic(w)
		if err != nil {
			return nil, err
		}
		indices = append(indices, idx)
	}
	return decode11(indices)
}

// NewSeed derives deterministic key material from a mnemonic and an
// optional passphrase, following BIP-39's PBKDF2-HMAC-SHA512 construction.
// The mnemonic is not required to have come from NewMnemonic; any non-empty
// string is accepted, matching BIP-39's own tolerance of non-dictionary
// phrases at the seed-derivation stage.
func NewSeed(mnemonic, passphrase string) ([]byte, error) {
	if mnemonic == "" {
		return nil, errEmptyInput
	}
	salt := "mnemonic" + passphrase
	return pbkdf2.Key([]byte(mnemonic), []byte(salt), pbkdf2Iterations, pbkdf2KeyLength, sha512.New), nil
}

// encode11 takes a slice of bytes (8 bits) and returns a slice of ints (11
// bits), adapted verbatim from the teacher's bip39.encode11.
func encode11(src []byte) ([]int, error) {
	if len(src)%4 != 0 {
		return nil, errModulo
	}

	ret := make([]int, 0, len(src))
	var bits int
	var b11 uint16

	for _, v := range src {
		for i := 0; i < decBits; i++ {
			bits++
			b11 >>= 1
			if byte(v&0x1) == 1 {
				b11 |= set11bit
			}
			v >>= 1

			if bits == encBits {
				bits = 0
				ret = append(ret, int(b11))
				b11 = 0
			}
		}
	}
	b11 >>= uint(encBits - bits)
	ret = append(ret, int(b11))

	return ret, nil
}

// decode11 takes a slice of ints (11 bits) and returns a slice of bytes (8
// bits), adapted verbatim from the teacher's bip39.decode11.
func decode11(src []int) ([]byte, error) {
	ret := make([]byte, 0, len(src))
	var bits int
	var b8 byte

	for _, v := range src {
		if v >= DictionarySize {
			return nil, errInvalidValue
		}
		for i := 0; i < encBits; i++ {
			bits++
			b8 >>= 1
			if byte(v&0x1) == 1 {
				b8 |= set8bit
			}
			v >>= 1
			if bits == decBits {
				ret = append(ret, b8)
				b8 = 0
				bits = 0
			}
		}
	}
	return ret, nil
}
