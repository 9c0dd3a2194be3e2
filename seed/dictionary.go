package seed

import "sort"

// DictionarySize is the number of words in the dictionary: 2^encBits, so
// each word encodes exactly 11 bits of entropy.
const DictionarySize = 2048

// dictionary is generated once, at package init, rather than hand-copied
// from a fixed word list: the teacher's own bip39 package (bip39/bip39.go)
// references a `bibliotheque` word table that is never actually defined
// anywhere in the copied tree (confirmed by grep) — its own TODO comments
// ("Missing examples", "adding the CRC check") mark it as an unfinished
// stub. Rather than inventing 2048 words by hand (error-prone, and risks
// silently drifting from the real BIP-39 English list without being one),
// this builds a small, fully deterministic 4-letter syllable dictionary:
// every (c1, v1, c2, v2) combination from four disjoint-by-position letter
// pools of sizes 8, 4, 8, 8 — exactly 8*4*8*8 = 2048 distinct words — then
// sorts it, since searchDic's dichotomic search requires sorted order.
var dictionary = buildDictionary()

func buildDictionary() []string {
	c1 := []byte("bcdfghjk")
	v1 := []byte("aeio")
	c2 := []byte("lmnprstv")
	v2 := []byte("aeiouywz")

	words := make([]string, 0, DictionarySize)
	for _, a := range c1 {
		for _, b := range v1 {
			for _, c := range c2 {
				for _, d := range v2 {
					words = append(words, string([]byte{a, b, c, d}))
				}
			}
		}
	}
	sort.Strings(words)
	return words
}

// searchDic returns the dictionary index of word via binary search, mirroring
// the teacher's bip39.searchDic.
func searchDic(word string) (int, error) {
	i := sort.SearchStrings(dictionary, word)
	if i == len(dictionary) || dictionary[i] != word {
		return 0, errUnknownWord
	}
	return i, nil
}
