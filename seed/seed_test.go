package seed

import (
	"bytes"
	"testing"
)

func TestMnemonicRoundTrip(t *testing.T) {
	entropy := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	phrase, err := NewMnemonic(entropy)
	if err != nil {
		t.Fatalf("NewMnemonic: %v", err)
	}
	if len(phrase) == 0 {
		t.Fatal("expected a non-empty phrase")
	}

	got, err := EntropyFromMnemonic(phrase)
	if err != nil {
		t.Fatalf("EntropyFromMnemonic: %v", err)
	}
	if !bytes.Equal(got[:len(entropy)], entropy) {
		t.Fatalf("round-trip mismatch: %v != %v", got[:len(entropy)], entropy)
	}
}

func TestMnemonicRejectsUnknownWord(t *testing.T) {
	if _, err := EntropyFromMnemonic("zzzz"); err == nil {
		t.Fatal("expected an unknown word to be rejected")
	}
}

func TestNewSeedIsDeterministic(t *testing.T) {
	s1, err := NewSeed("abandon ability able", "")
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}
	s2, err := NewSeed("abandon ability able", "")
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}
	if !bytes.Equal(s1, s2) {
		t.Fatal("expected NewSeed to be deterministic for the same inputs")
	}
	s3, _ := NewSeed("abandon ability able", "passphrase")
	if bytes.Equal(s1, s3) {
		t.Fatal("expected a different passphrase to change the derived seed")
	}
	if len(s1) != pbkdf2KeyLength {
		t.Fatalf("expected seed length %d, got %d", pbkdf2KeyLength, len(s1))
	}
}

func TestNewSeedRejectsEmptyMnemonic(t *testing.T) {
	if _, err := NewSeed("", ""); err == nil {
		t.Fatal("expected empty mnemonic to be rejected")
	}
}

func TestDictionaryIsSortedAndSized(t *testing.T) {
	if len(dictionary) != DictionarySize {
		t.Fatalf("expected %d words, got %d", DictionarySize, len(dictionary))
	}
	for i := 1; i < len(dictionary); i++ {
		if dictionary[i-1] >= dictionary[i] {
			t.Fatalf("dictionary not strictly sorted at index %d: %q >= %q", i, dictionary[i-1], dictionary[i])
		}
	}
}
