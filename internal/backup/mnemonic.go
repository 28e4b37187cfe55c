package backup

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/coinpurse/wallet-sim/internal/ledger"
)

// MnemonicWords is the fixed phrase length.
const MnemonicWords = 12

// GenerateMnemonic draws a 12-word phrase from the dictionary, each
// word chosen independently with crypto/rand.
func GenerateMnemonic() string {
	words := make([]string, MnemonicWords)
	max := big.NewInt(int64(len(wordList)))
	for i := range words {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform's entropy
			// source is broken; nothing sensible can continue.
			panic(fmt.Sprintf("backup: entropy source unavailable: %v", err))
		}
		words[i] = wordList[n.Int64()]
	}
	return strings.Join(words, " ")
}

// ValidateMnemonic checks structural correctness: exactly twelve
// space-separated words, every one present in the dictionary.
func ValidateMnemonic(phrase string) error {
	words := strings.Fields(strings.TrimSpace(phrase))
	if len(words) != MnemonicWords {
		return &ledger.InvalidMnemonicError{
			Reason: fmt.Sprintf("expected %d words, got %d", MnemonicWords, len(words)),
		}
	}
	for _, w := range words {
		if _, ok := wordSet[w]; !ok {
			return &ledger.InvalidMnemonicError{
				Reason: fmt.Sprintf("unknown word %q", w),
			}
		}
	}
	return nil
}

// RestoreFromMnemonic is the validation-only restore path: it confirms
// the phrase is well formed without reconstructing a key.
func RestoreFromMnemonic(phrase string) error {
	return ValidateMnemonic(phrase)
}
