// Package bank implements the letter-bank arithmetic: a multiset of
// characters that partial sentences are checked and subtracted against.
package bank

import "strings"

// Bank is an immutable multiset of bytes. The puzzle alphabet is ASCII
// (letters, apostrophes, and a handful of punctuation characters), so a
// fixed byte-indexed array is both simpler and faster than a map.
type Bank struct {
	counts [256]int16
	total  int
}

// FromString builds a Bank from the literal characters of s. Every byte in s
// is counted verbatim; callers that need Unicode punctuation should
// normalize to ASCII before calling this.
func FromString(s string) Bank {
	var b Bank
	for i := 0; i < len(s); i++ {
		b.counts[s[i]]++
		b.total++
	}
	return b
}

// Size returns the total number of characters remaining in the bank.
func (b Bank) Size() int {
	return b.total
}

// IsEmpty reports whether the bank has no characters left.
func (b Bank) IsEmpty() bool {
	return b.total == 0
}

// Contains reports whether word's character multiset is a subset of b.
func (b Bank) Contains(word string) bool {
	var need [256]int16
	for i := 0; i < len(word); i++ {
		need[word[i]]++
		if need[word[i]] > b.counts[word[i]] {
			return false
		}
	}
	return true
}

// Subtract removes word's character counts from b and returns the result.
// The caller must have already confirmed b.Contains(word); violating that
// precondition is a programming error, not a recoverable one, since a bank
// is never allowed to go negative.
func (b Bank) Subtract(word string) Bank {
	if !b.Contains(word) {
		panic("bank: subtract precondition violated: " + word + " is not contained in bank")
	}
	out := b
	for i := 0; i < len(word); i++ {
		out.counts[word[i]]--
		out.total--
	}
	return out
}

// Diff is a convenience combining Contains+Subtract: it returns the bank
// that would remain after removing word, and whether word was containable
// in the first place. It never panics.
func (b Bank) Diff(word string) (Bank, bool) {
	if !b.Contains(word) {
		return Bank{}, false
	}
	return b.Subtract(word), true
}

// LettersOnly returns a copy of b with every non-letter character zeroed
// out. Used by the validator's vowel-floor check, which only cares about
// the letters left over, not leftover punctuation.
func (b Bank) LettersOnly() Bank {
	out := b
	for c := 0; c < 256; c++ {
		if !isASCIILetter(byte(c)) {
			out.total -= int(out.counts[c])
			out.counts[c] = 0
		}
	}
	return out
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// HasVowel reports whether the bank has at least one of AEIOUaeiou left.
func (b Bank) HasVowel() bool {
	for _, v := range "AEIOUaeiou" {
		if b.counts[byte(v)] > 0 {
			return true
		}
	}
	return false
}

// String renders the bank's remaining letters in a stable, human-readable
// form (sorted ascending by byte value, each repeated by its count). It is
// used only for logging/debugging; it is never parsed back.
func (b Bank) String() string {
	var sb strings.Builder
	for c := 0; c < 256; c++ {
		for n := int16(0); n < b.counts[c]; n++ {
			sb.WriteByte(byte(c))
		}
	}
	return sb.String()
}
