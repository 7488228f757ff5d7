// Package vocab holds the fixed, immutable set of tokens (dictionary words
// plus single punctuation characters) that the search loop is allowed to
// place, and answers "which of these are still playable given a bank".
package vocab

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/domino14/anagramist/internal/bank"
)

// Token is a single playable unit: a dictionary word (optionally containing
// apostrophes) or a lone punctuation character.
type Token string

type entry struct {
	word      Token
	signature uint64 // bit i set => byte value (i+'a') or its upper-case twin appears
}

// Vocabulary is an immutable, process-lifetime set of tokens.
type Vocabulary struct {
	entries []entry
	set     map[Token]bool
	// buckets groups entries by identical signature so that Playable can
	// skip whole groups of anagram-equivalent tokens (e.g. "listen" and
	// "silent" share a signature) with one bitmask test instead of one per
	// token, per the "pre-bucketed index" acceleration note.
	buckets map[uint64][]int
}

func signatureOf(s string) uint64 {
	var sig uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			sig |= 1 << uint(c-'a')
		case c >= 'A' && c <= 'Z':
			sig |= 1 << uint(c-'A')
		}
	}
	return sig
}

// New builds a Vocabulary from an explicit token list. Tokens are
// deduplicated; the order of the input affects only All's ordering, not
// Playable's.
func New(tokens []string) *Vocabulary {
	v := &Vocabulary{
		set:     make(map[Token]bool, len(tokens)),
		buckets: make(map[uint64][]int),
	}
	for _, t := range tokens {
		if t == "" {
			continue
		}
		tok := Token(t)
		if v.set[tok] {
			continue
		}
		v.set[tok] = true
		idx := len(v.entries)
		v.entries = append(v.entries, entry{word: tok, signature: signatureOf(t)})
		sig := v.entries[idx].signature
		v.buckets[sig] = append(v.buckets[sig], idx)
	}
	return v
}

// Load reads one token per line from r, skipping blank lines, and folds the
// puzzle's punctuation alphabet in as single-character tokens.
func Load(r io.Reader, punctuation []string) (*Vocabulary, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	words = append(words, punctuation...)
	return New(words), nil
}

// All returns every token in the vocabulary, in insertion order.
func (v *Vocabulary) All() []Token {
	out := make([]Token, len(v.entries))
	for i, e := range v.entries {
		out[i] = e.word
	}
	return out
}

// Contains reports whether token is a member of the vocabulary.
func (v *Vocabulary) Contains(token string) bool {
	return v.set[Token(token)]
}

// Len returns the number of distinct tokens in the vocabulary.
func (v *Vocabulary) Len() int {
	return len(v.entries)
}

// Playable returns every token whose character multiset is a subset of bk,
// in a deterministic order (longest first, then lexical ascending) so that
// repeated calls with the same bank give identical results - the search
// loop relies on this for reproducible roll-outs given a fixed PRNG seed.
func (v *Vocabulary) Playable(bk bank.Bank) []Token {
	avail := availMask(bk)
	var out []Token
	for sig, idxs := range v.buckets {
		if sig&^avail != 0 {
			// this whole bucket needs a letter the bank doesn't have at all
			continue
		}
		for _, idx := range idxs {
			e := v.entries[idx]
			if bk.Contains(string(e.word)) {
				out = append(out, e.word)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// availMask computes the bitmask of letters the bank has at least one of.
func availMask(bk bank.Bank) uint64 {
	var mask uint64
	for c := 'a'; c <= 'z'; c++ {
		if bk.Contains(string(c)) {
			mask |= 1 << uint(c-'a')
		}
	}
	for c := 'A'; c <= 'Z'; c++ {
		if bk.Contains(string(c)) {
			mask |= 1 << uint(c-'A')
		}
	}
	return mask
}
