// Package validate implements the soft/hard validator: the predicate that
// rejects sentence prefixes no completion of which could ever satisfy the
// puzzle, and the stricter predicate applied only to empty-bank terminals.
package validate

import (
	"strings"

	"github.com/domino14/anagramist/internal/bank"
	"github.com/domino14/anagramist/internal/puzzle"
	"github.com/domino14/anagramist/internal/vocab"
)

// Outcome is the result of validating a sentence. Callers persist Invalid
// as store.StatusHardInvalid and Open or Terminal as store.StatusOpen.
type Outcome int

const (
	// Open means the sentence passed every applicable check.
	Open Outcome = iota
	// Invalid means some check failed; no extension of this sentence can
	// ever satisfy the puzzle.
	Invalid
	// Terminal means the sentence is a hard-validated winning candidate.
	Terminal
)

// Reason names which check failed, for diagnostics and for the `check
// --json` per-constraint flags.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonNotContained        Reason = "not-contained-in-bank"
	ReasonUnknownWord         Reason = "word-not-in-vocabulary"
	ReasonForbiddenWord       Reason = "forbidden-word"
	ReasonNoVowelLeft         Reason = "no-vowel-in-remainder"
	ReasonLongestWordMissing  Reason = "no-feasible-longest-word-remains"
	ReasonPunctuationOrder    Reason = "punctuation-out-of-order"
	ReasonFirstToken          Reason = "first-token-mismatch"
	ReasonWordLengthStructure Reason = "word-length-structure-violated"
	ReasonSuffixMismatch      Reason = "required-suffix-violated"
	ReasonBankNotEmpty        Reason = "bank-not-empty"
)

// Flags mirrors the four c* constraint flags the CLI's `check --json`
// output reports alongside each prefix: whether the prefix is contained in
// the bank, whether it has a feasible vowel/longest-word continuation,
// whether punctuation is in order, and whether the anchors (first token,
// required suffix, word-length structure) are satisfied so far.
type Flags struct {
	Contained          bool
	Feasible           bool
	PunctuationInOrder bool
	AnchorsOK          bool
}

// Result bundles the outcome of one validation call.
type Result struct {
	Outcome Outcome
	Reason  Reason
	Flags   Flags
	Bank    bank.Bank // the bank remaining after this sentence's tokens
}

// Tokens splits a canonical sentence (tokens joined by single spaces) back
// into its tokens. Canonical sentences never contain runs of whitespace, so
// a plain space-split round-trips exactly.
func Tokens(sentence string) []string {
	if sentence == "" {
		return nil
	}
	return strings.Split(sentence, " ")
}

func isSinglePunct(tok string, alphabet []string) bool {
	for _, p := range alphabet {
		if tok == p {
			return true
		}
	}
	return false
}

// Soft runs the soft-validation checks from the puzzle spec: bank
// containment, vowel floor, longest-word feasibility, punctuation order,
// and any prefix/suffix anchors that the sentence is already long enough to
// commit to. It never produces a false "invalid" - a sentence that fails
// soft validation truly cannot be completed.
func Soft(sentence string, full bank.Bank, vocabulary *vocab.Vocabulary, p *puzzle.Profile) Result {
	tokens := Tokens(sentence)
	remaining := full
	flags := Flags{Contained: true, Feasible: true, PunctuationInOrder: true, AnchorsOK: true}

	for _, tok := range tokens {
		if p != nil && p.IsForbidden(tok) {
			flags.Contained = false
			return Result{Outcome: Invalid, Reason: ReasonForbiddenWord, Flags: flags, Bank: remaining}
		}
		if !vocabulary.Contains(tok) {
			flags.Contained = false
			return Result{Outcome: Invalid, Reason: ReasonUnknownWord, Flags: flags, Bank: remaining}
		}
		next, ok := remaining.Diff(tok)
		if !ok {
			flags.Contained = false
			return Result{Outcome: Invalid, Reason: ReasonNotContained, Flags: flags, Bank: remaining}
		}
		remaining = next
	}

	// Vowel floor: if letters remain, at least one of them must be a vowel.
	lettersLeft := remaining.LettersOnly()
	if !lettersLeft.IsEmpty() && !lettersLeft.HasVowel() {
		flags.Feasible = false
		return Result{Outcome: Invalid, Reason: ReasonNoVowelLeft, Flags: flags, Bank: remaining}
	}

	// Longest-word feasibility.
	if p != nil && p.LongestWordLength > 0 && !remaining.IsEmpty() {
		if !hasWordOfLengthAlreadyPlaced(tokens, p.LongestWordLength) {
			if !feasibleWordOfMinLength(vocabulary, remaining, p.LongestWordLength) {
				flags.Feasible = false
				return Result{Outcome: Invalid, Reason: ReasonLongestWordMissing, Flags: flags, Bank: remaining}
			}
		}
	}

	// Required-punctuation order: placed punctuation tokens must be a
	// prefix of the required sequence.
	if p != nil && len(p.RequiredPunctuation) > 0 {
		pos := 0
		for _, tok := range tokens {
			if !isSinglePunct(tok, p.PunctuationAlphabet) {
				continue
			}
			if pos >= len(p.RequiredPunctuation) || p.RequiredPunctuation[pos] != tok {
				flags.PunctuationInOrder = false
				return Result{Outcome: Invalid, Reason: ReasonPunctuationOrder, Flags: flags, Bank: remaining}
			}
			pos++
		}
	}

	// Prefix anchor: required first token, once at least one token exists.
	if p != nil && p.RequiredFirstToken != "" && len(tokens) > 0 {
		if tokens[0] != p.RequiredFirstToken {
			flags.AnchorsOK = false
			return Result{Outcome: Invalid, Reason: ReasonFirstToken, Flags: flags, Bank: remaining}
		}
	}

	// Word-length structure: any word longer than the second-longest
	// threshold must equal the longest length exactly, and (if adjacency is
	// required) be next to a word of the second-longest length unless it is
	// the most recently placed token.
	if p != nil && p.LongestWordLength > 0 && p.SecondLongestWordLength > 0 {
		if !wordLengthStructureOK(tokens, p, true) {
			flags.AnchorsOK = false
			return Result{Outcome: Invalid, Reason: ReasonWordLengthStructure, Flags: flags, Bank: remaining}
		}
	}

	// Suffix anchor: once only the required trailing punctuation remains to
	// be placed, the most recent word token must already end correctly.
	if p != nil && p.RequiredSuffixLastLetter != "" {
		if !suffixFeasible(tokens, p, remaining) {
			flags.AnchorsOK = false
			return Result{Outcome: Invalid, Reason: ReasonSuffixMismatch, Flags: flags, Bank: remaining}
		}
	}

	return Result{Outcome: Open, Reason: ReasonNone, Flags: flags, Bank: remaining}
}

// Hard runs every soft check plus the additional checks that only make
// sense once the bank is empty: the remaining bank must be exactly empty
// and, for c1663-style profiles, the full set of structural predicates must
// hold over the complete sentence (not just the prefix placed so far).
func Hard(sentence string, full bank.Bank, vocabulary *vocab.Vocabulary, p *puzzle.Profile) Result {
	res := Soft(sentence, full, vocabulary, p)
	if res.Outcome == Invalid {
		return res
	}
	if !res.Bank.IsEmpty() {
		return Result{Outcome: Invalid, Reason: ReasonBankNotEmpty, Flags: res.Flags, Bank: res.Bank}
	}

	tokens := Tokens(sentence)
	if p != nil {
		if p.RequiredFirstToken != "" && (len(tokens) == 0 || tokens[0] != p.RequiredFirstToken) {
			return Result{Outcome: Invalid, Reason: ReasonFirstToken, Flags: res.Flags, Bank: res.Bank}
		}
		if len(p.RequiredPunctuation) > 0 {
			var placedPunct []string
			for _, tok := range tokens {
				if isSinglePunct(tok, p.PunctuationAlphabet) {
					placedPunct = append(placedPunct, tok)
				}
			}
			if !equalStrings(placedPunct, p.RequiredPunctuation) {
				return Result{Outcome: Invalid, Reason: ReasonPunctuationOrder, Flags: res.Flags, Bank: res.Bank}
			}
		}
		if p.LongestWordLength > 0 && p.SecondLongestWordLength > 0 {
			if !wordLengthStructureOK(tokens, p, false) {
				return Result{Outcome: Invalid, Reason: ReasonWordLengthStructure, Flags: res.Flags, Bank: res.Bank}
			}
		}
		if p.RequiredSuffixLastLetter != "" {
			if !hardSuffixOK(tokens, p) {
				return Result{Outcome: Invalid, Reason: ReasonSuffixMismatch, Flags: res.Flags, Bank: res.Bank}
			}
		}
	}
	return Result{Outcome: Terminal, Reason: ReasonNone, Flags: res.Flags, Bank: res.Bank}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func hasWordOfLengthAlreadyPlaced(tokens []string, length int) bool {
	for _, t := range tokens {
		if isWord(t) && len(t) >= length {
			return true
		}
	}
	return false
}

func feasibleWordOfMinLength(vocabulary *vocab.Vocabulary, remaining bank.Bank, minLen int) bool {
	for _, t := range vocabulary.Playable(remaining) {
		if len(t) >= minLen {
			return true
		}
	}
	return false
}

func isWord(tok string) bool {
	if len(tok) == 0 {
		return false
	}
	// A token is a punctuation token iff it is exactly one character and
	// that character is not a letter or apostrophe.
	if len(tok) == 1 {
		c := tok[0]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '\'') {
			return false
		}
	}
	return true
}

// wordLengthStructureOK implements the longest/second-longest-adjacency
// rule. When prefixOnly is true, only words already placed are checked
// (soft validation - future words may still satisfy the pending
// requirement), matching the distilled spec's longest-word-feasibility note
// that a soft check "must reject only prefixes no extension of which could
// win".
func wordLengthStructureOK(tokens []string, p *puzzle.Profile, prefixOnly bool) bool {
	var words []string
	var lengths []int
	for _, t := range tokens {
		if !isWord(t) {
			continue
		}
		words = append(words, t)
		lengths = append(lengths, len(t))
	}
	for pos, length := range lengths {
		if length <= p.SecondLongestWordLength {
			continue
		}
		if length != p.LongestWordLength {
			return false
		}
		if !p.RequireAdjacency {
			continue
		}
		if pos == len(lengths)-1 {
			// Most recently placed; the neighbor hasn't been placed yet.
			if prefixOnly {
				continue
			}
			// In hard validation there is no "yet" - a trailing longest
			// word with no neighbor at all fails adjacency.
			if pos == 0 || lengths[pos-1] != p.SecondLongestWordLength {
				return false
			}
			continue
		}
		before := pos > 0 && lengths[pos-1] == p.SecondLongestWordLength
		after := lengths[pos+1] == p.SecondLongestWordLength
		if !before && !after {
			return false
		}
	}
	return true
}

// suffixFeasible checks the soft form of the required-suffix anchor: once
// the only letters left in the bank belong to the trailing punctuation (no
// letters remain), the most recently placed word must already end with the
// required letter.
func suffixFeasible(tokens []string, p *puzzle.Profile, remaining bank.Bank) bool {
	if !remaining.LettersOnly().IsEmpty() {
		return true // letters still available; too early to tell
	}
	lastWord := lastWordToken(tokens)
	if lastWord == "" {
		return true
	}
	return strings.HasSuffix(lastWord, p.RequiredSuffixLastLetter)
}

// hardSuffixOK checks the full required-suffix anchor on a complete,
// empty-bank sentence: the final word must end with the required letter
// and must be followed immediately by exactly the required trailing
// punctuation tokens, with nothing else after.
func hardSuffixOK(tokens []string, p *puzzle.Profile) bool {
	n := len(p.RequiredSuffixPunctuation)
	if len(tokens) < n+1 {
		return false
	}
	tail := tokens[len(tokens)-n:]
	if !equalStrings(tail, p.RequiredSuffixPunctuation) {
		return false
	}
	lastWord := tokens[len(tokens)-n-1]
	return strings.HasSuffix(lastWord, p.RequiredSuffixLastLetter)
}

func lastWordToken(tokens []string) string {
	for i := len(tokens) - 1; i >= 0; i-- {
		if isWord(tokens[i]) {
			return tokens[i]
		}
	}
	return ""
}
