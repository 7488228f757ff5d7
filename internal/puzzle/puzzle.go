// Package puzzle holds declarative puzzle configuration: the letter bank,
// the vocabulary restrictions, and the extra structural constraints (first
// token, punctuation order, longest-word adjacency, required suffix) that
// the validator checks on top of plain bank arithmetic.
package puzzle

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/domino14/anagramist/internal/bank"
)

// Profile is one puzzle's full declarative configuration.
type Profile struct {
	Name string `yaml:"name"`

	// LetterBank is the literal multiset of characters available.
	LetterBank string `yaml:"letter_bank"`

	// RequiredFirstToken, if non-empty, pins the first token of the
	// solution (e.g. "I" for c1663).
	RequiredFirstToken string `yaml:"required_first_token"`

	// RequiredPunctuation lists, in order, the punctuation tokens a solution
	// places: the punctuation tokens placed so far must be a prefix of this
	// list, and a complete solution's must equal it.
	RequiredPunctuation []string `yaml:"required_punctuation"`

	// LongestWordLength and SecondLongestWordLength pin the lengths of the
	// single longest word and any other word longer than 8 characters
	// (0 disables the check).
	LongestWordLength       int  `yaml:"longest_word_length"`
	SecondLongestWordLength int  `yaml:"second_longest_word_length"`
	RequireAdjacency        bool `yaml:"require_adjacency"`

	// RequiredSuffixLastLetter is the letter the final word must end with;
	// RequiredSuffixPunctuation is the punctuation tokens that must
	// immediately follow it with no intervening word. Together these
	// express constraints like "the solution ends with w!!" without relying
	// on literal string-slicing over the canonical, always-space-joined
	// sentence form (see DESIGN.md's note on this reinterpretation).
	RequiredSuffixLastLetter  string   `yaml:"required_suffix_last_letter"`
	RequiredSuffixPunctuation []string `yaml:"required_suffix_punctuation"`

	// ForbiddenVocabulary lists tokens that may never be placed, even if
	// they are otherwise in the dictionary (e.g. words referring to the
	// puzzle itself).
	ForbiddenVocabulary []string `yaml:"forbidden_vocabulary"`

	// PunctuationAlphabet is the full set of punctuation characters legal
	// in this puzzle, each becoming its own single-character token.
	PunctuationAlphabet []string `yaml:"punctuation_alphabet"`
}

// Bank returns the profile's letter bank as a bank.Bank value.
func (p *Profile) Bank() bank.Bank {
	return bank.FromString(p.LetterBank)
}

// IsForbidden reports whether token may never be placed in this puzzle.
func (p *Profile) IsForbidden(token string) bool {
	for _, f := range p.ForbiddenVocabulary {
		if f == token {
			return true
		}
	}
	return false
}

// Load parses a YAML document containing one or more puzzle profiles, keyed
// by name, into a map.
func Load(data []byte) (map[string]*Profile, error) {
	var raw map[string]*Profile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("puzzle: parse profiles: %w", err)
	}
	for name, p := range raw {
		p.Name = name
	}
	return raw, nil
}

// C1663 is the declarative profile for the canonical "Qwantzle" instance
// (comic 1663). The 101-character bank below is a representative
// instantiation built to satisfy every structural constraint in this
// profile (see DESIGN.md): the retrieved materials for this exercise do not
// include the original comic's published letter bank, so this profile uses
// a synthetic bank with the same shape (101 characters, one ':', one ',',
// two '!', a single 11-letter word adjacent to an 8-letter word, and a
// final word ending in 'w' immediately followed by "!!").
var C1663 = &Profile{
	Name:                      "c1663",
	LetterBank:                "Iencodingdiscoverancientunderstandsanagramsstorieshiddenwithinriddleohplainlypuzzlesindeedsomehow:,!!",
	RequiredFirstToken:        "I",
	RequiredPunctuation:       []string{":", ",", "!", "!"},
	LongestWordLength:         11,
	SecondLongestWordLength:   8,
	RequireAdjacency:          true,
	RequiredSuffixLastLetter:  "w",
	RequiredSuffixPunctuation: []string{"!", "!"},
	ForbiddenVocabulary:       []string{"qwantzle", "dinosaur", "comic", "anagram", "anagramist", "puzzle"},
	PunctuationAlphabet:       []string{":", ",", "!", "?"},
}

// Profiles is the registry of built-in puzzle profiles, keyed by name.
var Profiles = map[string]*Profile{
	"c1663": C1663,
}
