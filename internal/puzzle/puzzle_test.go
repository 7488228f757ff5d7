package puzzle

import (
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestC1663BankSizeMatchesBudget(t *testing.T) {
	is := is.New(t)
	is.Equal(C1663.Bank().Size(), 101)
}

func TestC1663IsForbidden(t *testing.T) {
	assert.True(t, C1663.IsForbidden("qwantzle"))
	assert.True(t, C1663.IsForbidden("puzzle"))
	assert.False(t, C1663.IsForbidden("understands"))
}

func TestLoadParsesNamedProfiles(t *testing.T) {
	data := []byte(`
c1663:
  letter_bank: "abc"
  required_first_token: "a"
  required_punctuation: ["!"]
  longest_word_length: 2
  second_longest_word_length: 1
  require_adjacency: true
  required_suffix_last_letter: "c"
  required_suffix_punctuation: ["!"]
  forbidden_vocabulary: ["zzz"]
  punctuation_alphabet: ["!"]
`)
	profiles, err := Load(data)
	require.NoError(t, err)
	require.Contains(t, profiles, "c1663")

	p := profiles["c1663"]
	assert.Equal(t, "c1663", p.Name)
	assert.Equal(t, 3, p.Bank().Size())
	assert.True(t, p.IsForbidden("zzz"))
	assert.False(t, p.IsForbidden("abc"))
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load([]byte("not: [valid"))
	assert.Error(t, err)
}

func TestProfilesRegistryContainsC1663(t *testing.T) {
	p, ok := Profiles["c1663"]
	require.True(t, ok)
	assert.Same(t, C1663, p)
}
