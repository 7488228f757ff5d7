package vocab

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domino14/anagramist/internal/bank"
)

func TestNewDeduplicates(t *testing.T) {
	v := New([]string{"cat", "cat", "dog"})
	assert.Equal(t, 2, v.Len())
}

func TestContains(t *testing.T) {
	v := New([]string{"cat", "dog"})
	assert.True(t, v.Contains("cat"))
	assert.False(t, v.Contains("mouse"))
}

func TestLoadFoldsInPunctuation(t *testing.T) {
	v, err := Load(strings.NewReader("cat\ndog\n\n"), []string{":", ","})
	require.NoError(t, err)
	assert.True(t, v.Contains(":"))
	assert.True(t, v.Contains(","))
	assert.Equal(t, 4, v.Len())
}

func TestPlayableFiltersBySubsetAndIsDeterministic(t *testing.T) {
	v := New([]string{"cat", "at", "a", "dog"})
	bk := bank.FromString("cat")

	got := v.Playable(bk)
	var words []string
	for _, t := range got {
		words = append(words, string(t))
	}
	assert.Equal(t, []string{"cat", "at", "a"}, words)
}

func TestPlayableExcludesTokensNotInBank(t *testing.T) {
	v := New([]string{"dog"})
	bk := bank.FromString("cat")
	assert.Empty(t, v.Playable(bk))
}

func TestPlayableOrdersAnagramEquivalentTokensLexically(t *testing.T) {
	v := New([]string{"listen", "silent"})
	bk := bank.FromString("listen")
	got := v.Playable(bk)
	require.Len(t, got, 2)
	assert.Equal(t, "listen", string(got[0]))
	assert.Equal(t, "silent", string(got[1]))
}
