package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anagramist.db")
	require.NoError(t, Migrate(path))
	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec := NodeRecord{Sentence: "I am", Parent: "I", Score: -1.5, Cumulative: -3.0, MeanDescendant: -1.5, Visits: 1, Status: StatusOpen}
	require.NoError(t, s.Put(ctx, rec))

	got, ok, err := s.Get(ctx, "I am")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestGetMissingReturnsNotOK(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, ok, err := s.Get(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutUpsertsExistingSentence(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I", Parent: "", Score: 0, Cumulative: 0, Visits: 1, Status: StatusOpen}))
	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I", Parent: "", Score: 0, Cumulative: 0, Visits: 2, Status: StatusOpen}))

	got, ok, err := s.Get(ctx, "I")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.Visits)

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestChildrenOf(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I", Status: StatusOpen}))
	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I am", Parent: "I", Status: StatusOpen}))
	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I see", Parent: "I", Status: StatusOpen}))
	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I am here", Parent: "I am", Status: StatusOpen}))

	children, err := s.ChildrenOf(ctx, "I")
	require.NoError(t, err)
	assert.Len(t, children, 2)
}

func TestAllReturnsEveryNode(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I", Status: StatusOpen}))
	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I am", Parent: "I", Status: StatusOpen}))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTrimMarksRootAndDeletesDescendants(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I am", Parent: "I", Status: StatusOpen}))
	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I am here", Parent: "I am", Status: StatusOpen}))

	modified, deleted, err := s.Trim(ctx, "I am", StatusExcluded)
	require.NoError(t, err)
	assert.Equal(t, 1, modified)
	assert.Equal(t, 1, deleted)

	got, ok, err := s.Get(ctx, "I am")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusExcluded, got.Status)

	_, ok, err = s.Get(ctx, "I am here")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTrimOnMissingRootIsZeroZero(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	modified, deleted, err := s.Trim(ctx, "nope", StatusExcluded)
	require.NoError(t, err)
	assert.Equal(t, 0, modified)
	assert.Equal(t, 0, deleted)
}

func TestRolloutPersistsWholePathAtomically(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	path := []NodeRecord{
		{Sentence: "I", Status: StatusOpen, Visits: 1},
		{Sentence: "I am", Parent: "I", Status: StatusOpen, Visits: 1},
	}
	require.NoError(t, s.Rollout(ctx, path))

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestChildrenDemographicsCountsByStatus(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I a", Parent: "I", Status: StatusOpen}))
	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I b", Parent: "I", Status: StatusOpen}))
	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I c", Parent: "I", Status: StatusHardInvalid}))

	d, err := s.ChildrenDemographics(ctx, "I")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Total)
	assert.Equal(t, 2, d.Open)
	assert.Equal(t, 1, d.Invalid)
}

func TestSampleWeightedReturnsOnlyOpenNodesUnderPrefix(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I", Status: StatusOpen}))
	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I am", Parent: "I", Status: StatusOpen}))
	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I bad", Parent: "I", Status: StatusHardInvalid}))

	pool, err := s.SampleWeighted(ctx, "I")
	require.NoError(t, err)
	assert.Len(t, pool, 2)
}

func TestTopDescendantsOrdersByMeanDescendantDescending(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I a", Parent: "I", Status: StatusOpen, MeanDescendant: -5}))
	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I b", Parent: "I", Status: StatusOpen, MeanDescendant: -1}))
	require.NoError(t, s.Put(ctx, NodeRecord{Sentence: "I c", Parent: "I", Status: StatusHardInvalid, MeanDescendant: -0.1}))

	top, err := s.TopDescendants(ctx, "I", 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "I b", top[0].Sentence)
	assert.Equal(t, "I a", top[1].Sentence)
}
