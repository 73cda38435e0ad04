package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddslab/teamresolve/pkg/normalize"
)

func testIndex() *FuzzyIndex {
	return NewFuzzyIndex(
		TeamRecord{ID: "789", Name: "Complexity Gaming"},
		TeamRecord{ID: "3210", Name: "Natus Vincere"},
		TeamRecord{ID: "3211", Name: "Team Liquid"},
		TeamRecord{ID: "3220", Name: "G2 Esports"},
		TeamRecord{ID: "3300", Name: "Eternal Fire"},
	)
}

func TestFuzzyIndexExactFold(t *testing.T) {
	ix := testIndex()
	got := ix.Search(normalize.Normalize("Natus Vincere"), 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "3210", got[0].Record.ID)
	assert.Zero(t, got[0].Distance)
}

func TestFuzzyIndexNoiseStrippedMatchIsHighNotExact(t *testing.T) {
	ix := testIndex()
	got := ix.Search(normalize.Normalize("Complexity"), 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "789", got[0].Record.ID)
	assert.Greater(t, got[0].Distance, 0.0)
	assert.Less(t, got[0].Distance, distHigh)
}

func TestFuzzyIndexTokenSubset(t *testing.T) {
	ix := testIndex()
	got := ix.Search("eternal", 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "3300", got[0].Record.ID)
	assert.Less(t, got[0].Distance, distHigh)
}

func TestFuzzyIndexTypo(t *testing.T) {
	ix := testIndex()
	got := ix.Search("natus vincre", 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "3210", got[0].Record.ID)
	assert.Less(t, got[0].Distance, distMedium)
}

func TestFuzzyIndexRanking(t *testing.T) {
	ix := testIndex()
	got := ix.Search("liquid", 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "3211", got[0].Record.ID)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i].Distance, got[i-1].Distance)
	}
}

func TestFuzzyIndexEmptyAndLimit(t *testing.T) {
	ix := testIndex()
	assert.Nil(t, ix.Search("", 5))
	assert.Nil(t, ix.Search("liquid", 0))

	empty := NewFuzzyIndex()
	assert.Zero(t, empty.Size())
	assert.Empty(t, empty.Search("liquid", 5))
}

func TestFuzzyIndexReload(t *testing.T) {
	ix := NewFuzzyIndex(TeamRecord{ID: "1", Name: "Old Guard"})
	require.Equal(t, 1, ix.Size())

	ix.Load([]TeamRecord{
		{ID: "2", Name: "New Wave"},
		{ID: "3", Name: "Second Wind"},
	})
	assert.Equal(t, 2, ix.Size())
	for _, cand := range ix.Search("old guard", 5) {
		assert.NotEqual(t, "1", cand.Record.ID, "old snapshot should be gone")
	}
	got := ix.Search("new wave", 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "2", got[0].Record.ID)
}

func TestNormalizedLevenshtein(t *testing.T) {
	assert.Zero(t, normalizedLevenshtein("faze", "faze"))
	assert.Equal(t, 1.0, normalizedLevenshtein("", "abcd"))
	assert.InDelta(t, 0.25, normalizedLevenshtein("faze", "fize"), 1e-9)
}
