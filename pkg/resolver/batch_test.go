package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveManyDeduplicates(t *testing.T) {
	aliases := NewAliasTable()
	aliases.Add("cs2", AliasEntry{Alias: "FaZe", CanonicalName: "FaZe Clan", CanonicalID: "123"})
	live := &stubLive{}

	r := New(aliases, nil, nil, live)
	got := r.ResolveMany(context.Background(), []string{"FaZe", "faze", " FaZe "}, "cs2")

	require.Len(t, got, 3)
	first := got["FaZe"]
	require.NotNil(t, first)
	assert.Same(t, first, got["faze"])
	assert.Same(t, first, got[" FaZe "])
	assert.Equal(t, "123", first.CanonicalID)
	assert.Zero(t, live.calls.Load())
}

func TestResolveManyDeduplicatesTierCalls(t *testing.T) {
	live := &stubLive{records: []TeamRecord{{ID: "7", Name: "Monte"}}}
	r := New(nil, nil, nil, live)

	got := r.ResolveMany(context.Background(), []string{"Monte", "MONTE", "monte "}, "cs2")

	require.Len(t, got, 3)
	assert.Equal(t, int64(1), live.calls.Load(), "one resolution per distinct normalized name")
}

func TestResolveManyMixedResults(t *testing.T) {
	live := &stubLive{}
	aliases := NewAliasTable()
	aliases.Add("cs2", AliasEntry{Alias: "navi", CanonicalName: "Natus Vincere", CanonicalID: "1"})

	r := New(aliases, nil, nil, live)
	got := r.ResolveMany(context.Background(), []string{"NaVi", "Totally Unknown"}, "cs2")

	require.Len(t, got, 2)
	require.NotNil(t, got["NaVi"])
	assert.Equal(t, "1", got["NaVi"].CanonicalID)
	assert.Nil(t, got["Totally Unknown"])
}

func TestResolveManyEmptyInputs(t *testing.T) {
	r := New(nil, nil, nil, nil)

	got := r.ResolveMany(context.Background(), []string{"", "  "}, "cs2")
	assert.Len(t, got, 2)
	assert.Nil(t, got[""])
	assert.Nil(t, got["  "])

	assert.Empty(t, r.ResolveMany(context.Background(), nil, "cs2"))
}
