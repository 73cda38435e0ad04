package resolver

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore counts calls so tests can assert which tiers actually ran.
type stubStore struct {
	count       int
	countErr    error
	candidates  []StoreCandidate
	searchErr   error
	countCalls  atomic.Int64
	searchCalls atomic.Int64
}

func (s *stubStore) RecordCount(ctx context.Context) (int, error) {
	s.countCalls.Add(1)
	return s.count, s.countErr
}

func (s *stubStore) SearchByTrigram(ctx context.Context, query string, limit int) ([]StoreCandidate, error) {
	s.searchCalls.Add(1)
	return s.candidates, s.searchErr
}

type stubLive struct {
	records []TeamRecord
	err     error
	calls   atomic.Int64
}

func (s *stubLive) SearchTeamsByName(ctx context.Context, name string) ([]TeamRecord, error) {
	s.calls.Add(1)
	return s.records, s.err
}

func TestResolveAliasHit(t *testing.T) {
	aliases := NewAliasTable()
	aliases.Add("cs2", AliasEntry{Alias: "faze clan", CanonicalName: "FaZe Clan", CanonicalID: "123"})

	r := New(aliases, nil, nil, nil)
	res := r.Resolve(context.Background(), "FaZe Clan", "cs2")

	require.NotNil(t, res)
	assert.Equal(t, "123", res.CanonicalID)
	assert.Equal(t, "FaZe Clan", res.CanonicalName)
	assert.Equal(t, "FaZe Clan", res.QueryName)
	assert.Equal(t, ConfidenceExact, res.Confidence)
	assert.Equal(t, SourceAlias, res.Source)
}

func TestTierPrecedenceAliasWins(t *testing.T) {
	aliases := NewAliasTable()
	aliases.Add("cs2", AliasEntry{Alias: "navi", CanonicalName: "Natus Vincere", CanonicalID: "alias-id"})

	// Every later tier would return a different, perfectly-scored team.
	store := &stubStore{count: 100, candidates: []StoreCandidate{{ID: "store-id", Name: "Navi Imposters", Similarity: 1.0}}}
	index := NewFuzzyIndex(TeamRecord{ID: "index-id", Name: "NaVi"})
	live := &stubLive{records: []TeamRecord{{ID: "live-id", Name: "NaVi"}}}

	r := New(aliases, index, store, live)
	res := r.Resolve(context.Background(), "NaVi", "cs2")

	require.NotNil(t, res)
	assert.Equal(t, SourceAlias, res.Source)
	assert.Equal(t, "alias-id", res.CanonicalID)
	assert.Zero(t, store.searchCalls.Load(), "store should not be consulted after an alias hit")
	assert.Zero(t, live.calls.Load())
}

func TestResolveStoreConfidences(t *testing.T) {
	cases := []struct {
		similarity float64
		want       Confidence
	}{
		{1.0, ConfidenceExact},
		{0.8, ConfidenceHigh},
		{0.6, ConfidenceMedium},
	}
	for _, tc := range cases {
		store := &stubStore{count: 10, candidates: []StoreCandidate{{ID: "42", Name: "Heroic", Similarity: tc.similarity}}}
		r := New(nil, nil, store, nil)
		res := r.Resolve(context.Background(), "Heroic", "cs2")
		require.NotNil(t, res, "similarity %v", tc.similarity)
		assert.Equal(t, tc.want, res.Confidence)
		assert.Equal(t, SourceStore, res.Source)
		assert.Equal(t, tc.similarity, res.RawScore)
	}
}

func TestResolveStoreLowDiscardedFallsToIndex(t *testing.T) {
	store := &stubStore{count: 10, candidates: []StoreCandidate{{ID: "bad", Name: "Wrong Team", Similarity: 0.3}}}
	index := NewFuzzyIndex(TeamRecord{ID: "789", Name: "Complexity Gaming"})

	r := New(nil, index, store, nil)
	res := r.Resolve(context.Background(), "Complexity", "cs2")

	require.NotNil(t, res)
	assert.Equal(t, SourceIndex, res.Source)
	assert.Equal(t, "789", res.CanonicalID)
	assert.Equal(t, int64(1), store.searchCalls.Load())
}

func TestResolveEmptyStoreSkipsSearch(t *testing.T) {
	store := &stubStore{count: 0}
	index := NewFuzzyIndex(TeamRecord{ID: "789", Name: "Complexity Gaming"})

	r := New(nil, index, store, nil)
	res := r.Resolve(context.Background(), "Complexity", "cs2")

	require.NotNil(t, res)
	assert.Equal(t, SourceIndex, res.Source)
	assert.Equal(t, "789", res.CanonicalID)
	assert.Equal(t, ConfidenceHigh, res.Confidence)
	assert.Zero(t, store.searchCalls.Load(), "empty store must not be searched")
}

func TestResolveStoreErrorIsTierMiss(t *testing.T) {
	store := &stubStore{count: 10, searchErr: errors.New("connection refused")}
	index := NewFuzzyIndex(TeamRecord{ID: "3210", Name: "Natus Vincere"})

	r := New(nil, index, store, nil)
	res := r.Resolve(context.Background(), "Natus Vincere", "cs2")

	require.NotNil(t, res)
	assert.Equal(t, SourceIndex, res.Source)
}

func TestResolveLiveFallback(t *testing.T) {
	store := &stubStore{count: 0}
	live := &stubLive{records: []TeamRecord{{ID: "api-123", Name: "API Found Team"}}}

	r := New(nil, NewFuzzyIndex(), store, live)
	res := r.Resolve(context.Background(), "Unknown Team", "cs2")

	require.NotNil(t, res)
	assert.Equal(t, "api-123", res.CanonicalID)
	assert.Equal(t, ConfidenceLow, res.Confidence)
	assert.Equal(t, SourceLive, res.Source)
}

func TestResolveLiveExactWhenNormalizedEqual(t *testing.T) {
	live := &stubLive{records: []TeamRecord{{ID: "555", Name: "Eternal Fire"}}}

	r := New(nil, nil, nil, live)
	res := r.Resolve(context.Background(), "eternal fire", "cs2")

	require.NotNil(t, res)
	assert.Equal(t, ConfidenceExact, res.Confidence)
	assert.Equal(t, SourceLive, res.Source)
}

func TestResolveLiveErrorDegradesToUnresolved(t *testing.T) {
	live := &stubLive{err: errors.New("upstream down")}

	r := New(nil, nil, nil, live)
	assert.Nil(t, r.Resolve(context.Background(), "Whoever", "cs2"))
}

func TestResolveTrueMissIsNegativeCached(t *testing.T) {
	store := &stubStore{count: 10}
	live := &stubLive{}
	r := New(nil, NewFuzzyIndex(), store, live)

	assert.Nil(t, r.Resolve(context.Background(), "Completely Unknown XYZ", "cs2"))
	storeCalls := store.searchCalls.Load()
	liveCalls := live.calls.Load()

	assert.Nil(t, r.Resolve(context.Background(), "Completely Unknown XYZ", "cs2"))
	assert.Equal(t, storeCalls, store.searchCalls.Load(), "second miss must be served from cache")
	assert.Equal(t, liveCalls, live.calls.Load())
}

func TestResolvePositiveResultCached(t *testing.T) {
	live := &stubLive{records: []TeamRecord{{ID: "9", Name: "Spirit Academy"}}}
	r := New(nil, nil, nil, live)

	first := r.Resolve(context.Background(), "Spirit Academy", "cs2")
	second := r.Resolve(context.Background(), "Spirit Academy", "cs2")

	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.Equal(t, int64(1), live.calls.Load())
}

func TestResolveEmptyInput(t *testing.T) {
	store := &stubStore{count: 10}
	r := New(nil, nil, store, nil)

	assert.Nil(t, r.Resolve(context.Background(), "", "cs2"))
	assert.Nil(t, r.Resolve(context.Background(), "   ", "cs2"))
	assert.Zero(t, store.countCalls.Load(), "no tier may run for empty input")
}

func TestResolveCacheKeyIncludesGame(t *testing.T) {
	aliases := NewAliasTable()
	aliases.Add("cs2", AliasEntry{Alias: "navi", CanonicalName: "Natus Vincere", CanonicalID: "1"})

	r := New(aliases, nil, nil, nil)
	require.NotNil(t, r.Resolve(context.Background(), "NaVi", "cs2"))
	assert.Nil(t, r.Resolve(context.Background(), "NaVi", "dota2"), "per-game alias must not leak across games")
}
