package resolver

import (
	"sort"
	"strings"
	"sync"

	"github.com/oddslab/teamresolve/pkg/normalize"
)

// Index-distance constants. A fold-identical name is a perfect 0. A name
// that only differs by generic organization words ("Complexity" vs
// "Complexity Gaming") is near-certain but not identical, so it lands in the
// high band rather than exact; a token-subset match sits slightly worse.
const (
	strippedMatchDistance = 0.1
	tokenSubsetDistance   = 0.15
)

// IndexCandidate is one ranked result from the fuzzy index. Distance is in
// [0,1]: 0 is a perfect match, 1 is no meaningful overlap.
type IndexCandidate struct {
	Record   TeamRecord
	Distance float64
}

type indexedName struct {
	fold     string // normalize.Fold of the display name
	stripped string // normalize.Normalize of the display name
	tokens   []string
	record   TeamRecord
}

// FuzzyIndex is the Tier 3 safety net: approximate matching over a snapshot
// of canonical team names, held entirely in memory so it works when the
// authoritative store is empty or unreachable. Load swaps the snapshot
// under a write lock; searches take a read lock only.
type FuzzyIndex struct {
	mu      sync.RWMutex
	byFold  map[string]int
	entries []indexedName
}

// NewFuzzyIndex builds an index from an initial snapshot of records. The
// snapshot may be empty; Load can populate it later.
func NewFuzzyIndex(records ...TeamRecord) *FuzzyIndex {
	ix := &FuzzyIndex{}
	ix.Load(records)
	return ix
}

// Load replaces the index contents with a new snapshot.
func (ix *FuzzyIndex) Load(records []TeamRecord) {
	entries := make([]indexedName, 0, len(records))
	byFold := make(map[string]int, len(records))
	for _, rec := range records {
		fold := normalize.Fold(rec.Name)
		if fold == "" {
			continue
		}
		if _, dup := byFold[fold]; dup {
			continue
		}
		byFold[fold] = len(entries)
		entries = append(entries, indexedName{
			fold:     fold,
			stripped: normalize.Normalize(rec.Name),
			tokens:   strings.Fields(fold),
			record:   rec,
		})
	}

	ix.mu.Lock()
	ix.entries = entries
	ix.byFold = byFold
	ix.mu.Unlock()
}

// Size reports the number of indexed teams.
func (ix *FuzzyIndex) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Search ranks indexed teams against an already-normalized query, closest
// first, up to limit results. Candidates at distance 1 are excluded.
func (ix *FuzzyIndex) Search(normalized string, limit int) []IndexCandidate {
	normalized = strings.TrimSpace(normalized)
	if normalized == "" || limit <= 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	// Perfect fold match short-circuits the scan.
	if i, ok := ix.byFold[normalized]; ok {
		return []IndexCandidate{{Record: ix.entries[i].record, Distance: 0}}
	}

	queryTokens := strings.Fields(normalized)
	candidates := make([]IndexCandidate, 0, limit)
	for _, e := range ix.entries {
		d := e.distanceTo(normalized, queryTokens)
		if d >= 1 {
			continue
		}
		candidates = append(candidates, IndexCandidate{Record: e.record, Distance: d})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

func (e *indexedName) distanceTo(query string, queryTokens []string) float64 {
	if query == e.fold {
		return 0
	}
	if query == e.stripped {
		return strippedMatchDistance
	}
	if tokenSubset(queryTokens, e.tokens) || tokenSubset(e.tokens, queryTokens) {
		return tokenSubsetDistance
	}

	d := normalizedLevenshtein(query, e.fold)
	if ds := normalizedLevenshtein(query, e.stripped); ds < d {
		d = ds
	}
	return d
}

// tokenSubset reports whether every token of a appears in b.
func tokenSubset(a, b []string) bool {
	if len(a) == 0 || len(a) > len(b) {
		return false
	}
	for _, ta := range a {
		found := false
		for _, tb := range b {
			if ta == tb {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// normalizedLevenshtein is edit distance divided by the longer length,
// yielding [0,1] with 0 meaning identical.
func normalizedLevenshtein(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 0
	}
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return float64(levenshtein(ra, rb)) / float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
