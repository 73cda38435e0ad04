package resolver

import "github.com/oddslab/teamresolve/pkg/normalize"

// AliasTable is the Tier 1 curated mapping from known-tricky spellings to
// canonical records. Lookups are exact on normalized keys; this tier exists
// to bypass fuzziness for cases fuzziness gets wrong ("NaVi" is nowhere near
// "Natus Vincere" by edit distance).
//
// The table is loaded once at startup and never mutated afterwards; it is
// safe for concurrent readers.
type AliasTable struct {
	games map[string]map[string]AliasEntry
}

// NewAliasTable creates an empty alias table.
func NewAliasTable() *AliasTable {
	return &AliasTable{games: make(map[string]map[string]AliasEntry)}
}

// Add registers curated entries for a game. Keys are normalized here, at
// load time, so lookups stay a single map read.
func (t *AliasTable) Add(game string, entries ...AliasEntry) {
	m := t.games[game]
	if m == nil {
		m = make(map[string]AliasEntry, len(entries))
		t.games[game] = m
	}
	for _, e := range entries {
		m[normalize.Normalize(e.Alias)] = e
	}
}

// Lookup returns the entry for an already-normalized name. Games without a
// curated table always miss.
func (t *AliasTable) Lookup(game, normalized string) (AliasEntry, bool) {
	e, ok := t.games[game][normalized]
	return e, ok
}

// Len reports the number of entries across all games.
func (t *AliasTable) Len() int {
	n := 0
	for _, m := range t.games {
		n += len(m)
	}
	return n
}

// DefaultAliasTable returns the hand-curated table. Coverage is currently
// CS2 only; other games construct empty tables and fall straight through to
// the search tiers.
func DefaultAliasTable() *AliasTable {
	t := NewAliasTable()
	t.Add("cs2",
		AliasEntry{Alias: "NaVi", CanonicalName: "Natus Vincere", CanonicalID: "3210"},
		AliasEntry{Alias: "Natus Vincere", CanonicalName: "Natus Vincere", CanonicalID: "3210"},
		AliasEntry{Alias: "FaZe", CanonicalName: "FaZe Clan", CanonicalID: "3218"},
		AliasEntry{Alias: "FaZe Clan", CanonicalName: "FaZe Clan", CanonicalID: "3218"},
		AliasEntry{Alias: "NiP", CanonicalName: "Ninjas in Pyjamas", CanonicalID: "3212"},
		AliasEntry{Alias: "VP", CanonicalName: "Virtus.pro", CanonicalID: "3213"},
		AliasEntry{Alias: "Virtus pro", CanonicalName: "Virtus.pro", CanonicalID: "3213"},
		AliasEntry{Alias: "G2", CanonicalName: "G2 Esports", CanonicalID: "3220"},
		AliasEntry{Alias: "TL", CanonicalName: "Team Liquid", CanonicalID: "3211"},
		AliasEntry{Alias: "Liquid", CanonicalName: "Team Liquid", CanonicalID: "3211"},
		AliasEntry{Alias: "C9", CanonicalName: "Cloud9", CanonicalID: "3216"},
		AliasEntry{Alias: "mouse", CanonicalName: "MOUZ"},
		AliasEntry{Alias: "mousesports", CanonicalName: "MOUZ"},
		AliasEntry{Alias: "Spirit", CanonicalName: "Team Spirit"},
		AliasEntry{Alias: "EG", CanonicalName: "Evil Geniuses"},
		AliasEntry{Alias: "100T", CanonicalName: "100 Thieves"},
		AliasEntry{Alias: "Col", CanonicalName: "Complexity Gaming"},
		AliasEntry{Alias: "HEROIC", CanonicalName: "Heroic"},
		AliasEntry{Alias: "TheMongolz", CanonicalName: "The MongolZ"},
	)
	return t
}
