// Package resolver maps free-text team names from prediction-market outcome
// labels onto canonical statistics-provider records. Resolution walks four
// tiers in increasing cost order (curated aliases, the Postgres registry,
// an in-memory fuzzy index, the live provider API) behind a 24h cache.
package resolver

import "context"

// Confidence is the calibrated, cross-tier-comparable quality of a match.
// Raw tier scores never cross a tier boundary; only this enum does.
type Confidence string

const (
	ConfidenceExact  Confidence = "exact"
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Source identifies which tier produced a resolution.
type Source string

const (
	SourceAlias Source = "alias"
	SourceStore Source = "store"
	SourceIndex Source = "index"
	SourceLive  Source = "live"
)

// TeamRecord is one team as known to the statistics provider. Branding
// fields are carried for display only and never used for matching.
type TeamRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Acronym string `json:"acronym,omitempty"`
	LogoURL string `json:"logo_url,omitempty"`
}

// AliasEntry is one curated alias mapping. CanonicalID may be empty when the
// curator knows the organization's name but not the provider's internal id;
// such hits still resolve, with the id left for a secondary lookup by name.
type AliasEntry struct {
	Alias         string
	CanonicalName string
	CanonicalID   string
}

// ResolvedTeam is the resolver's output. Immutable once constructed; cached
// values are shared between callers and must not be modified.
//
// CanonicalID == "" means the name matched confidently but the provider id
// is unknown; identifier-dependent callers re-resolve the id by name rather
// than treating the result as a failure.
type ResolvedTeam struct {
	CanonicalID   string     `json:"canonical_id"`
	CanonicalName string     `json:"canonical_name"`
	QueryName     string     `json:"query_name"`
	Confidence    Confidence `json:"confidence"`
	Source        Source     `json:"source"`

	// RawScore is the producing tier's own score, kept for diagnostics.
	// Store similarity runs 0..1 higher-is-better; index distance runs
	// 0..1 lower-is-better. Never compare raw scores across tiers.
	RawScore float64 `json:"raw_score,omitempty"`
}

// StoreCandidate is one row from the authoritative registry's similarity
// search. Similarity is in [0,1], 1.0 meaning an identical string.
type StoreCandidate struct {
	ID         string
	Name       string
	Similarity float64
}

// StoreSearcher is the authoritative-registry boundary (Tier 2). RecordCount
// is probed first so an unpopulated store skips the tier without paying for
// a doomed search round trip.
type StoreSearcher interface {
	SearchByTrigram(ctx context.Context, query string, limit int) ([]StoreCandidate, error)
	RecordCount(ctx context.Context) (int, error)
}

// LiveSearcher is the statistics provider's remote search boundary (Tier 4).
// Implementations are expected to be internally resilient: paginated,
// rate-limited, and to return an empty slice rather than an error on total
// upstream failure.
type LiveSearcher interface {
	SearchTeamsByName(ctx context.Context, name string) ([]TeamRecord, error)
}
