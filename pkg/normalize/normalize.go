// Package normalize provides the canonical team-name normalization shared by
// every resolution tier. All "is this the same team" comparisons in the
// repository go through this package; no tier folds strings on its own.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// defaultNoise lists generic organization words that carry no team identity.
// "Complexity Gaming" and "Complexity" are the same organization; "Team
// Liquid" keeps only "liquid".
var defaultNoise = []string{
	"team", "gaming", "esports", "esport", "clan", "club", "org",
}

// deaccent strips combining marks after NFD decomposition, so "Virtus.prö"
// folds the same as "Virtus.pro".
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalizer folds team names into a comparable form. The zero value is not
// usable; construct with New.
type Normalizer struct {
	noise map[string]struct{}
}

// New creates a Normalizer. Additional noise words extend the default set of
// generic organization words stripped during normalization.
func New(extraNoise ...string) *Normalizer {
	n := &Normalizer{noise: make(map[string]struct{}, len(defaultNoise)+len(extraNoise))}
	for _, w := range defaultNoise {
		n.noise[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range extraNoise {
		n.noise[strings.ToLower(w)] = struct{}{}
	}
	return n
}

// Default is the normalizer used by the package-level functions.
var Default = New()

// Normalize folds a team name: lowercase, accents removed, punctuation
// dropped, generic organization words stripped, whitespace collapsed.
// Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(name string) string { return Default.Normalize(name) }

// Fold is Normalize without the noise-word stripping. The fuzzy index keys
// its exact-match table on folds so that "complexity" vs "complexity gaming"
// still registers as a near miss rather than an identical string.
func Fold(name string) string { return Default.Fold(name) }

// Normalize folds a team name into its comparable form.
func (n *Normalizer) Normalize(name string) string {
	tokens := strings.Fields(n.Fold(name))
	kept := tokens[:0]
	for _, tok := range tokens {
		if _, skip := n.noise[tok]; !skip {
			kept = append(kept, tok)
		}
	}
	// A name made entirely of noise words ("Team", "The Org") keeps its
	// tokens; stripping to nothing would collide every such name.
	if len(kept) == 0 {
		return strings.Join(tokens, " ")
	}
	return strings.Join(kept, " ")
}

// Fold lowercases, de-accents, replaces punctuation with spaces, and
// collapses whitespace without dropping any words.
func (n *Normalizer) Fold(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if folded, _, err := transform.String(deaccent, name); err == nil {
		name = folded
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
