// Package market extracts team-name strings from prediction-market
// questions and outcome labels. The extracted names are the resolver's raw
// input; no canonicalization happens here.
package market

import (
	"regexp"
	"strings"
)

// vsPatterns in the order they appear in market titles.
var vsPatterns = []string{" vs. ", " vs ", " v. ", " v "}

// beatPattern matches "Will X beat Y?" style questions.
var beatPattern = regexp.MustCompile(`(?i)^will\s+(.+?)\s+(?:beat|defeat)\s+(.+?)\??$`)

// datePattern truncates trailing schedule noise like "on 2026-03-14".
var datePattern = regexp.MustCompile(`\s+on\s+\d{4}-\d{2}-\d{2}.*$`)

// ExtractTeams pulls the two team names out of a market question or title.
// Recognized shapes:
//
//	"Natus Vincere vs. FaZe Clan: winner"
//	"Will G2 beat Vitality?"
//	"Team Spirit v MOUZ - map 1"
//
// Returns ok=false when the label does not look like a two-team market.
func ExtractTeams(label string) (home, away string, ok bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", "", false
	}

	if m := beatPattern.FindStringSubmatch(label); m != nil {
		home, away = CleanLabel(m[1]), CleanLabel(m[2])
		return home, away, home != "" && away != ""
	}

	for _, pat := range vsPatterns {
		idx := strings.Index(strings.ToLower(label), pat)
		if idx <= 0 {
			continue
		}
		home = CleanLabel(label[:idx])
		away = CleanLabel(label[idx+len(pat):])
		if home != "" && away != "" {
			return home, away, true
		}
	}

	return "", "", false
}

// ExtractWinCandidate pulls the single team from "Will X win ..." questions.
func ExtractWinCandidate(question string) (string, bool) {
	q := strings.TrimSpace(question)
	lower := strings.ToLower(q)
	if !strings.HasPrefix(lower, "will ") {
		return "", false
	}
	rest := q[len("will "):]
	idx := strings.Index(strings.ToLower(rest), " win")
	if idx <= 0 {
		return "", false
	}
	name := CleanLabel(rest[:idx])
	return name, name != ""
}

// CleanLabel strips the market-title residue around a team name: trailing
// punctuation, market qualifiers after ":" or "-", and schedule dates.
func CleanLabel(s string) string {
	s = strings.TrimSpace(s)
	s = datePattern.ReplaceAllString(s, "")

	for _, sep := range []string{":", " - ", " — "} {
		if idx := strings.Index(s, sep); idx > 0 {
			s = s[:idx]
		}
	}
	s = strings.TrimRight(s, "?!.,;: ")
	return strings.TrimSpace(s)
}
