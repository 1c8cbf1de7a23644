package planner

import (
	"regexp"
	"strings"
)

// Heuristic decides whether a query is complex enough to decompose. The
// exact thresholds are empirical and deployment-tunable, not load-bearing
// logic.
type Heuristic struct {
	MinLength      int
	MaxSimpleWords int
}

// DefaultHeuristic returns the calibrated defaults.
func DefaultHeuristic() Heuristic {
	return Heuristic{MinLength: 25, MaxSimpleWords: 18}
}

// simpleCitationRe matches direct-citation queries that are answerable by
// lookup and must never be decomposed.
var simpleCitationRe = regexp.MustCompile(
	`(?i)^\s*(o\s+que\s+diz\s+)?(art(igo)?s?\.?\s*\d+|s[úu]mula\s+\d+|lei\s*n?[º°.]?\s*[\d.]+)[^?]*\??\s*$`,
)

// complexMarkersRe matches multi-conjunction, comparison, and multi-concept
// phrasing that indicates a decomposable question.
var complexMarkersRe = regexp.MustCompile(
	`(?i)\b(compare|comparar|versus|vs\.?|diferen[çc]a\s+entre|e\s+tamb[ée]m|bem\s+como|al[ée]m\s+de|enquanto|whereas|and\s+also|difference\s+between|in\s+light\s+of|à\s+luz\s+de)\b`,
)

// IsComplex applies the ordered rules: length floor, simple-citation
// exclusion, complexity markers, word-count threshold.
func (h Heuristic) IsComplex(query string) bool {
	if len(query) < h.MinLength {
		return false
	}
	if simpleCitationRe.MatchString(query) {
		return false
	}
	if complexMarkersRe.MatchString(query) {
		return true
	}
	return len(strings.Fields(query)) > h.MaxSimpleWords
}
