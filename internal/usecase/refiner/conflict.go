package refiner

import (
	"strings"
	"unicode"
)

// signals are the lowered-text markers extracted once per chunk so pair
// checks stay cheap.
type signals struct {
	negations map[string]struct{}
	refs      map[string]struct{}
	positive  bool
	negative  bool
}

func (s *Service) extractSignals(text string) signals {
	lower := strings.ToLower(text)

	// Whole-word matching against a token set, so punctuation-adjacent
	// occurrences ("vedado," or "não.") still register.
	words := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(lower, notWordRune) {
		words[w] = struct{}{}
	}

	sig := signals{
		negations: make(map[string]struct{}),
		refs:      make(map[string]struct{}),
	}
	for _, n := range s.vocab.Negations {
		if _, ok := words[n]; ok {
			sig.negations[n] = struct{}{}
		}
	}
	for _, p := range s.vocab.Positive {
		if _, ok := words[p]; ok {
			sig.positive = true
			break
		}
	}
	for _, n := range s.vocab.Negative {
		if _, ok := words[n]; ok {
			sig.negative = true
			break
		}
	}
	for _, ref := range referenceTokenRe.FindAllString(lower, -1) {
		sig.refs[normalizeRef(ref)] = struct{}{}
	}
	return sig
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

// conflictSignals reports whether two chunks contradict each other and
// which textual signals triggered detection. The check is symmetric:
// conflictSignals(a,b) and conflictSignals(b,a) agree.
func conflictSignals(a, b signals) []string {
	var out []string

	// (i) one text carries a negation/prohibition marker the other lacks.
	if onlyIn(a.negations, b.negations) || onlyIn(b.negations, a.negations) {
		out = append(out, "negation_asymmetry")
	}

	// (ii) shared reference token with opposite verdict vocabulary.
	if shared := sharedRef(a.refs, b.refs); shared != "" {
		opposite := (a.positive && !a.negative && b.negative && !b.positive) ||
			(b.positive && !b.negative && a.negative && !a.positive)
		if opposite {
			out = append(out, "opposing_verdict:"+shared)
		}
	}

	return out
}

func onlyIn(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; !ok {
			return true
		}
	}
	return false
}

func sharedRef(a, b map[string]struct{}) string {
	best := ""
	for k := range a {
		if _, ok := b[k]; ok {
			// Deterministic pick regardless of map order.
			if best == "" || k < best {
				best = k
			}
		}
	}
	return best
}

func normalizeRef(ref string) string {
	return strings.Join(strings.Fields(strings.ToLower(ref)), " ")
}
