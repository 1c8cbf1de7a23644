package memory

import (
	"sort"
	"strings"
)

// stopwords covers Portuguese and English function words that carry no
// retrieval signal. Keyword similarity is intentionally cheap: token sets,
// not embeddings.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "o", "as", "os", "um", "uma", "uns", "umas",
		"de", "do", "da", "dos", "das", "em", "no", "na", "nos", "nas",
		"por", "pelo", "pela", "pelos", "pelas", "para", "com", "sem",
		"que", "qual", "quais", "quando", "onde", "como", "quem",
		"e", "ou", "mas", "se", "ao", "aos", "à", "às",
		"é", "são", "foi", "ser", "está", "estão", "há", "ter", "tem",
		"sobre", "entre", "até", "desde", "este", "esta", "isso", "esse",
		"essa", "aquele", "aquela", "seu", "sua", "seus", "suas", "me",
		"não", "sim", "já", "mais", "menos", "muito", "pode", "deve",
		"the", "a", "an", "of", "in", "on", "at", "to", "for", "with",
		"and", "or", "but", "is", "are", "was", "were", "be", "been",
		"what", "which", "when", "where", "how", "who", "that", "this",
		"can", "could", "should", "would", "do", "does", "did", "it",
	} {
		stopwords[w] = struct{}{}
	}
}

// ExtractKeywords tokenizes the query, drops stopwords and short tokens,
// and returns the sorted unique keyword set.
func ExtractKeywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !isWordRune(r)
	})

	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// jaccard is |A∩B| / |A∪B| over keyword sets. Two empty sets score zero,
// not one: an empty query must never recall anything.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, k := range a {
		set[k] = struct{}{}
	}

	inter := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, k := range b {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := set[k]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r >= 'à' && r <= 'ÿ':
		return true
	}
	return false
}
