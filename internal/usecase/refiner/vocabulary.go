package refiner

import "regexp"

// Vocabulary holds the language/domain-specific signal lists driving
// conflict detection. It is a replaceable policy, not a fixed algorithm;
// the defaults cover Brazilian legal Portuguese plus common English terms.
type Vocabulary struct {
	Negations []string
	Positive  []string
	Negative  []string
}

// DefaultVocabulary returns the built-in signal lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Negations: []string{
			"não", "nao", "vedado", "vedada", "proibido", "proibida",
			"ilícito", "ilicito", "inadmissível", "inadmissivel",
			"not", "prohibited", "forbidden", "unlawful",
		},
		Positive: []string{
			"procedente", "constitucional", "lícito", "licito", "válido", "valido",
			"admissível", "admissivel", "permitido", "cabível", "cabivel", "deferido",
			"lawful", "valid", "permitted", "granted",
		},
		Negative: []string{
			"improcedente", "inconstitucional", "ilícito", "ilicito",
			"inválido", "invalido", "inadmissível", "inadmissivel",
			"incabível", "incabivel", "indeferido", "nulo", "nula",
			"unlawful", "invalid", "denied", "void",
		},
	}
}

// referenceTokenRe recognizes legal reference tokens (articles, súmulas,
// statutes, case numbers) shared between texts asserting conclusions.
var referenceTokenRe = regexp.MustCompile(
	`(?i)(\bart(?:igo)?s?\.?\s*\d+[ºª°]?|\bs[úu]mula\s+\d+|\b(?:lei|decreto)\s*n?[º°.]?\s*[\d.]+|\d{7}-\d{2}\.\d{4}\.\d\.\d{2}\.\d{4})`,
)
