package classify

import (
	"regexp"

	"github.com/legalmind/lexrag/internal/domain/category"
)

// High-precision identifier patterns. A match here settles classification
// without touching the model. Formats follow Brazilian legal writing: CNJ
// case numbers, article/paragraph citations, statute numbers, súmulas.
var fastPathPatterns = []struct {
	re  *regexp.Regexp
	cat category.Category
}{
	// CNJ unified case number: 0000000-00.0000.0.00.0000
	{regexp.MustCompile(`\b\d{7}-\d{2}\.\d{4}\.\d\.\d{2}\.\d{4}\b`), category.CaseLaw},
	// Súmula (vinculante or numbered) of a court
	{regexp.MustCompile(`(?i)\bs[úu]mula\s+(vinculante\s+)?(n[º°.]?\s*)?\d+`), category.CaseLaw},
	// Recurso/agravo/habeas references: RE 123456, REsp 1.234.567, HC 98765
	{regexp.MustCompile(`(?i)\b(RE|REsp|AREsp|HC|MS|ADI|ADPF|AgRg)\s*n?[º°.]?\s*[\d.]{3,}\b`), category.CaseLaw},
	// Article citation: art. 5º, artigo 37, art 121 §2º
	{regexp.MustCompile(`(?i)\bart(igo)?s?\.?\s*\d+[ºª°]?`), category.NormCitation},
	// Statute number: Lei 8.666/93, Lei nº 13.105, LC 123
	{regexp.MustCompile(`(?i)\b(lei|decreto|LC|MP|EC)\s*(complementar\s+)?n?[º°.]?\s*[\d.]+([/-]\d{2,4})?\b`), category.NormCitation},
	// Paragraph/inciso citation: § 1º, inciso IV, inc. II
	{regexp.MustCompile(`(?i)(§\s*\d+|inciso\s+[ivxlc]+|inc\.\s*[ivxlc]+)`), category.NormCitation},
	// Named codes and the constitution
	{regexp.MustCompile(`(?i)\b(constitui[çc][ãa]o\s+federal|CF/?\d{2,4}|c[óo]digo\s+(civil|penal|tribut[áa]rio)|CPC|CLT|CTN|CDC)\b`), category.NormCitation},
}

// matchFastPath returns the category of the first matching identifier
// pattern, if any.
func matchFastPath(query string) (category.Category, bool) {
	for _, p := range fastPathPatterns {
		if p.re.MatchString(query) {
			return p.cat, true
		}
	}
	return "", false
}
