package category

// Category is a semantic query class driving sparse/dense weighting.
type Category string

// Closed category set. Classification never returns anything outside it.
const (
	NormCitation  Category = "norm_citation"
	CaseLaw       Category = "case_law"
	Argumentative Category = "argumentative"
	Conceptual    Category = "conceptual"
	Procedural    Category = "procedural"
	Factual       Category = "factual"
	General       Category = "general"
)

// All lists every valid category.
func All() []Category {
	return []Category{
		NormCitation, CaseLaw, Argumentative, Conceptual, Procedural, Factual, General,
	}
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	for _, v := range All() {
		if c == v {
			return true
		}
	}
	return false
}

// Weights is a sparse/dense weight pair. Sparse+Dense is always 1.0.
type Weights struct {
	Sparse float64
	Dense  float64
}

// weightTable is calibrated so identifier-like categories are sparse-dominant
// and conceptual/argumentative categories are dense-dominant. General is the
// exact neutral pair.
var weightTable = map[Category]Weights{
	NormCitation:  {Sparse: 0.85, Dense: 0.15},
	CaseLaw:       {Sparse: 0.75, Dense: 0.25},
	Factual:       {Sparse: 0.60, Dense: 0.40},
	Procedural:    {Sparse: 0.55, Dense: 0.45},
	Conceptual:    {Sparse: 0.30, Dense: 0.70},
	Argumentative: {Sparse: 0.35, Dense: 0.65},
	General:       {Sparse: 0.5, Dense: 0.5},
}

// WeightsFor returns the calibrated weight pair for a category. Unknown
// categories get the neutral pair.
func WeightsFor(c Category) Weights {
	if w, ok := weightTable[c]; ok {
		return w
	}
	return weightTable[General]
}
