package category

import (
	"math"
	"testing"
)

func TestWeightsFor_SumToOne(t *testing.T) {
	for _, c := range All() {
		w := WeightsFor(c)
		if sum := w.Sparse + w.Dense; math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("category %s: weights sum to %f, want 1.0", c, sum)
		}
	}
}

func TestWeightsFor_IdentifierCategoriesSparseDominant(t *testing.T) {
	for _, c := range []Category{NormCitation, CaseLaw} {
		w := WeightsFor(c)
		if w.Sparse <= w.Dense {
			t.Errorf("category %s: sparse %f should dominate dense %f", c, w.Sparse, w.Dense)
		}
	}
}

func TestWeightsFor_ConceptualCategoriesDenseDominant(t *testing.T) {
	for _, c := range []Category{Conceptual, Argumentative} {
		w := WeightsFor(c)
		if w.Dense <= w.Sparse {
			t.Errorf("category %s: dense %f should dominate sparse %f", c, w.Dense, w.Sparse)
		}
	}
}

func TestWeightsFor_UnknownCategory_Neutral(t *testing.T) {
	w := WeightsFor(Category("made_up"))
	if w.Sparse != 0.5 || w.Dense != 0.5 {
		t.Errorf("unknown category: got %+v, want neutral pair", w)
	}
}

func TestIsValid(t *testing.T) {
	for _, c := range All() {
		if !c.IsValid() {
			t.Errorf("category %s should be valid", c)
		}
	}
	if Category("nonsense").IsValid() {
		t.Error("nonsense should not be a valid category")
	}
	if Category("").IsValid() {
		t.Error("empty string should not be a valid category")
	}
}
